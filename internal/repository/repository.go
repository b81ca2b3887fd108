package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateReference = errors.New("duplicate reference")
)

// Store groups the repositories. Reads outside a lock see committed state.
// WithVenueLock and WithBookingLock run fn in a single transaction that holds
// the venue (or booking) write lock; fn's error rolls every write back.
type Store interface {
	Directory() DirectoryRepository
	Calendar() CalendarRepository
	Bookings() BookingRepository
	Payments() PaymentRepository

	WithVenueLock(ctx context.Context, venueID int64, fn func(Store) error) error
	WithBookingLock(ctx context.Context, bookingID int64, fn func(Store) error) error
}

// DirectoryRepository reads the users, venues and event types owned by other services.
type DirectoryRepository interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetVenue(ctx context.Context, id int64) (*domain.Venue, error)
	GetEventType(ctx context.Context, id int64) (*domain.EventType, error)
}

type CalendarRepository interface {
	ReplaceOperatingHours(ctx context.Context, venueID int64, hours []domain.OperatingHours) error
	ListOperatingHours(ctx context.Context, venueID int64) ([]domain.OperatingHours, error)
	GetOperatingHours(ctx context.Context, venueID int64, weekday int) (*domain.OperatingHours, error)

	CreateBlockedRange(ctx context.Context, b *domain.BlockedDateRange) error
	ListBlockedRanges(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.BlockedDateRange, error)

	CreateSlot(ctx context.Context, s *domain.AvailabilitySlot) error
	GetSlot(ctx context.Context, id int64) (*domain.AvailabilitySlot, error)
	UpdateSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) (*domain.AvailabilitySlot, error)
	ListSlots(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.AvailabilitySlot, error)
}

type BookingFilter struct {
	CustomerID int64
	VenueID    int64
	Status     domain.BookingStatus
	Limit      int
	Offset     int
}

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// ListLive returns PENDING and CONFIRMED bookings of a venue on date.
	ListLive(ctx context.Context, venueID int64, date domain.Date) ([]domain.Booking, error)
	List(ctx context.Context, f BookingFilter) ([]domain.Booking, error)
	// ListByStatusThrough returns bookings in status with event_date <= through.
	ListByStatusThrough(ctx context.Context, status domain.BookingStatus, through domain.Date) ([]domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	CountByStatus(ctx context.Context, venueID int64) (map[domain.BookingStatus]int, error)
	CompletedRevenue(ctx context.Context, venueID int64) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByTransaction(ctx context.Context, bookingID int64, transactionID string) (*domain.Payment, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error)
	MarkPaid(ctx context.Context, id int64, paidAt time.Time) (*domain.Payment, error)
}
