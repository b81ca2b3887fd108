package memstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s := New(WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	require.NoError(t, s.AddUser(ctx, domain.User{ID: 1, Role: domain.RoleVenueOwner, IsActive: true}))
	require.NoError(t, s.AddUser(ctx, domain.User{ID: 2, Role: domain.RoleCustomer, IsActive: true}))
	require.NoError(t, s.AddVenue(ctx, domain.Venue{ID: 10, OwnerID: 1, Name: "Hall", Capacity: 100, IsActive: true}))
	require.NoError(t, s.AddEventType(ctx, domain.EventType{ID: 20, Name: "Wedding", IsActive: true}))
	return s
}

func newBooking(ref string, date domain.Date, start, end int, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		Reference:     ref,
		CustomerID:    2,
		VenueID:       10,
		EventTypeID:   20,
		EventDate:     date,
		StartTime:     domain.NewTimeOfDay(start, 0),
		EndTime:       domain.NewTimeOfDay(end, 0),
		GuestCount:    50,
		TotalAmount:   10000,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func TestDirectory_Get(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	venue, err := s.Directory().GetVenue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Hall", venue.Name)
	assert.Equal(t, fixedNow, venue.CreatedAt)

	_, err = s.Directory().GetUser(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.Directory().GetEventType(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookings_CreateAssignsIDAboveSeed(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	b := newBooking("VB20251225AAAA0001", domain.NewDate(2025, 12, 25), 9, 12, domain.BookingStatusPending)
	require.NoError(t, s.Bookings().Create(ctx, b))
	assert.Greater(t, b.ID, int64(20))
	assert.Equal(t, fixedNow, b.CreatedAt)

	dup := newBooking("VB20251225AAAA0001", domain.NewDate(2025, 12, 26), 9, 12, domain.BookingStatusPending)
	assert.ErrorIs(t, s.Bookings().Create(ctx, dup), repository.ErrDuplicateReference)
}

func TestBookings_ListLiveSkipsDeadStatuses(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	day := domain.NewDate(2025, 12, 25)

	require.NoError(t, s.Bookings().Create(ctx, newBooking("A", day, 14, 16, domain.BookingStatusConfirmed)))
	require.NoError(t, s.Bookings().Create(ctx, newBooking("B", day, 9, 12, domain.BookingStatusPending)))
	require.NoError(t, s.Bookings().Create(ctx, newBooking("C", day, 12, 13, domain.BookingStatusCancelled)))
	require.NoError(t, s.Bookings().Create(ctx, newBooking("D", day.AddDays(1), 9, 12, domain.BookingStatusPending)))

	live, err := s.Bookings().ListLive(ctx, 10, day)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "B", live[0].Reference)
	assert.Equal(t, "A", live[1].Reference)
}

func TestBookings_ListFilterAndPage(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	day := domain.NewDate(2025, 12, 25)

	for i, ref := range []string{"A", "B", "C"} {
		require.NoError(t, s.Bookings().Create(ctx, newBooking(ref, day, 8+2*i, 9+2*i, domain.BookingStatusPending)))
	}

	page, err := s.Bookings().List(ctx, repository.BookingFilter{CustomerID: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "C", page[0].Reference)
	assert.Equal(t, "B", page[1].Reference)

	page, err = s.Bookings().List(ctx, repository.BookingFilter{CustomerID: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "A", page[0].Reference)

	page, err = s.Bookings().List(ctx, repository.BookingFilter{Status: domain.BookingStatusConfirmed})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestWithVenueLock_RollsBackOnError(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()
	day := domain.NewDate(2025, 12, 25)
	boom := errors.New("boom")

	err := s.WithVenueLock(ctx, 10, func(tx repository.Store) error {
		require.NoError(t, tx.Bookings().Create(ctx, newBooking("A", day, 9, 12, domain.BookingStatusPending)))

		// Writes are visible inside the transaction but not outside it.
		live, err := tx.Bookings().ListLive(ctx, 10, day)
		require.NoError(t, err)
		assert.Len(t, live, 1)

		outside, err := s.Bookings().ListLive(ctx, 10, day)
		require.NoError(t, err)
		assert.Empty(t, outside)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	live, err := s.Bookings().ListLive(ctx, 10, day)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestWithVenueLock_UnknownVenue(t *testing.T) {
	s := newSeededStore(t)
	called := false
	err := s.WithVenueLock(context.Background(), 999, func(repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, called)
}

func TestCalendar_ReplaceOperatingHours(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.Calendar().ReplaceOperatingHours(ctx, 10, []domain.OperatingHours{
		{DayOfWeek: 3, OpenTime: domain.NewTimeOfDay(9, 0), CloseTime: domain.NewTimeOfDay(22, 0)},
		{DayOfWeek: 0, IsClosed: true},
	}))
	hours, err := s.Calendar().ListOperatingHours(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.Equal(t, 0, hours[0].DayOfWeek)

	require.NoError(t, s.Calendar().ReplaceOperatingHours(ctx, 10, []domain.OperatingHours{{DayOfWeek: 5, IsClosed: true}}))
	_, err = s.Calendar().GetOperatingHours(ctx, 10, 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	h, err := s.Calendar().GetOperatingHours(ctx, 10, 5)
	require.NoError(t, err)
	assert.True(t, h.IsClosed)
}

func TestCalendar_BlocksAndSlots(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	block := &domain.BlockedDateRange{VenueID: 10, StartDate: domain.NewDate(2025, 12, 24), EndDate: domain.NewDate(2025, 12, 26), Reason: "Renovation", CreatedBy: 1}
	require.NoError(t, s.Calendar().CreateBlockedRange(ctx, block))

	blocks, err := s.Calendar().ListBlockedRanges(ctx, 10, domain.NewDate(2025, 12, 26), domain.NewDate(2025, 12, 31))
	require.NoError(t, err)
	assert.Len(t, blocks, 1)

	blocks, err = s.Calendar().ListBlockedRanges(ctx, 10, domain.NewDate(2025, 12, 27), domain.NewDate(2025, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, blocks)

	slot := &domain.AvailabilitySlot{VenueID: 10, Date: domain.NewDate(2025, 12, 28), StartTime: domain.NewTimeOfDay(9, 0), EndTime: domain.NewTimeOfDay(12, 0), Status: domain.SlotStatusAvailable}
	require.NoError(t, s.Calendar().CreateSlot(ctx, slot))

	updated, err := s.Calendar().UpdateSlotStatus(ctx, slot.ID, domain.SlotStatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotStatusMaintenance, updated.Status)

	slots, err := s.Calendar().ListSlots(ctx, 10, domain.NewDate(2025, 12, 28), domain.NewDate(2025, 12, 28))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, domain.SlotStatusMaintenance, slots[0].Status)

	_, err = s.Calendar().UpdateSlotStatus(ctx, 12345, domain.SlotStatusBooked)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPayments_TransactionUnique(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	b := newBooking("A", domain.NewDate(2025, 12, 25), 9, 12, domain.BookingStatusConfirmed)
	require.NoError(t, s.Bookings().Create(ctx, b))

	p := &domain.Payment{Reference: "PAY1", BookingID: b.ID, Amount: 500, Method: domain.PaymentMethodCard, Status: domain.PaymentStatusPending, TransactionID: "tx-1"}
	require.NoError(t, s.Payments().Create(ctx, p))

	dup := &domain.Payment{Reference: "PAY2", BookingID: b.ID, Amount: 500, Method: domain.PaymentMethodCard, Status: domain.PaymentStatusPending, TransactionID: "tx-1"}
	assert.ErrorIs(t, s.Payments().Create(ctx, dup), repository.ErrDuplicateReference)

	found, err := s.Payments().GetByTransaction(ctx, b.ID, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	paid, err := s.Payments().MarkPaid(ctx, p.ID, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - {id: 1, role: venue_owner, email: owner@example.com, is_active: true}
venues:
  - {id: 5, owner_id: 1, name: Loft, capacity: 40, price_per_hour_cents: 5000, is_active: true}
event_types:
  - {id: 7, name: Party, is_active: true}
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	s := New()
	require.NoError(t, s.Load(context.Background(), seed))

	venue, err := s.Directory().GetVenue(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, venue.PricePerHourCents)
	assert.Equal(t, int64(5000), *venue.PricePerHourCents)
	assert.Nil(t, venue.PricePerDayCents)

	user, err := s.Directory().GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVenueOwner, user.Role)
}
