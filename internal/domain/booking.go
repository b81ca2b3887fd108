package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

// LiveBookingStatuses are the statuses that occupy venue time.
var LiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) Live() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type Booking struct {
	ID                 int64
	Reference          string
	CustomerID         int64
	VenueID            int64
	EventTypeID        int64
	EventDate          Date
	StartTime          TimeOfDay
	EndTime            TimeOfDay
	GuestCount         int
	EventTitle         string
	SpecialRequests    string
	BasePrice          int64
	AdditionalCharges  int64
	Discount           int64
	TotalAmount        int64
	Status             BookingStatus
	PaymentStatus      PaymentStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CancelledBy        *int64
	CancellationReason string
	CompletedAt        *time.Time
}

func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// EndsAt is the wall-clock end of the event in loc.
func (b *Booking) EndsAt(loc *time.Location) time.Time {
	return b.EventDate.In(loc).Add(b.EndTime.Duration())
}

// Quote is the pricing breakdown of a booking in minor units.
type Quote struct {
	BasePrice         int64
	AdditionalCharges int64
	Discount          int64
	TotalAmount       int64
}

// ErrPricingNotConfigured is returned by PriceBooking for venues with no rate.
var ErrPricingNotConfigured = fmt.Errorf("venue pricing not configured")

// PriceBooking charges the hourly rate for the booked minutes, rounded half up,
// or the daily rate when no hourly rate is set. The total is not floored.
func PriceBooking(v *Venue, r TimeRange, additional, discount int64) (Quote, error) {
	var base int64
	switch {
	case v.PricePerHourCents != nil:
		base = (*v.PricePerHourCents*int64(r.Minutes()) + 30) / 60
	case v.PricePerDayCents != nil:
		base = *v.PricePerDayCents
	default:
		return Quote{}, ErrPricingNotConfigured
	}
	return Quote{
		BasePrice:         base,
		AdditionalCharges: additional,
		Discount:          discount,
		TotalAmount:       base + additional - discount,
	}, nil
}
