package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
)

const (
	reasonAvailable    = "Venue is available for the requested time"
	reasonClosed       = "Venue is closed on this day"
	reasonOutsideHours = "Outside operating hours"
	reasonConflict     = "Time slot already booked"
	reasonBlocked      = "Date is blocked"
)

// Evaluate decides whether [r.Start, r.End) on date can be granted at venueID.
// Checks run in a fixed order: blocked dates, a closed weekday, operating
// hours, then occupied slots and live bookings. Pass the transactional store
// to evaluate under a venue lock.
func Evaluate(ctx context.Context, store repository.Store, venueID int64, date domain.Date, r domain.TimeRange) (domain.Verdict, error) {
	blocks, err := store.Calendar().ListBlockedRanges(ctx, venueID, date, date)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("list blocked ranges: %w", err)
	}
	for _, b := range blocks {
		if b.Covers(date) {
			reason := b.Reason
			if reason == "" {
				reason = reasonBlocked
			}
			id := b.ID
			return domain.Verdict{Status: domain.VerdictBlocked, Reason: reason, BlockID: &id}, nil
		}
	}

	hours, err := store.Calendar().GetOperatingHours(ctx, venueID, date.Weekday())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hours = nil
	case err != nil:
		return domain.Verdict{}, fmt.Errorf("get operating hours: %w", err)
	}
	if hours != nil {
		if hours.IsClosed {
			return domain.Verdict{Status: domain.VerdictClosed, Reason: reasonClosed, Hours: hours}, nil
		}
		if !r.Within(hours.OpenTime, hours.CloseTime) {
			return domain.Verdict{Status: domain.VerdictOutsideHours, Reason: reasonOutsideHours, Hours: hours}, nil
		}
	}

	occupants, err := Occupants(ctx, store, venueID, date, r)
	if err != nil {
		return domain.Verdict{}, err
	}
	if len(occupants) > 0 {
		return domain.Verdict{Status: domain.VerdictConflict, Reason: reasonConflict, Occupants: occupants}, nil
	}

	return domain.Verdict{Status: domain.VerdictAvailable, Reason: reasonAvailable, Hours: hours}, nil
}

// Occupants returns the BOOKED or MAINTENANCE slots and the live bookings
// that overlap r on date.
func Occupants(ctx context.Context, store repository.Store, venueID int64, date domain.Date, r domain.TimeRange) ([]domain.Occupant, error) {
	slots, err := store.Calendar().ListSlots(ctx, venueID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	bookings, err := store.Bookings().ListLive(ctx, venueID, date)
	if err != nil {
		return nil, fmt.Errorf("list live bookings: %w", err)
	}

	var occupants []domain.Occupant
	for _, s := range slots {
		if s.Status.Occupies() && s.Range().Overlaps(r) {
			occupants = append(occupants, slotOccupant(s))
		}
	}
	for _, b := range bookings {
		if b.Range().Overlaps(r) {
			occupants = append(occupants, bookingOccupant(b))
		}
	}
	return occupants, nil
}

func slotOccupant(s domain.AvailabilitySlot) domain.Occupant {
	return domain.Occupant{
		Kind:      domain.OccupantSlot,
		ID:        s.ID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    string(s.Status),
	}
}

func bookingOccupant(b domain.Booking) domain.Occupant {
	return domain.Occupant{
		Kind:      domain.OccupantBooking,
		ID:        b.ID,
		Reference: b.Reference,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
	}
}

// summarizeDay derives the day status from blocks, the weekday schedule and
// the day's explicit slots. Bookings are not consulted.
func summarizeDay(date domain.Date, blocks []domain.BlockedDateRange, hours map[int]domain.OperatingHours, slots []domain.AvailabilitySlot) domain.DaySummary {
	for _, b := range blocks {
		if b.Covers(date) {
			return domain.DaySummary{Date: date, Status: domain.DayBlocked, Reason: b.Reason}
		}
	}
	if h, ok := hours[date.Weekday()]; ok && h.IsClosed {
		return domain.DaySummary{Date: date, Status: domain.DayClosed, Reason: "Venue closed"}
	}

	total := len(slots)
	available := 0
	for _, s := range slots {
		if s.Status == domain.SlotStatusAvailable {
			available++
		}
	}

	day := domain.DaySummary{Date: date, AvailableSlots: available, TotalSlots: total}
	switch {
	case total == 0:
		day.Status, day.Reason, day.Unlimited = domain.DayAvailable, "No specific slots defined", true
	case available == 0:
		day.Status, day.Reason = domain.DayFullyBooked, "All slots booked"
	case available < total:
		day.Status, day.Reason = domain.DayPartiallyAvailable, "Some slots available"
	default:
		day.Status, day.Reason = domain.DayAvailable, "All slots available"
	}
	return day
}
