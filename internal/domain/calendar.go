package domain

import (
	"fmt"
	"strings"
	"time"
)

// OperatingHours is one weekday of a venue schedule. A missing record means the
// venue is unconstrained on that weekday.
type OperatingHours struct {
	ID        int64     `json:"id,omitempty"`
	VenueID   int64     `json:"venue_id"`
	DayOfWeek int       `json:"day_of_week"`
	OpenTime  TimeOfDay `json:"open_time"`
	CloseTime TimeOfDay `json:"close_time"`
	IsClosed  bool      `json:"is_closed"`
}

// BlockedDateRange blocks every day in [StartDate, EndDate].
type BlockedDateRange struct {
	ID        int64     `json:"id"`
	VenueID   int64     `json:"venue_id"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	Reason    string    `json:"reason"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (b BlockedDateRange) Covers(d Date) bool {
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}

// Intersects reports whether the block shares at least one day with [from, to].
func (b BlockedDateRange) Intersects(from, to Date) bool {
	return !b.StartDate.After(to) && !b.EndDate.Before(from)
}

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "AVAILABLE"
	SlotStatusBooked      SlotStatus = "BOOKED"
	SlotStatusMaintenance SlotStatus = "MAINTENANCE"
)

func ParseSlotStatus(s string) (SlotStatus, error) {
	switch st := SlotStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case SlotStatusAvailable, SlotStatusBooked, SlotStatusMaintenance:
		return st, nil
	default:
		return "", fmt.Errorf("unknown slot status %q", s)
	}
}

// Occupies reports whether a slot in this status blocks new bookings.
func (s SlotStatus) Occupies() bool {
	return s == SlotStatusBooked || s == SlotStatusMaintenance
}

type AvailabilitySlot struct {
	ID        int64      `json:"id"`
	VenueID   int64      `json:"venue_id"`
	Date      Date       `json:"date"`
	StartTime TimeOfDay  `json:"start_time"`
	EndTime   TimeOfDay  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s AvailabilitySlot) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}
