package domain

type VerdictStatus string

const (
	VerdictAvailable    VerdictStatus = "AVAILABLE"
	VerdictBlocked      VerdictStatus = "BLOCKED"
	VerdictClosed       VerdictStatus = "CLOSED"
	VerdictOutsideHours VerdictStatus = "OUTSIDE_HOURS"
	VerdictConflict     VerdictStatus = "CONFLICT"
)

type OccupantKind string

const (
	OccupantSlot    OccupantKind = "slot"
	OccupantBooking OccupantKind = "booking"
)

// Occupant is a slot or live booking holding part of a day.
type Occupant struct {
	Kind      OccupantKind `json:"kind"`
	ID        int64        `json:"id"`
	Reference string       `json:"reference,omitempty"`
	StartTime TimeOfDay    `json:"start_time"`
	EndTime   TimeOfDay    `json:"end_time"`
	Status    string       `json:"status"`
}

// Verdict is the answer to an availability check.
type Verdict struct {
	Status    VerdictStatus   `json:"status"`
	Reason    string          `json:"reason"`
	Hours     *OperatingHours `json:"operating_hours,omitempty"`
	Occupants []Occupant      `json:"conflicts,omitempty"`
	BlockID   *int64          `json:"blocked_range_id,omitempty"`
}

func (v Verdict) Available() bool {
	return v.Status == VerdictAvailable
}

type DayStatus string

const (
	DayAvailable          DayStatus = "AVAILABLE"
	DayBlocked            DayStatus = "BLOCKED"
	DayClosed             DayStatus = "CLOSED"
	DayFullyBooked        DayStatus = "FULLY_BOOKED"
	DayPartiallyAvailable DayStatus = "PARTIALLY_AVAILABLE"
)

// DaySummary describes one calendar day. Unlimited is set when the day has no
// explicit slots; the slot counts are then meaningless.
type DaySummary struct {
	Date           Date      `json:"date"`
	Status         DayStatus `json:"status"`
	Reason         string    `json:"reason"`
	AvailableSlots int       `json:"available_slots"`
	TotalSlots     int       `json:"total_slots"`
	Unlimited      bool      `json:"unlimited"`
}

// Calendar holds one summary per day of [From, To], ascending.
type Calendar struct {
	VenueID int64        `json:"venue_id"`
	From    Date         `json:"start_date"`
	To      Date         `json:"end_date"`
	Days    []DaySummary `json:"days"`
}

// DayOccupancy lists the live bookings of a venue on one date.
type DayOccupancy struct {
	VenueID     int64      `json:"venue_id"`
	Date        Date       `json:"date"`
	IsAvailable bool       `json:"is_available"`
	Booked      []Occupant `json:"booked_slots"`
}
