package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleVenueOwner Role = "VENUE_OWNER"
	RoleAdmin      Role = "ADMIN"
)

// ParseRole accepts only the known roles, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleCustomer, RoleVenueOwner, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	ID       int64
	Role     Role
	Email    string
	IsActive bool
}

type Venue struct {
	ID                int64
	OwnerID           int64
	Name              string
	Capacity          int
	PricePerHourCents *int64
	PricePerDayCents  *int64
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (v *Venue) OwnedBy(userID int64) bool {
	return v != nil && v.OwnerID == userID
}

// Actor is the authenticated user an operation runs for.
type Actor struct {
	UserID int64
	Role   Role
}

// CanManage reports whether a may see a venue's bookings and revenue.
func (a Actor) CanManage(v *Venue) bool {
	return a.Role == RoleAdmin || v.OwnedBy(a.UserID)
}

// CanView reports whether a may read b: its customer, the venue owner or an admin.
func (a Actor) CanView(b *Booking, v *Venue) bool {
	return (b != nil && a.UserID != 0 && a.UserID == b.CustomerID) || a.CanManage(v)
}

type EventType struct {
	ID       int64
	Name     string
	IsActive bool
}
