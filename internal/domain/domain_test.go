package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange_Overlaps(t *testing.T) {
	nine, half, ten, halfTen, eleven := NewTimeOfDay(9, 0), NewTimeOfDay(9, 30), NewTimeOfDay(10, 0), NewTimeOfDay(10, 30), NewTimeOfDay(11, 0)

	testCases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"touching at boundary", TimeRange{nine, ten}, TimeRange{ten, eleven}, false},
		{"touching reversed", TimeRange{ten, eleven}, TimeRange{nine, ten}, false},
		{"partial overlap", TimeRange{nine, ten}, TimeRange{half, halfTen}, true},
		{"contained", TimeRange{nine, eleven}, TimeRange{half, ten}, true},
		{"containing", TimeRange{half, ten}, TimeRange{nine, eleven}, true},
		{"identical", TimeRange{nine, ten}, TimeRange{nine, ten}, true},
		{"disjoint", TimeRange{nine, half}, TimeRange{ten, eleven}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

// occupiesMinute is the oracle: a half-open range holds minute m when start <= m < end.
func occupiesMinute(r TimeRange, m int) bool {
	return int(r.Start) <= m && m < int(r.End)
}

func TestTimeRange_Overlaps_MatchesMinuteGrid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	randomRange := func() TimeRange {
		start := rng.IntN(24*4) * 15
		end := start + 15*(1+rng.IntN(8))
		if end > 24*60 {
			end = 24 * 60
		}
		return TimeRange{Start: TimeOfDay(start), End: TimeOfDay(end)}
	}

	for i := 0; i < 5000; i++ {
		a, b := randomRange(), randomRange()
		shared := false
		for m := 0; m < 24*60; m++ {
			if occupiesMinute(a, m) && occupiesMinute(b, m) {
				shared = true
				break
			}
		}
		require.Equal(t, shared, a.Overlaps(b), "a=%v-%v b=%v-%v", a.Start, a.End, b.Start, b.End)
	}
}

func TestDate_Weekday_MondayIsZero(t *testing.T) {
	assert.Equal(t, 0, NewDate(2025, time.December, 22).Weekday())
	assert.Equal(t, 3, NewDate(2025, time.December, 25).Weekday())
	assert.Equal(t, 6, NewDate(2025, time.December, 28).Weekday())
}

func TestParseTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 30), v)
	assert.Equal(t, "09:30", v.String())

	v, err = ParseTimeOfDay("24:00")
	require.NoError(t, err)
	assert.True(t, v.Valid())

	_, err = ParseTimeOfDay("9am")
	assert.Error(t, err)
}

func TestBlockedDateRange_Covers(t *testing.T) {
	b := BlockedDateRange{StartDate: NewDate(2025, 12, 24), EndDate: NewDate(2025, 12, 26)}

	assert.True(t, b.Covers(NewDate(2025, 12, 24)))
	assert.True(t, b.Covers(NewDate(2025, 12, 25)))
	assert.True(t, b.Covers(NewDate(2025, 12, 26)))
	assert.False(t, b.Covers(NewDate(2025, 12, 27)))
	assert.True(t, b.Intersects(NewDate(2025, 12, 26), NewDate(2025, 12, 30)))
	assert.False(t, b.Intersects(NewDate(2025, 12, 27), NewDate(2025, 12, 30)))
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusPending.CanTransitionTo(BookingStatusCompleted))
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCompleted))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusConfirmed))
	assert.True(t, BookingStatusCancelled.Terminal())
	assert.True(t, BookingStatusCompleted.Terminal())
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusPending))
}

func TestPriceBooking(t *testing.T) {
	hourly := int64(5000)
	daily := int64(80000)

	q, err := PriceBooking(&Venue{PricePerHourCents: &hourly}, TimeRange{NewTimeOfDay(9, 0), NewTimeOfDay(12, 0)}, 2000, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), q.BasePrice)
	assert.Equal(t, int64(16000), q.TotalAmount)

	q, err = PriceBooking(&Venue{PricePerHourCents: &hourly}, TimeRange{NewTimeOfDay(9, 0), NewTimeOfDay(10, 30)}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), q.BasePrice)

	q, err = PriceBooking(&Venue{PricePerDayCents: &daily}, TimeRange{NewTimeOfDay(9, 0), NewTimeOfDay(10, 0)}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, daily, q.TotalAmount)

	_, err = PriceBooking(&Venue{}, TimeRange{NewTimeOfDay(9, 0), NewTimeOfDay(10, 0)}, 0, 0)
	assert.ErrorIs(t, err, ErrPricingNotConfigured)
}

func TestSettlementStatus(t *testing.T) {
	paid := func(amount int64) Payment { return Payment{Amount: amount, Status: PaymentStatusPaid} }
	pending := func(amount int64) Payment { return Payment{Amount: amount, Status: PaymentStatusPending} }

	assert.Equal(t, PaymentStatusPending, SettlementStatus(10000, nil, PaymentStatusPending))
	assert.Equal(t, PaymentStatusPending, SettlementStatus(10000, []Payment{pending(10000)}, PaymentStatusPending))
	assert.Equal(t, PaymentStatusPartial, SettlementStatus(10000, []Payment{paid(4000)}, PaymentStatusPending))
	assert.Equal(t, PaymentStatusPaid, SettlementStatus(10000, []Payment{paid(4000), paid(6000)}, PaymentStatusPartial))
	assert.Equal(t, PaymentStatusPaid, SettlementStatus(10000, []Payment{paid(10000), paid(500)}, PaymentStatusPartial))
}

func TestParseRole_RejectsUnknown(t *testing.T) {
	r, err := ParseRole("venue_owner")
	require.NoError(t, err)
	assert.Equal(t, RoleVenueOwner, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestActor_Access(t *testing.T) {
	venue := &Venue{ID: 10, OwnerID: 1}
	booking := &Booking{ID: 5, CustomerID: 2, VenueID: 10}

	testCases := []struct {
		name   string
		actor  Actor
		manage bool
		view   bool
	}{
		{"owner", Actor{UserID: 1, Role: RoleVenueOwner}, true, true},
		{"customer", Actor{UserID: 2, Role: RoleCustomer}, false, true},
		{"other owner", Actor{UserID: 4, Role: RoleVenueOwner}, false, false},
		{"other customer", Actor{UserID: 3, Role: RoleCustomer}, false, false},
		{"admin", Actor{UserID: 9, Role: RoleAdmin}, true, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.manage, tc.actor.CanManage(venue))
			assert.Equal(t, tc.view, tc.actor.CanView(booking, venue))
		})
	}
}
