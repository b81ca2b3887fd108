package availability

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownerID = int64(1)
	venueID = int64(10)
)

// 2025-12-25 is a Thursday (weekday 3).
var christmas = domain.NewDate(2025, 12, 25)

type MockCalendarCache struct {
	mock.Mock
}

func (m *MockCalendarCache) GetCalendar(ctx context.Context, venueID int64, from, to domain.Date) (*domain.Calendar, int64, error) {
	args := m.Called(ctx, venueID, from, to)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*domain.Calendar), args.Get(1).(int64), args.Error(2)
}

func (m *MockCalendarCache) SetCalendar(ctx context.Context, cal *domain.Calendar, generation int64) error {
	args := m.Called(ctx, cal, generation)
	return args.Error(0)
}

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	require.NoError(t, store.AddUser(ctx, domain.User{ID: ownerID, Role: domain.RoleVenueOwner, IsActive: true}))
	require.NoError(t, store.AddVenue(ctx, domain.Venue{ID: venueID, OwnerID: ownerID, Capacity: 100, IsActive: true}))
	return store
}

func addBooking(t *testing.T, store *memstore.Store, ref string, date domain.Date, start, end domain.TimeOfDay, status domain.BookingStatus) {
	t.Helper()
	require.NoError(t, store.Bookings().Create(context.Background(), &domain.Booking{
		Reference:     ref,
		CustomerID:    2,
		VenueID:       venueID,
		EventTypeID:   3,
		EventDate:     date,
		StartTime:     start,
		EndTime:       end,
		GuestCount:    10,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
	}))
}

func hm(h, m int) domain.TimeOfDay { return domain.NewTimeOfDay(h, m) }

func TestCheckAvailability_BlockedDominates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Calendar().CreateBlockedRange(ctx, &domain.BlockedDateRange{
		VenueID: venueID, StartDate: domain.NewDate(2025, 12, 24), EndDate: domain.NewDate(2025, 12, 26), Reason: "Holiday", CreatedBy: ownerID,
	}))
	require.NoError(t, store.Calendar().ReplaceOperatingHours(ctx, venueID, []domain.OperatingHours{{DayOfWeek: 3, IsClosed: true}}))
	addBooking(t, store, "A", christmas, hm(10, 0), hm(11, 0), domain.BookingStatusConfirmed)

	service := NewAvailabilityService(store)
	v, err := service.CheckAvailability(ctx, CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictBlocked, v.Status)
	assert.Equal(t, "Holiday", v.Reason)
	require.NotNil(t, v.BlockID)
}

func TestCheckAvailability_Precedence(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name   string
		hours  []domain.OperatingHours
		start  string
		end    string
		expect domain.VerdictStatus
	}{
		{"closed beats conflict", []domain.OperatingHours{{DayOfWeek: 3, IsClosed: true}}, "10:00", "11:00", domain.VerdictClosed},
		{"outside hours beats conflict", []domain.OperatingHours{{DayOfWeek: 3, OpenTime: hm(10, 30), CloseTime: hm(22, 0)}}, "10:00", "11:00", domain.VerdictOutsideHours},
		{"end past close", []domain.OperatingHours{{DayOfWeek: 3, OpenTime: hm(8, 0), CloseTime: hm(10, 30)}}, "10:00", "11:00", domain.VerdictOutsideHours},
		{"within hours conflicts", []domain.OperatingHours{{DayOfWeek: 3, OpenTime: hm(8, 0), CloseTime: hm(22, 0)}}, "10:00", "11:00", domain.VerdictConflict},
		{"no record is unconstrained", []domain.OperatingHours{{DayOfWeek: 4, IsClosed: true}}, "10:00", "11:00", domain.VerdictConflict},
		{"free window", nil, "11:00", "12:00", domain.VerdictAvailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			require.NoError(t, store.Calendar().ReplaceOperatingHours(ctx, venueID, tc.hours))
			addBooking(t, store, "A", christmas, hm(10, 0), hm(11, 0), domain.BookingStatusPending)

			v, err := NewAvailabilityService(store).CheckAvailability(ctx, CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: tc.start, EndTime: tc.end})
			require.NoError(t, err)
			assert.Equal(t, tc.expect, v.Status)
			if tc.expect == domain.VerdictOutsideHours {
				assert.NotNil(t, v.Hours)
			}
		})
	}
}

func TestCheckAvailability_Occupants(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	addBooking(t, store, "LIVE", christmas, hm(9, 0), hm(10, 0), domain.BookingStatusConfirmed)
	addBooking(t, store, "GONE", christmas, hm(10, 0), hm(12, 0), domain.BookingStatusCancelled)
	addBooking(t, store, "DONE", christmas, hm(10, 0), hm(12, 0), domain.BookingStatusCompleted)
	require.NoError(t, store.Calendar().CreateSlot(ctx, &domain.AvailabilitySlot{VenueID: venueID, Date: christmas, StartTime: hm(11, 0), EndTime: hm(13, 0), Status: domain.SlotStatusMaintenance}))
	require.NoError(t, store.Calendar().CreateSlot(ctx, &domain.AvailabilitySlot{VenueID: venueID, Date: christmas, StartTime: hm(10, 0), EndTime: hm(11, 0), Status: domain.SlotStatusAvailable}))

	service := NewAvailabilityService(store)

	// Touching the live booking and the maintenance slot at their boundaries.
	v, err := service.CheckAvailability(ctx, CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: "10:00", EndTime: "11:00"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAvailable, v.Status)

	v, err = service.CheckAvailability(ctx, CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: "09:30", EndTime: "11:30"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictConflict, v.Status)
	require.Len(t, v.Occupants, 2)
	assert.Equal(t, domain.OccupantSlot, v.Occupants[0].Kind)
	assert.Equal(t, "LIVE", v.Occupants[1].Reference)
}

func TestCheckAvailability_InputErrors(t *testing.T) {
	service := NewAvailabilityService(newStore(t))
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CheckInput
		kind  apperr.Kind
		code  string
	}{
		{"missing date", CheckInput{VenueID: venueID, StartTime: "10:00", EndTime: "11:00"}, apperr.KindValidation, apperr.CodeMissingField},
		{"bad time", CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: "10am", EndTime: "11:00"}, apperr.KindValidation, apperr.CodeInvalidFormat},
		{"empty window", CheckInput{VenueID: venueID, Date: "2025-12-25", StartTime: "11:00", EndTime: "11:00"}, apperr.KindValidation, apperr.CodeInvalidRange},
		{"unknown venue", CheckInput{VenueID: 77, Date: "2025-12-25", StartTime: "10:00", EndTime: "11:00"}, apperr.KindNotFound, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CheckAvailability(ctx, tc.input)
			assert.True(t, errors.Is(err, &apperr.Error{Kind: tc.kind, Code: tc.code}), "got %v", err)
		})
	}
}

// Random live bookings on a minute grid: Evaluate must report a conflict
// exactly when some booked minute falls inside the requested window.
func TestEvaluate_MatchesMinuteOracle(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		store := newStore(t)
		var booked [24 * 60]bool
		for i := 0; i < 4; i++ {
			start := rng.IntN(22 * 60)
			end := start + 15 + rng.IntN(120)
			if end > 24*60 {
				end = 24 * 60
			}
			addBooking(t, store, fmt.Sprintf("R%d-%d", round, i), christmas, domain.TimeOfDay(start), domain.TimeOfDay(end), domain.BookingStatusPending)
			for m := start; m < end; m++ {
				booked[m] = true
			}
		}

		for q := 0; q < 40; q++ {
			start := rng.IntN(23 * 60)
			end := start + 1 + rng.IntN(24*60-start)
			want := false
			for m := start; m < end; m++ {
				want = want || booked[m]
			}

			v, err := Evaluate(ctx, store, venueID, christmas, domain.TimeRange{Start: domain.TimeOfDay(start), End: domain.TimeOfDay(end)})
			require.NoError(t, err)
			assert.Equal(t, want, v.Status == domain.VerdictConflict, "round %d window %d-%d", round, start, end)
		}
	}
}

func TestBuildCalendar_NoRowsIsUnlimited(t *testing.T) {
	service := NewAvailabilityService(newStore(t))

	cal, err := service.BuildCalendar(context.Background(), venueID, domain.NewDate(2025, 12, 1), domain.NewDate(2025, 12, 7))
	require.NoError(t, err)
	require.Len(t, cal.Days, 7)
	for i, day := range cal.Days {
		assert.Equal(t, domain.NewDate(2025, 12, 1).AddDays(i), day.Date)
		assert.Equal(t, domain.DayAvailable, day.Status)
		assert.True(t, day.Unlimited)
	}
}

func TestBuildCalendar_DayStatuses(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	// Mon 22 blocked, Tue 23 closed, Wed 24 full, Thu 25 partial, Fri 26 all free.
	require.NoError(t, store.Calendar().CreateBlockedRange(ctx, &domain.BlockedDateRange{VenueID: venueID, StartDate: domain.NewDate(2025, 12, 22), EndDate: domain.NewDate(2025, 12, 22), Reason: "Private"}))
	require.NoError(t, store.Calendar().ReplaceOperatingHours(ctx, venueID, []domain.OperatingHours{{DayOfWeek: 1, IsClosed: true}}))
	slot := func(d domain.Date, h int, status domain.SlotStatus) {
		require.NoError(t, store.Calendar().CreateSlot(ctx, &domain.AvailabilitySlot{VenueID: venueID, Date: d, StartTime: hm(h, 0), EndTime: hm(h+1, 0), Status: status}))
	}
	slot(domain.NewDate(2025, 12, 24), 9, domain.SlotStatusBooked)
	slot(domain.NewDate(2025, 12, 24), 10, domain.SlotStatusMaintenance)
	slot(christmas, 9, domain.SlotStatusBooked)
	slot(christmas, 10, domain.SlotStatusAvailable)
	slot(domain.NewDate(2025, 12, 26), 9, domain.SlotStatusAvailable)
	// A live booking does not change the day summary.
	addBooking(t, store, "A", domain.NewDate(2025, 12, 26), hm(12, 0), hm(14, 0), domain.BookingStatusConfirmed)

	cal, err := NewAvailabilityService(store).BuildCalendar(ctx, venueID, domain.NewDate(2025, 12, 22), domain.NewDate(2025, 12, 26))
	require.NoError(t, err)

	statuses := make([]domain.DayStatus, 0, len(cal.Days))
	for _, d := range cal.Days {
		statuses = append(statuses, d.Status)
	}
	assert.Equal(t, []domain.DayStatus{
		domain.DayBlocked, domain.DayClosed, domain.DayFullyBooked, domain.DayPartiallyAvailable, domain.DayAvailable,
	}, statuses)
	assert.Equal(t, "Private", cal.Days[0].Reason)
	assert.Equal(t, 1, cal.Days[3].AvailableSlots)
	assert.Equal(t, 2, cal.Days[3].TotalSlots)
	assert.False(t, cal.Days[4].Unlimited)
}

func TestBuildCalendar_RangeLimits(t *testing.T) {
	service := NewAvailabilityService(newStore(t), WithMaxSpanDays(31))
	ctx := context.Background()

	_, err := service.BuildCalendar(ctx, venueID, domain.NewDate(2025, 12, 10), domain.NewDate(2025, 12, 1))
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidRange}))

	_, err = service.BuildCalendar(ctx, venueID, domain.NewDate(2025, 1, 1), domain.NewDate(2025, 2, 1))
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidValue}))

	_, err = service.BuildCalendar(ctx, venueID, domain.NewDate(2025, 1, 1), domain.NewDate(2025, 1, 31))
	assert.NoError(t, err)
}

func TestCalendar_DefaultRange(t *testing.T) {
	now := time.Date(2025, 12, 20, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+3", 3*60*60)
	service := NewAvailabilityService(newStore(t), WithClock(func() time.Time { return now }), WithLocation(loc))

	cal, err := service.Calendar(context.Background(), CalendarInput{VenueID: venueID})
	require.NoError(t, err)
	assert.Equal(t, domain.NewDate(2025, 12, 21), cal.From)
	assert.Equal(t, domain.NewDate(2026, 1, 20), cal.To)
	assert.Len(t, cal.Days, 31)
}

func TestBuildCalendar_Cache(t *testing.T) {
	cache := &MockCalendarCache{}
	service := NewAvailabilityService(newStore(t), WithCache(cache))
	ctx := context.Background()
	from, to := domain.NewDate(2025, 12, 1), domain.NewDate(2025, 12, 2)

	cache.On("GetCalendar", mock.Anything, venueID, from, to).Return(nil, int64(4), nil).Once()
	cache.On("SetCalendar", mock.Anything, mock.AnythingOfType("*domain.Calendar"), int64(4)).Return(nil).Once()

	cal, err := service.BuildCalendar(ctx, venueID, from, to)
	require.NoError(t, err)
	assert.Len(t, cal.Days, 2)

	cached := &domain.Calendar{VenueID: venueID, From: from, To: to}
	cache.On("GetCalendar", mock.Anything, venueID, from, to).Return(cached, int64(4), nil).Once()

	hit, err := service.BuildCalendar(ctx, venueID, from, to)
	require.NoError(t, err)
	assert.Same(t, cached, hit)

	cache.AssertExpectations(t)
}

func TestDayOccupancy(t *testing.T) {
	store := newStore(t)
	addBooking(t, store, "B", christmas, hm(14, 0), hm(16, 0), domain.BookingStatusConfirmed)
	addBooking(t, store, "A", christmas, hm(9, 0), hm(12, 0), domain.BookingStatusPending)
	addBooking(t, store, "X", christmas, hm(12, 0), hm(13, 0), domain.BookingStatusCancelled)
	service := NewAvailabilityService(store)

	occ, err := service.DayOccupancy(context.Background(), venueID, "2025-12-25")
	require.NoError(t, err)
	assert.False(t, occ.IsAvailable)
	require.Len(t, occ.Booked, 2)
	assert.Equal(t, "A", occ.Booked[0].Reference)

	occ, err = service.DayOccupancy(context.Background(), venueID, "2025-12-26")
	require.NoError(t, err)
	assert.True(t, occ.IsAvailable)
	assert.Empty(t, occ.Booked)
}
