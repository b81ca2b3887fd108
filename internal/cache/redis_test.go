package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	from, to := domain.NewDate(2025, 12, 1), domain.NewDate(2025, 12, 31)

	assert.Equal(t, "calendar:venue:10:gen", generationKey(10))
	assert.Equal(t, "cache:calendar:venue:10:gen:3:2025-12-01:2025-12-31", calendarKey(10, 3, from, to))
	assert.NotEqual(t, calendarKey(10, 3, from, to), calendarKey(10, 4, from, to))
}

// The round trip needs a live Redis; it is skipped when none answers.
func TestRedisCache_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	c := NewRedisCacheWithClient(client, time.Minute)
	defer c.Close()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	venueID := time.Now().UnixNano()
	from, to := domain.NewDate(2025, 12, 1), domain.NewDate(2025, 12, 2)
	cal := &domain.Calendar{VenueID: venueID, From: from, To: to, Days: []domain.DaySummary{
		{Date: from, Status: domain.DayAvailable, Reason: "No specific slots defined", Unlimited: true},
		{Date: to, Status: domain.DayClosed, Reason: "Venue closed"},
	}}

	got, gen, err := c.GetCalendar(ctx, venueID, from, to)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, gen)

	require.NoError(t, c.SetCalendar(ctx, cal, gen))
	got, _, err = c.GetCalendar(ctx, venueID, from, to)
	require.NoError(t, err)
	assert.Equal(t, cal, got)

	require.NoError(t, c.InvalidateVenue(ctx, venueID))
	got, gen, err = c.GetCalendar(ctx, venueID, from, to)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), gen)
}
