package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/venuebooking/config"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps built calendars per venue and date range. Every venue has
// a generation counter that is part of the data key; bumping it orphans all
// cached ranges of the venue at once and they expire through their TTL.
type RedisCache struct {
	client      redis.UniversalClient
	calendarTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, calendarTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		calendarTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, calendarTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		calendarTTL: calendarTTL,
	}
}

// GetCalendar returns the cached calendar (nil on a miss) and the venue's
// current generation.
func (c *RedisCache) GetCalendar(ctx context.Context, venueID int64, from, to domain.Date) (*domain.Calendar, int64, error) {
	gen, err := c.generation(ctx, venueID)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, calendarKey(venueID, gen, from, to)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, nil
		}
		return nil, gen, err
	}

	var cal domain.Calendar
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, gen, fmt.Errorf("decode cached calendar: %w", err)
	}
	return &cal, gen, nil
}

// SetCalendar stores cal under generation. A calendar built before an
// invalidation lands under a dead generation and is never read.
func (c *RedisCache) SetCalendar(ctx context.Context, cal *domain.Calendar, generation int64) error {
	payload, err := json.Marshal(cal)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, calendarKey(cal.VenueID, generation, cal.From, cal.To), payload, c.calendarTTL).Err()
}

func (c *RedisCache) InvalidateVenue(ctx context.Context, venueID int64) error {
	return c.client.Incr(ctx, generationKey(venueID)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) generation(ctx context.Context, venueID int64) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(venueID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

func generationKey(venueID int64) string {
	return fmt.Sprintf("calendar:venue:%d:gen", venueID)
}

func calendarKey(venueID, generation int64, from, to domain.Date) string {
	return fmt.Sprintf("cache:calendar:venue:%d:gen:%d:%s:%s", venueID, generation, from, to)
}
