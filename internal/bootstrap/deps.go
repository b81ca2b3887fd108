package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/venuebooking/config"
	"github.com/Domenick1991/venuebooking/internal/cache"
	"github.com/Domenick1991/venuebooking/internal/events"
	"github.com/Domenick1991/venuebooking/internal/kafka"
	"github.com/Domenick1991/venuebooking/internal/migrate"
	"github.com/Domenick1991/venuebooking/internal/mq"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"github.com/Domenick1991/venuebooking/internal/repository/memstore"
	"github.com/jackc/pgx/v5/pgxpool"
)

const brokerCheckTimeout = 5 * time.Second

// OpenStore builds the configured repository.Store. Postgres stores are
// migrated before they are returned. The returned func releases the store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memstore.New()
		if cfg.Storage.SeedPath != "" {
			seed, err := memstore.LoadSeed(cfg.Storage.SeedPath)
			if err != nil {
				return nil, nil, err
			}
			if err := store.Load(ctx, seed); err != nil {
				return nil, nil, fmt.Errorf("load seed: %w", err)
			}
		}
		logger.Info("using in-memory store", "seed", cfg.Storage.SeedPath)
		return store, func() {}, nil
	default:
		pool, err := OpenPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate.Up(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return repository.NewPGStore(pool), pool.Close, nil
	}
}

func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// OpenCache returns the calendar cache, or nil when Redis is not reachable.
// Availability works without it.
func OpenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) *cache.RedisCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	c := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
	if err := c.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, calendar cache disabled", "addr", cfg.Redis.Addr, "error", err)
		_ = c.Close()
		return nil
	}
	return c
}

// WarnIsolatedStore logs when a separate process would get its own empty
// in-memory store instead of sharing the API's data. It reports whether the
// store is isolated.
func WarnIsolatedStore(cfg *config.Config, logger *slog.Logger, process string) bool {
	if cfg.Storage.Driver != config.StorageDriverMemory {
		return false
	}
	logger.Warn("memory storage is private to this process, "+process+" will not see API bookings",
		"driver", cfg.Storage.Driver)
	return true
}

// NewEmitter connects the configured event transport. A nil emitter is
// returned for the "none" driver.
func NewEmitter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*events.Emitter, func() error, error) {
	var producer events.Producer
	var closeFn func() error

	switch cfg.Events.Driver {
	case config.EventsDriverNone:
		return nil, func() error { return nil }, nil
	case config.EventsDriverRabbitMQ:
		p, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, nil, err
		}
		producer, closeFn = p, p.Close
	default:
		p := kafka.NewProducer(cfg.Kafka.Brokers,
			kafka.WithRetries(cfg.Booking.PublishRetries),
			kafka.WithLogger(logger),
		)
		checkCtx, cancel := context.WithTimeout(ctx, brokerCheckTimeout)
		if err := p.CheckConnection(checkCtx); err != nil {
			logger.WarnContext(ctx, "kafka unreachable at startup, publishes will retry", "brokers", cfg.Kafka.Brokers, "error", err)
		}
		cancel()
		producer, closeFn = p, p.Close
	}

	return events.NewEmitter(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic, logger), closeFn, nil
}
