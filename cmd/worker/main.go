package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/venuebooking/config"
	"github.com/Domenick1991/venuebooking/internal/bootstrap"
	"github.com/Domenick1991/venuebooking/internal/kafka"
	"github.com/Domenick1991/venuebooking/internal/logger"
	"github.com/Domenick1991/venuebooking/internal/mq"
	"github.com/Domenick1991/venuebooking/internal/notify"
	"github.com/Domenick1991/venuebooking/internal/obs"
	"github.com/Domenick1991/venuebooking/internal/service/booking"
)

type consumer interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
	Close() error
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg := logger.New(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing, "worker")
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	store, release, err := bootstrap.OpenStore(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer release()
	bootstrap.WarnIsolatedStore(cfg, lg, "worker")

	emitter, closeEmitter, err := bootstrap.NewEmitter(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("connect events: %v", err)
	}
	defer closeEmitter()

	bookingService := booking.NewBookingService(store, emitter,
		booking.WithLogger(lg),
		booking.WithLocation(loc),
	)

	sender := notify.NewSender(store.Directory(), notify.LogTransport{Logger: lg}, lg)
	if c, err := newConsumer(cfg, lg); err != nil {
		log.Fatalf("connect consumer: %v", err)
	} else if c != nil {
		defer c.Close()
		go runConsumer(ctx, c, sender.HandleMessage, lg, consumerRestartBackoff)
	}

	sweepTicker := time.NewTicker(cfg.Worker.SweepInterval())
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			completed, err := bookingService.CompleteFinishedBookings(ctx)
			if err != nil {
				lg.Error("complete bookings", "error", err)
				continue
			}
			if len(completed) > 0 {
				lg.Info("completed bookings", "count", len(completed))
			}
		case s := <-sig:
			lg.Info("shutting down", "signal", s.String())
			return
		}
	}
}

const (
	consumerRestartBackoff = time.Second
	maxRestartBackoff      = time.Minute
)

// runConsumer keeps c consuming until ctx ends, restarting it with growing
// backoff whenever Consume returns an error.
func runConsumer(ctx context.Context, c consumer, handler func(context.Context, []byte) error, lg *slog.Logger, backoff time.Duration) {
	wait := backoff
	for {
		err := c.Consume(ctx, handler)
		if ctx.Err() != nil {
			return
		}
		lg.Error("consumer stopped, restarting", "error", err, "backoff", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRestartBackoff)
	}
}

func newConsumer(cfg *config.Config, lg *slog.Logger) (consumer, error) {
	switch cfg.Events.Driver {
	case config.EventsDriverNone:
		lg.Warn("events driver is none, notifications disabled")
		return nil, nil
	case config.EventsDriverRabbitMQ:
		return mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue,
			[]string{cfg.Kafka.NotificationsTopic}, lg)
	default:
		return kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, lg), nil
	}
}
