package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/venuebooking/api"
	"github.com/Domenick1991/venuebooking/config"
	"github.com/Domenick1991/venuebooking/internal/bootstrap"
	"github.com/Domenick1991/venuebooking/internal/logger"
	"github.com/Domenick1991/venuebooking/internal/obs"
	"github.com/Domenick1991/venuebooking/internal/service/availability"
	"github.com/Domenick1991/venuebooking/internal/service/booking"
	"github.com/Domenick1991/venuebooking/internal/service/calendar"
	"github.com/Domenick1991/venuebooking/internal/service/settlement"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing, "api")
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			lg.Error("shutdown tracer", "error", err)
		}
	}()

	loc, err := cfg.Booking.Location()
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	store, release, err := bootstrap.OpenStore(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer release()

	emitter, closeEmitter, err := bootstrap.NewEmitter(ctx, cfg, lg)
	if err != nil {
		log.Fatalf("connect events: %v", err)
	}
	defer closeEmitter()

	availabilityOpts := []availability.AvailabilityServiceOption{
		availability.WithLogger(lg),
		availability.WithLocation(loc),
		availability.WithMaxSpanDays(cfg.Booking.MaxCalendarSpanDays),
	}
	calendarOpts := []calendar.CalendarServiceOption{calendar.WithLogger(lg)}
	if redisCache := bootstrap.OpenCache(ctx, cfg, lg); redisCache != nil {
		defer redisCache.Close()
		availabilityOpts = append(availabilityOpts, availability.WithCache(redisCache))
		calendarOpts = append(calendarOpts, calendar.WithCache(redisCache))
	}

	availabilityService := availability.NewAvailabilityService(store, availabilityOpts...)
	calendarService := calendar.NewCalendarService(store, calendarOpts...)
	bookingService := booking.NewBookingService(store, emitter,
		booking.WithLogger(lg),
		booking.WithLocation(loc),
	)
	settlementService := settlement.NewSettlementService(store, emitter, settlement.WithLogger(lg))

	router := api.NewRouter([]byte(cfg.Auth.JWTSecret), lg, api.Handlers{
		Venues:   api.NewVenueHandler(availabilityService, calendarService, bookingService),
		Bookings: api.NewBookingHandler(bookingService),
		Payments: api.NewPaymentHandler(settlementService),
	})

	if err := bootstrap.Run(ctx, cfg, router, lg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
