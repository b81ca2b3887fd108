package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Domenick1991/venuebooking/api"
	"github.com/Domenick1991/venuebooking/config"
	"github.com/Domenick1991/venuebooking/internal/bootstrap"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/logger"
	"github.com/Domenick1991/venuebooking/internal/migrate"
	"github.com/Domenick1991/venuebooking/internal/service/availability"
	"github.com/Domenick1991/venuebooking/internal/service/booking"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "venuebooking-admin",
		Short:         "Operational commands for the venue booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config.yaml")

	load := func() (*config.Config, error) {
		return config.LoadConfig(cfgPath)
	}

	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newCompleteCmd(load))
	root.AddCommand(newCalendarCmd(load))
	root.AddCommand(newTokenCmd(load))
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

type configLoader func() (*config.Config, error)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			lg := logger.New(cfg.Log)

			pool, err := bootstrap.OpenPool(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrate.Up(cmd.Context(), pool, lg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newCompleteCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Mark confirmed bookings whose event has ended as completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			lg := logger.New(cfg.Log)
			loc, err := cfg.Booking.Location()
			if err != nil {
				return err
			}

			store, release, err := bootstrap.OpenStore(cmd.Context(), cfg, lg)
			if err != nil {
				return err
			}
			defer release()

			emitter, closeEmitter, err := bootstrap.NewEmitter(cmd.Context(), cfg, lg)
			if err != nil {
				return err
			}
			defer closeEmitter()

			svc := booking.NewBookingService(store, emitter, booking.WithLogger(lg), booking.WithLocation(loc))
			completed, err := svc.CompleteFinishedBookings(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range completed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", b.Reference, b.VenueID, b.EventDate)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed %d bookings\n", len(completed))
			return nil
		},
	}
}

func newCalendarCmd(load configLoader) *cobra.Command {
	var (
		venueID  int64
		from, to string
	)

	c := &cobra.Command{
		Use:   "calendar",
		Short: "Print a venue's day-by-day calendar as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			lg := logger.New(cfg.Log)
			loc, err := cfg.Booking.Location()
			if err != nil {
				return err
			}

			store, release, err := bootstrap.OpenStore(cmd.Context(), cfg, lg)
			if err != nil {
				return err
			}
			defer release()

			svc := availability.NewAvailabilityService(store,
				availability.WithLogger(lg),
				availability.WithLocation(loc),
				availability.WithMaxSpanDays(cfg.Booking.MaxCalendarSpanDays),
			)
			cal, err := svc.Calendar(cmd.Context(), availability.CalendarInput{VenueID: venueID, StartDate: from, EndDate: to})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cal)
		},
	}

	c.Flags().Int64Var(&venueID, "venue", 0, "venue id")
	c.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD), defaults to today")
	c.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD), defaults to thirty days after --from")
	_ = c.MarkFlagRequired("venue")
	return c
}

func newTokenCmd(load configLoader) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}
			r, err := domain.ParseRole(role)
			if err != nil {
				return err
			}

			tok, err := api.IssueToken([]byte(cfg.Auth.JWTSecret), userID, r, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.Flags().StringVar(&role, "role", string(domain.RoleCustomer), "CUSTOMER, VENUE_OWNER or ADMIN")
	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("user")
	return c
}
