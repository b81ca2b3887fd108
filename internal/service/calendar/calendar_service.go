package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultBlockReason = "Blocked by owner"

type CalendarUseCase interface {
	SetOperatingHours(ctx context.Context, venueID, actorID int64, hours []HoursInput) ([]domain.OperatingHours, error)
	ListOperatingHours(ctx context.Context, venueID int64) ([]domain.OperatingHours, error)
	BlockDates(ctx context.Context, input BlockInput) (*domain.BlockedDateRange, error)
	ListBlockedRanges(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.BlockedDateRange, error)
	CreateSlot(ctx context.Context, input SlotInput) (*domain.AvailabilitySlot, error)
	SetSlotStatus(ctx context.Context, slotID, actorID int64, status string) (*domain.AvailabilitySlot, error)
	ListSlots(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.AvailabilitySlot, error)
}

// Invalidator drops cached calendars of a venue after its rules change.
type Invalidator interface {
	InvalidateVenue(ctx context.Context, venueID int64) error
}

type CalendarService struct {
	store  repository.Store
	cache  Invalidator
	logger *slog.Logger
	tracer trace.Tracer
}

type CalendarServiceOption func(*CalendarService)

func WithCache(cache Invalidator) CalendarServiceOption {
	return func(s *CalendarService) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) CalendarServiceOption {
	return func(s *CalendarService) {
		s.logger = logger
	}
}

func NewCalendarService(store repository.Store, opts ...CalendarServiceOption) *CalendarService {
	service := &CalendarService{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("venuebooking/calendar"),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type HoursInput struct {
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

type BlockInput struct {
	VenueID   int64  `json:"venue_id"`
	ActorID   int64  `json:"-"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type SlotInput struct {
	VenueID   int64  `json:"venue_id"`
	ActorID   int64  `json:"-"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// SetOperatingHours replaces the whole weekly schedule of a venue.
func (s *CalendarService) SetOperatingHours(ctx context.Context, venueID, actorID int64, input []HoursInput) (result []domain.OperatingHours, err error) {
	ctx, span := s.tracer.Start(ctx, "calendar.SetOperatingHours", trace.WithAttributes(attribute.Int64("venue.id", venueID)))
	defer func() { endSpan(span, err) }()

	hours, err := parseHours(input)
	if err != nil {
		return nil, err
	}

	err = s.store.WithVenueLock(ctx, venueID, func(tx repository.Store) error {
		if err := requireOwner(ctx, tx, venueID, actorID); err != nil {
			return err
		}
		if err := tx.Calendar().ReplaceOperatingHours(ctx, venueID, hours); err != nil {
			return fmt.Errorf("replace operating hours: %w", err)
		}
		result, err = tx.Calendar().ListOperatingHours(ctx, venueID)
		return err
	})
	if err != nil {
		return nil, translate(err, "venue", venueID)
	}

	s.invalidate(ctx, venueID)
	s.logger.InfoContext(ctx, "operating hours replaced", "venue_id", venueID, "days", len(result))
	return result, nil
}

func parseHours(input []HoursInput) ([]domain.OperatingHours, error) {
	seen := make(map[int]bool, len(input))
	hours := make([]domain.OperatingHours, 0, len(input))
	for _, in := range input {
		if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
			return nil, apperr.InvalidValue("day_of_week", "day_of_week must be between 0 and 6")
		}
		if seen[in.DayOfWeek] {
			return nil, apperr.InvalidValue("day_of_week", fmt.Sprintf("day_of_week %d listed more than once", in.DayOfWeek))
		}
		seen[in.DayOfWeek] = true

		h := domain.OperatingHours{DayOfWeek: in.DayOfWeek, IsClosed: in.IsClosed}
		if !in.IsClosed {
			if strings.TrimSpace(in.OpenTime) == "" {
				return nil, apperr.MissingField("open_time")
			}
			if strings.TrimSpace(in.CloseTime) == "" {
				return nil, apperr.MissingField("close_time")
			}
		}
		var err error
		if in.OpenTime != "" {
			if h.OpenTime, err = domain.ParseTimeOfDay(in.OpenTime); err != nil {
				return nil, apperr.InvalidFormat("open_time", err)
			}
		}
		if in.CloseTime != "" {
			if h.CloseTime, err = domain.ParseTimeOfDay(in.CloseTime); err != nil {
				return nil, apperr.InvalidFormat("close_time", err)
			}
		}
		if !in.IsClosed && h.CloseTime <= h.OpenTime {
			e := apperr.InvalidRange("close_time must be after open_time")
			e.Field = "close_time"
			return nil, e
		}
		hours = append(hours, h)
	}
	return hours, nil
}

func (s *CalendarService) ListOperatingHours(ctx context.Context, venueID int64) ([]domain.OperatingHours, error) {
	if _, err := s.store.Directory().GetVenue(ctx, venueID); err != nil {
		return nil, translate(err, "venue", venueID)
	}
	hours, err := s.store.Calendar().ListOperatingHours(ctx, venueID)
	if err != nil {
		return nil, apperr.Internal("list operating hours", err)
	}
	return hours, nil
}

func (s *CalendarService) BlockDates(ctx context.Context, input BlockInput) (block *domain.BlockedDateRange, err error) {
	ctx, span := s.tracer.Start(ctx, "calendar.BlockDates", trace.WithAttributes(attribute.Int64("venue.id", input.VenueID)))
	defer func() { endSpan(span, err) }()

	if input.StartDate == "" {
		return nil, apperr.MissingField("start_date")
	}
	if input.EndDate == "" {
		return nil, apperr.MissingField("end_date")
	}
	start, err := domain.ParseDate(input.StartDate)
	if err != nil {
		return nil, apperr.InvalidFormat("start_date", err)
	}
	end, err := domain.ParseDate(input.EndDate)
	if err != nil {
		return nil, apperr.InvalidFormat("end_date", err)
	}
	if end.Before(start) {
		e := apperr.InvalidRange("end_date must not be before start_date")
		e.Field = "end_date"
		return nil, e
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = defaultBlockReason
	}

	block = &domain.BlockedDateRange{
		VenueID:   input.VenueID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
		CreatedBy: input.ActorID,
	}
	err = s.store.WithVenueLock(ctx, input.VenueID, func(tx repository.Store) error {
		if err := requireOwner(ctx, tx, input.VenueID, input.ActorID); err != nil {
			return err
		}
		return tx.Calendar().CreateBlockedRange(ctx, block)
	})
	if err != nil {
		return nil, translate(err, "venue", input.VenueID)
	}

	s.invalidate(ctx, input.VenueID)
	s.logger.InfoContext(ctx, "dates blocked", "venue_id", input.VenueID, "from", start, "to", end)
	return block, nil
}

func (s *CalendarService) ListBlockedRanges(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.BlockedDateRange, error) {
	if to.Before(from) {
		return nil, apperr.InvalidRange("end_date must not be before start_date")
	}
	if _, err := s.store.Directory().GetVenue(ctx, venueID); err != nil {
		return nil, translate(err, "venue", venueID)
	}
	blocks, err := s.store.Calendar().ListBlockedRanges(ctx, venueID, from, to)
	if err != nil {
		return nil, apperr.Internal("list blocked ranges", err)
	}
	return blocks, nil
}

func (s *CalendarService) CreateSlot(ctx context.Context, input SlotInput) (slot *domain.AvailabilitySlot, err error) {
	ctx, span := s.tracer.Start(ctx, "calendar.CreateSlot", trace.WithAttributes(attribute.Int64("venue.id", input.VenueID)))
	defer func() { endSpan(span, err) }()

	for _, f := range []struct{ name, value string }{
		{"date", input.Date},
		{"start_time", input.StartTime},
		{"end_time", input.EndTime},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, apperr.MissingField(f.name)
		}
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, apperr.InvalidFormat("date", err)
	}
	start, err := domain.ParseTimeOfDay(input.StartTime)
	if err != nil {
		return nil, apperr.InvalidFormat("start_time", err)
	}
	end, err := domain.ParseTimeOfDay(input.EndTime)
	if err != nil {
		return nil, apperr.InvalidFormat("end_time", err)
	}
	if end <= start {
		return nil, apperr.InvalidRange("end_time must be after start_time")
	}
	status := domain.SlotStatusAvailable
	if input.Status != "" {
		if status, err = domain.ParseSlotStatus(input.Status); err != nil {
			return nil, apperr.InvalidValue("status", err.Error())
		}
	}

	slot = &domain.AvailabilitySlot{
		VenueID:   input.VenueID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
	err = s.store.WithVenueLock(ctx, input.VenueID, func(tx repository.Store) error {
		if err := requireOwner(ctx, tx, input.VenueID, input.ActorID); err != nil {
			return err
		}
		return tx.Calendar().CreateSlot(ctx, slot)
	})
	if err != nil {
		return nil, translate(err, "venue", input.VenueID)
	}

	s.invalidate(ctx, input.VenueID)
	return slot, nil
}

func (s *CalendarService) SetSlotStatus(ctx context.Context, slotID, actorID int64, status string) (slot *domain.AvailabilitySlot, err error) {
	ctx, span := s.tracer.Start(ctx, "calendar.SetSlotStatus", trace.WithAttributes(attribute.Int64("slot.id", slotID)))
	defer func() { endSpan(span, err) }()

	next, err := domain.ParseSlotStatus(status)
	if err != nil {
		return nil, apperr.InvalidValue("status", err.Error())
	}

	current, err := s.store.Calendar().GetSlot(ctx, slotID)
	if err != nil {
		return nil, translate(err, "slot", slotID)
	}

	err = s.store.WithVenueLock(ctx, current.VenueID, func(tx repository.Store) error {
		if err := requireOwner(ctx, tx, current.VenueID, actorID); err != nil {
			return err
		}
		slot, err = tx.Calendar().UpdateSlotStatus(ctx, slotID, next)
		return err
	})
	if err != nil {
		return nil, translate(err, "slot", slotID)
	}

	s.invalidate(ctx, current.VenueID)
	return slot, nil
}

func (s *CalendarService) ListSlots(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.AvailabilitySlot, error) {
	if to.Before(from) {
		return nil, apperr.InvalidRange("end_date must not be before start_date")
	}
	if _, err := s.store.Directory().GetVenue(ctx, venueID); err != nil {
		return nil, translate(err, "venue", venueID)
	}
	slots, err := s.store.Calendar().ListSlots(ctx, venueID, from, to)
	if err != nil {
		return nil, apperr.Internal("list slots", err)
	}
	return slots, nil
}

func (s *CalendarService) invalidate(ctx context.Context, venueID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVenue(ctx, venueID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate calendar cache", "venue_id", venueID, "err", err)
	}
}

func requireOwner(ctx context.Context, store repository.Store, venueID, actorID int64) error {
	venue, err := store.Directory().GetVenue(ctx, venueID)
	if err != nil {
		return err
	}
	if !venue.OwnedBy(actorID) {
		return apperr.Unauthorized("only the venue owner can change its calendar")
	}
	return nil
}

// translate maps repository errors onto the error taxonomy; errors that
// already carry a kind pass through.
func translate(err error, entity string, id int64) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(entity, id)
	default:
		return apperr.Internal("calendar store", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ CalendarUseCase = (*CalendarService)(nil)
