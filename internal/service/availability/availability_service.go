package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxSpanDays  = 366
	defaultCalendarDays = 30
)

type AvailabilityUseCase interface {
	CheckAvailability(ctx context.Context, input CheckInput) (*domain.Verdict, error)
	Calendar(ctx context.Context, input CalendarInput) (*domain.Calendar, error)
	BuildCalendar(ctx context.Context, venueID int64, from, to domain.Date) (*domain.Calendar, error)
	DayOccupancy(ctx context.Context, venueID int64, date string) (*domain.DayOccupancy, error)
}

// CalendarCache stores built calendars. A lookup returns the venue's cache
// generation so a calendar built from older rules is never stored as current.
type CalendarCache interface {
	GetCalendar(ctx context.Context, venueID int64, from, to domain.Date) (*domain.Calendar, int64, error)
	SetCalendar(ctx context.Context, cal *domain.Calendar, generation int64) error
}

type AvailabilityService struct {
	store       repository.Store
	cache       CalendarCache
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	location    *time.Location
	maxSpanDays int
}

type AvailabilityServiceOption func(*AvailabilityService)

func WithCache(cache CalendarCache) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.now = now
	}
}

func WithLocation(loc *time.Location) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.location = loc
	}
}

func WithMaxSpanDays(days int) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		if days > 0 {
			s.maxSpanDays = days
		}
	}
}

func NewAvailabilityService(store repository.Store, opts ...AvailabilityServiceOption) *AvailabilityService {
	service := &AvailabilityService{
		store:       store,
		logger:      slog.Default(),
		tracer:      otel.Tracer("venuebooking/availability"),
		now:         time.Now,
		location:    time.UTC,
		maxSpanDays: DefaultMaxSpanDays,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type CheckInput struct {
	VenueID   int64  `json:"venue_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type CalendarInput struct {
	VenueID   int64
	StartDate string
	EndDate   string
}

func (s *AvailabilityService) CheckAvailability(ctx context.Context, input CheckInput) (verdict *domain.Verdict, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.Check", trace.WithAttributes(attribute.Int64("venue.id", input.VenueID)))
	defer func() { endSpan(span, err) }()

	if input.VenueID == 0 {
		return nil, apperr.MissingField("venue_id")
	}
	date, r, err := ParseWindow(input.Date, input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Directory().GetVenue(ctx, input.VenueID); err != nil {
		return nil, translate(err, "venue", input.VenueID)
	}

	v, err := Evaluate(ctx, s.store, input.VenueID, date, r)
	if err != nil {
		return nil, apperr.Internal("check availability", err)
	}
	span.SetAttributes(attribute.String("verdict", string(v.Status)))
	return &v, nil
}

// ParseWindow parses a date and a time window, requiring end after start.
func ParseWindow(date, start, end string) (domain.Date, domain.TimeRange, error) {
	for _, f := range []struct{ name, value string }{
		{"date", date},
		{"start_time", start},
		{"end_time", end},
	} {
		if strings.TrimSpace(f.value) == "" {
			return domain.Date{}, domain.TimeRange{}, apperr.MissingField(f.name)
		}
	}

	d, err := domain.ParseDate(date)
	if err != nil {
		return domain.Date{}, domain.TimeRange{}, apperr.InvalidFormat("date", err)
	}
	st, err := domain.ParseTimeOfDay(start)
	if err != nil {
		return domain.Date{}, domain.TimeRange{}, apperr.InvalidFormat("start_time", err)
	}
	et, err := domain.ParseTimeOfDay(end)
	if err != nil {
		return domain.Date{}, domain.TimeRange{}, apperr.InvalidFormat("end_time", err)
	}
	r := domain.TimeRange{Start: st, End: et}
	if !r.Valid() {
		return domain.Date{}, domain.TimeRange{}, apperr.InvalidRange("end_time must be after start_time")
	}
	return d, r, nil
}

// Calendar builds the calendar for an optional date range. A missing start
// defaults to today, a missing end to thirty days after the start.
func (s *AvailabilityService) Calendar(ctx context.Context, input CalendarInput) (*domain.Calendar, error) {
	from := domain.DateOf(s.now().In(s.location))
	if input.StartDate != "" {
		d, err := domain.ParseDate(input.StartDate)
		if err != nil {
			return nil, apperr.InvalidFormat("start_date", err)
		}
		from = d
	}
	to := from.AddDays(defaultCalendarDays)
	if input.EndDate != "" {
		d, err := domain.ParseDate(input.EndDate)
		if err != nil {
			return nil, apperr.InvalidFormat("end_date", err)
		}
		to = d
	}
	return s.BuildCalendar(ctx, input.VenueID, from, to)
}

func (s *AvailabilityService) BuildCalendar(ctx context.Context, venueID int64, from, to domain.Date) (cal *domain.Calendar, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.BuildCalendar", trace.WithAttributes(
		attribute.Int64("venue.id", venueID),
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
	defer func() { endSpan(span, err) }()

	if to.Before(from) {
		e := apperr.InvalidRange("end_date must not be before start_date")
		e.Field = "end_date"
		return nil, e
	}
	if days := from.DaysUntil(to) + 1; days > s.maxSpanDays {
		return nil, apperr.InvalidValue("end_date", fmt.Sprintf("calendar span of %d days exceeds the limit of %d", days, s.maxSpanDays))
	}
	if _, err := s.store.Directory().GetVenue(ctx, venueID); err != nil {
		return nil, translate(err, "venue", venueID)
	}

	var generation int64
	if s.cache != nil {
		cached, gen, err := s.cache.GetCalendar(ctx, venueID, from, to)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "calendar cache read failed", "venue_id", venueID, "err", err)
		case cached != nil:
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		default:
			generation = gen
		}
	}

	cal, err = s.buildCalendar(ctx, venueID, from, to)
	if err != nil {
		return nil, apperr.Internal("build calendar", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCalendar(ctx, cal, generation); err != nil {
			s.logger.WarnContext(ctx, "calendar cache write failed", "venue_id", venueID, "err", err)
		}
	}
	return cal, nil
}

func (s *AvailabilityService) buildCalendar(ctx context.Context, venueID int64, from, to domain.Date) (*domain.Calendar, error) {
	blocks, err := s.store.Calendar().ListBlockedRanges(ctx, venueID, from, to)
	if err != nil {
		return nil, err
	}
	schedule, err := s.store.Calendar().ListOperatingHours(ctx, venueID)
	if err != nil {
		return nil, err
	}
	slots, err := s.store.Calendar().ListSlots(ctx, venueID, from, to)
	if err != nil {
		return nil, err
	}

	hours := make(map[int]domain.OperatingHours, len(schedule))
	for _, h := range schedule {
		hours[h.DayOfWeek] = h
	}
	slotsByDay := make(map[domain.Date][]domain.AvailabilitySlot)
	for _, sl := range slots {
		slotsByDay[sl.Date] = append(slotsByDay[sl.Date], sl)
	}

	cal := &domain.Calendar{VenueID: venueID, From: from, To: to}
	for d := from; !d.After(to); d = d.AddDays(1) {
		cal.Days = append(cal.Days, summarizeDay(d, blocks, hours, slotsByDay[d]))
	}
	return cal, nil
}

// DayOccupancy lists the live bookings holding time at venueID on date.
func (s *AvailabilityService) DayOccupancy(ctx context.Context, venueID int64, date string) (*domain.DayOccupancy, error) {
	if strings.TrimSpace(date) == "" {
		return nil, apperr.MissingField("date")
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return nil, apperr.InvalidFormat("date", err)
	}
	if _, err := s.store.Directory().GetVenue(ctx, venueID); err != nil {
		return nil, translate(err, "venue", venueID)
	}

	bookings, err := s.store.Bookings().ListLive(ctx, venueID, d)
	if err != nil {
		return nil, apperr.Internal("list live bookings", err)
	}
	occupancy := &domain.DayOccupancy{
		VenueID:     venueID,
		Date:        d,
		IsAvailable: len(bookings) == 0,
		Booked:      make([]domain.Occupant, 0, len(bookings)),
	}
	for _, b := range bookings {
		occupancy.Booked = append(occupancy.Booked, bookingOccupant(b))
	}
	return occupancy, nil
}

func translate(err error, entity string, id int64) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(entity, id)
	default:
		return apperr.Internal("availability store", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
