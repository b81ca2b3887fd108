package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/events"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"github.com/Domenick1991/venuebooking/internal/service/availability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	referencePrefix      = "VB"
	maxReferenceAttempts = 5
	defaultListLimit     = 10
	maxListLimit         = 100
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, actorID int64) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID int64, reason string) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*Details, error)
	ListCustomerBookings(ctx context.Context, customerID int64, query ListQuery) ([]domain.Booking, error)
	ListVenueBookings(ctx context.Context, venueID int64, actor domain.Actor, query ListQuery) ([]domain.Booking, error)
	VenueStats(ctx context.Context, venueID int64, actor domain.Actor) (*VenueStats, error)
	CompleteFinishedBookings(ctx context.Context) ([]domain.Booking, error)
}

type BookingService struct {
	store     repository.Store
	emitter   *events.Emitter
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	location  *time.Location
	reference func(now time.Time) string
}

type CreateBookingInput struct {
	CustomerID        int64  `json:"customer_id"`
	VenueID           int64  `json:"venue_id"`
	EventTypeID       int64  `json:"event_type_id"`
	EventDate         string `json:"event_date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	GuestCount        int    `json:"guest_count"`
	EventTitle        string `json:"event_title"`
	SpecialRequests   string `json:"special_requests"`
	AdditionalCharges int64  `json:"additional_charges"`
	Discount          int64  `json:"discount"`
}

type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

// Details is a booking with its payments.
type Details struct {
	Booking  domain.Booking
	Payments []domain.Payment
}

type VenueStats struct {
	VenueID           int64 `json:"venue_id"`
	TotalBookings     int   `json:"total_bookings"`
	PendingBookings   int   `json:"pending_bookings"`
	ConfirmedBookings int   `json:"confirmed_bookings"`
	CompletedBookings int   `json:"completed_bookings"`
	CancelledBookings int   `json:"cancelled_bookings"`
	TotalRevenue      int64 `json:"total_revenue"`
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithLocation sets the zone that decides what "today" is and when an event ends.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		s.location = loc
	}
}

func WithReferenceGenerator(gen func(now time.Time) string) BookingServiceOption {
	return func(s *BookingService) {
		s.reference = gen
	}
}

func NewBookingService(store repository.Store, emitter *events.Emitter, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:     store,
		emitter:   emitter,
		logger:    slog.Default(),
		tracer:    otel.Tracer("venuebooking/booking"),
		now:       time.Now,
		location:  time.UTC,
		reference: NewReference,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewReference returns VB + yyyymmdd + eight random hex characters.
func NewReference(now time.Time) string {
	return GenerateReference(referencePrefix, now)
}

func GenerateReference(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return prefix + now.Format("20060102") + suffix
}

func (s *BookingService) today() domain.Date {
	return domain.DateOf(s.now().In(s.location))
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.Int64("venue.id", input.VenueID),
		attribute.Int64("customer.id", input.CustomerID),
	))
	defer func() { endSpan(span, err) }()

	if err := requireFields(input); err != nil {
		return nil, err
	}

	dir := s.store.Directory()
	if _, err := dir.GetUser(ctx, input.CustomerID); err != nil {
		return nil, translate(err, "customer", input.CustomerID)
	}
	venue, err := dir.GetVenue(ctx, input.VenueID)
	if err != nil {
		return nil, translate(err, "venue", input.VenueID)
	}
	if !venue.IsActive {
		return nil, apperr.NotFound("venue", input.VenueID)
	}
	if _, err := dir.GetEventType(ctx, input.EventTypeID); err != nil {
		return nil, translate(err, "event type", input.EventTypeID)
	}

	date, err := domain.ParseDate(input.EventDate)
	if err != nil {
		return nil, apperr.InvalidFormat("event_date", err)
	}
	start, err := domain.ParseTimeOfDay(input.StartTime)
	if err != nil {
		return nil, apperr.InvalidFormat("start_time", err)
	}
	end, err := domain.ParseTimeOfDay(input.EndTime)
	if err != nil {
		return nil, apperr.InvalidFormat("end_time", err)
	}
	if !date.After(s.today()) {
		return nil, apperr.InvalidDate("event_date", "event date must be in the future")
	}
	window := domain.TimeRange{Start: start, End: end}
	if !window.Valid() {
		return nil, apperr.InvalidRange("end time must be after start time")
	}
	if input.AdditionalCharges < 0 {
		return nil, apperr.InvalidValue("additional_charges", "additional_charges must not be negative")
	}
	if input.Discount < 0 {
		return nil, apperr.InvalidValue("discount", "discount must not be negative")
	}

	for attempt := 1; ; attempt++ {
		booking = &domain.Booking{
			Reference:       s.reference(s.now().In(s.location)),
			CustomerID:      input.CustomerID,
			VenueID:         input.VenueID,
			EventTypeID:     input.EventTypeID,
			EventDate:       date,
			StartTime:       start,
			EndTime:         end,
			GuestCount:      input.GuestCount,
			EventTitle:      input.EventTitle,
			SpecialRequests: input.SpecialRequests,
			Status:          domain.BookingStatusPending,
			PaymentStatus:   domain.PaymentStatusPending,
		}
		err = s.store.WithVenueLock(ctx, input.VenueID, func(tx repository.Store) error {
			return s.admit(ctx, tx, booking, input)
		})
		if !errors.Is(err, repository.ErrDuplicateReference) || attempt == maxReferenceAttempts {
			break
		}
		s.logger.WarnContext(ctx, "booking reference collision, retrying", "reference", booking.Reference, "attempt", attempt)
	}
	if err != nil {
		return nil, translate(err, "venue", input.VenueID)
	}

	span.SetAttributes(attribute.String("booking.reference", booking.Reference))
	s.logger.InfoContext(ctx, "booking created", "booking_id", booking.ID, "reference", booking.Reference, "venue_id", booking.VenueID)
	s.emitter.Emit(ctx, events.ForBooking(events.BookingCreated, booking, s.now()))
	return booking, nil
}

// admit runs under the venue lock: the availability verdict and the insert
// commit together, so two overlapping requests cannot both be admitted.
func (s *BookingService) admit(ctx context.Context, tx repository.Store, b *domain.Booking, input CreateBookingInput) error {
	venue, err := tx.Directory().GetVenue(ctx, b.VenueID)
	if err != nil {
		return err
	}

	verdict, err := availability.Evaluate(ctx, tx, b.VenueID, b.EventDate, b.Range())
	if err != nil {
		return fmt.Errorf("evaluate availability: %w", err)
	}
	if !verdict.Available() {
		e := apperr.New(apperr.KindConflict, "venue is not available for the selected time slot: "+verdict.Reason).
			WithDetail("status", verdict.Status)
		if len(verdict.Occupants) > 0 {
			e = e.WithDetail("conflicts", verdict.Occupants)
		}
		return e
	}

	if b.GuestCount > venue.Capacity {
		return apperr.Newf(apperr.KindCapacityExceeded, "guest count exceeds venue capacity (%d)", venue.Capacity).
			WithDetail("capacity", venue.Capacity)
	}

	quote, err := domain.PriceBooking(venue, b.Range(), input.AdditionalCharges, input.Discount)
	if errors.Is(err, domain.ErrPricingNotConfigured) {
		return apperr.New(apperr.KindPricingNotConfigured, "venue pricing not configured")
	}
	if err != nil {
		return err
	}
	if quote.TotalAmount < 0 {
		return apperr.New(apperr.KindInvalidAmount, "discount exceeds the booking price").
			WithDetail("total_amount", quote.TotalAmount)
	}
	b.BasePrice = quote.BasePrice
	b.AdditionalCharges = quote.AdditionalCharges
	b.Discount = quote.Discount
	b.TotalAmount = quote.TotalAmount

	return tx.Bookings().Create(ctx, b)
}

func requireFields(input CreateBookingInput) error {
	switch {
	case input.CustomerID == 0:
		return apperr.MissingField("customer_id")
	case input.VenueID == 0:
		return apperr.MissingField("venue_id")
	case input.EventTypeID == 0:
		return apperr.MissingField("event_type_id")
	case strings.TrimSpace(input.EventDate) == "":
		return apperr.MissingField("event_date")
	case strings.TrimSpace(input.StartTime) == "":
		return apperr.MissingField("start_time")
	case strings.TrimSpace(input.EndTime) == "":
		return apperr.MissingField("end_time")
	case input.GuestCount == 0:
		return apperr.MissingField("guest_count")
	case input.GuestCount < 0:
		return apperr.InvalidValue("guest_count", "guest_count must be positive")
	}
	return nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, actorID int64) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Confirm", trace.WithAttributes(attribute.Int64("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	err = s.store.WithBookingLock(ctx, bookingID, func(tx repository.Store) error {
		current, venue, err := loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !venue.OwnedBy(actorID) {
			return apperr.Unauthorized("only the venue owner can confirm a booking")
		}
		if current.Status != domain.BookingStatusPending {
			return apperr.InvalidTransition("only pending bookings can be confirmed").
				WithDetail("status", current.Status)
		}

		now := s.now()
		current.Status = domain.BookingStatusConfirmed
		current.ConfirmedAt = &now
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, translate(err, "booking", bookingID)
	}

	s.logger.InfoContext(ctx, "booking confirmed", "booking_id", booking.ID, "reference", booking.Reference)
	s.emitter.Emit(ctx, events.ForBooking(events.BookingConfirmed, booking, s.now()))
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID int64, reason string) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.Int64("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	err = s.store.WithBookingLock(ctx, bookingID, func(tx repository.Store) error {
		current, venue, err := loadBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if actorID != current.CustomerID && !venue.OwnedBy(actorID) {
			return apperr.Unauthorized("only the customer or the venue owner can cancel a booking")
		}
		if !current.Status.CanTransitionTo(domain.BookingStatusCancelled) {
			return apperr.InvalidTransition("booking cannot be cancelled").
				WithDetail("status", current.Status)
		}

		now := s.now()
		canceller := actorID
		current.Status = domain.BookingStatusCancelled
		current.CancelledAt = &now
		current.CancelledBy = &canceller
		current.CancellationReason = strings.TrimSpace(reason)
		if err := tx.Bookings().Update(ctx, current); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, translate(err, "booking", bookingID)
	}

	s.logger.InfoContext(ctx, "booking cancelled", "booking_id", booking.ID, "reference", booking.Reference, "by", actorID)
	s.emitter.Emit(ctx, events.ForBooking(events.BookingCancelled, booking, s.now()))
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*Details, error) {
	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, translate(err, "booking", bookingID)
	}
	venue, err := s.store.Directory().GetVenue(ctx, b.VenueID)
	if err != nil {
		return nil, translate(err, "venue", b.VenueID)
	}
	if !actor.CanView(b, venue) {
		return nil, apperr.Unauthorized("only the customer or the venue owner can view a booking")
	}
	payments, err := s.store.Payments().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal("list payments", err)
	}
	return &Details{Booking: *b, Payments: payments}, nil
}

func (s *BookingService) ListCustomerBookings(ctx context.Context, customerID int64, query ListQuery) ([]domain.Booking, error) {
	if _, err := s.store.Directory().GetUser(ctx, customerID); err != nil {
		return nil, translate(err, "customer", customerID)
	}
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	filter.CustomerID = customerID
	return s.list(ctx, filter)
}

func (s *BookingService) ListVenueBookings(ctx context.Context, venueID int64, actor domain.Actor, query ListQuery) ([]domain.Booking, error) {
	if err := s.requireManager(ctx, venueID, actor); err != nil {
		return nil, err
	}
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	filter.VenueID = venueID
	return s.list(ctx, filter)
}

func (s *BookingService) list(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.store.Bookings().List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("list bookings", err)
	}
	return bookings, nil
}

func buildFilter(query ListQuery) (repository.BookingFilter, error) {
	var filter repository.BookingFilter
	if query.Status != "" {
		status, err := domain.ParseBookingStatus(query.Status)
		if err != nil {
			return filter, apperr.InvalidValue("status", err.Error())
		}
		filter.Status = status
	}
	if query.Offset < 0 {
		return filter, apperr.InvalidValue("offset", "offset must not be negative")
	}
	switch {
	case query.Limit < 0:
		return filter, apperr.InvalidValue("limit", "limit must not be negative")
	case query.Limit == 0:
		filter.Limit = defaultListLimit
	case query.Limit > maxListLimit:
		filter.Limit = maxListLimit
	default:
		filter.Limit = query.Limit
	}
	filter.Offset = query.Offset
	return filter, nil
}

func (s *BookingService) VenueStats(ctx context.Context, venueID int64, actor domain.Actor) (*VenueStats, error) {
	if err := s.requireManager(ctx, venueID, actor); err != nil {
		return nil, err
	}
	counts, err := s.store.Bookings().CountByStatus(ctx, venueID)
	if err != nil {
		return nil, apperr.Internal("count bookings", err)
	}
	revenue, err := s.store.Bookings().CompletedRevenue(ctx, venueID)
	if err != nil {
		return nil, apperr.Internal("sum revenue", err)
	}

	stats := &VenueStats{
		VenueID:           venueID,
		PendingBookings:   counts[domain.BookingStatusPending],
		ConfirmedBookings: counts[domain.BookingStatusConfirmed],
		CompletedBookings: counts[domain.BookingStatusCompleted],
		CancelledBookings: counts[domain.BookingStatusCancelled],
		TotalRevenue:      revenue,
	}
	for _, n := range counts {
		stats.TotalBookings += n
	}
	return stats, nil
}

// requireManager admits the venue owner and admins.
func (s *BookingService) requireManager(ctx context.Context, venueID int64, actor domain.Actor) error {
	venue, err := s.store.Directory().GetVenue(ctx, venueID)
	if err != nil {
		return translate(err, "venue", venueID)
	}
	if !actor.CanManage(venue) {
		return apperr.Unauthorized("only the venue owner can view its bookings")
	}
	return nil
}

// CompleteFinishedBookings moves confirmed bookings whose event has ended to
// COMPLETED. A booking that fails is logged and left for the next run.
func (s *BookingService) CompleteFinishedBookings(ctx context.Context) (completed []domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.CompleteFinished")
	defer func() { endSpan(span, err) }()

	now := s.now()
	candidates, err := s.store.Bookings().ListByStatusThrough(ctx, domain.BookingStatusConfirmed, s.today())
	if err != nil {
		return nil, apperr.Internal("list confirmed bookings", err)
	}

	var errs []error
	for _, c := range candidates {
		if c.EndsAt(s.location).After(now) {
			continue
		}

		var done *domain.Booking
		err := s.store.WithBookingLock(ctx, c.ID, func(tx repository.Store) error {
			current, err := tx.Bookings().GetByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if current.Status != domain.BookingStatusConfirmed {
				return nil
			}
			current.Status = domain.BookingStatusCompleted
			current.CompletedAt = &now
			if err := tx.Bookings().Update(ctx, current); err != nil {
				return err
			}
			done = current
			return nil
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to complete booking", "booking_id", c.ID, "err", err)
			errs = append(errs, fmt.Errorf("complete booking %d: %w", c.ID, err))
			continue
		}
		if done == nil {
			continue
		}
		completed = append(completed, *done)
		s.emitter.Emit(ctx, events.ForBooking(events.BookingCompleted, done, now))
	}

	span.SetAttributes(attribute.Int("bookings.completed", len(completed)))
	if len(completed) > 0 {
		s.logger.InfoContext(ctx, "bookings completed", "count", len(completed))
	}
	if len(errs) > 0 {
		return completed, apperr.Internal("complete finished bookings", errors.Join(errs...))
	}
	return completed, nil
}

func loadBooking(ctx context.Context, store repository.Store, bookingID int64) (*domain.Booking, *domain.Venue, error) {
	b, err := store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	venue, err := store.Directory().GetVenue(ctx, b.VenueID)
	if err != nil {
		return nil, nil, fmt.Errorf("venue %d of booking %d: %w", b.VenueID, b.ID, err)
	}
	return b, venue, nil
}

func translate(err error, entity string, id int64) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(entity, id)
	default:
		return apperr.Internal("booking store", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ BookingUseCase = (*BookingService)(nil)
