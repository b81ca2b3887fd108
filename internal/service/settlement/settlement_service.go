package settlement

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
	"github.com/Domenick1991/venuebooking/internal/service/booking"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	referencePrefix      = "PAY"
	maxReferenceAttempts = 5
)

type SettlementUseCase interface {
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*Receipt, error)
	ConfirmPayment(ctx context.Context, paymentID, actorID int64) (*Receipt, error)
	ListPayments(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.Payment, error)
}

type SettlementService struct {
	store     repository.Store
	emitter   *events.Emitter
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	reference func(now time.Time) string
}

// RecordPaymentInput describes a payment received for a booking. A nil Amount
// settles the booking total. ActorID, when set, must be the customer or the
// venue owner.
type RecordPaymentInput struct {
	BookingID     int64  `json:"booking_id"`
	ActorID       int64  `json:"-"`
	Amount        *int64 `json:"amount"`
	Method        string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	ReceiptURL    string `json:"receipt_url"`
}

// Receipt is a payment together with the booking state it produced.
// Replayed is set when a known transaction id returned an earlier payment.
type Receipt struct {
	Payment       domain.Payment
	PaymentStatus domain.PaymentStatus
	TotalPaid     int64
	Replayed      bool
}

type SettlementServiceOption func(*SettlementService)

func WithLogger(logger *slog.Logger) SettlementServiceOption {
	return func(s *SettlementService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) SettlementServiceOption {
	return func(s *SettlementService) {
		s.now = now
	}
}

func WithReferenceGenerator(gen func(now time.Time) string) SettlementServiceOption {
	return func(s *SettlementService) {
		s.reference = gen
	}
}

func NewSettlementService(store repository.Store, emitter *events.Emitter, opts ...SettlementServiceOption) *SettlementService {
	service := &SettlementService{
		store:   store,
		emitter: emitter,
		logger:  slog.Default(),
		tracer:  otel.Tracer("venuebooking/settlement"),
		now:     time.Now,
		reference: func(now time.Time) string {
			return booking.GenerateReference(referencePrefix, now)
		},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *SettlementService) RecordPayment(ctx context.Context, input RecordPaymentInput) (receipt *Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "settlement.RecordPayment", trace.WithAttributes(attribute.Int64("booking.id", input.BookingID)))
	defer func() { endSpan(span, err) }()

	if input.BookingID == 0 {
		return nil, apperr.MissingField("booking_id")
	}
	if strings.TrimSpace(input.Method) == "" {
		return nil, apperr.MissingField("payment_method")
	}
	method, err := domain.ParsePaymentMethod(input.Method)
	if err != nil {
		return nil, apperr.InvalidValue("payment_method", err.Error())
	}
	txID := strings.TrimSpace(input.TransactionID)

	var b *domain.Booking
	for attempt := 1; ; attempt++ {
		reference := s.reference(s.now())
		err = s.store.WithBookingLock(ctx, input.BookingID, func(tx repository.Store) error {
			var err error
			b, receipt, err = s.record(ctx, tx, input, method, txID, reference)
			return err
		})
		if !errors.Is(err, repository.ErrDuplicateReference) || attempt == maxReferenceAttempts {
			break
		}
		s.logger.WarnContext(ctx, "payment reference collision, retrying", "reference", reference, "attempt", attempt)
	}
	if err != nil {
		return nil, translate(err, "booking", input.BookingID)
	}
	if receipt.Replayed {
		s.logger.InfoContext(ctx, "payment replayed", "payment_id", receipt.Payment.ID, "transaction_id", txID)
		return receipt, nil
	}

	span.SetAttributes(attribute.String("payment.reference", receipt.Payment.Reference))
	s.logger.InfoContext(ctx, "payment recorded",
		"payment_id", receipt.Payment.ID,
		"booking_id", b.ID,
		"amount", receipt.Payment.Amount,
		"method", receipt.Payment.Method,
		"payment_status", receipt.PaymentStatus,
	)
	s.emitter.Emit(ctx, events.ForPayment(events.PaymentRecorded, b, &receipt.Payment, s.now()))
	return receipt, nil
}

func (s *SettlementService) record(
	ctx context.Context,
	tx repository.Store,
	input RecordPaymentInput,
	method domain.PaymentMethod,
	txID, reference string,
) (*domain.Booking, *Receipt, error) {
	b, venue, err := loadBooking(ctx, tx, input.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if input.ActorID != 0 && input.ActorID != b.CustomerID && !venue.OwnedBy(input.ActorID) {
		return nil, nil, apperr.Unauthorized("only the customer or the venue owner can record a payment")
	}

	if txID != "" {
		existing, err := tx.Payments().GetByTransaction(ctx, b.ID, txID)
		switch {
		case err == nil:
			paid, err := tx.Payments().ListByBooking(ctx, b.ID)
			if err != nil {
				return nil, nil, err
			}
			return b, &Receipt{Payment: *existing, PaymentStatus: b.PaymentStatus, TotalPaid: domain.PaidTotal(paid), Replayed: true}, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, nil, err
		}
	}

	if b.Status == domain.BookingStatusCancelled {
		return nil, nil, apperr.InvalidTransition("payments cannot be recorded for a cancelled booking").
			WithDetail("status", b.Status)
	}

	payments, err := tx.Payments().ListByBooking(ctx, b.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list payments: %w", err)
	}
	remaining := b.TotalAmount - domain.PaidTotal(payments)
	if b.PaymentStatus == domain.PaymentStatusPaid || remaining <= 0 {
		return nil, nil, apperr.New(apperr.KindInvalidAmount, "booking is already fully paid").
			WithDetail("total_amount", b.TotalAmount).
			WithDetail("remaining", max(remaining, 0))
	}

	// Pending transfers are not counted, so confirming them later can still
	// take the paid total past the booking total.
	amount := remaining
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount <= 0 || amount > remaining {
		return nil, nil, apperr.Newf(apperr.KindInvalidAmount, "payment amount must be greater than zero and at most %d", remaining).
			WithDetail("amount", amount).
			WithDetail("total_amount", b.TotalAmount).
			WithDetail("remaining", remaining)
	}

	p := &domain.Payment{
		Reference:     reference,
		BookingID:     b.ID,
		Amount:        amount,
		Method:        method,
		Status:        domain.PaymentStatusPending,
		TransactionID: txID,
		BankName:      strings.TrimSpace(input.BankName),
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		ReceiptURL:    strings.TrimSpace(input.ReceiptURL),
	}
	if method.SettlesInstantly() {
		paidAt := s.now()
		p.Status = domain.PaymentStatusPaid
		p.PaidAt = &paidAt
	}
	if err := tx.Payments().Create(ctx, p); err != nil {
		return nil, nil, err
	}

	total, err := settle(ctx, tx, b)
	if err != nil {
		return nil, nil, err
	}
	return b, &Receipt{Payment: *p, PaymentStatus: b.PaymentStatus, TotalPaid: total}, nil
}

func (s *SettlementService) ConfirmPayment(ctx context.Context, paymentID, actorID int64) (receipt *Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "settlement.ConfirmPayment", trace.WithAttributes(attribute.Int64("payment.id", paymentID)))
	defer func() { endSpan(span, err) }()

	p, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return nil, translate(err, "payment", paymentID)
	}

	var b *domain.Booking
	err = s.store.WithBookingLock(ctx, p.BookingID, func(tx repository.Store) error {
		current, venue, err := loadBooking(ctx, tx, p.BookingID)
		if err != nil {
			return err
		}
		if !venue.OwnedBy(actorID) {
			return apperr.Unauthorized("only the venue owner can confirm a payment")
		}
		payment, err := tx.Payments().GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusPending {
			return apperr.InvalidTransition("only pending payments can be confirmed").
				WithDetail("status", payment.Status)
		}
		paid, err := tx.Payments().MarkPaid(ctx, paymentID, s.now())
		if err != nil {
			return err
		}
		total, err := settle(ctx, tx, current)
		if err != nil {
			return err
		}
		b = current
		receipt = &Receipt{Payment: *paid, PaymentStatus: current.PaymentStatus, TotalPaid: total}
		return nil
	})
	if err != nil {
		return nil, translate(err, "payment", paymentID)
	}

	s.logger.InfoContext(ctx, "payment confirmed",
		"payment_id", paymentID,
		"booking_id", b.ID,
		"payment_status", receipt.PaymentStatus,
	)
	s.emitter.Emit(ctx, events.ForPayment(events.PaymentConfirmed, b, &receipt.Payment, s.now()))
	return receipt, nil
}

func (s *SettlementService) ListPayments(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.Payment, error) {
	b, venue, err := loadBooking(ctx, s.store, bookingID)
	if err != nil {
		return nil, translate(err, "booking", bookingID)
	}
	if !actor.CanView(b, venue) {
		return nil, apperr.Unauthorized("only the customer or the venue owner can view payments")
	}
	payments, err := s.store.Payments().ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, apperr.Internal("list payments", err)
	}
	return payments, nil
}

// settle re-derives the booking payment status from its PAID payments and
// stores it when it changed.
func settle(ctx context.Context, tx repository.Store, b *domain.Booking) (int64, error) {
	payments, err := tx.Payments().ListByBooking(ctx, b.ID)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}
	status := domain.SettlementStatus(b.TotalAmount, payments, b.PaymentStatus)
	if status != b.PaymentStatus {
		b.PaymentStatus = status
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return 0, fmt.Errorf("update payment status: %w", err)
		}
	}
	return domain.PaidTotal(payments), nil
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
		return apperr.Internal("settlement store", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ SettlementUseCase = (*SettlementService)(nil)
