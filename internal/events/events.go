// Package events defines the booking and payment events published after a
// state change commits, and the emitter the services publish them through.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
)

type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
	BookingCompleted Type = "booking.completed"
	PaymentRecorded  Type = "payment.recorded"
	PaymentConfirmed Type = "payment.confirmed"
)

type Event struct {
	Type             Type                 `json:"type"`
	BookingID        int64                `json:"booking_id"`
	BookingReference string               `json:"booking_reference"`
	VenueID          int64                `json:"venue_id"`
	CustomerID       int64                `json:"customer_id"`
	EventDate        domain.Date          `json:"event_date"`
	StartTime        domain.TimeOfDay     `json:"start_time"`
	EndTime          domain.TimeOfDay     `json:"end_time"`
	BookingStatus    domain.BookingStatus `json:"booking_status"`
	PaymentStatus    domain.PaymentStatus `json:"payment_status"`
	TotalAmount      int64                `json:"total_amount"`
	PaymentID        int64                `json:"payment_id,omitempty"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	Amount           int64                `json:"amount,omitempty"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

func ForBooking(t Type, b *domain.Booking, at time.Time) Event {
	return Event{
		Type:             t,
		BookingID:        b.ID,
		BookingReference: b.Reference,
		VenueID:          b.VenueID,
		CustomerID:       b.CustomerID,
		EventDate:        b.EventDate,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		BookingStatus:    b.Status,
		PaymentStatus:    b.PaymentStatus,
		TotalAmount:      b.TotalAmount,
		OccurredAt:       at,
	}
}

func ForPayment(t Type, b *domain.Booking, p *domain.Payment, at time.Time) Event {
	ev := ForBooking(t, b, at)
	ev.PaymentID = p.ID
	ev.PaymentReference = p.Reference
	ev.Amount = p.Amount
	return ev
}

// Key partitions events by booking so consumers see them in order.
func (e Event) Key() string {
	if e.BookingReference != "" {
		return e.BookingReference
	}
	return strconv.FormatInt(e.BookingID, 10)
}

func Decode(b []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return ev, nil
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// Emitter publishes events to the events topic and, when set, the
// notifications topic. Publish failures are logged and never returned: the
// state change they describe has already committed.
type Emitter struct {
	producer           Producer
	topic              string
	notificationsTopic string
	logger             *slog.Logger
}

func NewEmitter(producer Producer, topic, notificationsTopic string, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		producer:           producer,
		topic:              topic,
		notificationsTopic: notificationsTopic,
		logger:             logger,
	}
}

func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil || e.producer == nil {
		return
	}
	for _, topic := range []string{e.topic, e.notificationsTopic} {
		if topic == "" {
			continue
		}
		if err := e.producer.Publish(ctx, topic, ev.Key(), ev); err != nil {
			e.logger.WarnContext(ctx, "failed to publish event",
				"type", ev.Type, "topic", topic, "booking", ev.Key(), "err", err)
		}
	}
}
