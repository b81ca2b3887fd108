// Package notify turns booking events into customer notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/events"
	"github.com/Domenick1991/venuebooking/internal/repository"
)

// Message is one notification addressed to a user.
type Message struct {
	UserID  int64
	To      string
	Subject string
	Body    string
}

// Transport delivers composed messages.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Deliver(ctx context.Context, msg Message) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", "to", msg.To, "user_id", msg.UserID, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type Sender struct {
	directory repository.DirectoryRepository
	transport Transport
	logger    *slog.Logger
}

func NewSender(directory repository.DirectoryRepository, transport Transport, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if transport == nil {
		transport = LogTransport{Logger: logger}
	}
	return &Sender{directory: directory, transport: transport, logger: logger}
}

// HandleMessage decodes a raw event and sends its notification. Malformed
// payloads are logged and skipped so they are not redelivered forever.
func (s *Sender) HandleMessage(ctx context.Context, payload []byte) error {
	ev, err := events.Decode(payload)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping malformed event", "err", err)
		return nil
	}
	return s.Send(ctx, ev)
}

func (s *Sender) Send(ctx context.Context, ev events.Event) error {
	subject, body, ok := Compose(ev)
	if !ok {
		s.logger.DebugContext(ctx, "no notification for event", "type", ev.Type)
		return nil
	}

	msg := Message{UserID: ev.CustomerID, Subject: subject, Body: body}
	if s.directory != nil {
		user, err := s.directory.GetUser(ctx, ev.CustomerID)
		switch {
		case err == nil:
			msg.To = user.Email
		case errors.Is(err, repository.ErrNotFound):
			s.logger.WarnContext(ctx, "notification recipient not found", "user_id", ev.CustomerID)
			return nil
		default:
			return fmt.Errorf("lookup recipient %d: %w", ev.CustomerID, err)
		}
	}

	if err := s.transport.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s notification: %w", ev.Type, err)
	}
	return nil
}

// Compose renders the subject and body for ev; ok is false for event types
// that customers are not told about.
func Compose(ev events.Event) (subject, body string, ok bool) {
	when := fmt.Sprintf("%s %s-%s", ev.EventDate, ev.StartTime, ev.EndTime)

	switch ev.Type {
	case events.BookingCreated:
		return "Booking received",
			fmt.Sprintf("Booking %s for %s is pending venue confirmation. Total: %s.", ev.BookingReference, when, formatAmount(ev.TotalAmount)),
			true
	case events.BookingConfirmed:
		return "Booking confirmed",
			fmt.Sprintf("Booking %s for %s has been confirmed.", ev.BookingReference, when),
			true
	case events.BookingCancelled:
		return "Booking cancelled",
			fmt.Sprintf("Booking %s for %s has been cancelled.", ev.BookingReference, when),
			true
	case events.PaymentRecorded, events.PaymentConfirmed:
		status := "received"
		if ev.PaymentStatus == domain.PaymentStatusPaid {
			status = "received, booking fully paid"
		}
		return "Payment " + status,
			fmt.Sprintf("Payment %s of %s for booking %s: %s.", ev.PaymentReference, formatAmount(ev.Amount), ev.BookingReference, status),
			true
	default:
		return "", "", false
	}
}

func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
