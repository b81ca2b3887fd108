package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/events"
	"github.com/Domenick1991/venuebooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDirectory implements repository.DirectoryRepository
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockDirectory) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Venue), args.Error(1)
}

func (m *MockDirectory) GetEventType(ctx context.Context, id int64) (*domain.EventType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventType), args.Error(1)
}

// MockTransport implements Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Deliver(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func sampleEvent(t events.Type) events.Event {
	return events.Event{
		Type:             t,
		BookingID:        42,
		BookingReference: "VB20251220ABCDEF12",
		VenueID:          10,
		CustomerID:       2,
		EventDate:        domain.NewDate(2025, 12, 25),
		StartTime:        domain.NewTimeOfDay(9, 0),
		EndTime:          domain.NewTimeOfDay(12, 0),
		BookingStatus:    domain.BookingStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		TotalAmount:      16000,
		OccurredAt:       time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestCompose(t *testing.T) {
	subject, body, ok := Compose(sampleEvent(events.BookingCreated))
	require.True(t, ok)
	assert.Equal(t, "Booking received", subject)
	assert.Equal(t, "Booking VB20251220ABCDEF12 for 2025-12-25 09:00-12:00 is pending venue confirmation. Total: 160.00.", body)

	paid := sampleEvent(events.PaymentConfirmed)
	paid.PaymentReference = "PAY20251220AAAA0001"
	paid.Amount = 16000
	paid.PaymentStatus = domain.PaymentStatusPaid
	subject, _, ok = Compose(paid)
	require.True(t, ok)
	assert.Equal(t, "Payment received, booking fully paid", subject)

	_, _, ok = Compose(sampleEvent(events.BookingCompleted))
	assert.False(t, ok)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "150.00", formatAmount(15000))
	assert.Equal(t, "-1.50", formatAmount(-150))
}

func TestSender_HandleMessage(t *testing.T) {
	ctx := context.Background()
	dir := &MockDirectory{}
	transport := &MockTransport{}
	sender := NewSender(dir, transport, nil)

	dir.On("GetUser", ctx, int64(2)).Return(&domain.User{ID: 2, Email: "customer@example.com"}, nil).Once()
	transport.On("Deliver", ctx, mock.MatchedBy(func(msg Message) bool {
		return msg.To == "customer@example.com" && msg.Subject == "Booking confirmed"
	})).Return(nil).Once()

	payload, err := json.Marshal(sampleEvent(events.BookingConfirmed))
	require.NoError(t, err)

	require.NoError(t, sender.HandleMessage(ctx, payload))

	dir.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestSender_SkipsWhatCannotBeDelivered(t *testing.T) {
	ctx := context.Background()
	dir := &MockDirectory{}
	transport := &MockTransport{}
	sender := NewSender(dir, transport, nil)

	// Test 1: malformed payload
	assert.NoError(t, sender.HandleMessage(ctx, []byte("{not json")))

	// Test 2: unknown recipient
	dir.On("GetUser", ctx, int64(2)).Return(nil, repository.ErrNotFound).Once()
	assert.NoError(t, sender.Send(ctx, sampleEvent(events.BookingCancelled)))

	// Test 3: event without notification
	assert.NoError(t, sender.Send(ctx, sampleEvent(events.BookingCompleted)))

	transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestSender_PropagatesFailures(t *testing.T) {
	ctx := context.Background()
	dir := &MockDirectory{}
	transport := &MockTransport{}
	sender := NewSender(dir, transport, nil)

	dir.On("GetUser", ctx, int64(2)).Return(nil, errors.New("db down")).Once()
	assert.Error(t, sender.Send(ctx, sampleEvent(events.BookingCreated)))

	dir.On("GetUser", ctx, int64(2)).Return(&domain.User{ID: 2, Email: "c@example.com"}, nil).Once()
	transport.On("Deliver", ctx, mock.Anything).Return(errors.New("smtp down")).Once()
	assert.Error(t, sender.Send(ctx, sampleEvent(events.BookingCreated)))
}
