package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/venuebooking/internal/apperr"
	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/service/settlement"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSettlementUseCase is a mock implementation of settlement.SettlementUseCase
type MockSettlementUseCase struct {
	mock.Mock
}

func (m *MockSettlementUseCase) RecordPayment(ctx context.Context, input settlement.RecordPaymentInput) (*settlement.Receipt, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Receipt), args.Error(1)
}

func (m *MockSettlementUseCase) ConfirmPayment(ctx context.Context, paymentID, actorID int64) (*settlement.Receipt, error) {
	args := m.Called(ctx, paymentID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Receipt), args.Error(1)
}

func (m *MockSettlementUseCase) ListPayments(ctx context.Context, bookingID int64, actor domain.Actor) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID, actor)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func samplePayment(status domain.PaymentStatus) domain.Payment {
	return domain.Payment{
		ID:        7,
		Reference: "PAY20251220AAAA0001",
		BookingID: 1,
		Amount:    5000,
		Method:    domain.PaymentMethodBankTransfer,
		Status:    status,
	}
}

func TestPaymentHandler_record(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	amount := int64(5000)
	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/1/payments", recordPaymentRequest{
		Amount:        &amount,
		Method:        "bank_transfer",
		TransactionID: "TX-1",
	})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	withIdentity(c, 2, domain.RoleCustomer)

	mockService.On("RecordPayment", c.Request.Context(), mock.MatchedBy(func(in settlement.RecordPaymentInput) bool {
		return in.BookingID == 1 && in.ActorID == 2 && in.Amount != nil && *in.Amount == 5000 && in.TransactionID == "TX-1"
	})).Return(&settlement.Receipt{
		Payment:       samplePayment(domain.PaymentStatusPending),
		PaymentStatus: domain.PaymentStatusPending,
	}, nil)

	handler.record(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp receiptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY20251220AAAA0001", resp.Payment.Reference)
	assert.Equal(t, domain.PaymentStatusPending, resp.PaymentStatus)
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_recordReplay(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/1/payments", recordPaymentRequest{Method: "card", TransactionID: "TX-1"})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	withIdentity(c, 2, domain.RoleCustomer)

	mockService.On("RecordPayment", c.Request.Context(), mock.Anything).Return(&settlement.Receipt{
		Payment:  samplePayment(domain.PaymentStatusPaid),
		Replayed: true,
	}, nil)

	handler.record(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPaymentHandler_recordInvalidAmount(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/1/payments", recordPaymentRequest{Method: "cash"})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	withIdentity(c, 2, domain.RoleCustomer)

	mockService.On("RecordPayment", c.Request.Context(), mock.Anything).
		Return(nil, apperr.New(apperr.KindInvalidAmount, "payment amount must be greater than zero"))

	handler.record(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.KindInvalidAmount, decodeError(t, w).Kind)
}

func TestPaymentHandler_confirm(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/payments/7/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	withIdentity(c, 2, domain.RoleCustomer)

	mockService.On("ConfirmPayment", c.Request.Context(), int64(7), int64(2)).
		Return(nil, apperr.Unauthorized("only the venue owner can confirm a payment"))

	handler.confirm(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertExpectations(t)
}

func TestPaymentHandler_list(t *testing.T) {
	mockService := &MockSettlementUseCase{}
	handler := NewPaymentHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/1/payments", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	withIdentity(c, 2, domain.RoleCustomer)

	mockService.On("ListPayments", c.Request.Context(), int64(1), domain.Actor{UserID: 2, Role: domain.RoleCustomer}).
		Return([]domain.Payment{samplePayment(domain.PaymentStatusPaid)}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Payments []paymentResponse `json:"payments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Payments, 1)
}
