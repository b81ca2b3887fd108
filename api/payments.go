package api

import (
	"net/http"

	"github.com/Domenick1991/venuebooking/internal/service/settlement"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service settlement.SettlementUseCase
}

type recordPaymentRequest struct {
	Amount        *int64 `json:"amount"`
	Method        string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	ReceiptURL    string `json:"receipt_url"`
}

func NewPaymentHandler(service settlement.SettlementUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings/:id/payments", h.record)
	router.GET("/bookings/:id/payments", h.list)
	router.POST("/payments/:id/confirm", h.confirm)
}

func (h *PaymentHandler) record(c *gin.Context) {
	identity, _ := identityFrom(c)
	bookingID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req recordPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	receipt, err := h.service.RecordPayment(c.Request.Context(), settlement.RecordPaymentInput{
		BookingID:     bookingID,
		ActorID:       identity.UserID,
		Amount:        req.Amount,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		ReceiptURL:    req.ReceiptURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	code := http.StatusCreated
	if receipt.Replayed {
		code = http.StatusOK
	}
	c.JSON(code, toReceiptResponse(receipt))
}

func (h *PaymentHandler) list(c *gin.Context) {
	identity, _ := identityFrom(c)
	bookingID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	payments, err := h.service.ListPayments(c.Request.Context(), bookingID, identity.Actor())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": bookingID, "payments": toPaymentList(payments)})
}

func (h *PaymentHandler) confirm(c *gin.Context) {
	identity, _ := identityFrom(c)
	paymentID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	receipt, err := h.service.ConfirmPayment(c.Request.Context(), paymentID, identity.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptResponse(receipt))
}
