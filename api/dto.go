package api

import (
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/service/settlement"
)

type bookingResponse struct {
	ID                 int64                `json:"id"`
	Reference          string               `json:"booking_reference"`
	CustomerID         int64                `json:"customer_id"`
	VenueID            int64                `json:"venue_id"`
	EventTypeID        int64                `json:"event_type_id"`
	EventDate          domain.Date          `json:"event_date"`
	StartTime          domain.TimeOfDay     `json:"start_time"`
	EndTime            domain.TimeOfDay     `json:"end_time"`
	GuestCount         int                  `json:"guest_count"`
	EventTitle         string               `json:"event_title,omitempty"`
	SpecialRequests    string               `json:"special_requests,omitempty"`
	BasePrice          int64                `json:"base_price"`
	AdditionalCharges  int64                `json:"additional_charges"`
	Discount           int64                `json:"discount"`
	TotalAmount        int64                `json:"total_amount"`
	Status             domain.BookingStatus `json:"status"`
	PaymentStatus      domain.PaymentStatus `json:"payment_status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	ConfirmedAt        *time.Time           `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CancelledBy        *int64               `json:"cancelled_by,omitempty"`
	CancellationReason string               `json:"cancellation_reason,omitempty"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
	Payments           []paymentResponse    `json:"payments,omitempty"`
}

type paymentResponse struct {
	ID            int64                `json:"id"`
	Reference     string               `json:"payment_reference"`
	BookingID     int64                `json:"booking_id"`
	Amount        int64                `json:"amount"`
	Method        domain.PaymentMethod `json:"payment_method"`
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	BankName      string               `json:"bank_name,omitempty"`
	AccountNumber string               `json:"account_number,omitempty"`
	ReceiptURL    string               `json:"receipt_url,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type receiptResponse struct {
	Payment       paymentResponse      `json:"payment"`
	PaymentStatus domain.PaymentStatus `json:"booking_payment_status"`
	TotalPaid     int64                `json:"total_paid"`
	Replayed      bool                 `json:"replayed,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		CustomerID:         b.CustomerID,
		VenueID:            b.VenueID,
		EventTypeID:        b.EventTypeID,
		EventDate:          b.EventDate,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		GuestCount:         b.GuestCount,
		EventTitle:         b.EventTitle,
		SpecialRequests:    b.SpecialRequests,
		BasePrice:          b.BasePrice,
		AdditionalCharges:  b.AdditionalCharges,
		Discount:           b.Discount,
		TotalAmount:        b.TotalAmount,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		ConfirmedAt:        b.ConfirmedAt,
		CancelledAt:        b.CancelledAt,
		CancelledBy:        b.CancelledBy,
		CancellationReason: b.CancellationReason,
		CompletedAt:        b.CompletedAt,
	}
}

func toBookingList(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		Reference:     p.Reference,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		BankName:      p.BankName,
		AccountNumber: p.AccountNumber,
		ReceiptURL:    p.ReceiptURL,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}

func toPaymentList(payments []domain.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentResponse(&payments[i]))
	}
	return out
}

func toReceiptResponse(r *settlement.Receipt) receiptResponse {
	return receiptResponse{
		Payment:       toPaymentResponse(&r.Payment),
		PaymentStatus: r.PaymentStatus,
		TotalPaid:     r.TotalPaid,
		Replayed:      r.Replayed,
	}
}
