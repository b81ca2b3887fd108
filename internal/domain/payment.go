package domain

import (
	"fmt"
	"strings"
	"time"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileWallet PaymentMethod = "MOBILE_WALLET"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodMobileWallet:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// SettlesInstantly reports whether payments in this method are paid on receipt.
func (m PaymentMethod) SettlesInstantly() bool {
	return m == PaymentMethodCash
}

type Payment struct {
	ID            int64
	Reference     string
	BookingID     int64
	Amount        int64
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	BankName      string
	AccountNumber string
	ReceiptURL    string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaidTotal sums the PAID payments.
func PaidTotal(payments []Payment) int64 {
	var paid int64
	for _, p := range payments {
		if p.Status == PaymentStatusPaid {
			paid += p.Amount
		}
	}
	return paid
}

// SettlementStatus derives a booking payment status from its payments. Only
// PAID payments count; current is kept while nothing has been paid.
func SettlementStatus(total int64, payments []Payment, current PaymentStatus) PaymentStatus {
	paid := PaidTotal(payments)
	switch {
	case paid >= total:
		return PaymentStatusPaid
	case paid > 0:
		return PaymentStatusPartial
	default:
		return current
	}
}
