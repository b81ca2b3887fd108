package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
)

type PGPaymentRepository struct {
	db querier
}

const paymentColumns = `id, payment_reference, booking_id, amount, payment_method, payment_status, transaction_id,
	bank_name, account_number, transfer_receipt_url, paid_at, created_at, updated_at`

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO payments (payment_reference, booking_id, amount, payment_method, payment_status,
		transaction_id, bank_name, account_number, transfer_receipt_url, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		p.Reference, p.BookingID, p.Amount, p.Method, p.Status, p.TransactionID, p.BankName, p.AccountNumber, p.ReceiptURL, p.PaidAt).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *PGPaymentRepository) GetByTransaction(ctx context.Context, bookingID int64, transactionID string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 AND transaction_id=$2`, bookingID, transactionID))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *PGPaymentRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `UPDATE payments SET payment_status=$1, paid_at=$2, updated_at=now()
		WHERE id=$3 RETURNING `+paymentColumns, domain.PaymentStatusPaid, paidAt, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.Reference, &p.BookingID, &p.Amount, &p.Method, &p.Status, &p.TransactionID,
		&p.BankName, &p.AccountNumber, &p.ReceiptURL, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
