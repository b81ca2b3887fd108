package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

type PGBookingRepository struct {
	db querier
}

const bookingColumns = `id, booking_reference, customer_id, venue_id, event_type_id, event_date, start_time, end_time,
	guest_count, event_title, special_requests, base_price, additional_charges, discount, total_amount,
	booking_status, payment_status, created_at, updated_at, confirmed_at, cancelled_at, cancelled_by,
	cancellation_reason, completed_at`

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (booking_reference, customer_id, venue_id, event_type_id, event_date,
		start_time, end_time, guest_count, event_title, special_requests, base_price, additional_charges, discount,
		total_amount, booking_status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.CustomerID, b.VenueID, b.EventTypeID, pgDate(b.EventDate),
		pgTime(b.StartTime), pgTime(b.EndTime), b.GuestCount, b.EventTitle, b.SpecialRequests,
		b.BasePrice, b.AdditionalCharges, b.Discount, b.TotalAmount, b.Status, b.PaymentStatus).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return mapErr(err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListLive(ctx context.Context, venueID int64, date domain.Date) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE venue_id=$1 AND event_date=$2 AND booking_status = ANY($3)
		ORDER BY start_time`, venueID, pgDate(date), liveStatuses())
}

func liveStatuses() []string {
	out := make([]string, 0, len(domain.LiveBookingStatuses))
	for _, s := range domain.LiveBookingStatuses {
		out = append(out, string(s))
	}
	return out
}

func (r *PGBookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CustomerID != 0 {
		add("customer_id=$%d", f.CustomerID)
	}
	if f.VenueID != 0 {
		add("venue_id=$%d", f.VenueID)
	}
	if f.Status != "" {
		add("booking_status=$%d", f.Status)
	}

	sql := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.query(ctx, sql, args...)
}

func (r *PGBookingRepository) ListByStatusThrough(ctx context.Context, status domain.BookingStatus, through domain.Date) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE booking_status=$1 AND event_date <= $2
		ORDER BY event_date, end_time`, status, pgDate(through))
}

func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET booking_status=$1, payment_status=$2, confirmed_at=$3, cancelled_at=$4,
		cancelled_by=$5, cancellation_reason=$6, completed_at=$7, updated_at=now()
		WHERE id=$8
		RETURNING updated_at`,
		b.Status, b.PaymentStatus, b.ConfirmedAt, b.CancelledAt, b.CancelledBy, b.CancellationReason, b.CompletedAt, b.ID)
	return mapErr(row.Scan(&b.UpdatedAt))
}

func (r *PGBookingRepository) CountByStatus(ctx context.Context, venueID int64) (map[domain.BookingStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT booking_status, count(*) FROM bookings WHERE venue_id=$1 GROUP BY booking_status`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.BookingStatus]int)
	for rows.Next() {
		var (
			status domain.BookingStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *PGBookingRepository) CompletedRevenue(ctx context.Context, venueID int64) (int64, error) {
	var revenue int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM bookings
		WHERE venue_id=$1 AND booking_status=$2 AND payment_status=$3`,
		venueID, domain.BookingStatusCompleted, domain.PaymentStatusPaid).Scan(&revenue)
	return revenue, err
}

func (r *PGBookingRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var (
		b          domain.Booking
		date       time.Time
		start, end pgtype.Time
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.CustomerID, &b.VenueID, &b.EventTypeID, &date, &start, &end,
		&b.GuestCount, &b.EventTitle, &b.SpecialRequests, &b.BasePrice, &b.AdditionalCharges, &b.Discount, &b.TotalAmount,
		&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt, &b.CancelledAt, &b.CancelledBy,
		&b.CancellationReason, &b.CompletedAt); err != nil {
		return nil, err
	}
	b.EventDate = domain.DateOf(date)
	b.StartTime = fromPGTime(start)
	b.EndTime = fromPGTime(end)
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
