package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type PGStore struct {
	pool *pgxpool.Pool
	db   querier
	tx   pgx.Tx
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, db: pool}
}

func (s *PGStore) Directory() DirectoryRepository { return &PGDirectoryRepository{db: s.db} }
func (s *PGStore) Calendar() CalendarRepository   { return &PGCalendarRepository{db: s.db} }
func (s *PGStore) Bookings() BookingRepository    { return &PGBookingRepository{db: s.db} }
func (s *PGStore) Payments() PaymentRepository    { return &PGPaymentRepository{db: s.db} }

// WithVenueLock locks the venue row FOR UPDATE for the life of the transaction,
// serializing every booking admission for that venue.
func (s *PGStore) WithVenueLock(ctx context.Context, venueID int64, fn func(Store) error) error {
	return s.inTx(ctx, func(tx *PGStore) error {
		var id int64
		if err := tx.db.QueryRow(ctx, `SELECT id FROM venues WHERE id=$1 FOR UPDATE`, venueID).Scan(&id); err != nil {
			return mapErr(err)
		}
		return fn(tx)
	})
}

func (s *PGStore) WithBookingLock(ctx context.Context, bookingID int64, fn func(Store) error) error {
	return s.inTx(ctx, func(tx *PGStore) error {
		var id int64
		if err := tx.db.QueryRow(ctx, `SELECT id FROM bookings WHERE id=$1 FOR UPDATE`, bookingID).Scan(&id); err != nil {
			return mapErr(err)
		}
		return fn(tx)
	})
}

func (s *PGStore) inTx(ctx context.Context, fn func(*PGStore) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{pool: s.pool, db: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateReference
	}
	return err
}

func pgDate(d domain.Date) time.Time {
	return d.Time()
}

func pgTime(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

func fromPGTime(t pgtype.Time) domain.TimeOfDay {
	return domain.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

var _ Store = (*PGStore)(nil)
