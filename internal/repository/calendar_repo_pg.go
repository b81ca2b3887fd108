package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
)

type PGCalendarRepository struct {
	db querier
}

// ReplaceOperatingHours must run inside a venue lock so the delete and the
// inserts commit together.
func (r *PGCalendarRepository) ReplaceOperatingHours(ctx context.Context, venueID int64, hours []domain.OperatingHours) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM venue_operating_hours WHERE venue_id=$1`, venueID); err != nil {
		return err
	}
	for _, h := range hours {
		if _, err := r.db.Exec(ctx, `INSERT INTO venue_operating_hours (venue_id, day_of_week, open_time, close_time, is_closed)
			VALUES ($1, $2, $3, $4, $5)`, venueID, h.DayOfWeek, pgTime(h.OpenTime), pgTime(h.CloseTime), h.IsClosed); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *PGCalendarRepository) ListOperatingHours(ctx context.Context, venueID int64) ([]domain.OperatingHours, error) {
	rows, err := r.db.Query(ctx, `SELECT id, venue_id, day_of_week, open_time, close_time, is_closed FROM venue_operating_hours WHERE venue_id=$1 ORDER BY day_of_week`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make([]domain.OperatingHours, 0, 7)
	for rows.Next() {
		h, err := scanOperatingHours(rows)
		if err != nil {
			return nil, err
		}
		hours = append(hours, *h)
	}
	return hours, rows.Err()
}

func (r *PGCalendarRepository) GetOperatingHours(ctx context.Context, venueID int64, weekday int) (*domain.OperatingHours, error) {
	row := r.db.QueryRow(ctx, `SELECT id, venue_id, day_of_week, open_time, close_time, is_closed FROM venue_operating_hours WHERE venue_id=$1 AND day_of_week=$2`, venueID, weekday)
	h, err := scanOperatingHours(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return h, nil
}

func scanOperatingHours(row scanner) (*domain.OperatingHours, error) {
	var (
		h           domain.OperatingHours
		open, close pgtype.Time
	)
	if err := row.Scan(&h.ID, &h.VenueID, &h.DayOfWeek, &open, &close, &h.IsClosed); err != nil {
		return nil, err
	}
	h.OpenTime = fromPGTime(open)
	h.CloseTime = fromPGTime(close)
	return &h, nil
}

func (r *PGCalendarRepository) CreateBlockedRange(ctx context.Context, b *domain.BlockedDateRange) error {
	return r.db.QueryRow(ctx, `INSERT INTO venue_blocked_dates (venue_id, start_date, end_date, reason, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`, b.VenueID, pgDate(b.StartDate), pgDate(b.EndDate), b.Reason, b.CreatedBy).
		Scan(&b.ID, &b.CreatedAt)
}

func (r *PGCalendarRepository) ListBlockedRanges(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.BlockedDateRange, error) {
	rows, err := r.db.Query(ctx, `SELECT id, venue_id, start_date, end_date, reason, created_by, created_at
		FROM venue_blocked_dates
		WHERE venue_id=$1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date, id`, venueID, pgDate(from), pgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.BlockedDateRange
	for rows.Next() {
		var (
			b          domain.BlockedDateRange
			start, end time.Time
		)
		if err := rows.Scan(&b.ID, &b.VenueID, &start, &end, &b.Reason, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.StartDate = domain.DateOf(start)
		b.EndDate = domain.DateOf(end)
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

const slotColumns = `id, venue_id, date, start_time, end_time, status, created_at, updated_at`

func (r *PGCalendarRepository) CreateSlot(ctx context.Context, s *domain.AvailabilitySlot) error {
	return r.db.QueryRow(ctx, `INSERT INTO venue_availability (venue_id, date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, s.VenueID, pgDate(s.Date), pgTime(s.StartTime), pgTime(s.EndTime), s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PGCalendarRepository) GetSlot(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	s, err := scanSlot(r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM venue_availability WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *PGCalendarRepository) UpdateSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) (*domain.AvailabilitySlot, error) {
	s, err := scanSlot(r.db.QueryRow(ctx, `UPDATE venue_availability SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+slotColumns, status, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *PGCalendarRepository) ListSlots(ctx context.Context, venueID int64, from, to domain.Date) ([]domain.AvailabilitySlot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM venue_availability
		WHERE venue_id=$1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time`, venueID, pgDate(from), pgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, rows.Err()
}

func scanSlot(row scanner) (*domain.AvailabilitySlot, error) {
	var (
		s          domain.AvailabilitySlot
		date       time.Time
		start, end pgtype.Time
	)
	if err := row.Scan(&s.ID, &s.VenueID, &date, &start, &end, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Date = domain.DateOf(date)
	s.StartTime = fromPGTime(start)
	s.EndTime = fromPGTime(end)
	return &s, nil
}

var _ CalendarRepository = (*PGCalendarRepository)(nil)
