package repository

import (
	"context"

	"github.com/Domenick1991/venuebooking/internal/domain"
)

type PGDirectoryRepository struct {
	db querier
}

func (r *PGDirectoryRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, role, email, is_active FROM users WHERE id=$1`, id)
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &role, &u.Email, &u.IsActive); err != nil {
		return nil, mapErr(err)
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

func (r *PGDirectoryRepository) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, name, capacity, price_per_hour_cents, price_per_day_cents, is_active, created_at, updated_at FROM venues WHERE id=$1`, id)
	var v domain.Venue
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Capacity, &v.PricePerHourCents, &v.PricePerDayCents, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (r *PGDirectoryRepository) GetEventType(ctx context.Context, id int64) (*domain.EventType, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, is_active FROM event_types WHERE id=$1`, id)
	var et domain.EventType
	if err := row.Scan(&et.ID, &et.Name, &et.IsActive); err != nil {
		return nil, mapErr(err)
	}
	return &et, nil
}

var _ DirectoryRepository = (*PGDirectoryRepository)(nil)
