package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewPGStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewPGStore(pool)

	assert.NotNil(t, store)
	assert.NotNil(t, store.Directory())
	assert.NotNil(t, store.Calendar())
	assert.NotNil(t, store.Bookings())
	assert.NotNil(t, store.Payments())
}

func TestMapErr(t *testing.T) {
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: uniqueViolation}), ErrDuplicateReference)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
	assert.NoError(t, mapErr(nil))
}

func TestPGTimeRoundTrip(t *testing.T) {
	for _, tod := range []domain.TimeOfDay{0, domain.NewTimeOfDay(9, 30), domain.NewTimeOfDay(23, 59), domain.NewTimeOfDay(24, 0)} {
		assert.Equal(t, tod, fromPGTime(pgTime(tod)))
	}
}
