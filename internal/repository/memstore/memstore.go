// Package memstore is an in-process repository.Store. Writers are serialized
// and work on a private copy of the state that replaces the committed copy
// only when the transaction succeeds; readers see the last committed copy.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
)

type state struct {
	users      map[int64]domain.User
	venues     map[int64]domain.Venue
	eventTypes map[int64]domain.EventType
	hours      map[int64][]domain.OperatingHours
	blocks     map[int64]domain.BlockedDateRange
	slots      map[int64]domain.AvailabilitySlot
	bookings   map[int64]domain.Booking
	payments   map[int64]domain.Payment
	lastID     int64
}

func newState() *state {
	return &state{
		users:      make(map[int64]domain.User),
		venues:     make(map[int64]domain.Venue),
		eventTypes: make(map[int64]domain.EventType),
		hours:      make(map[int64][]domain.OperatingHours),
		blocks:     make(map[int64]domain.BlockedDateRange),
		slots:      make(map[int64]domain.AvailabilitySlot),
		bookings:   make(map[int64]domain.Booking),
		payments:   make(map[int64]domain.Payment),
	}
}

func (s *state) clone() *state {
	hours := make(map[int64][]domain.OperatingHours, len(s.hours))
	for venueID, h := range s.hours {
		hours[venueID] = slices.Clone(h)
	}
	return &state{
		users:      maps.Clone(s.users),
		venues:     maps.Clone(s.venues),
		eventTypes: maps.Clone(s.eventTypes),
		hours:      hours,
		blocks:     maps.Clone(s.blocks),
		slots:      maps.Clone(s.slots),
		bookings:   maps.Clone(s.bookings),
		payments:   maps.Clone(s.payments),
		lastID:     s.lastID,
	}
}

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[state]
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(newState())
	return s
}

func (s *Store) root() *view {
	return &view{store: s}
}

func (s *Store) Directory() repository.DirectoryRepository { return s.root().Directory() }
func (s *Store) Calendar() repository.CalendarRepository   { return s.root().Calendar() }
func (s *Store) Bookings() repository.BookingRepository    { return s.root().Bookings() }
func (s *Store) Payments() repository.PaymentRepository    { return s.root().Payments() }

func (s *Store) WithVenueLock(ctx context.Context, venueID int64, fn func(repository.Store) error) error {
	return s.root().WithVenueLock(ctx, venueID, fn)
}

func (s *Store) WithBookingLock(ctx context.Context, bookingID int64, fn func(repository.Store) error) error {
	return s.root().WithBookingLock(ctx, bookingID, fn)
}

// transact runs fn against a private copy and commits it when fn succeeds.
func (s *Store) transact(ctx context.Context, fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.current.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.current.Store(next)
	return nil
}

// view is the store seen from outside (st == nil) or inside a transaction.
type view struct {
	store *Store
	st    *state
}

func (v *view) read() *state {
	if v.st != nil {
		return v.st
	}
	return v.store.current.Load()
}

func (v *view) write(ctx context.Context, fn func(*state) error) error {
	if v.st != nil {
		return fn(v.st)
	}
	return v.store.transact(ctx, fn)
}

func (v *view) Directory() repository.DirectoryRepository { return directory{v} }
func (v *view) Calendar() repository.CalendarRepository   { return calendar{v} }
func (v *view) Bookings() repository.BookingRepository    { return bookings{v} }
func (v *view) Payments() repository.PaymentRepository    { return payments{v} }

func (v *view) WithVenueLock(ctx context.Context, venueID int64, fn func(repository.Store) error) error {
	return v.write(ctx, func(st *state) error {
		if _, ok := st.venues[venueID]; !ok {
			return repository.ErrNotFound
		}
		return fn(&view{store: v.store, st: st})
	})
}

func (v *view) WithBookingLock(ctx context.Context, bookingID int64, fn func(repository.Store) error) error {
	return v.write(ctx, func(st *state) error {
		if _, ok := st.bookings[bookingID]; !ok {
			return repository.ErrNotFound
		}
		return fn(&view{store: v.store, st: st})
	})
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Store = (*view)(nil)
)
