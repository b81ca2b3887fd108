package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"github.com/Domenick1991/venuebooking/internal/repository"
)

type directory struct{ v *view }

func (d directory) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := d.v.read().users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (d directory) GetVenue(_ context.Context, id int64) (*domain.Venue, error) {
	venue, ok := d.v.read().venues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &venue, nil
}

func (d directory) GetEventType(_ context.Context, id int64) (*domain.EventType, error) {
	et, ok := d.v.read().eventTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &et, nil
}

type calendar struct{ v *view }

func (c calendar) ReplaceOperatingHours(ctx context.Context, venueID int64, hours []domain.OperatingHours) error {
	return c.v.write(ctx, func(st *state) error {
		replaced := make([]domain.OperatingHours, 0, len(hours))
		for _, h := range hours {
			h.ID = st.nextID()
			h.VenueID = venueID
			replaced = append(replaced, h)
		}
		slices.SortFunc(replaced, func(a, b domain.OperatingHours) int { return cmp.Compare(a.DayOfWeek, b.DayOfWeek) })
		st.hours[venueID] = replaced
		return nil
	})
}

func (c calendar) ListOperatingHours(_ context.Context, venueID int64) ([]domain.OperatingHours, error) {
	return slices.Clone(c.v.read().hours[venueID]), nil
}

func (c calendar) GetOperatingHours(_ context.Context, venueID int64, weekday int) (*domain.OperatingHours, error) {
	for _, h := range c.v.read().hours[venueID] {
		if h.DayOfWeek == weekday {
			return &h, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c calendar) CreateBlockedRange(ctx context.Context, b *domain.BlockedDateRange) error {
	return c.v.write(ctx, func(st *state) error {
		b.ID = st.nextID()
		b.CreatedAt = c.v.store.now()
		st.blocks[b.ID] = *b
		return nil
	})
}

func (c calendar) ListBlockedRanges(_ context.Context, venueID int64, from, to domain.Date) ([]domain.BlockedDateRange, error) {
	var out []domain.BlockedDateRange
	for _, b := range c.v.read().blocks {
		if b.VenueID == venueID && b.Intersects(from, to) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b domain.BlockedDateRange) int {
		if c := a.StartDate.Time().Compare(b.StartDate.Time()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (c calendar) CreateSlot(ctx context.Context, s *domain.AvailabilitySlot) error {
	return c.v.write(ctx, func(st *state) error {
		now := c.v.store.now()
		s.ID = st.nextID()
		s.CreatedAt, s.UpdatedAt = now, now
		st.slots[s.ID] = *s
		return nil
	})
}

func (c calendar) GetSlot(_ context.Context, id int64) (*domain.AvailabilitySlot, error) {
	s, ok := c.v.read().slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (c calendar) UpdateSlotStatus(ctx context.Context, id int64, status domain.SlotStatus) (*domain.AvailabilitySlot, error) {
	var updated domain.AvailabilitySlot
	err := c.v.write(ctx, func(st *state) error {
		s, ok := st.slots[id]
		if !ok {
			return repository.ErrNotFound
		}
		s.Status = status
		s.UpdatedAt = c.v.store.now()
		st.slots[id] = s
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c calendar) ListSlots(_ context.Context, venueID int64, from, to domain.Date) ([]domain.AvailabilitySlot, error) {
	var out []domain.AvailabilitySlot
	for _, s := range c.v.read().slots {
		if s.VenueID == venueID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b domain.AvailabilitySlot) int {
		if c := a.Date.Time().Compare(b.Date.Time()); c != 0 {
			return c
		}
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	return out, nil
}

type bookings struct{ v *view }

func (r bookings) Create(ctx context.Context, b *domain.Booking) error {
	return r.v.write(ctx, func(st *state) error {
		for _, existing := range st.bookings {
			if existing.Reference == b.Reference {
				return repository.ErrDuplicateReference
			}
		}
		now := r.v.store.now()
		b.ID = st.nextID()
		b.CreatedAt, b.UpdatedAt = now, now
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r bookings) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.v.read().bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r bookings) ListLive(_ context.Context, venueID int64, date domain.Date) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool {
		return b.VenueID == venueID && b.EventDate == date && b.Status.Live()
	})
	slices.SortFunc(out, func(a, b domain.Booking) int { return cmp.Compare(a.StartTime, b.StartTime) })
	return out, nil
}

func (r bookings) List(_ context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool {
		return (f.CustomerID == 0 || b.CustomerID == f.CustomerID) &&
			(f.VenueID == 0 || b.VenueID == f.VenueID) &&
			(f.Status == "" || b.Status == f.Status)
	})
	slices.SortFunc(out, func(a, b domain.Booking) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if f.Offset >= len(out) {
		return []domain.Booking{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r bookings) ListByStatusThrough(_ context.Context, status domain.BookingStatus, through domain.Date) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool {
		return b.Status == status && !b.EventDate.After(through)
	})
	slices.SortFunc(out, func(a, b domain.Booking) int {
		if c := a.EventDate.Time().Compare(b.EventDate.Time()); c != 0 {
			return c
		}
		return cmp.Compare(a.EndTime, b.EndTime)
	})
	return out, nil
}

func (r bookings) Update(ctx context.Context, b *domain.Booking) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.bookings[b.ID]; !ok {
			return repository.ErrNotFound
		}
		b.UpdatedAt = r.v.store.now()
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r bookings) CountByStatus(_ context.Context, venueID int64) (map[domain.BookingStatus]int, error) {
	counts := make(map[domain.BookingStatus]int)
	for _, b := range r.v.read().bookings {
		if b.VenueID == venueID {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (r bookings) CompletedRevenue(_ context.Context, venueID int64) (int64, error) {
	var revenue int64
	for _, b := range r.v.read().bookings {
		if b.VenueID == venueID && b.Status == domain.BookingStatusCompleted && b.PaymentStatus == domain.PaymentStatusPaid {
			revenue += b.TotalAmount
		}
	}
	return revenue, nil
}

func (r bookings) filter(keep func(domain.Booking) bool) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range r.v.read().bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

type payments struct{ v *view }

func (r payments) Create(ctx context.Context, p *domain.Payment) error {
	return r.v.write(ctx, func(st *state) error {
		for _, existing := range st.payments {
			if existing.Reference == p.Reference {
				return repository.ErrDuplicateReference
			}
			if p.TransactionID != "" && existing.BookingID == p.BookingID && existing.TransactionID == p.TransactionID {
				return repository.ErrDuplicateReference
			}
		}
		now := r.v.store.now()
		p.ID = st.nextID()
		p.CreatedAt, p.UpdatedAt = now, now
		st.payments[p.ID] = *p
		return nil
	})
}

func (r payments) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	p, ok := r.v.read().payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r payments) GetByTransaction(_ context.Context, bookingID int64, transactionID string) (*domain.Payment, error) {
	for _, p := range r.v.read().payments {
		if p.BookingID == bookingID && p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r payments) ListByBooking(_ context.Context, bookingID int64) ([]domain.Payment, error) {
	out := make([]domain.Payment, 0)
	for _, p := range r.v.read().payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Payment) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r payments) MarkPaid(ctx context.Context, id int64, paidAt time.Time) (*domain.Payment, error) {
	var updated domain.Payment
	err := r.v.write(ctx, func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.Status = domain.PaymentStatusPaid
		p.PaidAt = &paidAt
		p.UpdatedAt = r.v.store.now()
		st.payments[id] = p
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
