package memstore

import (
	"context"
	"fmt"
	"os"

	"github.com/Domenick1991/venuebooking/internal/domain"
	"gopkg.in/yaml.v3"
)

// Seed is the directory data a memory store starts with. Users, venues and
// event types are owned by other services, so they only enter through here.
type Seed struct {
	Users []struct {
		ID       int64  `yaml:"id"`
		Role     string `yaml:"role"`
		Email    string `yaml:"email"`
		IsActive bool   `yaml:"is_active"`
	} `yaml:"users"`
	Venues []struct {
		ID           int64  `yaml:"id"`
		OwnerID      int64  `yaml:"owner_id"`
		Name         string `yaml:"name"`
		Capacity     int    `yaml:"capacity"`
		PricePerHour *int64 `yaml:"price_per_hour_cents"`
		PricePerDay  *int64 `yaml:"price_per_day_cents"`
		IsActive     bool   `yaml:"is_active"`
	} `yaml:"venues"`
	EventTypes []struct {
		ID       int64  `yaml:"id"`
		Name     string `yaml:"name"`
		IsActive bool   `yaml:"is_active"`
	} `yaml:"event_types"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

func (s *Store) Load(ctx context.Context, seed *Seed) error {
	for _, u := range seed.Users {
		role, err := domain.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
		if err := s.AddUser(ctx, domain.User{ID: u.ID, Role: role, Email: u.Email, IsActive: u.IsActive}); err != nil {
			return err
		}
	}
	for _, v := range seed.Venues {
		if err := s.AddVenue(ctx, domain.Venue{
			ID:                v.ID,
			OwnerID:           v.OwnerID,
			Name:              v.Name,
			Capacity:          v.Capacity,
			PricePerHourCents: v.PricePerHour,
			PricePerDayCents:  v.PricePerDay,
			IsActive:          v.IsActive,
		}); err != nil {
			return err
		}
	}
	for _, et := range seed.EventTypes {
		if err := s.AddEventType(ctx, domain.EventType{ID: et.ID, Name: et.Name, IsActive: et.IsActive}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AddUser(ctx context.Context, u domain.User) error {
	return s.transact(ctx, func(st *state) error {
		st.users[u.ID] = u
		st.bump(u.ID)
		return nil
	})
}

func (s *Store) AddVenue(ctx context.Context, v domain.Venue) error {
	return s.transact(ctx, func(st *state) error {
		now := s.now()
		v.CreatedAt, v.UpdatedAt = now, now
		st.venues[v.ID] = v
		st.bump(v.ID)
		return nil
	})
}

func (s *Store) AddEventType(ctx context.Context, et domain.EventType) error {
	return s.transact(ctx, func(st *state) error {
		st.eventTypes[et.ID] = et
		st.bump(et.ID)
		return nil
	})
}

// bump keeps generated ids above any seeded id.
func (s *state) bump(id int64) {
	if id > s.lastID {
		s.lastID = id
	}
}
