package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/trip"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

// world is an in-memory store implementing Repository, UserStore, TripStore and db.Transactor.
// WithinTx snapshots the state and restores it when fn fails.
type world struct {
	mu       sync.Mutex
	users    map[string]*user.User
	trips    map[string]*trip.Trip
	bookings map[string]*Booking
	clock    time.Time
	txCount  int

	failSeats error // injected into UpdateSeats
}

func newWorld() *world {
	return &world{
		users:    map[string]*user.User{},
		trips:    map[string]*trip.Trip{},
		bookings: map[string]*Booking{},
		clock:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (w *world) addUser(id string, credits int) {
	name := "user " + id
	w.users[id] = &user.User{ID: id, Email: id + "@example.com", DisplayName: &name, Credits: credits, IsActive: true}
}

func (w *world) addTrip(id, driverID string, seats int) {
	w.trips[id] = &trip.Trip{
		ID:             id,
		DriverID:       driverID,
		DepartureCity:  "Paris",
		ArrivalCity:    "Lyon",
		DepartureDate:  time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		DepartureHour:  "09:00",
		ArrivalDate:    time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		ArrivalHour:    "13:00",
		Status:         trip.StatusAvailable,
		SeatsAvailable: seats,
		Price:          10,
	}
}

func (w *world) credits(id string) int { return w.users[id].Credits }
func (w *world) seats(id string) int   { return w.trips[id].SeatsAvailable }

func (w *world) tick() time.Time {
	w.clock = w.clock.Add(time.Second)
	return w.clock
}

type snapshot struct {
	users    map[string]user.User
	trips    map[string]trip.Trip
	bookings map[string]Booking
}

func (w *world) snapshot() snapshot {
	s := snapshot{users: map[string]user.User{}, trips: map[string]trip.Trip{}, bookings: map[string]Booking{}}
	for k, v := range w.users {
		s.users[k] = *v
	}
	for k, v := range w.trips {
		s.trips[k] = *v
	}
	for k, v := range w.bookings {
		s.bookings[k] = *v
	}
	return s
}

func (w *world) restore(s snapshot) {
	w.users = map[string]*user.User{}
	w.trips = map[string]*trip.Trip{}
	w.bookings = map[string]*Booking{}
	for k, v := range s.users {
		v := v
		w.users[k] = &v
	}
	for k, v := range s.trips {
		v := v
		w.trips[k] = &v
	}
	for k, v := range s.bookings {
		v := v
		w.bookings[k] = &v
	}
}

// --- db.Transactor ---

func (w *world) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	w.mu.Lock()
	w.txCount++
	snap := w.snapshot()
	w.mu.Unlock()

	if err := fn(ctx); err != nil {
		w.mu.Lock()
		w.restore(snap)
		w.mu.Unlock()
		return err
	}
	return nil
}

// --- UserStore ---

func (w *world) GetUser(id string) (*user.User, error) {
	u, ok := w.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type userStore struct{ *world }

func (s userStore) GetByID(_ context.Context, id string) (*user.User, error) { return s.GetUser(id) }
func (s userStore) GetByIDForUpdate(_ context.Context, id string) (*user.User, error) {
	return s.GetUser(id)
}
func (s userStore) UpdateCredits(_ context.Context, id string, credits int) error {
	if credits < 0 {
		return user.ErrNegativeCredits
	}
	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Credits = credits
	return nil
}

// --- TripStore ---

type tripStore struct{ *world }

func (s tripStore) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	t, ok := s.trips[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	cp := *t
	return &cp, nil
}
func (s tripStore) GetByIDForUpdate(ctx context.Context, id string) (*trip.Trip, error) {
	return s.GetByID(ctx, id)
}
func (s tripStore) UpdateSeats(_ context.Context, id string, seats int) error {
	if s.failSeats != nil {
		return s.failSeats
	}
	if seats < 0 {
		return trip.ErrNegativeSeats
	}
	t, ok := s.trips[id]
	if !ok {
		return trip.ErrNotFound
	}
	t.SeatsAvailable = seats
	return nil
}

// --- Repository ---

type bookingRepo struct{ *world }

func (r bookingRepo) Create(_ context.Context, b *Booking) error {
	if _, ok := r.bookings[b.ID]; ok {
		return fmt.Errorf("duplicate id %s", b.ID)
	}
	for _, existing := range r.bookings {
		if existing.PassengerID == b.PassengerID && existing.TripID == b.TripID && existing.Status.IsActive() {
			return ErrAlreadyBooked
		}
	}
	now := r.tick()
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r bookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	return r.GetByID(ctx, id)
}

func (r bookingRepo) List(_ context.Context, f Filter) ([]*Booking, int, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if f.PassengerID != "" && b.PassengerID != f.PassengerID {
			continue
		}
		if f.TripID != "" && b.TripID != f.TripID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r bookingRepo) HasActive(_ context.Context, passengerID, tripID string) (bool, error) {
	for _, b := range r.bookings {
		if b.PassengerID == passengerID && b.TripID == tripID && b.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id string, status Status) (time.Time, error) {
	b, ok := r.bookings[id]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = r.tick()
	return b.UpdatedAt, nil
}

func (r bookingRepo) UpdateNotes(_ context.Context, id string, notes *string) (time.Time, error) {
	b, ok := r.bookings[id]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	b.Notes = notes
	b.UpdatedAt = r.tick()
	return b.UpdatedAt, nil
}

func (r bookingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

var errBoom = errors.New("boom")
