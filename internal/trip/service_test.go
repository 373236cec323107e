package trip

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	trips map[string]*Trip
	cars  map[string]*Car
}

func newMemRepo() *memRepo {
	return &memRepo{trips: map[string]*Trip{}, cars: map[string]*Car{}}
}

func (r *memRepo) Create(_ context.Context, t *Trip) error {
	cp := *t
	r.trips[t.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Trip, error) {
	t, ok := r.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) GetByIDForUpdate(ctx context.Context, id string) (*Trip, error) {
	return r.GetByID(ctx, id)
}

func (r *memRepo) UpdateSeats(_ context.Context, id string, seats int) error {
	t, ok := r.trips[id]
	if !ok {
		return ErrNotFound
	}
	t.SeatsAvailable = seats
	return nil
}

func (r *memRepo) GetCar(_ context.Context, id string) (*Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, ErrCarNotFound
	}
	return c, nil
}

func validInput() CreateInput {
	return CreateInput{
		DepartureCity:     "Paris",
		DepartureLocation: "Gare de Lyon",
		DepartureDate:     "2025-07-20",
		DepartureHour:     "09:00",
		ArrivalCity:       "Lyon",
		ArrivalLocation:   "Part-Dieu",
		ArrivalDate:       "2025-07-20",
		ArrivalHour:       "13:30",
		Seats:             3,
		Price:             25.5,
	}
}

type countingListener struct{ calls int }

func (l *countingListener) TripsChanged(context.Context) { l.calls++ }

func newTestService() (Service, *memRepo) {
	svc, repo, _ := newListenedService()
	return svc, repo
}

func newListenedService() (Service, *memRepo, *countingListener) {
	log, _ := test.NewNullLogger()
	repo := newMemRepo()
	listener := &countingListener{}
	return NewService(repo, listener, log), repo, listener
}

func TestCreateTrip(t *testing.T) {
	svc, repo := newTestService()
	repo.cars["car-1"] = &Car{ID: "car-1", OwnerID: "driver-1", Energy: EnergyElectric}

	in := validInput()
	carID := "car-1"
	in.CarID = &carID

	tr, err := svc.Create(context.Background(), "driver-1", in)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, tr.Status)
	assert.Equal(t, 3, tr.SeatsAvailable)
	assert.Equal(t, 270, tr.Duration())
	assert.True(t, tr.IsEcological())
	assert.Contains(t, repo.trips, tr.ID)
}

func TestCreateTripValidation(t *testing.T) {
	svc, repo := newTestService()
	repo.cars["car-1"] = &Car{ID: "car-1", OwnerID: "someone-else"}
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"bad date", func(in *CreateInput) { in.DepartureDate = "20-07-2025" }, ErrInvalidDate},
		{"bad hour", func(in *CreateInput) { in.ArrivalHour = "25:00" }, ErrInvalidHour},
		{"no seats", func(in *CreateInput) { in.Seats = 0 }, ErrInvalidSeats},
		{"negative price", func(in *CreateInput) { in.Price = -1 }, ErrInvalidPrice},
		{"arrival before departure", func(in *CreateInput) { in.ArrivalHour = "08:00" }, ErrInvalidSchedule},
		{"unknown car", func(in *CreateInput) { id := "missing"; in.CarID = &id }, ErrCarNotFound},
		{"foreign car", func(in *CreateInput) { id := "car-1"; in.CarID = &id }, ErrCarNotOwned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, "driver-1", in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, repo.trips)
}

func TestParseHour(t *testing.T) {
	h, err := ParseHour("13:30")
	require.NoError(t, err)
	assert.True(t, h.Valid)
	assert.Equal(t, int64(13*3600+30*60)*1_000_000, h.Microseconds)

	_, err = ParseHour("1:30pm")
	assert.ErrorIs(t, err, ErrInvalidHour)
}

func TestCreateTripNotifiesListener(t *testing.T) {
	svc, _, listener := newListenedService()

	_, err := svc.Create(context.Background(), "driver-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, listener.calls)

	bad := validInput()
	bad.Seats = 0
	_, err = svc.Create(context.Background(), "driver-1", bad)
	assert.ErrorIs(t, err, ErrInvalidSeats)
	assert.Equal(t, 1, listener.calls)
}

func TestNotifyChangedNilListener(t *testing.T) {
	assert.NotPanics(t, func() { NotifyChanged(context.Background(), nil) })
}
