package search

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/codriving-backend/internal/booking"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

type fakeRepo struct {
	trips       []*trip.Trip
	bookings    map[string][]BookingSummary
	searchCalls int
	lastFilter  Filter
	lastDays    []time.Time
	lastLimit   int
	err         error

	entities    map[Kind][]Result
	findCalls   []Kind
	lastQuery   string
	entityLimit int
}

func (r *fakeRepo) Search(_ context.Context, f Filter) ([]*trip.Trip, error) {
	r.searchCalls++
	r.lastFilter = f
	if r.err != nil {
		return nil, r.err
	}
	var out []*trip.Trip
	for _, t := range r.trips {
		if t.DepartureDate.Equal(f.DepartureDate) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) Alternatives(_ context.Context, _, _ string, days []time.Time, limit int) ([]*trip.Trip, error) {
	r.lastDays = days
	r.lastLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	var out []*trip.Trip
	for _, t := range r.trips {
		for _, d := range days {
			if t.DepartureDate.Equal(d) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, t := range r.trips {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListBookings(_ context.Context, tripID string) ([]BookingSummary, error) {
	return r.bookings[tripID], nil
}

func (r *fakeRepo) find(kind Kind, q string, limit int) ([]Result, error) {
	r.findCalls = append(r.findCalls, kind)
	r.lastQuery = q
	r.entityLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	return r.entities[kind], nil
}

func (r *fakeRepo) FindUsers(_ context.Context, q string, limit int) ([]Result, error) {
	return r.find(KindUser, q, limit)
}

func (r *fakeRepo) FindCars(_ context.Context, q string, limit int) ([]Result, error) {
	return r.find(KindCar, q, limit)
}

func (r *fakeRepo) FindTrips(_ context.Context, q string, limit int) ([]Result, error) {
	return r.find(KindCodriving, q, limit)
}

type mapCache struct {
	data    map[string][]byte
	getErr  error
	incrErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	data, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string) (int64, error) {
	if c.incrErr != nil {
		return 0, c.incrErr
	}
	var n int64
	if data, ok := c.data[key]; ok {
		if err := json.Unmarshal(data, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTrip(id string, day time.Time, hour string) *trip.Trip {
	name := "Driver " + id
	pic := "pic-" + id
	return &trip.Trip{
		ID:             id,
		DriverID:       "driver-" + id,
		DepartureCity:  "Paris",
		ArrivalCity:    "Lyon",
		DepartureDate:  day,
		DepartureHour:  hour,
		ArrivalDate:    day,
		ArrivalHour:    "23:00",
		Status:         trip.StatusAvailable,
		SeatsAvailable: 3,
		Price:          12.5,
		Driver:         &trip.Driver{ID: "driver-" + id, DisplayName: &name, PictureFileID: &pic},
	}
}

func baseFilter(day time.Time) Filter {
	return Filter{DepartureCity: "Paris", ArrivalCity: "Lyon", DepartureDate: day}
}

func TestSearchTrips_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, 0, nullLogger())
	neg := -1.0
	zero := 0
	negDur := -5

	cases := map[string]struct {
		f    Filter
		want error
	}{
		"missing departure": {Filter{ArrivalCity: "Lyon", DepartureDate: date(2025, 3, 1)}, ErrCitiesRequired},
		"blank arrival":     {Filter{DepartureCity: "Paris", ArrivalCity: "  ", DepartureDate: date(2025, 3, 1)}, ErrCitiesRequired},
		"missing date":      {Filter{DepartureCity: "Paris", ArrivalCity: "Lyon"}, ErrDateRequired},
		"negative price":    {Filter{DepartureCity: "Paris", ArrivalCity: "Lyon", DepartureDate: date(2025, 3, 1), MaxPrice: &neg}, ErrInvalidFilter},
		"zero min seats":    {Filter{DepartureCity: "Paris", ArrivalCity: "Lyon", DepartureDate: date(2025, 3, 1), MinSeats: &zero}, ErrInvalidFilter},
		"negative duration": {Filter{DepartureCity: "Paris", ArrivalCity: "Lyon", DepartureDate: date(2025, 3, 1), MaxDuration: &negDur}, ErrInvalidFilter},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SearchTrips(context.Background(), tc.f)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSearchTrips_ProjectsAndOrders(t *testing.T) {
	day := date(2025, 3, 1)
	late := newTrip("late", day, "18:30")
	early := newTrip("early", day, "07:15")
	early.Car = &trip.Car{ID: "car-1", Model: "Zoe", Energy: trip.EnergyElectric, Color: "blue"}
	repo := &fakeRepo{trips: []*trip.Trip{late, early}}
	svc := NewService(repo, nil, 0, nullLogger())

	results, err := svc.SearchTrips(context.Background(), baseFilter(day))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "early", results[0].ID)
	assert.Equal(t, "late", results[1].ID)

	first := results[0]
	assert.Equal(t, time.Date(2025, 3, 1, 7, 15, 0, 0, time.UTC), first.DepartureAt)
	assert.True(t, first.IsEcological)
	require.NotNil(t, first.Car)
	assert.Equal(t, "Electric", first.Car.Energy)
	assert.Equal(t, DefaultDriverRating, first.Driver.Rating)
	require.NotNil(t, first.Driver.PictureURL)
	assert.Equal(t, "/v1/files/pic-early/thumbnail", *first.Driver.PictureURL)
	assert.Equal(t, 945, first.DurationMinutes)

	assert.False(t, results[1].IsEcological)
	assert.Nil(t, results[1].Car)
}

func TestSearchTrips_TrimsCitiesAndNormalizesDate(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, 0, nullLogger())

	f := Filter{DepartureCity: " Paris ", ArrivalCity: "Lyon\t", DepartureDate: time.Date(2025, 3, 1, 15, 4, 0, 0, time.UTC)}
	_, err := svc.SearchTrips(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "Paris", repo.lastFilter.DepartureCity)
	assert.Equal(t, "Lyon", repo.lastFilter.ArrivalCity)
	assert.Equal(t, date(2025, 3, 1), repo.lastFilter.DepartureDate)
}

func TestSearchTrips_EmptyResultIsNotNil(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, 0, nullLogger())

	results, err := svc.SearchTrips(context.Background(), baseFilter(date(2025, 3, 1)))
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchTrips_RepositoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeRepo{err: boom}, nil, 0, nullLogger())

	_, err := svc.SearchTrips(context.Background(), baseFilter(date(2025, 3, 1)))
	assert.ErrorIs(t, err, boom)
}

func TestSearchTrips_Cache(t *testing.T) {
	day := date(2025, 3, 1)
	repo := &fakeRepo{trips: []*trip.Trip{newTrip("a", day, "08:00")}}
	cache := newMapCache()
	svc := NewService(repo, cache, time.Minute, nullLogger())

	first, err := svc.SearchTrips(context.Background(), baseFilter(day))
	require.NoError(t, err)
	second, err := svc.SearchTrips(context.Background(), baseFilter(day))
	require.NoError(t, err)

	assert.Equal(t, 1, repo.searchCalls)
	assert.Len(t, cache.data, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].DepartureAt.Equal(second[0].DepartureAt))

	ecological := baseFilter(day)
	ecological.EcologicalOnly = true
	_, err = svc.SearchTrips(context.Background(), ecological)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.searchCalls)
}

func TestSearchTrips_CacheReadFailureFallsBack(t *testing.T) {
	day := date(2025, 3, 1)
	repo := &fakeRepo{trips: []*trip.Trip{newTrip("a", day, "08:00")}}
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	svc := NewService(repo, cache, time.Minute, nullLogger())

	results, err := svc.SearchTrips(context.Background(), baseFilter(day))
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, repo.searchCalls)
}

func TestSearchTrips_InvalidatedWhenTripsChange(t *testing.T) {
	day := date(2025, 3, 1)
	repo := &fakeRepo{trips: []*trip.Trip{newTrip("a", day, "08:00")}}
	svc := NewService(repo, newMapCache(), time.Minute, nullLogger())
	ctx := context.Background()

	results, err := svc.SearchTrips(ctx, baseFilter(day))
	require.NoError(t, err)
	require.Len(t, results, 1)

	// The last seat is booked: the trip no longer matches in the database.
	repo.trips = nil
	svc.TripsChanged(ctx)

	results, err = svc.SearchTrips(ctx, baseFilter(day))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, repo.searchCalls)

	results, err = svc.SearchTrips(ctx, baseFilter(day))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 2, repo.searchCalls)
}

func TestFindAlternativeTrips_InvalidatedWhenTripsChange(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, newMapCache(), time.Minute, nullLogger())
	ctx := context.Background()

	results, err := svc.FindAlternativeTrips(ctx, "Paris", "Lyon", date(2025, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, results)

	repo.trips = []*trip.Trip{newTrip("a", date(2025, 3, 3), "08:00")}
	svc.TripsChanged(ctx)

	results, err = svc.FindAlternativeTrips(ctx, "Paris", "Lyon", date(2025, 3, 2))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestTripsChanged_IncrFailureIsLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	cache := newMapCache()
	cache.incrErr = errors.New("redis down")
	svc := NewService(&fakeRepo{}, cache, time.Minute, log)

	svc.TripsChanged(context.Background())

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "search cache invalidation failed", hook.LastEntry().Message)
}

func TestTripsChanged_WithoutCache(t *testing.T) {
	cache := newMapCache()
	svc := NewService(&fakeRepo{}, cache, 0, nullLogger())

	svc.TripsChanged(context.Background())
	assert.Empty(t, cache.data)
}

func TestSearchTrips_ZeroTTLDisablesCache(t *testing.T) {
	day := date(2025, 3, 1)
	repo := &fakeRepo{}
	cache := newMapCache()
	svc := NewService(repo, cache, 0, nullLogger())

	for range 2 {
		_, err := svc.SearchTrips(context.Background(), baseFilter(day))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, repo.searchCalls)
	assert.Empty(t, cache.data)
}

func TestFindAlternativeTrips_AdjacentDays(t *testing.T) {
	cases := map[string]struct {
		day          time.Time
		before, next time.Time
	}{
		"mid month":  {date(2025, 3, 15), date(2025, 3, 14), date(2025, 3, 16)},
		"month end":  {date(2025, 2, 28), date(2025, 2, 27), date(2025, 3, 1)},
		"year start": {date(2025, 1, 1), date(2024, 12, 31), date(2025, 1, 2)},
		"leap day":   {date(2024, 2, 29), date(2024, 2, 28), date(2024, 3, 1)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := NewService(repo, nil, 0, nullLogger())

			_, err := svc.FindAlternativeTrips(context.Background(), "Paris", "Lyon", tc.day)
			require.NoError(t, err)
			assert.Equal(t, []time.Time{tc.before, tc.next}, repo.lastDays)
			assert.Equal(t, AlternativesLimit, repo.lastLimit)
		})
	}
}

func TestFindAlternativeTrips_ExcludesRequestedDayAndCaps(t *testing.T) {
	day := date(2025, 3, 15)
	trips := []*trip.Trip{newTrip("same-day", day, "09:00")}
	for i, hour := range []string{"06:00", "07:00", "08:00", "09:00"} {
		trips = append(trips, newTrip("after-"+hour, day.AddDate(0, 0, 1), hour))
		trips = append(trips, newTrip("before-"+hour, day.AddDate(0, 0, -1), []string{"20:00", "21:00", "22:00", "23:00"}[i]))
	}
	repo := &fakeRepo{trips: trips}
	svc := NewService(repo, nil, 0, nullLogger())

	results, err := svc.FindAlternativeTrips(context.Background(), "Paris", "Lyon", day)
	require.NoError(t, err)
	require.Len(t, results, AlternativesLimit)

	for _, r := range results {
		assert.NotEqual(t, "same-day", r.ID)
	}
	assert.Equal(t, "before-20:00", results[0].ID)
	assert.Equal(t, "after-06:00", results[4].ID)
}

func TestFindAlternativeTrips_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, 0, nullLogger())

	_, err := svc.FindAlternativeTrips(context.Background(), "", "Lyon", date(2025, 3, 1))
	assert.ErrorIs(t, err, ErrCitiesRequired)

	_, err = svc.FindAlternativeTrips(context.Background(), "Paris", "Lyon", time.Time{})
	assert.ErrorIs(t, err, ErrDateRequired)
}

func TestGetTripDetails(t *testing.T) {
	day := date(2025, 3, 1)
	tr := newTrip("a", day, "08:00")
	tr.SeatsAvailable = 1
	repo := &fakeRepo{trips: []*trip.Trip{tr}, bookings: map[string][]BookingSummary{"a": {
		{ID: "b4", Status: booking.StatusCompleted},
		{ID: "b3", Status: booking.StatusConfirmed},
		{ID: "b2", Status: booking.StatusCancelled},
		{ID: "b1", Status: booking.StatusPending},
	}}}
	svc := NewService(repo, nil, 0, nullLogger())

	details, err := svc.GetTripDetails(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "a", details.ID)
	assert.Equal(t, trip.StatusAvailable, details.Status)
	assert.Len(t, details.Bookings, 4)
	assert.Equal(t, 2, details.ActiveBookings)
	assert.Equal(t, 1, details.SeatsAvailable)

	missing, err := svc.GetTripDetails(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSearchEntities(t *testing.T) {
	repo := &fakeRepo{entities: map[Kind][]Result{
		KindUser:      {{Type: KindUser, ID: "u1", Title: "Paula"}},
		KindCar:       {{Type: KindCar, ID: "c1", Title: "Zoe", Description: "Electric - blue"}},
		KindCodriving: {{Type: KindCodriving, ID: "t1", Title: "Gare de Lyon → Part-Dieu"}},
	}}
	svc := NewService(repo, nil, 0, nullLogger())

	results, err := svc.SearchEntities(context.Background(), "  pa  ")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []Kind{KindUser, KindCar, KindCodriving}, repo.findCalls)
	assert.Equal(t, "pa", repo.lastQuery)
	assert.Equal(t, EntityLimit, repo.entityLimit)
	assert.Equal(t, "u1", results[0].ID)
	assert.Equal(t, "c1", results[1].ID)
	assert.Equal(t, "t1", results[2].ID)
}

func TestSearchEntities_SingleKind(t *testing.T) {
	repo := &fakeRepo{entities: map[Kind][]Result{
		KindCar: {{Type: KindCar, ID: "c1"}},
	}}
	svc := NewService(repo, nil, 0, nullLogger())

	results, err := svc.SearchEntities(context.Background(), "zoe", KindCar)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindCar}, repo.findCalls)
	require.Len(t, results, 1)
	assert.Equal(t, KindCar, results[0].Type)

	results, err = svc.SearchEntities(context.Background(), "zoe", KindUser)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchEntities_BlankQueryMatchesNothing(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, 0, nullLogger())

	results, err := svc.SearchEntities(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, repo.findCalls)
}

func TestSearchEntities_Errors(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, 0, nullLogger())
	_, err := svc.SearchEntities(context.Background(), "x", Kind("plane"))
	assert.ErrorIs(t, err, ErrInvalidFilter)

	boom := errors.New("boom")
	svc = NewService(&fakeRepo{err: boom}, nil, 0, nullLogger())
	_, err = svc.SearchEntities(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
