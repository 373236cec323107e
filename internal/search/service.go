package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

// Cache stores search results. Failures are logged and never fail a search.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// generationKey holds a counter embedded in every result key.
// Bumping it orphans all cached results at once; they expire by ttl.
const generationKey = "search:generation"

type Service interface {
	SearchTrips(ctx context.Context, f Filter) ([]TripResult, error)
	// FindAlternativeTrips looks one day before and one day after date.
	FindAlternativeTrips(ctx context.Context, departureCity, arrivalCity string, date time.Time) ([]TripResult, error)
	// GetTripDetails loads a trip with its driver, car and bookings.
	// It returns (nil, nil) for an unknown trip.
	GetTripDetails(ctx context.Context, id string) (*TripDetails, error)
	// SearchEntities matches q against users, cars and trips, restricted to kinds when given.
	// A blank q matches nothing.
	SearchEntities(ctx context.Context, q string, kinds ...Kind) ([]Result, error)

	// TripsChanged drops cached results after seats, statuses or trips change.
	trip.ChangeListener
}

type service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewService builds the search service. A nil cache or a non-positive ttl disables caching.
func NewService(repo Repository, cache Cache, ttl time.Duration, log logrus.FieldLogger) Service {
	if ttl <= 0 {
		cache = nil
	}
	return &service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log.WithField("component", "search"),
	}
}

func (s *service) SearchTrips(ctx context.Context, f Filter) ([]TripResult, error) {
	f.DepartureCity = strings.TrimSpace(f.DepartureCity)
	f.ArrivalCity = strings.TrimSpace(f.ArrivalCity)
	if err := validate(f); err != nil {
		return nil, err
	}
	f.DepartureDate = day(f.DepartureDate)

	return s.cached(ctx, "search:trips", f, func() ([]TripResult, error) {
		trips, err := s.repo.Search(ctx, f)
		if err != nil {
			return nil, err
		}
		return project(trips), nil
	})
}

func (s *service) FindAlternativeTrips(ctx context.Context, departureCity, arrivalCity string, date time.Time) ([]TripResult, error) {
	departureCity = strings.TrimSpace(departureCity)
	arrivalCity = strings.TrimSpace(arrivalCity)
	if departureCity == "" || arrivalCity == "" {
		return nil, ErrCitiesRequired
	}
	if date.IsZero() {
		return nil, ErrDateRequired
	}
	date = day(date)
	days := []time.Time{date.AddDate(0, 0, -1), date.AddDate(0, 0, 1)}

	params := struct {
		DepartureCity string
		ArrivalCity   string
		Date          time.Time
	}{departureCity, arrivalCity, date}
	return s.cached(ctx, "search:alternatives", params, func() ([]TripResult, error) {
		trips, err := s.repo.Alternatives(ctx, departureCity, arrivalCity, days, AlternativesLimit)
		if err != nil {
			return nil, err
		}
		results := project(trips)
		if len(results) > AlternativesLimit {
			results = results[:AlternativesLimit]
		}
		return results, nil
	})
}

func (s *service) GetTripDetails(ctx context.Context, id string) (*TripDetails, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}

	bookings, err := s.repo.ListBookings(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &TripDetails{
		TripResult: newTripResult(t),
		Status:     t.Status,
		Bookings:   bookings,
	}
	for _, b := range bookings {
		if b.Status.IsActive() {
			details.ActiveBookings++
		}
	}
	return details, nil
}

func (s *service) SearchEntities(ctx context.Context, q string, kinds ...Kind) ([]Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Result{}, nil
	}
	if len(kinds) == 0 {
		kinds = Kinds
	}

	results := []Result{}
	for _, kind := range kinds {
		var (
			found []Result
			err   error
		)
		switch kind {
		case KindUser:
			found, err = s.repo.FindUsers(ctx, q, EntityLimit)
		case KindCar:
			found, err = s.repo.FindCars(ctx, q, EntityLimit)
		case KindCodriving:
			found, err = s.repo.FindTrips(ctx, q, EntityLimit)
		default:
			return nil, ErrInvalidFilter
		}
		if err != nil {
			return nil, err
		}
		results = append(results, found...)
	}
	return results, nil
}

func (s *service) TripsChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, generationKey); err != nil {
		s.log.WithError(err).Warn("search cache invalidation failed")
	}
}

// generation reads the current cache generation. A missing counter is generation 0.
func (s *service) generation(ctx context.Context) (int64, error) {
	var gen int64
	if _, err := s.cache.Get(ctx, generationKey, &gen); err != nil {
		return 0, err
	}
	return gen, nil
}

func (s *service) cached(ctx context.Context, prefix string, params any, load func() ([]TripResult, error)) ([]TripResult, error) {
	if s.cache == nil {
		return load()
	}

	gen, err := s.generation(ctx)
	if err != nil {
		s.log.WithError(err).Warn("search cache read failed")
		return load()
	}
	key := cacheKey(fmt.Sprintf("%s:g%d", prefix, gen), params)

	var hit []TripResult
	found, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("search cache read failed")
	} else if found {
		return hit, nil
	}

	results, err := load()
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, results, s.ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("search cache write failed")
	}
	return results, nil
}

func validate(f Filter) error {
	if f.DepartureCity == "" || f.ArrivalCity == "" {
		return ErrCitiesRequired
	}
	if f.DepartureDate.IsZero() {
		return ErrDateRequired
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return ErrInvalidFilter
	}
	if f.MaxDuration != nil && *f.MaxDuration < 0 {
		return ErrInvalidFilter
	}
	if f.MinSeats != nil && *f.MinSeats < 1 {
		return ErrInvalidFilter
	}
	return nil
}

// project maps trips to results ordered by departure, keeping repository order for ties.
func project(trips []*trip.Trip) []TripResult {
	results := make([]TripResult, 0, len(trips))
	for _, t := range trips {
		results = append(results, newTripResult(t))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DepartureAt.Before(results[j].DepartureAt)
	})
	return results
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cacheKey(prefix string, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = fmt.Appendf(nil, "%+v", v)
	}
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
