package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/codriving-backend/internal/db"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

// Repository runs trip searches. Results always carry driver and car.
type Repository interface {
	Search(ctx context.Context, f Filter) ([]*trip.Trip, error)
	Alternatives(ctx context.Context, departureCity, arrivalCity string, days []time.Time, limit int) ([]*trip.Trip, error)
	// GetByID returns (nil, nil) when the trip does not exist.
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	// ListBookings returns the trip's bookings, newest first.
	ListBookings(ctx context.Context, tripID string) ([]BookingSummary, error)

	// FindUsers, FindCars and FindTrips match q case-insensitively anywhere in the text columns.
	FindUsers(ctx context.Context, q string, limit int) ([]Result, error)
	FindCars(ctx context.Context, q string, limit int) ([]Result, error)
	FindTrips(ctx context.Context, q string, limit int) ([]Result, error)
}

// durationExpr mirrors trip.Duration: the stored value when positive, else the schedule span.
const durationExpr = "COALESCE(NULLIF(t.duration_minutes, 0), " +
	"ABS(EXTRACT(EPOCH FROM ((t.arrival_date + t.arrival_hour) - (t.departure_date + t.departure_hour)))) / 60)"

type pgxRepository struct {
	pool  *pgxpool.Pool
	trips trip.Repository
	psql  squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool:  pool,
		trips: trip.NewPgxRepository(pool),
		psql:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// bookable restricts to trips that can still take a passenger on the given cities.
func bookable(q squirrel.SelectBuilder, departureCity, arrivalCity string) squirrel.SelectBuilder {
	return q.
		Where(squirrel.Eq{"t.status": string(trip.StatusAvailable)}).
		Where(squirrel.Gt{"t.seats_available": 0}).
		Where(squirrel.ILike{"t.departure_city": containsPattern(departureCity)}).
		Where(squirrel.ILike{"t.arrival_city": containsPattern(arrivalCity)})
}

func buildSearchQuery(psql squirrel.StatementBuilderType, f Filter) squirrel.SelectBuilder {
	q := bookable(trip.SelectBuilder(psql), f.DepartureCity, f.ArrivalCity).
		Where(squirrel.Eq{"t.departure_date": f.DepartureDate.Format("2006-01-02")})

	if f.MaxPrice != nil {
		q = q.Where(squirrel.LtOrEq{"t.price": *f.MaxPrice})
	}
	if f.MaxDuration != nil {
		q = q.Where(squirrel.Expr(durationExpr+" <= ?", *f.MaxDuration))
	}
	if f.EcologicalOnly {
		q = q.Where(squirrel.Eq{"c.energy": string(trip.EnergyElectric)})
	}
	if f.MinSeats != nil {
		q = q.Where(squirrel.GtOrEq{"t.seats_available": *f.MinSeats})
	}

	return q.OrderBy("t.departure_date ASC", "t.departure_hour ASC")
}

func buildAlternativesQuery(psql squirrel.StatementBuilderType, departureCity, arrivalCity string, days []time.Time, limit int) squirrel.SelectBuilder {
	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.Format("2006-01-02"))
	}

	return bookable(trip.SelectBuilder(psql), departureCity, arrivalCity).
		Where(squirrel.Eq{"t.departure_date": dates}).
		OrderBy("t.departure_date ASC", "t.departure_hour ASC").
		Limit(uint64(limit))
}

func (r *pgxRepository) Search(ctx context.Context, f Filter) ([]*trip.Trip, error) {
	return r.list(ctx, buildSearchQuery(r.psql, f))
}

func (r *pgxRepository) Alternatives(ctx context.Context, departureCity, arrivalCity string, days []time.Time, limit int) ([]*trip.Trip, error) {
	return r.list(ctx, buildAlternativesQuery(r.psql, departureCity, arrivalCity, days, limit))
}

func (r *pgxRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*trip.Trip, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search trips failed: %w", err)
	}
	defer rows.Close()

	var trips []*trip.Trip
	for rows.Next() {
		t, err := trip.ScanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip failed: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search trips failed: %w", err)
	}
	return trips, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	t, err := r.trips.GetByID(ctx, id)
	if errors.Is(err, trip.ErrNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *pgxRepository) ListBookings(ctx context.Context, tripID string) ([]BookingSummary, error) {
	query, args, err := r.psql.Select("id", "status", "created_at").
		From("public.bookings").
		Where(squirrel.Eq{"trip_id": tripID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trip bookings failed: %w", err)
	}
	defer rows.Close()

	bookings := []BookingSummary{}
	for rows.Next() {
		var b BookingSummary
		if err := rows.Scan(&b.ID, &b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trip bookings failed: %w", err)
	}
	return bookings, nil
}

func buildUserSearchQuery(psql squirrel.StatementBuilderType, q string, limit int) squirrel.SelectBuilder {
	return psql.Select("id", "display_name").
		From("public.users").
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.ILike{"display_name": containsPattern(q)}).
		OrderBy("display_name ASC", "id").
		Limit(uint64(limit))
}

func buildCarSearchQuery(psql squirrel.StatementBuilderType, q string, limit int) squirrel.SelectBuilder {
	p := containsPattern(q)
	return psql.Select("id", "model", "energy", "color").
		From("public.cars").
		Where(squirrel.Or{
			squirrel.ILike{"model": p},
			squirrel.ILike{"energy": p},
		}).
		OrderBy("model ASC", "id").
		Limit(uint64(limit))
}

func buildTripTextQuery(psql squirrel.StatementBuilderType, q string, limit int) squirrel.SelectBuilder {
	p := containsPattern(q)
	return psql.Select("id", "departure_location", "arrival_location", "status", "seats_available", "price::float8").
		From("public.trips").
		Where(squirrel.Or{
			squirrel.ILike{"departure_location": p},
			squirrel.ILike{"arrival_location": p},
			squirrel.ILike{"status": p},
		}).
		OrderBy("departure_date ASC", "departure_hour ASC", "id").
		Limit(uint64(limit))
}

func (r *pgxRepository) FindUsers(ctx context.Context, q string, limit int) ([]Result, error) {
	return r.find(ctx, buildUserSearchQuery(r.psql, q, limit), func(row pgx.Rows) (Result, error) {
		var id string
		var name *string
		if err := row.Scan(&id, &name); err != nil {
			return Result{}, err
		}
		return userResult(id, name), nil
	})
}

func (r *pgxRepository) FindCars(ctx context.Context, q string, limit int) ([]Result, error) {
	return r.find(ctx, buildCarSearchQuery(r.psql, q, limit), func(row pgx.Rows) (Result, error) {
		var id, model, energy, color string
		if err := row.Scan(&id, &model, &energy, &color); err != nil {
			return Result{}, err
		}
		return carResult(id, model, energy, color), nil
	})
}

func (r *pgxRepository) FindTrips(ctx context.Context, q string, limit int) ([]Result, error) {
	return r.find(ctx, buildTripTextQuery(r.psql, q, limit), func(row pgx.Rows) (Result, error) {
		var id, departure, arrival, status string
		var seats int
		var price float64
		if err := row.Scan(&id, &departure, &arrival, &status, &seats, &price); err != nil {
			return Result{}, err
		}
		return codrivingResult(id, departure, arrival, status, seats, price), nil
	})
}

func (r *pgxRepository) find(ctx context.Context, q squirrel.SelectBuilder, scan func(pgx.Rows) (Result, error)) ([]Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build text search query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		res, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search result failed: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s anywhere, with LIKE wildcards in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
