package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/codriving-backend/internal/db"
)

// Repository defines persistence operations for trips and the cars they use.
type Repository interface {
	Create(ctx context.Context, t *Trip) error
	// GetByID loads the trip with its driver and car.
	GetByID(ctx context.Context, id string) (*Trip, error)
	// GetByIDForUpdate is GetByID with the trip row locked until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Trip, error)
	UpdateSeats(ctx context.Context, id string, seats int) error
	GetCar(ctx context.Context, id string) (*Car, error)
}

// Columns selected by SelectBuilder, in the order ScanTrip expects.
var selectColumns = []string{
	"t.id", "t.driver_id", "t.car_id",
	"t.departure_city", "t.departure_location", "t.departure_date", "to_char(t.departure_hour, 'HH24:MI')",
	"t.arrival_city", "t.arrival_location", "t.arrival_date", "to_char(t.arrival_hour, 'HH24:MI')",
	"t.status", "t.seats_available", "t.price::float8", "t.duration_minutes", "t.created_at", "t.updated_at",
	"d.display_name", "d.picture_file_id",
	"c.id", "c.owner_id", "c.model", "c.energy", "c.color",
}

// SelectBuilder returns a query over trips t joined with their driver d and car c.
// Other packages extend it with predicates and scan rows with ScanTrip.
func SelectBuilder(psql squirrel.StatementBuilderType) squirrel.SelectBuilder {
	return psql.Select(selectColumns...).
		From("public.trips t").
		Join("public.users d ON d.id = t.driver_id").
		LeftJoin("public.cars c ON c.id = t.car_id")
}

// ScanTrip reads one row produced by SelectBuilder.
func ScanTrip(row pgx.Row) (*Trip, error) {
	var (
		t      Trip
		driver Driver
		carID  *string
		car    struct {
			ownerID, model, energy, color *string
		}
	)
	err := row.Scan(
		&t.ID, &t.DriverID, &t.CarID,
		&t.DepartureCity, &t.DepartureLocation, &t.DepartureDate, &t.DepartureHour,
		&t.ArrivalCity, &t.ArrivalLocation, &t.ArrivalDate, &t.ArrivalHour,
		&t.Status, &t.SeatsAvailable, &t.Price, &t.DurationMinutes, &t.CreatedAt, &t.UpdatedAt,
		&driver.DisplayName, &driver.PictureFileID,
		&carID, &car.ownerID, &car.model, &car.energy, &car.color,
	)
	if err != nil {
		return nil, err
	}

	driver.ID = t.DriverID
	t.Driver = &driver
	if carID != nil {
		t.Car = &Car{
			ID:      *carID,
			OwnerID: deref(car.ownerID),
			Model:   deref(car.model),
			Energy:  Energy(deref(car.energy)),
			Color:   deref(car.color),
		}
	}
	return &t, nil
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *pgxRepository) Create(ctx context.Context, t *Trip) error {
	depHour, err := ParseHour(t.DepartureHour)
	if err != nil {
		return err
	}
	arrHour, err := ParseHour(t.ArrivalHour)
	if err != nil {
		return err
	}

	query, args, err := r.psql.Insert("public.trips").
		Columns(
			"id", "driver_id", "car_id",
			"departure_city", "departure_location", "departure_date", "departure_hour",
			"arrival_city", "arrival_location", "arrival_date", "arrival_hour",
			"status", "seats_available", "price", "duration_minutes",
		).
		Values(
			t.ID, t.DriverID, t.CarID,
			t.DepartureCity, t.DepartureLocation, t.DepartureDate, depHour,
			t.ArrivalCity, t.ArrivalLocation, t.ArrivalDate, arrHour,
			t.Status, t.SeatsAvailable, t.Price, t.DurationMinutes,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("create trip failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Trip, error) {
	return r.getOne(ctx, SelectBuilder(r.psql).Where(squirrel.Eq{"t.id": id}))
}

func (r *pgxRepository) GetByIDForUpdate(ctx context.Context, id string) (*Trip, error) {
	if !db.InTx(ctx) {
		return nil, db.ErrNoTx
	}
	return r.getOne(ctx, SelectBuilder(r.psql).Where(squirrel.Eq{"t.id": id}).Suffix("FOR UPDATE OF t"))
}

func (r *pgxRepository) getOne(ctx context.Context, b squirrel.SelectBuilder) (*Trip, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	t, err := ScanTrip(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trip failed: %w", err)
	}
	return t, nil
}

func (r *pgxRepository) UpdateSeats(ctx context.Context, id string, seats int) error {
	if seats < 0 {
		return ErrNegativeSeats
	}

	query, args, err := r.psql.Update("public.trips").
		Set("seats_available", seats).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update trip seats failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) GetCar(ctx context.Context, id string) (*Car, error) {
	query, args, err := r.psql.Select("id", "owner_id", "model", "energy", "color").
		From("public.cars").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var c Car
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&c.ID, &c.OwnerID, &c.Model, &c.Energy, &c.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("get car failed: %w", err)
	}
	return &c, nil
}

// ParseHour converts "HH:MM" into a postgres time value.
func ParseHour(hour string) (pgtype.Time, error) {
	h, err := time.Parse("15:04", hour)
	if err != nil {
		return pgtype.Time{}, ErrInvalidHour
	}
	us := int64(h.Hour())*int64(time.Hour/time.Microsecond) + int64(h.Minute())*int64(time.Minute/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
