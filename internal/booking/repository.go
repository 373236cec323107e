package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/codriving-backend/internal/db"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// GetByIDForUpdate locks the booking row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Booking, error)
	// List returns one page ordered by created_at DESC and the total match count.
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// HasActive reports whether the passenger holds a pending or confirmed booking on the trip.
	HasActive(ctx context.Context, passengerID, tripID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status Status) (time.Time, error)
	UpdateNotes(ctx context.Context, id string, notes *string) (time.Time, error)
	Delete(ctx context.Context, id string) error
}

var bookingColumns = []string{
	"b.id", "b.passenger_id", "b.trip_id", "b.status", "b.credits_used", "b.notes",
	"b.created_at", "b.updated_at",
	"COALESCE(u.display_name, u.email)",
	"t.departure_city", "t.arrival_city", "t.departure_date", "to_char(t.departure_hour, 'HH24:MI')",
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

func (r *pgxRepository) selectBookings(columns ...string) squirrel.SelectBuilder {
	return r.psql.Select(columns...).
		From("public.bookings b").
		Join("public.users u ON u.id = b.passenger_id").
		Join("public.trips t ON t.id = b.trip_id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b       Booking
		depDate time.Time
		depHour string
	)
	dest := []any{
		&b.ID, &b.PassengerID, &b.TripID, &b.Status, &b.CreditsUsed, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
		&b.PassengerName,
		&b.DepartureCity, &b.ArrivalCity, &depDate, &depHour,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.DepartureAt = trip.Combine(depDate, depHour)
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := r.psql.Insert("public.bookings").
		Columns("id", "passenger_id", "trip_id", "status", "credits_used", "notes").
		Values(b.ID, b.PassengerID, b.TripID, b.Status, b.CreditsUsed, b.Notes).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyBooked
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, r.selectBookings(bookingColumns...).Where(squirrel.Eq{"b.id": id}))
}

func (r *pgxRepository) GetByIDForUpdate(ctx context.Context, id string) (*Booking, error) {
	if !db.InTx(ctx) {
		return nil, db.ErrNoTx
	}
	return r.getOne(ctx, r.selectBookings(bookingColumns...).Where(squirrel.Eq{"b.id": id}).Suffix("FOR UPDATE OF b"))
}

func (r *pgxRepository) getOne(ctx context.Context, q squirrel.SelectBuilder) (*Booking, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	columns := append(append([]string{}, bookingColumns...), "count(*) OVER() AS total_count")
	query := r.selectBookings(columns...)

	if filter.PassengerID != "" {
		query = query.Where(squirrel.Eq{"b.passenger_id": filter.PassengerID})
	}
	if filter.TripID != "" {
		query = query.Where(squirrel.Eq{"b.trip_id": filter.TripID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	sql, args, err := query.
		OrderBy("b.created_at DESC", "b.id").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) HasActive(ctx context.Context, passengerID, tripID string) (bool, error) {
	sub := r.psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{
			"passenger_id": passengerID,
			"trip_id":      tripID,
			"status":       []Status{StatusPending, StatusConfirmed},
		})

	sql, args, err := sub.ToSql()
	if err != nil {
		return false, fmt.Errorf("build active booking query failed: %w", err)
	}
	query := "SELECT EXISTS (" + sql + ")"

	var exists bool
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active booking failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, status Status) (time.Time, error) {
	return r.update(ctx, r.psql.Update("public.bookings").Set("status", status).Where(squirrel.Eq{"id": id}))
}

func (r *pgxRepository) UpdateNotes(ctx context.Context, id string, notes *string) (time.Time, error) {
	return r.update(ctx, r.psql.Update("public.bookings").Set("notes", notes).Where(squirrel.Eq{"id": id}))
}

func (r *pgxRepository) update(ctx context.Context, q squirrel.UpdateBuilder) (time.Time, error) {
	query, args, err := q.
		Set("updated_at", squirrel.Expr("now()")).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build update booking query failed: %w", err)
	}

	var updatedAt time.Time
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("update booking failed: %w", err)
	}
	return updatedAt, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := r.psql.Delete("public.bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete booking query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
