package user

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
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateCredits(ctx context.Context, id string, credits int) error
	UpdateLastLogin(ctx context.Context, id string, t time.Time) error
	SetPicture(ctx context.Context, id string, fileID *string) error
}

var userColumns = []string{
	"id", "email", "password_hash", "display_name", "credits", "picture_file_id",
	"is_active", "is_system_admin", "created_at", "updated_at", "last_login_at",
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, r.psql.Select(userColumns...).From("public.users").Where(squirrel.Eq{"email": email}))
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, r.psql.Select(userColumns...).From("public.users").Where(squirrel.Eq{"id": id}))
}

func (r *pgxUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*User, error) {
	if !db.InTx(ctx) {
		return nil, db.ErrNoTx
	}
	return r.getOne(ctx, r.psql.Select(userColumns...).From("public.users").Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *pgxUserRepository) getOne(ctx context.Context, b squirrel.SelectBuilder) (*User, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var u User
	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Credits,
		&u.PictureFileID,
		&u.IsActive,
		&u.IsSystemAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &u, nil
}

func (r *pgxUserRepository) Create(ctx context.Context, u *User) error {
	query, args, err := r.psql.Insert("public.users").
		Columns("email", "password_hash", "display_name", "credits", "is_active", "is_system_admin").
		Values(u.Email, u.PasswordHash, u.DisplayName, u.Credits, u.IsActive, u.IsSystemAdmin).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *pgxUserRepository) UpdateCredits(ctx context.Context, id string, credits int) error {
	if credits < 0 {
		return ErrNegativeCredits
	}
	return r.exec(ctx, r.psql.Update("public.users").
		Set("credits", credits).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}))
}

func (r *pgxUserRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	return r.exec(ctx, r.psql.Update("public.users").Set("last_login_at", t).Where(squirrel.Eq{"id": id}))
}

func (r *pgxUserRepository) SetPicture(ctx context.Context, id string, fileID *string) error {
	return r.exec(ctx, r.psql.Update("public.users").
		Set("picture_file_id", fileID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}))
}

func (r *pgxUserRepository) exec(ctx context.Context, b squirrel.UpdateBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
