package user

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.NotFound("user not found")
	ErrEmailAlreadyUsed   = apperror.Conflict("email already used")
	ErrInvalidCredentials = apperror.New(401, "invalid email or password")
	ErrEmailRequired      = apperror.InvalidRequest("email is required")
	ErrPasswordTooShort   = apperror.InvalidRequest("password is too short")
	ErrNegativeCredits    = apperror.InvalidRequest("credits cannot be negative")
)

// User is an account holder. Credits are the in-app currency spent on bookings.
type User struct {
	ID            string // UUID
	Email         string
	PasswordHash  string
	DisplayName   *string
	Credits       int
	PictureFileID *string
	IsActive      bool
	IsSystemAdmin bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}
