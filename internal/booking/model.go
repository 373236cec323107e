package booking

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.NotFound("booking not found")
	ErrUserNotFound = apperror.NotFound("user not found")
	ErrTripNotFound = apperror.NotFound("trip not found")

	ErrInvalidCredits         = apperror.InvalidRequest("credits used must be at least 1")
	ErrInsufficientCredits    = apperror.InvalidRequest("insufficient credits")
	ErrNoSeatsAvailable       = apperror.InvalidRequest("no seats available")
	ErrAlreadyBooked          = apperror.InvalidRequest("trip already booked by this user")
	ErrAlreadyCancelled       = apperror.InvalidRequest("booking already cancelled")
	ErrNotCancellable         = apperror.InvalidRequest("completed bookings cannot be cancelled")
	ErrOnlyDriverCanConfirm   = apperror.InvalidRequest("only the driver can confirm this booking")
	ErrOnlyDriverCanComplete  = apperror.InvalidRequest("only the driver can complete this booking")
	ErrNotPending             = apperror.InvalidRequest("only pending bookings can be confirmed")
	ErrNotConfirmed           = apperror.InvalidRequest("only confirmed bookings can be completed")
	ErrStatusChangeNotAllowed = apperror.InvalidRequest("status can only be changed through confirm, complete or cancel")
	ErrInvalidStatus          = apperror.InvalidRequest("invalid booking status")

	ErrPermissionDenied = apperror.Forbidden("permission denied")
)

// Status is the lifecycle state of a booking.
//
//	pending ──confirm──> confirmed ──complete──> completed
//	   └──────cancel────────┴──cancel──> cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether the booking still holds a seat and the passenger's credits.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsTerminal reports whether no further transition is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Booking is a passenger's claim on one seat of a trip, paid for in credits.
type Booking struct {
	ID          string
	PassengerID string
	TripID      string
	Status      Status
	CreditsUsed int
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined for display; empty when the booking was built in memory.
	PassengerName string
	DepartureCity string
	ArrivalCity   string
	DepartureAt   time.Time
}

type Filter struct {
	PassengerID string
	TripID      string
	Status      Status
	Page        int
	PageSize    int
}
