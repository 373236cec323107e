package trip

import (
	"math"
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.NotFound("trip not found")
	ErrCarNotFound     = apperror.NotFound("car not found")
	ErrCarNotOwned     = apperror.Forbidden("car does not belong to the driver")
	ErrInvalidSchedule = apperror.InvalidRequest("arrival must not be before departure")
	ErrInvalidSeats    = apperror.InvalidRequest("seats must be at least 1")
	ErrInvalidPrice    = apperror.InvalidRequest("price must not be negative")
	ErrInvalidDuration = apperror.InvalidRequest("duration must not be negative")
	ErrInvalidDate     = apperror.InvalidRequest("dates must use YYYY-MM-DD")
	ErrInvalidHour     = apperror.InvalidRequest("hours must use HH:MM")
	ErrNegativeSeats   = apperror.InvalidRequest("seats available cannot be negative")
)

// Status is the lifecycle state of a trip.
type Status string

const (
	StatusAvailable Status = "available"
	StatusFull      Status = "full"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusFull, StatusStarted, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Energy is the propulsion type of a car.
type Energy string

const (
	EnergyElectric Energy = "Electric"
	EnergyHybrid   Energy = "Hybrid"
	EnergyGasoline Energy = "Gasoline"
	EnergyDiesel   Energy = "Diesel"
)

// Driver is the part of the driving user that trips expose.
type Driver struct {
	ID            string
	DisplayName   *string
	PictureFileID *string
}

type Car struct {
	ID      string
	OwnerID string
	Model   string
	Energy  Energy
	Color   string
}

// Trip is a scheduled ride published by a driver.
// Dates are calendar days in UTC, hours are "HH:MM".
type Trip struct {
	ID                string
	DriverID          string
	CarID             *string
	DepartureCity     string
	DepartureLocation string
	DepartureDate     time.Time
	DepartureHour     string
	ArrivalCity       string
	ArrivalLocation   string
	ArrivalDate       time.Time
	ArrivalHour       string
	Status            Status
	SeatsAvailable    int
	Price             float64
	DurationMinutes   *int
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Loaded by the repository through joins; nil when absent.
	Driver *Driver
	Car    *Car
}

// DepartureAt combines the departure date and hour.
func (t *Trip) DepartureAt() time.Time {
	return Combine(t.DepartureDate, t.DepartureHour)
}

// ArrivalAt combines the arrival date and hour.
func (t *Trip) ArrivalAt() time.Time {
	return Combine(t.ArrivalDate, t.ArrivalHour)
}

// IsEcological reports whether the trip's car is electric. The match is exact.
func (t *Trip) IsEcological() bool {
	return t.Car != nil && t.Car.Energy == EnergyElectric
}

// Duration returns the stored duration when set and non-zero,
// otherwise the absolute minutes between departure and arrival.
func (t *Trip) Duration() int {
	if t.DurationMinutes != nil && *t.DurationMinutes > 0 {
		return *t.DurationMinutes
	}
	d := t.ArrivalAt().Sub(t.DepartureAt())
	return int(math.Abs(d.Minutes()))
}

// Combine sets the "HH:MM" hour on the calendar day of date, in UTC.
// An unparsable hour leaves the time at midnight.
func Combine(date time.Time, hour string) time.Time {
	y, m, d := date.Date()
	h, err := time.Parse("15:04", hour)
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d, h.Hour(), h.Minute(), 0, 0, time.UTC)
}
