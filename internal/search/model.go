package search

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/booking"
	"github.com/nekogravitycat/codriving-backend/internal/file"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

// DefaultDriverRating is shown until drivers can be rated.
const DefaultDriverRating = 4.5

// AlternativesLimit caps FindAlternativeTrips.
const AlternativesLimit = 5

var (
	ErrCitiesRequired = apperror.InvalidRequest("departure and arrival cities are required")
	ErrDateRequired   = apperror.InvalidRequest("departure date is required")
	ErrInvalidFilter  = apperror.InvalidRequest("invalid search filter")
)

// Filter selects trips. Required: both cities and the departure day.
// Nil optional fields add no predicate.
type Filter struct {
	DepartureCity  string
	ArrivalCity    string
	DepartureDate  time.Time
	MaxPrice       *float64
	MaxDuration    *int
	EcologicalOnly bool
	MinSeats       *int
}

type DriverSummary struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	PictureURL  *string `json:"picture_url"`
	Rating      float64 `json:"rating"`
}

type CarSummary struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Energy string `json:"energy"`
	Color  string `json:"color"`
}

// TripResult is the projection returned by searches. It is also the cached form.
type TripResult struct {
	ID                string        `json:"id"`
	DepartureCity     string        `json:"departure_city"`
	DepartureLocation string        `json:"departure_location"`
	ArrivalCity       string        `json:"arrival_city"`
	ArrivalLocation   string        `json:"arrival_location"`
	DepartureAt       time.Time     `json:"departure_at"`
	ArrivalAt         time.Time     `json:"arrival_at"`
	Price             float64       `json:"price"`
	SeatsAvailable    int           `json:"seats_available"`
	IsEcological      bool          `json:"is_ecological"`
	DurationMinutes   int           `json:"duration_minutes"`
	Driver            DriverSummary `json:"driver"`
	Car               *CarSummary   `json:"car"`
}

// BookingSummary is the public view of a booking on a trip. It does not identify the passenger.
type BookingSummary struct {
	ID        string         `json:"id"`
	Status    booking.Status `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// TripDetails adds what a single-trip view shows on top of the search projection.
type TripDetails struct {
	TripResult
	Status         trip.Status
	Bookings       []BookingSummary
	ActiveBookings int
}

func newTripResult(t *trip.Trip) TripResult {
	r := TripResult{
		ID:                t.ID,
		DepartureCity:     t.DepartureCity,
		DepartureLocation: t.DepartureLocation,
		ArrivalCity:       t.ArrivalCity,
		ArrivalLocation:   t.ArrivalLocation,
		DepartureAt:       t.DepartureAt(),
		ArrivalAt:         t.ArrivalAt(),
		Price:             t.Price,
		SeatsAvailable:    t.SeatsAvailable,
		IsEcological:      t.IsEcological(),
		DurationMinutes:   t.Duration(),
		Driver: DriverSummary{
			ID:     t.DriverID,
			Rating: DefaultDriverRating,
		},
	}
	if t.Driver != nil {
		r.Driver.DisplayName = t.Driver.DisplayName
		if t.Driver.PictureFileID != nil {
			url := file.ThumbnailURL(*t.Driver.PictureFileID)
			r.Driver.PictureURL = &url
		}
	}
	if t.Car != nil {
		r.Car = &CarSummary{
			ID:     t.Car.ID,
			Model:  t.Car.Model,
			Energy: string(t.Car.Energy),
			Color:  t.Car.Color,
		}
	}
	return r
}

// Kind names the entity type of a general search result.
type Kind string

const (
	KindUser      Kind = "user"
	KindCar       Kind = "car"
	KindCodriving Kind = "codriving"
)

// Kinds lists every searchable entity type in response order.
var Kinds = []Kind{KindUser, KindCar, KindCodriving}

// EntityLimit caps the results of each kind in a general search.
const EntityLimit = 50

// Result is one match of a general text search.
type Result struct {
	Type        Kind   `json:"type"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func userResult(id string, displayName *string) Result {
	r := Result{Type: KindUser, ID: id}
	if displayName != nil {
		r.Title = *displayName
	}
	return r
}

func carResult(id, model, energy, color string) Result {
	return Result{
		Type:        KindCar,
		ID:          id,
		Title:       model,
		Description: energy + " - " + color,
	}
}

func codrivingResult(id, departureLocation, arrivalLocation, status string, seats int, price float64) Result {
	return Result{
		Type:        KindCodriving,
		ID:          id,
		Title:       departureLocation + " → " + arrivalLocation,
		Description: fmt.Sprintf("%s - %d seats - €%.2f", status, seats, price),
	}
}
