package http

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/request"
	"github.com/nekogravitycat/codriving-backend/internal/search"
)

// SearchTripsRequest is the query string of GET /search/trips.
type SearchTripsRequest struct {
	DepartureCity  string   `form:"departure_city" binding:"required,notblank,max=50"`
	ArrivalCity    string   `form:"arrival_city" binding:"required,notblank,max=50"`
	DepartureDate  string   `form:"departure_date" binding:"required,isodate"`
	MaxPrice       *float64 `form:"max_price" binding:"omitempty,min=0"`
	MaxDuration    *int     `form:"max_duration" binding:"omitempty,min=0"`
	EcologicalOnly bool     `form:"ecological_only"`
	MinSeats       *int     `form:"min_seats" binding:"omitempty,min=1"`
}

func (r SearchTripsRequest) toFilter() search.Filter {
	// isodate already validated the layout.
	day, _ := time.Parse(request.DateLayout, r.DepartureDate)
	return search.Filter{
		DepartureCity:  r.DepartureCity,
		ArrivalCity:    r.ArrivalCity,
		DepartureDate:  day,
		MaxPrice:       r.MaxPrice,
		MaxDuration:    r.MaxDuration,
		EcologicalOnly: r.EcologicalOnly,
		MinSeats:       r.MinSeats,
	}
}

// AlternativesRequest is the query string of GET /search/trips/alternatives.
type AlternativesRequest struct {
	DepartureCity string `form:"departure_city" binding:"required,notblank,max=50"`
	ArrivalCity   string `form:"arrival_city" binding:"required,notblank,max=50"`
	Date          string `form:"date" binding:"required,isodate"`
}

func (r AlternativesRequest) day() time.Time {
	d, _ := time.Parse(request.DateLayout, r.Date)
	return d
}

// SearchTripsResponse carries the matches and, when there are none, trips on adjacent days.
type SearchTripsResponse struct {
	Items        []search.TripResult `json:"items"`
	Alternatives []search.TripResult `json:"alternatives"`
}

type AlternativesResponse struct {
	Items []search.TripResult `json:"items"`
}

type TripDetailsResponse struct {
	search.TripResult
	Status         string                  `json:"status"`
	Bookings       []search.BookingSummary `json:"bookings"`
	ActiveBookings int                     `json:"active_bookings"`
}

func NewTripDetailsResponse(d *search.TripDetails) TripDetailsResponse {
	bookings := d.Bookings
	if bookings == nil {
		bookings = []search.BookingSummary{}
	}
	return TripDetailsResponse{
		TripResult:     d.TripResult,
		Status:         string(d.Status),
		Bookings:       bookings,
		ActiveBookings: d.ActiveBookings,
	}
}

// EntitySearchRequest is the query string of GET /search and its per-type variants.
type EntitySearchRequest struct {
	Q string `form:"q" binding:"max=100"`
}

type EntitySearchResponse struct {
	Items []search.Result `json:"items"`
}

func nonNil(results []search.TripResult) []search.TripResult {
	if results == nil {
		return []search.TripResult{}
	}
	return results
}
