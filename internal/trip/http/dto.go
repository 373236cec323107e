package http

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/trip"
)

// CreateTripRequest defines the payload for publishing a trip.
type CreateTripRequest struct {
	CarID             *string `json:"car_id" binding:"omitempty,uuid"`
	DepartureCity     string  `json:"departure_city" binding:"required,notblank,max=50"`
	DepartureLocation string  `json:"departure_location" binding:"required,notblank,max=100"`
	DepartureDate     string  `json:"departure_date" binding:"required,isodate"`
	DepartureHour     string  `json:"departure_hour" binding:"required,hhmm"`
	ArrivalCity       string  `json:"arrival_city" binding:"required,notblank,max=50"`
	ArrivalLocation   string  `json:"arrival_location" binding:"required,notblank,max=100"`
	ArrivalDate       string  `json:"arrival_date" binding:"required,isodate"`
	ArrivalHour       string  `json:"arrival_hour" binding:"required,hhmm"`
	Seats             int     `json:"seats" binding:"required,min=1,max=8"`
	Price             float64 `json:"price" binding:"min=0"`
	DurationMinutes   *int    `json:"duration_minutes" binding:"omitempty,min=0"`
}

func (r CreateTripRequest) toInput() trip.CreateInput {
	return trip.CreateInput{
		CarID:             r.CarID,
		DepartureCity:     r.DepartureCity,
		DepartureLocation: r.DepartureLocation,
		DepartureDate:     r.DepartureDate,
		DepartureHour:     r.DepartureHour,
		ArrivalCity:       r.ArrivalCity,
		ArrivalLocation:   r.ArrivalLocation,
		ArrivalDate:       r.ArrivalDate,
		ArrivalHour:       r.ArrivalHour,
		Seats:             r.Seats,
		Price:             r.Price,
		DurationMinutes:   r.DurationMinutes,
	}
}

type TripResponse struct {
	ID                string    `json:"id"`
	DriverID          string    `json:"driver_id"`
	CarID             *string   `json:"car_id"`
	DepartureCity     string    `json:"departure_city"`
	DepartureLocation string    `json:"departure_location"`
	DepartureAt       time.Time `json:"departure_at"`
	ArrivalCity       string    `json:"arrival_city"`
	ArrivalLocation   string    `json:"arrival_location"`
	ArrivalAt         time.Time `json:"arrival_at"`
	Status            string    `json:"status"`
	SeatsAvailable    int       `json:"seats_available"`
	Price             float64   `json:"price"`
	DurationMinutes   int       `json:"duration_minutes"`
	IsEcological      bool      `json:"is_ecological"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewTripResponse(t *trip.Trip) TripResponse {
	return TripResponse{
		ID:                t.ID,
		DriverID:          t.DriverID,
		CarID:             t.CarID,
		DepartureCity:     t.DepartureCity,
		DepartureLocation: t.DepartureLocation,
		DepartureAt:       t.DepartureAt(),
		ArrivalCity:       t.ArrivalCity,
		ArrivalLocation:   t.ArrivalLocation,
		ArrivalAt:         t.ArrivalAt(),
		Status:            string(t.Status),
		SeatsAvailable:    t.SeatsAvailable,
		Price:             t.Price,
		DurationMinutes:   t.Duration(),
		IsEcological:      t.IsEcological(),
		CreatedAt:         t.CreatedAt,
	}
}
