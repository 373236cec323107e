package http

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/booking"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/request"
)

type CreateBookingRequest struct {
	TripID      string  `json:"trip_id" binding:"required,uuid"`
	CreditsUsed int     `json:"credits_used" binding:"required,min=1"`
	Notes       *string `json:"notes" binding:"omitempty,max=500"`
}

// UpdateBookingRequest patches notes. Status only accepts "cancelled".
type UpdateBookingRequest struct {
	Notes  *string `json:"notes" binding:"omitempty,max=500"`
	Status *string `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
}

func (r UpdateBookingRequest) toUpdate() booking.UpdateRequest {
	var status *booking.Status
	if r.Status != nil {
		s := booking.Status(*r.Status)
		status = &s
	}
	return booking.UpdateRequest{Notes: r.Notes, Status: status}
}

type ListBookingsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
}

func (r ListBookingsRequest) toFilter() booking.Filter {
	r.Normalize()
	return booking.Filter{
		Status:   booking.Status(r.Status),
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}

type TripSummary struct {
	ID            string    `json:"id"`
	DepartureCity string    `json:"departure_city,omitempty"`
	ArrivalCity   string    `json:"arrival_city,omitempty"`
	DepartureAt   time.Time `json:"departure_at,omitzero"`
}

type BookingResponse struct {
	ID            string      `json:"id"`
	PassengerID   string      `json:"passenger_id"`
	PassengerName string      `json:"passenger_name,omitempty"`
	Trip          TripSummary `json:"trip"`
	Status        string      `json:"status"`
	CreditsUsed   int         `json:"credits_used"`
	Notes         *string     `json:"notes"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		PassengerID:   b.PassengerID,
		PassengerName: b.PassengerName,
		Trip: TripSummary{
			ID:            b.TripID,
			DepartureCity: b.DepartureCity,
			ArrivalCity:   b.ArrivalCity,
			DepartureAt:   b.DepartureAt,
		},
		Status:      string(b.Status),
		CreditsUsed: b.CreditsUsed,
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func newBookingResponses(items []*booking.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, NewBookingResponse(b))
	}
	return out
}
