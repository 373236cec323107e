package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/request"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/response"
	"github.com/nekogravitycat/codriving-backend/internal/search"
)

type SearchHandler struct {
	service search.Service
}

func NewSearchHandler(service search.Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchTrips returns bookable trips for a route and day.
// When nothing matches, the response also lists trips from the adjacent days.
func (h *SearchHandler) SearchTrips(c *gin.Context) {
	var req SearchTripsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid search query", err)
		return
	}
	h.search(c, req.toFilter())
}

// SearchEcologicalTrips is SearchTrips restricted to electric cars.
func (h *SearchHandler) SearchEcologicalTrips(c *gin.Context) {
	var req SearchTripsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid search query", err)
		return
	}
	f := req.toFilter()
	f.EcologicalOnly = true
	h.search(c, f)
}

func (h *SearchHandler) search(c *gin.Context, f search.Filter) {
	ctx := c.Request.Context()

	items, err := h.service.SearchTrips(ctx, f)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := SearchTripsResponse{Items: nonNil(items), Alternatives: []search.TripResult{}}
	if len(items) == 0 {
		alternatives, err := h.service.FindAlternativeTrips(ctx, f.DepartureCity, f.ArrivalCity, f.DepartureDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp.Alternatives = nonNil(alternatives)
	}

	c.JSON(http.StatusOK, resp)
}

// Alternatives lists up to five trips on the day before or after the given date.
func (h *SearchHandler) Alternatives(c *gin.Context) {
	var req AlternativesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid search query", err)
		return
	}

	items, err := h.service.FindAlternativeTrips(c.Request.Context(), req.DepartureCity, req.ArrivalCity, req.day())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AlternativesResponse{Items: nonNil(items)})
}

// TripDetails returns one trip with its bookings.
func (h *SearchHandler) TripDetails(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid trip id", err)
		return
	}

	details, err := h.service.GetTripDetails(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if details == nil {
		response.Error(c, apperror.NotFound("trip not found"))
		return
	}

	c.JSON(http.StatusOK, NewTripDetailsResponse(details))
}

// SearchAll matches q against users, cars and trips.
func (h *SearchHandler) SearchAll(c *gin.Context) {
	h.searchEntities(c)
}

// SearchUsers, SearchCars and SearchCodriving restrict SearchAll to one type.
func (h *SearchHandler) SearchUsers(c *gin.Context) {
	h.searchEntities(c, search.KindUser)
}

func (h *SearchHandler) SearchCars(c *gin.Context) {
	h.searchEntities(c, search.KindCar)
}

func (h *SearchHandler) SearchCodriving(c *gin.Context) {
	h.searchEntities(c, search.KindCodriving)
}

func (h *SearchHandler) searchEntities(c *gin.Context, kinds ...search.Kind) {
	var req EntitySearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid search query", err)
		return
	}

	items, err := h.service.SearchEntities(c.Request.Context(), req.Q, kinds...)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []search.Result{}
	}

	c.JSON(http.StatusOK, EntitySearchResponse{Items: items})
}
