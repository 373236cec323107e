package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public search routes.
func RegisterRoutes(r gin.IRouter, h *SearchHandler) {
	e := r.Group("/search")
	{
		e.GET("", h.SearchAll)
		e.GET("/users", h.SearchUsers)
		e.GET("/cars", h.SearchCars)
		e.GET("/codriving", h.SearchCodriving)
	}

	s := r.Group("/search/trips")
	{
		s.GET("", h.SearchTrips)
		s.GET("/ecological", h.SearchEcologicalTrips)
		s.GET("/alternatives", h.Alternatives)
		s.GET("/:id", h.TripDetails)
	}
}
