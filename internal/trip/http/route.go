package http

import "github.com/gin-gonic/gin"

// RegisterRoutes registers trip publishing routes.
func RegisterRoutes(r gin.IRouter, h *TripHandler, authMiddleware gin.HandlerFunc) {
	trips := r.Group("/trips")
	trips.Use(authMiddleware)
	{
		trips.POST("", h.Create)
		trips.GET("/:id", h.Get)
	}
}
