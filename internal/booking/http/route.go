package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
		group.PATCH("/:id", h.Update)
		group.POST("/:id/cancel", h.Cancel)
		group.PATCH("/:id/confirm", h.Confirm)
		group.PATCH("/:id/complete", h.Complete)
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}

	g.GET("/trips/:id/bookings", authMiddleware, h.ListByTrip)
	g.GET("/admin/users/:id/bookings", authMiddleware, adminMiddleware, h.ListByPassenger)
}
