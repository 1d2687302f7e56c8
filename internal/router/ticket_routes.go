package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
)

// RegisterTickets registers ticket endpoints under /v1.  All routes
// require a valid JWT with a known role.  Callers can book
// a segment, cancel or change their own tickets and list their active
// tickets; the optional middleware slot is used for rate limiting the
// write paths.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string, mw ...echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		append([]echo.MiddlewareFunc{
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole("CUSTOMER", "ADMIN"),
		}, mw...)...,
	)
	g.POST("/tickets", h.Book)
	g.DELETE("/tickets/:id", h.Cancel)
	g.POST("/tickets/:id/change", h.Change)
	g.GET("/my-tickets", h.ListTickets)
}
