package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the old one is revoked and a
	// new pair is returned.
	g.POST("/refresh", a.Refresh)
	// Logout takes a refresh_token in the body and revokes it, so it
	// does not require a JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated timetable endpoints.  These
// routes serve sanitized route and availability data for guests; the
// optional middleware slot is used for the Redis response cache.
func RegisterPublic(e *echo.Echo, r *handler.RouteHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	// Find direct trains between two stations.
	g.GET("/search/routes", r.SearchRoutes)
	// Ordered stop sequence of one train.
	g.GET("/trains/:code/stops", r.TrainStops)
	// Free seat count for a segment on a date.  Informational only;
	// booking re-checks under lock.
	g.GET("/trains/:code/availability", r.Availability)
}
