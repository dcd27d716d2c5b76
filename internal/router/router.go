package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-booking/internal/handler"
	"github.com/iliyamo/train-seat-booking/internal/middleware"
	"github.com/iliyamo/train-seat-booking/internal/model"
)

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints under /v1/auth.  Everything
// except /me is public; logout accepts either a refresh token or a Bearer
// access token so it stays reachable after the access token expires.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)               // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // keeps the refresh token
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterSeats registers the public seat map.  Anonymous visitors can
// browse, get suggestions and try manual selections; only booking needs an
// account.  cache wraps the read-only snapshot routes.
func RegisterSeats(e *echo.Echo, s *handler.SeatsHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/layout", s.Layout, cache)
	e.GET("/v1/bookings/booked", s.Booked, cache)

	g := e.Group("/v1/seats")
	g.POST("/suggest", s.Suggest)
	g.POST("/manual", s.Manual)
	g.POST("/board", s.Board)
}

// RegisterBookings registers the passenger endpoints.  Admins may use them
// too.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	role := middleware.RequireRole(model.RolePassenger, model.RoleAdmin)
	e.POST("/v1/bookings/book", b.Book, auth, role)
	e.GET("/v1/bookings/my-bookings", b.MyBookings, auth, role)
	e.DELETE("/v1/bookings/cancel-booking", b.CancelBooking, auth, role)
}

// RegisterAdmin registers the ADMIN-only booking management endpoints.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings", a.ListBookings)
	g.DELETE("/bookings/:ticket", a.ReleaseTicket)
}
