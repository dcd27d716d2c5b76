package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-booking/internal/config"
	"github.com/iliyamo/train-seat-booking/internal/handler"
	"github.com/iliyamo/train-seat-booking/internal/logger"
	"github.com/iliyamo/train-seat-booking/internal/seating"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	alloc, err := seating.New(seating.DefaultLayout)
	if err != nil {
		t.Fatalf("seating.New failed: %v", err)
	}
	log := logger.Discard()
	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	noCache := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(config.Config{}, nil, nil, log), "secret")
	RegisterSeats(e, handler.NewSeatsHandler(alloc, nil, log), noCache)
	RegisterBookings(e, handler.NewBookingHandler(alloc, nil, nil, nil, log), "secret")
	RegisterAdmin(e, handler.NewAdminHandler(nil, nil, nil, log), "secret")
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestServer(t)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/signup",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/refresh-access",
		"POST /v1/auth/logout",
		"GET /v1/auth/me",
		"GET /v1/layout",
		"GET /v1/bookings/booked",
		"POST /v1/seats/suggest",
		"POST /v1/seats/manual",
		"POST /v1/seats/board",
		"POST /v1/bookings/book",
		"GET /v1/bookings/my-bookings",
		"DELETE /v1/bookings/cancel-booking",
		"GET /v1/admin/bookings",
		"DELETE /v1/admin/bookings/:ticket",
	} {
		if !have[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newTestServer(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/v1/bookings/book"},
		{http.MethodGet, "/v1/bookings/my-bookings"},
		{http.MethodDelete, "/v1/bookings/cancel-booking"},
		{http.MethodGet, "/v1/admin/bookings"},
		{http.MethodGet, "/v1/auth/me"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", r.method, r.path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
