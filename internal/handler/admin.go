package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/train-seat-booking/internal/logger"
    "github.com/iliyamo/train-seat-booking/internal/queue"
    "github.com/iliyamo/train-seat-booking/internal/repository"
)

// AdminHandler lets staff inspect every booking and release whole tickets.
type AdminHandler struct {
    Store  BookingStore
    Events EventPublisher
    Purge  PurgeFunc
    Log    *logger.Logger
}

func NewAdminHandler(store BookingStore, events EventPublisher, purge PurgeFunc, log *logger.Logger) *AdminHandler {
    return &AdminHandler{Store: store, Events: events, Purge: purge, Log: log}
}

// ListBookings returns every booking with its seats.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    bookings, err := h.Store.ListAll(ctx)
    if err != nil {
        h.Log.WithError(err).Error("list all bookings failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}

// ReleaseTicket deletes the booking identified by :ticket and frees its
// seats.
func (h *AdminHandler) ReleaseTicket(c echo.Context) error {
    ticket := c.Param("ticket")
    if _, err := uuid.Parse(ticket); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    b, err := h.Store.ReleaseTicket(ctx, ticket)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        h.Log.WithError(err).Error("release ticket failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release ticket failed"})
    }

    h.Log.LogBookingCancelled(ctx, b.UserID, b.Seats)
    afterCommit(c.Request().Context(), h.Purge, h.Events, h.Log, queue.BookingEvent{
        Type:      queue.EventBookingCancelled,
        TicketID:  b.TicketID,
        UserID:    b.UserID,
        Seats:     b.Seats,
        RowLabels: b.RowLabels,
        Actor:     "admin",
        At:        time.Now().UTC(),
    })
    return c.JSON(http.StatusOK, echo.Map{"released": b})
}
