package handler

import (
    "context"
    "errors"
    "log/slog"
    "net/http"
    "sort"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/train-seat-booking/internal/logger"
    "github.com/iliyamo/train-seat-booking/internal/queue"
    "github.com/iliyamo/train-seat-booking/internal/repository"
    "github.com/iliyamo/train-seat-booking/internal/seating"
)

// sideEffectTimeout bounds cache purges and event publishing after commit.
const sideEffectTimeout = 3 * time.Second

// BookingHandler serves the passenger booking endpoints.
type BookingHandler struct {
    Alloc  *seating.Allocator
    Store  BookingStore
    Events EventPublisher
    Purge  PurgeFunc
    Log    *logger.Logger
}

func NewBookingHandler(alloc *seating.Allocator, store BookingStore, events EventPublisher, purge PurgeFunc, log *logger.Logger) *BookingHandler {
    return &BookingHandler{Alloc: alloc, Store: store, Events: events, Purge: purge, Log: log}
}

type bookReq struct {
    Seats []int `json:"seats" validate:"required,min=1,dive,min=1"`
}

type cancelReq struct {
    SeatNumbers []int `json:"seatNumbers" validate:"required,min=1,dive,min=1"`
}

// normalizeSeats sorts and dedups seats and checks them against the layout.
func normalizeSeats(l seating.Layout, seats []int) ([]int, error) {
    out := append([]int(nil), seats...)
    sort.Ints(out)
    j := 0
    for i, s := range out {
        if !l.Contains(s) {
            return nil, seating.ErrInvalidRequest
        }
        if i > 0 && s == out[j-1] {
            continue
        }
        out[j] = s
        j++
    }
    return out[:j], nil
}

// Book turns a proposal or manual selection into a booking.  If another
// passenger got any of the seats first nothing is booked and the response
// is 409 with the seats that were lost and a fresh proposal of the same
// size computed against the current booked set.
func (h *BookingHandler) Book(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookReq
    if err := bindAndValidate(c, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    l := h.Alloc.Layout()
    seats, err := normalizeSeats(l, req.Seats)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat number out of range"})
    }
    if len(seats) > l.MaxRowSize() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many seats in one booking"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    b, err := h.Store.Book(ctx, uid, seats)
    if err != nil {
        var taken *repository.SeatsTakenError
        if errors.As(err, &taken) {
            return h.conflict(ctx, c, seats, taken.Seats)
        }
        h.Log.WithUserID(uid).WithError(err).Error("booking failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }

    h.Log.LogBookingCreated(ctx, b.TicketID, uid, b.Seats)
    h.afterCommit(c.Request().Context(), queue.BookingEvent{
        Type:      queue.EventBookingConfirmed,
        TicketID:  b.TicketID,
        UserID:    uid,
        Seats:     b.Seats,
        RowLabels: b.RowLabels,
        Actor:     "passenger",
        At:        b.CreatedAt,
    })
    return c.JSON(http.StatusCreated, echo.Map{"ticket": b})
}

func (h *BookingHandler) conflict(ctx context.Context, c echo.Context, requested, taken []int) error {
    if len(taken) == 0 {
        // the seats were contested but are free again by now
        taken = requested
    }
    resp := echo.Map{
        "error":       "some seats are no longer available",
        "unavailable": taken,
    }
    if booked, err := h.Store.BookedSeats(ctx); err == nil {
        if p, err := h.Alloc.Suggest(len(requested), seating.NewSeatSet(booked...), 0); err == nil {
            resp["alternative"] = p
        }
    }
    return c.JSON(http.StatusConflict, resp)
}

// MyBookings lists the caller's tickets, one per seat.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    tickets, err := h.Store.ListByUser(ctx, uid)
    if err != nil {
        h.Log.WithUserID(uid).WithError(err).Error("list bookings failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"myBookedSeats": tickets})
}

// CancelBooking releases the listed seats that belong to the caller.
// Seats booked by other users are ignored; 404 when none are the caller's.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req cancelReq
    if err := bindAndValidate(c, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    seats, err := normalizeSeats(h.Alloc.Layout(), req.SeatNumbers)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat number out of range"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    released, err := h.Store.Cancel(ctx, uid, seats)
    if err != nil {
        if errors.Is(err, repository.ErrNotOwner) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no booking of yours for these seats"})
        }
        h.Log.WithUserID(uid).WithError(err).Error("cancel booking failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel booking failed"})
    }

    h.Log.LogBookingCancelled(ctx, uid, released)
    h.afterCommit(c.Request().Context(), queue.BookingEvent{
        Type:      queue.EventBookingCancelled,
        UserID:    uid,
        Seats:     released,
        RowLabels: rowLabels(h.Alloc.Layout(), released),
        Actor:     "passenger",
        At:        time.Now().UTC(),
    })
    return c.JSON(http.StatusOK, echo.Map{
        "message":       "booking cancelled",
        "releasedSeats": released,
    })
}

// afterCommit purges the booked-seat cache and publishes ev.  Both are best
// effort; failures are logged and never change the response.
func (h *BookingHandler) afterCommit(parent context.Context, ev queue.BookingEvent) {
    afterCommit(parent, h.Purge, h.Events, h.Log, ev)
}

func afterCommit(parent context.Context, purge PurgeFunc, events EventPublisher, log *logger.Logger, ev queue.BookingEvent) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), sideEffectTimeout)
    defer cancel()
    if purge != nil {
        if err := purge(ctx); err != nil {
            log.Warn("cache purge failed", slog.String("error", err.Error()))
        }
    }
    if events != nil {
        if err := events.Publish(ctx, ev); err != nil {
            log.Warn("publish booking event failed", slog.String("type", ev.Type), slog.String("error", err.Error()))
        }
    }
}

func rowLabels(l seating.Layout, seats []int) []string {
    out := make([]string, len(seats))
    for i, s := range seats {
        out[i] = seating.RowLabel(l.RowOf(s))
    }
    return out
}

var _ BookingStore = (*repository.BookingRepo)(nil)
