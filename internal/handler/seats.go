package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/train-seat-booking/internal/logger"
    "github.com/iliyamo/train-seat-booking/internal/seating"
)

// SeatsHandler serves the public seat map: layout, booked snapshot,
// suggestions, manual selection and board classification.  None of these
// write anything; a suggestion is only a proposal until it is booked.
type SeatsHandler struct {
    Alloc *seating.Allocator
    Store BookingStore
    Log   *logger.Logger
}

func NewSeatsHandler(alloc *seating.Allocator, store BookingStore, log *logger.Logger) *SeatsHandler {
    return &SeatsHandler{Alloc: alloc, Store: store, Log: log}
}

type suggestReq struct {
    Count  int `json:"count" validate:"required,min=1"`
    Anchor int `json:"anchor" validate:"min=0"`
}

type manualReq struct {
    Anchor int `json:"anchor" validate:"required,min=1"`
    Count  int `json:"count" validate:"required,min=1"`
}

type boardReq struct {
    Count     int   `json:"count" validate:"min=0"`
    Manual    []int `json:"manual" validate:"dive,min=1"`
    Suggested []int `json:"suggested" validate:"dive,min=1"`
}

type rowInfo struct {
    Row   int    `json:"row"`
    Label string `json:"label"`
    Seats []int  `json:"seats"`
}

// snapshot loads the currently booked seats as a set.
func (h *SeatsHandler) snapshot(ctx context.Context) (seating.SeatSet, error) {
    ctx, cancel := context.WithTimeout(ctx, dbTimeout)
    defer cancel()
    seats, err := h.Store.BookedSeats(ctx)
    if err != nil {
        return seating.SeatSet{}, err
    }
    return seating.NewSeatSet(seats...), nil
}

// Layout describes the car: geometry plus the seat numbers of every row.
func (h *SeatsHandler) Layout(c echo.Context) error {
    l := h.Alloc.Layout()
    rows := make([]rowInfo, 0, l.Rows())
    for r := 0; r < l.Rows(); r++ {
        rows = append(rows, rowInfo{Row: r, Label: seating.RowLabel(r), Seats: l.RowSeats(r)})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "layout":     l,
        "maxRowSize": l.MaxRowSize(),
        "rows":       rows,
    })
}

// Booked returns every booked seat number.  The route is cached in Redis
// and purged whenever a booking changes.
func (h *SeatsHandler) Booked(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()
    seats, err := h.Store.BookedSeats(ctx)
    if err != nil {
        h.Log.WithError(err).Error("load booked seats failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booked seats failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookedSeats": seats})
}

// Suggest proposes count seats, optionally around an anchor seat.
func (h *SeatsHandler) Suggest(c echo.Context) error {
    var req suggestReq
    if err := bindAndValidate(c, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booked, err := h.snapshot(c.Request().Context())
    if err != nil {
        h.Log.WithError(err).Error("load booked seats failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booked seats failed"})
    }
    p, err := h.Alloc.Suggest(req.Count, booked, req.Anchor)
    if err != nil {
        return allocError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "proposal": p,
        "labels":   h.labels(p.Seats),
        "board":    h.Alloc.Board(seating.Selection{Booked: booked, Suggested: p.Seats, Count: req.Count}),
    })
}

// Manual extends a clicked seat forward into a selection of count seats.
// An incomplete selection is not an error: complete=false tells the client
// only the anchor could be held.
func (h *SeatsHandler) Manual(c echo.Context) error {
    var req manualReq
    if err := bindAndValidate(c, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booked, err := h.snapshot(c.Request().Context())
    if err != nil {
        h.Log.WithError(err).Error("load booked seats failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booked seats failed"})
    }
    sel, err := h.Alloc.ManualExtend(req.Anchor, req.Count, booked)
    if err != nil {
        return allocError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "manual":   sel,
        "together": sel.Complete && h.Alloc.AreTogether(sel.Seats),
        "labels":   h.labels(sel.Seats),
        "board":    h.Alloc.Board(seating.Selection{Booked: booked, Manual: sel.Seats, Count: req.Count}),
    })
}

// Board classifies every seat for a client-held selection.
func (h *SeatsHandler) Board(c echo.Context) error {
    var req boardReq
    if err := bindAndValidate(c, &req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    booked, err := h.snapshot(c.Request().Context())
    if err != nil {
        h.Log.WithError(err).Error("load booked seats failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booked seats failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "board": h.Alloc.Board(seating.Selection{
            Booked:    booked,
            Manual:    req.Manual,
            Suggested: req.Suggested,
            Count:     req.Count,
        }),
    })
}

func (h *SeatsHandler) labels(seats []int) []string {
    l := h.Alloc.Layout()
    out := make([]string, len(seats))
    for i, s := range seats {
        out[i] = l.SeatLabel(s)
    }
    return out
}

// allocError maps allocator errors to HTTP responses.
func allocError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, seating.ErrNoSuitableSeats):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no suitable seats found"})
    case errors.Is(err, seating.ErrSeatBooked):
        return c.JSON(http.StatusConflict, echo.Map{"error": "seat already booked"})
    case errors.Is(err, seating.ErrInvalidRequest):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocation failed"})
}
