package handler // HTTP handlers for the booking API

import (
    "context"
    "errors"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/train-seat-booking/internal/middleware"
    "github.com/iliyamo/train-seat-booking/internal/model"
    "github.com/iliyamo/train-seat-booking/internal/queue"
)

// dbTimeout bounds every repository call made on behalf of a request.
const dbTimeout = 5 * time.Second

// BookingStore is the booked-seat store the handlers read and write.
// *repository.BookingRepo implements it.
type BookingStore interface {
    BookedSeats(ctx context.Context) ([]int, error)
    Book(ctx context.Context, userID uint64, seats []int) (model.Booking, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
    Cancel(ctx context.Context, userID uint64, seats []int) ([]int, error)
    ListAll(ctx context.Context) ([]model.Booking, error)
    ReleaseTicket(ctx context.Context, ticketID string) (model.Booking, error)
}

// EventPublisher sends booking events downstream.  *service.Publisher
// implements it.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// PurgeFunc drops cached responses that depend on the booked-seat set.
type PurgeFunc func(ctx context.Context) error

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the id JWTAuth stored in the context.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := c.Get(middleware.CtxUserID).(uint64)
    if !ok || id == 0 {
        return 0, errNoUser
    }
    return id, nil
}

// bindAndValidate decodes the body into req and runs the struct validator
// registered on the echo instance.
func bindAndValidate(c echo.Context, req interface{}) error {
    if err := c.Bind(req); err != nil {
        return errors.New("invalid body")
    }
    if err := c.Validate(req); err != nil {
        return err
    }
    return nil
}
