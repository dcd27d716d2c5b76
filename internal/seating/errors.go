package seating

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when a request cannot be searched at all:
// a count outside [1, MaxRowSize] or an anchor outside the layout.
var ErrInvalidRequest = errors.New("invalid seat request")

// ErrSeatBooked is returned when a manual selection starts on a seat that is
// already booked.  It matches ErrInvalidRequest under errors.Is.
var ErrSeatBooked = fmt.Errorf("%w: anchor seat is already booked", ErrInvalidRequest)

// ErrNoSuitableSeats means every search tier ran out of free seats.  The
// caller should show it as a retryable notice.
var ErrNoSuitableSeats = errors.New("no suitable seats found")

// ErrInvalidLayout is returned by Layout.Validate.
var ErrInvalidLayout = errors.New("invalid seat layout")
