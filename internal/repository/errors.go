// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to distinguish
// between failure scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotOwner is returned when a caller tries to cancel seats that are
// not part of any of their bookings.  Handlers answer 404.
var ErrNotOwner = errors.New("seats not booked by caller")

// ErrBookingNotFound is returned when a ticket id matches no booking.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatsTaken signals that a booking lost a race: at least one of the
// requested seats was booked by someone else after the client fetched its
// snapshot.  Use errors.As with *SeatsTakenError to learn which seats.
var ErrSeatsTaken = errors.New("seats already booked")

// SeatsTakenError carries the conflicting seat numbers.  Seats may be empty
// when the conflict was only detected by the unique key on insert.
type SeatsTakenError struct {
	Seats []int
}

func (e *SeatsTakenError) Error() string {
	if len(e.Seats) == 0 {
		return ErrSeatsTaken.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSeatsTaken, e.Seats)
}

func (e *SeatsTakenError) Is(target error) bool { return target == ErrSeatsTaken }
