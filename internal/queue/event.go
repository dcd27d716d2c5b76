// Package queue defines the booking events exchanged over RabbitMQ and the
// background consumer that records them.
package queue

import "time"

// Event types.  Each is published to its own durable queue.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a booking or cancellation commits.  It
// holds enough for downstream consumers to log or notify without querying
// the database.
type BookingEvent struct {
	Type       string    `json:"type"`
	TicketID   string    `json:"ticket_id,omitempty"`
	UserID     uint64    `json:"user_id"`
	Seats      []int     `json:"seats"`
	RowLabels  []string  `json:"row_labels,omitempty"`
	Actor      string    `json:"actor,omitempty"` // "passenger" or "admin"
	At         time.Time `json:"at"`
}
