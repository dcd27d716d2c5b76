package model

import "time"

// Booking groups the seats a user booked in one submission.  TicketID is
// the public identifier shown to the passenger.
type Booking struct {
    ID        uint64    `json:"-"`
    TicketID  string    `json:"ticket_id"`
    UserID    uint64    `json:"user_id"`
    Seats     []int     `json:"seats"`
    RowLabels []string  `json:"rows"`
    CreatedAt time.Time `json:"created_at"`
}

// Ticket is one booked seat as listed on the passenger's profile.
type Ticket struct {
    TicketID string    `json:"ticketId"`
    Seat     int       `json:"seat"`
    Row      string    `json:"row"`
    Date     time.Time `json:"date"`
}
