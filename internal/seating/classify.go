package seating

// SeatState is the display class of one seat.
type SeatState string

const (
	StateBooked             SeatState = "booked"
	StateManualTogether     SeatState = "manual_together"
	StateManualScattered    SeatState = "manual_scattered"
	StateSuggestedTogether  SeatState = "suggested_together"
	StateSuggestedScattered SeatState = "suggested_scattered"
	StateFree               SeatState = "free"
)

// Selection is the view state a client holds between requests.  Count is the
// number of seats the user asked for; a manual selection only counts as
// together when it has exactly that many seats.
type Selection struct {
	Booked    SeatSet
	Manual    []int
	Suggested []int
	Count     int
}

// SeatView is one classified seat of a rendered board.
type SeatView struct {
	Seat  int       `json:"seat"`
	Label string    `json:"label"`
	State SeatState `json:"state"`
}

// BoardRow is one row of a rendered board.
type BoardRow struct {
	Row   int        `json:"row"`
	Label string     `json:"label"`
	Seats []SeatView `json:"seats"`
}

// classifier caches the per-set answers so a whole board is classified with
// one pass over each set.
type classifier struct {
	booked            SeatSet
	manual, suggested SeatSet
	manualTogether    bool
	suggestedTogether bool
}

func (a *Allocator) classifier(sel Selection) classifier {
	return classifier{
		booked:            sel.Booked,
		manual:            NewSeatSet(sel.Manual...),
		suggested:         NewSeatSet(sel.Suggested...),
		manualTogether:    a.AreTogether(sel.Manual) && len(sel.Manual) == sel.Count,
		suggestedTogether: a.AreTogether(sel.Suggested),
	}
}

func (c classifier) state(seat int) SeatState {
	switch {
	case c.booked.Has(seat):
		return StateBooked
	case c.manual.Has(seat):
		if c.manualTogether {
			return StateManualTogether
		}
		return StateManualScattered
	case c.suggested.Has(seat):
		if c.suggestedTogether {
			return StateSuggestedTogether
		}
		return StateSuggestedScattered
	}
	return StateFree
}

// Classify returns the display state of seat.  Booked beats manual, manual
// beats suggested, anything else is free.
func (a *Allocator) Classify(seat int, sel Selection) SeatState {
	return a.classifier(sel).state(seat)
}

// Board classifies every seat of the layout, grouped by row.
func (a *Allocator) Board(sel Selection) []BoardRow {
	c := a.classifier(sel)
	rows := make([]BoardRow, 0, a.layout.Rows())
	for r := 0; r < a.layout.Rows(); r++ {
		seats := a.layout.RowSeats(r)
		views := make([]SeatView, len(seats))
		for i, seat := range seats {
			views[i] = SeatView{Seat: seat, Label: a.layout.SeatLabel(seat), State: c.state(seat)}
		}
		rows = append(rows, BoardRow{Row: r, Label: RowLabel(r), Seats: views})
	}
	return rows
}
