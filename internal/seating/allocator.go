package seating

import "sort"

// Tier names the search step that produced a proposal.
type Tier string

const (
	TierContiguous Tier = "contiguous" // unbroken block inside one row
	TierAnchorRow  Tier = "anchor_row" // free seats of the anchor's row
	TierSameRow    Tier = "same_row"   // loose free seats of the first row with room
	TierScattered  Tier = "scattered"  // first free seats anywhere
)

// Proposal is the allocator's suggested seat set for a request.  Seats holds
// exactly the requested count, in the order they were found (ascending).
type Proposal struct {
	Seats    []int `json:"seats"`
	Together bool  `json:"together"`
	Tier     Tier  `json:"tier"`
}

// ManualSelection is the result of a seat click.  Complete is false when the
// forward walk from the anchor could not gather the requested count, in
// which case Seats holds only the anchor.
type ManualSelection struct {
	Seats    []int `json:"seats"`
	Complete bool  `json:"complete"`
}

// Allocator owns a validated layout and answers seat requests against a
// snapshot of booked seats.
type Allocator struct {
	layout Layout
}

// New returns an Allocator for layout, or ErrInvalidLayout.
func New(layout Layout) (*Allocator, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{layout: layout}, nil
}

// Layout returns the allocator's geometry.
func (a *Allocator) Layout() Layout { return a.layout }

func (a *Allocator) checkCount(n int) error {
	if n < 1 || n > a.layout.MaxRowSize() {
		return ErrInvalidRequest
	}
	return nil
}

// Suggest picks n free seats.  anchor is the seat the user clicked, or 0
// when there is none.  The search runs in tiers and the first tier that
// yields n seats wins:
//
//  1. without an anchor, the first contiguous block of n free seats lying
//     in one row; with an anchor, the first n free seats of its row
//  2. the first n free seats of the first row that has n free seats
//  3. the first n free seats of the car, across rows
//
// When fewer than n seats are free it returns ErrNoSuitableSeats and never
// a shorter proposal.
func (a *Allocator) Suggest(n int, booked SeatSet, anchor int) (Proposal, error) {
	if err := a.checkCount(n); err != nil {
		return Proposal{}, err
	}
	if anchor != 0 && !a.layout.Contains(anchor) {
		return Proposal{}, ErrInvalidRequest
	}

	if anchor == 0 {
		if seats := a.contiguousBlock(n, booked); seats != nil {
			return a.propose(seats, TierContiguous), nil
		}
	} else {
		if seats := a.freeInRow(a.layout.RowOf(anchor), n, booked); seats != nil {
			return a.propose(seats, TierAnchorRow), nil
		}
	}

	for row := 0; row < a.layout.Rows(); row++ {
		if seats := a.freeInRow(row, n, booked); seats != nil {
			return a.propose(seats, TierSameRow), nil
		}
	}

	seats := make([]int, 0, n)
	for seat := 1; seat <= a.layout.Total && len(seats) < n; seat++ {
		if !booked.Has(seat) {
			seats = append(seats, seat)
		}
	}
	if len(seats) < n {
		return Proposal{}, ErrNoSuitableSeats
	}
	return a.propose(seats, TierScattered), nil
}

func (a *Allocator) propose(seats []int, tier Tier) Proposal {
	return Proposal{Seats: seats, Together: a.AreTogether(seats), Tier: tier}
}

// contiguousBlock returns the lowest block [i, i+n-1] that sits in a single
// row and has no booked seat, or nil.
func (a *Allocator) contiguousBlock(n int, booked SeatSet) []int {
	for i := 1; i <= a.layout.Total-n+1; i++ {
		if a.layout.RowOf(i) != a.layout.RowOf(i+n-1) {
			continue
		}
		free := true
		for seat := i; seat < i+n; seat++ {
			if booked.Has(seat) {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		block := make([]int, n)
		for k := range block {
			block[k] = i + k
		}
		return block
	}
	return nil
}

// freeInRow returns the first n free seats of row, or nil when the row has
// fewer than n free seats.
func (a *Allocator) freeInRow(row, n int, booked SeatSet) []int {
	seats := make([]int, 0, n)
	for _, seat := range a.layout.RowSeats(row) {
		if booked.Has(seat) {
			continue
		}
		seats = append(seats, seat)
		if len(seats) == n {
			return seats
		}
	}
	return nil
}

// ManualExtend grows a manual selection forward from anchor, skipping booked
// seats and crossing row boundaries, until n seats are gathered.  If the end
// of the car comes first the selection collapses to the anchor alone and
// Complete is false.
func (a *Allocator) ManualExtend(anchor, n int, booked SeatSet) (ManualSelection, error) {
	if err := a.checkCount(n); err != nil {
		return ManualSelection{}, err
	}
	if !a.layout.Contains(anchor) {
		return ManualSelection{}, ErrInvalidRequest
	}
	if booked.Has(anchor) {
		return ManualSelection{}, ErrSeatBooked
	}
	seats := make([]int, 0, n)
	for seat := anchor; seat <= a.layout.Total && len(seats) < n; seat++ {
		if !booked.Has(seat) {
			seats = append(seats, seat)
		}
	}
	if len(seats) < n {
		return ManualSelection{Seats: []int{anchor}, Complete: false}, nil
	}
	return ManualSelection{Seats: seats, Complete: true}, nil
}

// AreTogether reports whether seats all share one row and form an unbroken
// run.  Order does not matter; a single seat is together and an empty set is
// not.
func (a *Allocator) AreTogether(seats []int) bool {
	if len(seats) == 0 {
		return false
	}
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)
	row := a.layout.RowOf(sorted[0])
	if row < 0 {
		return false
	}
	for i, seat := range sorted {
		if a.layout.RowOf(seat) != row {
			return false
		}
		if i > 0 && seat != sorted[i-1]+1 {
			return false
		}
	}
	return true
}
