// Package seating holds the seat allocation engine for a single train car.
// Every function here is a pure function of its arguments: the layout, the
// set of booked seats and the caller's request.  Nothing is cached between
// calls and nothing is mutated, so handlers may call into it from any
// goroutine without coordination.
package seating

import "strconv"

// Layout describes the fixed geometry of a car.  Seats are numbered from 1
// in row-major order: FullRowCount rows of FullRowSize seats followed by a
// trailing partial row of LastRowSize seats.
type Layout struct {
	Total        int `json:"total"`
	FullRowSize  int `json:"full_row_size"`
	FullRowCount int `json:"full_row_count"`
	LastRowSize  int `json:"last_row_size"`
}

// DefaultLayout is the 80 seat coach: eleven rows of seven and a final row
// of three.
var DefaultLayout = Layout{Total: 80, FullRowSize: 7, FullRowCount: 11, LastRowSize: 3}

// Validate reports ErrInvalidLayout when the sizes are inconsistent.
func (l Layout) Validate() error {
	if l.FullRowSize < 1 || l.FullRowCount < 1 || l.LastRowSize < 0 {
		return ErrInvalidLayout
	}
	if l.Total != l.FullRowCount*l.FullRowSize+l.LastRowSize {
		return ErrInvalidLayout
	}
	return nil
}

// Contains reports whether seat is a valid seat number for the layout.
func (l Layout) Contains(seat int) bool {
	return seat >= 1 && seat <= l.Total
}

// Rows returns the number of rows including the partial one, if any.
func (l Layout) Rows() int {
	if l.LastRowSize > 0 {
		return l.FullRowCount + 1
	}
	return l.FullRowCount
}

// MaxRowSize is the largest number of seats any single row holds.  It caps
// the count a request may ask for.
func (l Layout) MaxRowSize() int {
	if l.LastRowSize > l.FullRowSize {
		return l.LastRowSize
	}
	return l.FullRowSize
}

// RowOf returns the zero-based row of seat, or -1 when the seat is outside
// the layout.  Seats past the full rows belong to row FullRowCount.
func (l Layout) RowOf(seat int) int {
	if !l.Contains(seat) {
		return -1
	}
	if seat > l.FullRowCount*l.FullRowSize {
		return l.FullRowCount
	}
	return (seat - 1) / l.FullRowSize
}

// RowSeats returns the seat numbers of row in ascending order.
func (l Layout) RowSeats(row int) []int {
	if row < 0 || row >= l.Rows() {
		return nil
	}
	start := row*l.FullRowSize + 1
	size := l.FullRowSize
	if row == l.FullRowCount {
		size = l.LastRowSize
	}
	seats := make([]int, size)
	for i := range seats {
		seats[i] = start + i
	}
	return seats
}

// RowLabel converts a zero-based row index to a letter label: A, B, ... Z, AA.
func RowLabel(row int) string {
	if row < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+row%26))
		row = row/26 - 1
		if row < 0 {
			break
		}
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return string(res)
}

// SeatLabel renders a seat as its row label followed by its position in the
// row, e.g. seat 9 in the default layout is "B2".
func (l Layout) SeatLabel(seat int) string {
	row := l.RowOf(seat)
	if row < 0 {
		return ""
	}
	pos := seat - row*l.FullRowSize
	return RowLabel(row) + strconv.Itoa(pos)
}
