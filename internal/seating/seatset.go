package seating

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// SeatSet is a read-only set of seat numbers.  The zero value is an empty
// set and is safe to query.
type SeatSet struct {
	m *mapset.Set[int]
}

// NewSeatSet builds a set from seats.  Duplicates collapse.
func NewSeatSet(seats ...int) SeatSet {
	m := mapset.New[int]()
	for _, s := range seats {
		m.Put(s)
	}
	return SeatSet{m: &m}
}

// Has reports whether seat is in the set.
func (s SeatSet) Has(seat int) bool {
	return s.m != nil && s.m.Has(seat)
}

// Len returns the number of seats in the set.
func (s SeatSet) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Size()
}

// Sorted returns the members in ascending order.
func (s SeatSet) Sorted() []int {
	out := make([]int, 0, s.Len())
	if s.m != nil {
		s.m.Each(func(seat int) { out = append(out, seat) })
	}
	sort.Ints(out)
	return out
}

// Union returns a new set holding the members of both sets.
func (s SeatSet) Union(other SeatSet) SeatSet {
	out := NewSeatSet(s.Sorted()...)
	for _, seat := range other.Sorted() {
		out.m.Put(seat)
	}
	return out
}
