package seating

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func newDefault(t *testing.T) *Allocator {
	t.Helper()
	a, err := New(DefaultLayout)
	if err != nil {
		t.Fatalf("New(DefaultLayout) failed: %v", err)
	}
	return a
}

func seatRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for s := from; s <= to; s++ {
		out = append(out, s)
	}
	return out
}

func TestSuggestScenarios(t *testing.T) {
	a := newDefault(t)
	cases := []struct {
		name   string
		booked []int
		n      int
		anchor int
		want   []int
		tier   Tier
	}{
		{"first block after booked prefix", []int{1, 2, 3}, 3, 0, []int{4, 5, 6}, TierContiguous},
		{"full first row moves to row two", seatRange(1, 7), 7, 0, seatRange(8, 14), TierContiguous},
		{"single free seat in row zero is skipped", []int{1, 2, 3, 5, 6, 7}, 3, 0, []int{8, 9, 10}, TierContiguous},
		{"empty car", nil, 1, 0, []int{1}, TierContiguous},
		{"last partial row", seatRange(1, 77), 3, 0, []int{78, 79, 80}, TierContiguous},
		{"anchor row loose seats", []int{9, 10}, 3, 12, []int{8, 11, 12}, TierAnchorRow},
		{"anchor row too full falls back to first row", seatRange(9, 13), 3, 8, []int{1, 2, 3}, TierSameRow},
		{"anchor in last row", nil, 2, 79, []int{78, 79}, TierAnchorRow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := a.Suggest(tc.n, NewSeatSet(tc.booked...), tc.anchor)
			if err != nil {
				t.Fatalf("Suggest failed: %v", err)
			}
			if !reflect.DeepEqual(p.Seats, tc.want) {
				t.Fatalf("Suggest seats = %v, want %v", p.Seats, tc.want)
			}
			if p.Tier != tc.tier {
				t.Errorf("Suggest tier = %s, want %s", p.Tier, tc.tier)
			}
		})
	}
}

func TestSuggestNoSuitableSeats(t *testing.T) {
	a := newDefault(t)
	booked := NewSeatSet(seatRange(1, 80)...)
	// leave exactly two seats free
	free := []int{10, 50}
	var rest []int
	for _, s := range booked.Sorted() {
		if s != free[0] && s != free[1] {
			rest = append(rest, s)
		}
	}
	_, err := a.Suggest(3, NewSeatSet(rest...), 0)
	if !errors.Is(err, ErrNoSuitableSeats) {
		t.Fatalf("expected ErrNoSuitableSeats, got %v", err)
	}

	// four seats wanted, only the three of the last row remain
	_, err = a.Suggest(4, NewSeatSet(seatRange(1, 77)...), 0)
	if !errors.Is(err, ErrNoSuitableSeats) {
		t.Fatalf("expected ErrNoSuitableSeats, got %v", err)
	}
}

func TestSuggestFallbackTiers(t *testing.T) {
	// rows: [1 2 3] [4 5 6] [7 8]
	small := Layout{Total: 8, FullRowSize: 3, FullRowCount: 2, LastRowSize: 2}
	a, err := New(small)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	p, err := a.Suggest(2, NewSeatSet(2, 5, 7), 0)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !reflect.DeepEqual(p.Seats, []int{1, 3}) || p.Tier != TierSameRow || p.Together {
		t.Fatalf("same row tier: got %+v", p)
	}

	p, err = a.Suggest(3, NewSeatSet(2, 5), 0)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !reflect.DeepEqual(p.Seats, []int{1, 3, 4}) || p.Tier != TierScattered {
		t.Fatalf("scattered tier: got %+v", p)
	}
}

func TestSuggestInvalidRequest(t *testing.T) {
	a := newDefault(t)
	for _, tc := range []struct {
		n, anchor int
	}{{0, 0}, {-1, 0}, {8, 0}, {3, 81}, {3, -2}} {
		if _, err := a.Suggest(tc.n, SeatSet{}, tc.anchor); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Suggest(%d, anchor=%d) err = %v, want ErrInvalidRequest", tc.n, tc.anchor, err)
		}
	}
}

func TestSuggestProperties(t *testing.T) {
	a := newDefault(t)
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		var booked []int
		for s := 1; s <= 80; s++ {
			if rng.Intn(100) < 70+iter%30 {
				booked = append(booked, s)
			}
		}
		set := NewSeatSet(booked...)
		n := 1 + rng.Intn(7)
		anchor := 0
		if iter%3 == 0 {
			anchor = 1 + rng.Intn(80)
		}
		free := 80 - set.Len()

		p, err := a.Suggest(n, set, anchor)
		if free < n {
			if !errors.Is(err, ErrNoSuitableSeats) {
				t.Fatalf("free=%d n=%d: expected ErrNoSuitableSeats, got %v", free, n, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("free=%d n=%d: unexpected error %v", free, n, err)
		}
		if len(p.Seats) != n {
			t.Fatalf("proposal has %d seats, want %d", len(p.Seats), n)
		}
		seen := map[int]bool{}
		for _, s := range p.Seats {
			if set.Has(s) || seen[s] || s < 1 || s > 80 {
				t.Fatalf("bad seat %d in proposal %v", s, p.Seats)
			}
			seen[s] = true
		}

		again, _ := a.Suggest(n, set, anchor)
		if !reflect.DeepEqual(p, again) {
			t.Fatalf("Suggest not idempotent: %+v then %+v", p, again)
		}
	}
}

func TestManualExtend(t *testing.T) {
	a := newDefault(t)

	sel, err := a.ManualExtend(7, 3, NewSeatSet(8))
	if err != nil {
		t.Fatalf("ManualExtend failed: %v", err)
	}
	if !sel.Complete || !reflect.DeepEqual(sel.Seats, []int{7, 9, 10}) {
		t.Fatalf("ManualExtend = %+v, want complete [7 9 10]", sel)
	}
	if a.AreTogether(sel.Seats) {
		t.Fatalf("selection %v should not be together", sel.Seats)
	}

	sel, err = a.ManualExtend(79, 3, SeatSet{})
	if err != nil {
		t.Fatalf("ManualExtend failed: %v", err)
	}
	if sel.Complete || !reflect.DeepEqual(sel.Seats, []int{79}) {
		t.Fatalf("short walk = %+v, want incomplete [79]", sel)
	}

	sel, err = a.ManualExtend(20, 4, SeatSet{})
	if err != nil {
		t.Fatalf("ManualExtend failed: %v", err)
	}
	if !reflect.DeepEqual(sel.Seats, []int{20, 21, 22, 23}) {
		t.Fatalf("cross row walk = %v", sel.Seats)
	}

	if _, err := a.ManualExtend(5, 2, NewSeatSet(5)); !errors.Is(err, ErrSeatBooked) || !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("booked anchor err = %v", err)
	}
	if _, err := a.ManualExtend(0, 2, SeatSet{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("anchor 0 err = %v", err)
	}
	if _, err := a.ManualExtend(3, 9, SeatSet{}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("count 9 err = %v", err)
	}
}

func TestAreTogether(t *testing.T) {
	a := newDefault(t)
	cases := []struct {
		seats []int
		want  bool
	}{
		{[]int{5}, true},
		{[]int{3, 1, 2}, true},
		{[]int{1, 2, 3}, true},
		{[]int{7, 8}, false},
		{[]int{1, 3}, false},
		{[]int{78, 79, 80}, true},
		{nil, false},
	}
	for _, tc := range cases {
		if got := a.AreTogether(tc.seats); got != tc.want {
			t.Errorf("AreTogether(%v) = %v, want %v", tc.seats, got, tc.want)
		}
	}
	in := []int{3, 1, 2}
	a.AreTogether(in)
	if !reflect.DeepEqual(in, []int{3, 1, 2}) {
		t.Fatalf("AreTogether mutated its input: %v", in)
	}
}
