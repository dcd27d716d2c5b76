package handler

import (
    "context"
    "net/http"
    "reflect"
    "testing"

    "github.com/iliyamo/train-seat-booking/internal/model"
    "github.com/iliyamo/train-seat-booking/internal/queue"
    "github.com/iliyamo/train-seat-booking/internal/seating"
)

func newBookingFixture(t *testing.T) (*BookingHandler, *memStore, *recordingPublisher, *purgeCounter) {
    t.Helper()
    store := newMemStore()
    pub := &recordingPublisher{}
    purge := &purgeCounter{}
    h := NewBookingHandler(newTestAllocator(t), store, pub, purge.purge, testLog)
    return h, store, pub, purge
}

func TestBookCreatesTicket(t *testing.T) {
    h, store, pub, purge := newBookingFixture(t)

    rec := do(t, h.Book, call{body: `{"seats":[6,4,5,5]}`, userID: 3, role: model.RolePassenger})
    if rec.Code != http.StatusCreated {
        t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
    }
    var got struct {
        Ticket model.Booking `json:"ticket"`
    }
    decode(t, rec, &got)
    if !reflect.DeepEqual(got.Ticket.Seats, []int{4, 5, 6}) || got.Ticket.UserID != 3 || got.Ticket.TicketID == "" {
        t.Fatalf("ticket = %+v", got.Ticket)
    }
    if booked, _ := store.BookedSeats(context.Background()); !reflect.DeepEqual(booked, []int{4, 5, 6}) {
        t.Fatalf("store booked = %v", booked)
    }
    if purge.n != 1 {
        t.Fatalf("purge called %d times, want 1", purge.n)
    }
    if len(pub.events) != 1 || pub.events[0].Type != queue.EventBookingConfirmed || pub.events[0].TicketID != got.Ticket.TicketID {
        t.Fatalf("events = %+v", pub.events)
    }
}

func TestBookStaleProposal(t *testing.T) {
    h, store, pub, purge := newBookingFixture(t)
    store.seed(1, 5)

    // the client still believes 4,5,6 are free
    rec := do(t, h.Book, call{body: `{"seats":[4,5,6]}`, userID: 2, role: model.RolePassenger})
    if rec.Code != http.StatusConflict {
        t.Fatalf("status %d, want 409: %s", rec.Code, rec.Body.String())
    }
    var got struct {
        Unavailable []int            `json:"unavailable"`
        Alternative seating.Proposal `json:"alternative"`
    }
    decode(t, rec, &got)
    if !reflect.DeepEqual(got.Unavailable, []int{5}) {
        t.Fatalf("unavailable = %v", got.Unavailable)
    }
    if !reflect.DeepEqual(got.Alternative.Seats, []int{1, 2, 3}) || !got.Alternative.Together {
        t.Fatalf("alternative = %+v", got.Alternative)
    }
    if booked, _ := store.BookedSeats(context.Background()); !reflect.DeepEqual(booked, []int{5}) {
        t.Fatalf("conflicting booking wrote seats: %v", booked)
    }
    if purge.n != 0 || len(pub.events) != 0 {
        t.Fatalf("side effects on conflict: purge=%d events=%d", purge.n, len(pub.events))
    }
}

func TestBookRejectsBadInput(t *testing.T) {
    h, _, _, _ := newBookingFixture(t)
    cases := []struct {
        name string
        cl   call
        code int
    }{
        {"anonymous", call{body: `{"seats":[1]}`}, http.StatusUnauthorized},
        {"empty seats", call{body: `{"seats":[]}`, userID: 1}, http.StatusBadRequest},
        {"seat zero", call{body: `{"seats":[0]}`, userID: 1}, http.StatusBadRequest},
        {"seat past layout", call{body: `{"seats":[81]}`, userID: 1}, http.StatusBadRequest},
        {"more than a row", call{body: `{"seats":[1,2,3,4,5,6,7,8]}`, userID: 1}, http.StatusBadRequest},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if rec := do(t, h.Book, tc.cl); rec.Code != tc.code {
                t.Fatalf("status %d, want %d: %s", rec.Code, tc.code, rec.Body.String())
            }
        })
    }
}

func TestMyBookingsAndCancel(t *testing.T) {
    h, store, pub, purge := newBookingFixture(t)
    store.seed(3, 10, 11)
    store.seed(4, 12)

    rec := do(t, h.MyBookings, call{method: http.MethodGet, userID: 3})
    var mine struct {
        MyBookedSeats []model.Ticket `json:"myBookedSeats"`
    }
    decode(t, rec, &mine)
    if len(mine.MyBookedSeats) != 2 || mine.MyBookedSeats[0].Seat != 10 || mine.MyBookedSeats[0].Row != "B" {
        t.Fatalf("my bookings = %+v", mine.MyBookedSeats)
    }

    // seat 12 belongs to someone else and is left alone
    rec = do(t, h.CancelBooking, call{method: http.MethodDelete, body: `{"seatNumbers":[10,12]}`, userID: 3})
    if rec.Code != http.StatusOK {
        t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
    }
    var released struct {
        ReleasedSeats []int `json:"releasedSeats"`
    }
    decode(t, rec, &released)
    if !reflect.DeepEqual(released.ReleasedSeats, []int{10}) {
        t.Fatalf("released = %v", released.ReleasedSeats)
    }
    if booked, _ := store.BookedSeats(context.Background()); !reflect.DeepEqual(booked, []int{11, 12}) {
        t.Fatalf("booked after cancel = %v", booked)
    }
    if purge.n != 1 || len(pub.events) != 1 || pub.events[0].Type != queue.EventBookingCancelled {
        t.Fatalf("side effects: purge=%d events=%+v", purge.n, pub.events)
    }

    rec = do(t, h.CancelBooking, call{method: http.MethodDelete, body: `{"seatNumbers":[12]}`, userID: 3})
    if rec.Code != http.StatusNotFound {
        t.Fatalf("foreign seat: status %d, want 404", rec.Code)
    }
    rec = do(t, h.CancelBooking, call{method: http.MethodDelete, body: `{"seatNumbers":[]}`, userID: 3})
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("empty list: status %d, want 400", rec.Code)
    }
}

func TestNormalizeSeats(t *testing.T) {
    got, err := normalizeSeats(seating.DefaultLayout, []int{3, 1, 3, 2, 1})
    if err != nil || !reflect.DeepEqual(got, []int{1, 2, 3}) {
        t.Fatalf("normalizeSeats = %v, %v", got, err)
    }
    if _, err := normalizeSeats(seating.DefaultLayout, []int{1, 81}); err == nil {
        t.Fatalf("expected error for seat 81")
    }
}
