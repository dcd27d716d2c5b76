package handler

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "sort"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/train-seat-booking/internal/logger"
    "github.com/iliyamo/train-seat-booking/internal/middleware"
    "github.com/iliyamo/train-seat-booking/internal/model"
    "github.com/iliyamo/train-seat-booking/internal/queue"
    "github.com/iliyamo/train-seat-booking/internal/repository"
    "github.com/iliyamo/train-seat-booking/internal/seating"
    "github.com/iliyamo/train-seat-booking/internal/utils"
)

// memStore is an in-memory BookingStore with the same conflict rules as
// the MySQL repository.
type memStore struct {
    mu       sync.Mutex
    owner    map[int]string // seat -> ticket
    bookings map[string]model.Booking
    order    []string
    next     int
    failNext error
}

func newMemStore() *memStore {
    return &memStore{owner: map[int]string{}, bookings: map[string]model.Booking{}}
}

func (m *memStore) seed(userID uint64, seats ...int) model.Booking {
    b, err := m.Book(context.Background(), userID, seats)
    if err != nil {
        panic(err)
    }
    return b
}

func (m *memStore) BookedSeats(ctx context.Context) ([]int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if err := m.failNext; err != nil {
        m.failNext = nil
        return nil, err
    }
    out := []int{}
    for s := range m.owner {
        out = append(out, s)
    }
    sort.Ints(out)
    return out, nil
}

func (m *memStore) Book(ctx context.Context, userID uint64, seats []int) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var taken []int
    for _, s := range seats {
        if _, ok := m.owner[s]; ok {
            taken = append(taken, s)
        }
    }
    if len(taken) > 0 {
        sort.Ints(taken)
        return model.Booking{}, &repository.SeatsTakenError{Seats: taken}
    }
    m.next++
    b := model.Booking{
        ID:        uint64(m.next),
        TicketID:  fmt.Sprintf("00000000-0000-4000-8000-%012d", m.next),
        UserID:    userID,
        Seats:     append([]int(nil), seats...),
        CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
    }
    sort.Ints(b.Seats)
    for _, s := range b.Seats {
        m.owner[s] = b.TicketID
        b.RowLabels = append(b.RowLabels, seating.RowLabel(seating.DefaultLayout.RowOf(s)))
    }
    m.bookings[b.TicketID] = b
    m.order = append(m.order, b.TicketID)
    return b, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Ticket{}
    for _, id := range m.order {
        b, ok := m.bookings[id]
        if !ok || b.UserID != userID {
            continue
        }
        for i, s := range b.Seats {
            out = append(out, model.Ticket{TicketID: id, Seat: s, Row: b.RowLabels[i], Date: b.CreatedAt})
        }
    }
    return out, nil
}

func (m *memStore) Cancel(ctx context.Context, userID uint64, seats []int) ([]int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var released []int
    for _, s := range seats {
        id, ok := m.owner[s]
        if !ok || m.bookings[id].UserID != userID {
            continue
        }
        delete(m.owner, s)
        b := m.bookings[id]
        keep := b.Seats[:0:0]
        for _, bs := range b.Seats {
            if bs != s {
                keep = append(keep, bs)
            }
        }
        b.Seats = keep
        if len(keep) == 0 {
            delete(m.bookings, id)
        } else {
            m.bookings[id] = b
        }
        released = append(released, s)
    }
    if len(released) == 0 {
        return nil, repository.ErrNotOwner
    }
    sort.Ints(released)
    return released, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Booking{}
    for _, id := range m.order {
        if b, ok := m.bookings[id]; ok {
            out = append(out, b)
        }
    }
    return out, nil
}

func (m *memStore) ReleaseTicket(ctx context.Context, ticketID string) (model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.bookings[ticketID]
    if !ok {
        return model.Booking{}, repository.ErrBookingNotFound
    }
    for _, s := range b.Seats {
        delete(m.owner, s)
    }
    delete(m.bookings, ticketID)
    return b, nil
}

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

type purgeCounter struct{ n int }

func (p *purgeCounter) purge(ctx context.Context) error {
    p.n++
    return nil
}

// memUsers and memTokens back AuthHandler tests.
type memUsers struct {
    byID map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]model.User{}} }

func (u *memUsers) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
    for _, x := range u.byID {
        if x.Email == email {
            return 0, repository.ErrEmailExists
        }
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    id := uint64(len(u.byID) + 1)
    u.byID[id] = model.User{ID: id, Name: name, Email: email, PasswordHash: hash, Role: role, IsActive: true}
    return id, nil
}

func (u *memUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
    for _, x := range u.byID {
        if x.Email == email {
            return x, nil
        }
    }
    return model.User{}, sql.ErrNoRows
}

func (u *memUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
    x, ok := u.byID[id]
    if !ok {
        return model.User{}, sql.ErrNoRows
    }
    return x, nil
}

type memTokens struct {
    owner     map[string]uint64
    revoked   map[string]bool
    revokeErr error
}

func newMemTokens() *memTokens {
    return &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (t *memTokens) StoreRefresh(ctx context.Context, userID uint64, hash string, exp time.Time) error {
    t.owner[hash] = userID
    return nil
}

func (t *memTokens) ValidateRefresh(ctx context.Context, hash string) (uint64, error) {
    id, ok := t.owner[hash]
    if !ok || t.revoked[hash] {
        return 0, sql.ErrNoRows
    }
    return id, nil
}

func (t *memTokens) RevokeByHash(ctx context.Context, hash string) error {
    if t.revokeErr != nil {
        return t.revokeErr
    }
    t.revoked[hash] = true
    return nil
}

func (t *memTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
    for h, id := range t.owner {
        if id == userID {
            t.revoked[h] = true
        }
    }
    return nil
}

// ----- request helpers -----

func newTestEcho() *echo.Echo {
    e := echo.New()
    e.Validator = NewRequestValidator()
    return e
}

type call struct {
    method string
    path   string
    body   string
    userID uint64
    role   string
    header map[string]string
    params map[string]string
}

func do(t *testing.T, h echo.HandlerFunc, cl call) *httptest.ResponseRecorder {
    t.Helper()
    e := newTestEcho()
    if cl.method == "" {
        cl.method = http.MethodPost
    }
    req := httptest.NewRequest(cl.method, "/", strings.NewReader(cl.body))
    if cl.body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    for k, v := range cl.header {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if cl.path != "" {
        c.SetPath(cl.path)
    }
    for k, v := range cl.params {
        c.SetParamNames(k)
        c.SetParamValues(v)
    }
    if cl.userID != 0 {
        c.Set(middleware.CtxUserID, cl.userID)
        c.Set(middleware.CtxRole, cl.role)
    }
    if err := h(c); err != nil {
        t.Fatalf("handler returned error: %v", err)
    }
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
    t.Helper()
    if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
}

func newTestAllocator(t *testing.T) *seating.Allocator {
    t.Helper()
    a, err := seating.New(seating.DefaultLayout)
    if err != nil {
        t.Fatalf("seating.New failed: %v", err)
    }
    return a
}

var testLog = logger.Discard()
