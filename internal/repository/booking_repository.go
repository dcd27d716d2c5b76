package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/train-seat-booking/internal/model"
	"github.com/iliyamo/train-seat-booking/internal/seating"
)

// BookingRepo is the booked-seat store.  A seat is booked exactly when it
// has a row in booking_seats; seat_number is that table's primary key, so
// the database itself refuses to hand one seat to two bookings.
type BookingRepo struct {
	db     *sql.DB
	layout seating.Layout
}

// NewBookingRepo returns a BookingRepo.  layout supplies the row labels
// stored next to each seat.
func NewBookingRepo(db *sql.DB, layout seating.Layout) *BookingRepo {
	return &BookingRepo{db: db, layout: layout}
}

// BookedSeats returns every booked seat number in ascending order.
func (r *BookingRepo) BookedSeats(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT seat_number FROM booking_seats ORDER BY seat_number`)
	if err != nil {
		return nil, err
	}
	seats, err := scanInts(rows)
	if err != nil {
		return nil, err
	}
	if seats == nil {
		seats = []int{}
	}
	return seats, nil
}

// Book records seats for userID under a fresh ticket id.  The caller must
// pass distinct seat numbers inside the layout.  When any seat is already
// booked nothing is written and a *SeatsTakenError naming the booked seats
// is returned.
func (r *BookingRepo) Book(ctx context.Context, userID uint64, seats []int) (model.Booking, error) {
	var b model.Booking
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		b, err = r.insertBooking(ctx, tx, userID, seats)
		return err
	})
	if err != nil {
		if isDuplicateKey(err) || isLockConflict(err) {
			// a concurrent booking of the same seats committed first
			return model.Booking{}, r.takenOr(ctx, seats, err)
		}
		return model.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) insertBooking(ctx context.Context, tx *sql.Tx, userID uint64, seats []int) (model.Booking, error) {
	// Lock whichever requested seats exist so a concurrent cancel of them
	// waits for us.  Absent seats are guarded by the primary key on insert.
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_number FROM booking_seats WHERE seat_number IN (`+placeholders(len(seats))+`) FOR UPDATE`,
		intArgs(seats)...)
	if err != nil {
		return model.Booking{}, err
	}
	taken, err := scanInts(rows)
	if err != nil {
		return model.Booking{}, err
	}
	if len(taken) > 0 {
		sort.Ints(taken)
		return model.Booking{}, &SeatsTakenError{Seats: taken}
	}

	b := model.Booking{
		TicketID:  uuid.NewString(),
		UserID:    userID,
		Seats:     append([]int(nil), seats...),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	sort.Ints(b.Seats)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (ticket_id, user_id, created_at) VALUES (?, ?, ?)`,
		b.TicketID, b.UserID, b.CreatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	b.ID = uint64(id)

	query := `INSERT INTO booking_seats (booking_id, seat_number, row_label) VALUES `
	args := make([]any, 0, len(b.Seats)*3)
	b.RowLabels = make([]string, 0, len(b.Seats))
	for i, seat := range b.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		label := seating.RowLabel(r.layout.RowOf(seat))
		b.RowLabels = append(b.RowLabels, label)
		args = append(args, b.ID, seat, label)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// takenOr returns a *SeatsTakenError naming those of seats that are booked
// now.  When none is, a duplicate key still means the seats were contested
// and yields an empty *SeatsTakenError; any other cause is returned as is.
func (r *BookingRepo) takenOr(ctx context.Context, seats []int, cause error) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM booking_seats WHERE seat_number IN (`+placeholders(len(seats))+`) ORDER BY seat_number`,
		intArgs(seats)...)
	var taken []int
	if err == nil {
		taken, err = scanInts(rows)
	}
	switch {
	case err == nil && len(taken) > 0:
		return &SeatsTakenError{Seats: taken}
	case isDuplicateKey(cause):
		return &SeatsTakenError{}
	}
	return cause
}

// ListByUser returns one ticket per seat booked by userID, oldest booking
// first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	const q = `SELECT b.ticket_id, s.seat_number, s.row_label, b.created_at
	           FROM bookings b
	           JOIN booking_seats s ON s.booking_id = b.id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at, b.id, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.TicketID, &t.Seat, &t.Row, &t.Date); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Cancel releases those of seats that belong to userID's bookings and
// returns them.  Bookings left without seats are removed.  ErrNotOwner is
// returned when none of the seats belongs to the user.
func (r *BookingRepo) Cancel(ctx context.Context, userID uint64, seats []int) ([]int, error) {
	var owned []int
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		args := append([]any{userID}, intArgs(seats)...)
		rows, err := tx.QueryContext(ctx,
			`SELECT s.seat_number
			 FROM booking_seats s
			 JOIN bookings b ON b.id = s.booking_id
			 WHERE b.user_id = ? AND s.seat_number IN (`+placeholders(len(seats))+`)
			 ORDER BY s.seat_number
			 FOR UPDATE`,
			args...)
		if err != nil {
			return err
		}
		if owned, err = scanInts(rows); err != nil {
			return err
		}
		if len(owned) == 0 {
			return ErrNotOwner
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM booking_seats WHERE seat_number IN (`+placeholders(len(owned))+`)`,
			intArgs(owned)...); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM bookings
			 WHERE user_id = ?
			   AND NOT EXISTS (SELECT 1 FROM booking_seats s WHERE s.booking_id = bookings.id)`,
			userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return owned, nil
}

// ListAll returns every booking with its seats, oldest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT b.id, b.ticket_id, b.user_id, b.created_at, s.seat_number, s.row_label
	           FROM bookings b
	           JOIN booking_seats s ON s.booking_id = b.id
	           ORDER BY b.id, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		var (
			b     model.Booking
			seat  int
			label string
		)
		if err := rows.Scan(&b.ID, &b.TicketID, &b.UserID, &b.CreatedAt, &seat, &label); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != b.ID {
			out = append(out, b)
		}
		last := &out[len(out)-1]
		last.Seats = append(last.Seats, seat)
		last.RowLabels = append(last.RowLabels, label)
	}
	return out, rows.Err()
}

// ReleaseTicket deletes a whole booking by ticket id and returns it as it
// was.  ErrBookingNotFound when the ticket is unknown.
func (r *BookingRepo) ReleaseTicket(ctx context.Context, ticketID string) (model.Booking, error) {
	var b model.Booking
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		b = model.Booking{TicketID: ticketID}
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id, created_at FROM bookings WHERE ticket_id = ? FOR UPDATE`, ticketID).
			Scan(&b.ID, &b.UserID, &b.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx,
			`SELECT seat_number FROM booking_seats WHERE booking_id = ? ORDER BY seat_number`, b.ID)
		if err != nil {
			return err
		}
		if b.Seats, err = scanInts(rows); err != nil {
			return err
		}
		for _, seat := range b.Seats {
			b.RowLabels = append(b.RowLabels, seating.RowLabel(r.layout.RowOf(seat)))
		}
		// booking_seats rows go with it through the foreign key cascade
		_, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, b.ID)
		return err
	})
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}
