package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/booking"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

// BookingRepo is the MySQL implementation of booking.Gateway, and with
// it the authority on seat occupancy per showtime: a seat is occupied
// exactly when it belongs to a non-cancelled booking.  It also satisfies
// seatmap.OccupancySource so client maps are generated from the same
// truth the create path re-validates against.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// OccupiedSeats returns the seat labels held by non-cancelled bookings
// of a showtime.  Pending bookings count as occupied: a pending record
// is either mid-payment or awaiting reconciliation, and its seats must
// not be sold twice meanwhile.
func (r *BookingRepo) OccupiedSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	const q = `SELECT bs.seat_label
	           FROM booking_seats bs
	           JOIN bookings b ON b.id = bs.booking_id
	           WHERE bs.showtime_id = ? AND b.booking_status <> 'cancelled'`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// CreateBooking inserts a booking and its seat snapshot in one
// transaction.  The requested seats are re-validated against existing
// non-cancelled bookings under a row lock regardless of what the client
// showed; any overlap aborts with booking.ErrSeatsUnavailable.  The new
// record always starts as (pending, pending).
func (r *BookingRepo) CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*booking.Booking, error) {
	if len(in.Seats) == 0 {
		return nil, fmt.Errorf("booking repo: no seats in create input")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	labels := make([]string, 0, len(in.Seats))
	for _, s := range in.Seats {
		labels = append(labels, s.ID)
	}
	taken, err := takenSeatsTx(ctx, tx, in.ShowtimeID, labels)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, fmt.Errorf("%w: %s", booking.ErrSeatsUnavailable, strings.Join(taken, ","))
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, showtime_id, reference, booking_status, payment_status, amount_cents, payment_method)
		 VALUES (?, ?, ?, 'pending', 'pending', ?, ?)`,
		in.UserID, in.ShowtimeID, in.Reference, in.AmountCents, string(in.PaymentMethod))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	seatQ := `INSERT INTO booking_seats (booking_id, showtime_id, seat_label, seat_row, seat_number, seat_class, price_cents) VALUES `
	args := make([]interface{}, 0, len(in.Seats)*7)
	for i, s := range in.Seats {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, id, in.ShowtimeID, s.ID, s.Row, s.Number, string(s.Class), s.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, seatQ, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return r.GetBookingByID(ctx, uint64(id))
}

// takenSeatsTx returns which of the requested labels already belong to a
// non-cancelled booking of the showtime.  Rows are locked so two
// concurrent creates for the same seats serialize.
func takenSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string) ([]string, error) {
	q := `SELECT bs.seat_label
	      FROM booking_seats bs
	      JOIN bookings b ON b.id = bs.booking_id
	      WHERE bs.showtime_id = ? AND b.booking_status <> 'cancelled'
	        AND bs.seat_label IN (` + placeholders(len(labels)) + `) FOR UPDATE`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showtimeID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taken []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		taken = append(taken, l)
	}
	return taken, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// UpdateBookingStatus moves a booking to the given (booking, payment)
// status pair.  Terminal states are sticky: a cancelled booking and a
// completed payment cannot transition away, and a confirmed booking can
// only be cancelled.  Repeating the current pair is a no-op, not an
// error.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, id uint64, bs booking.BookingStatus, ps booking.PaymentStatus) (*booking.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var curBS, curPS string
	err = tx.QueryRowContext(ctx,
		`SELECT booking_status, payment_status FROM bookings WHERE id = ? FOR UPDATE`, id).
		Scan(&curBS, &curPS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkTransition(booking.BookingStatus(curBS), bs, booking.PaymentStatus(curPS), ps); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET booking_status = ?, payment_status = ? WHERE id = ?`,
		string(bs), string(ps), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return r.GetBookingByID(ctx, id)
}

func checkTransition(fromBS, toBS booking.BookingStatus, fromPS, toPS booking.PaymentStatus) error {
	if fromBS != toBS {
		switch {
		case fromBS == booking.BookingPending:
		case fromBS == booking.BookingConfirmed && toBS == booking.BookingCancelled:
		default:
			return fmt.Errorf("%w: booking %s -> %s", booking.ErrInvalidTransition, fromBS, toBS)
		}
	}
	if fromPS != toPS {
		// pending and failed may move anywhere; completed is terminal.
		if fromPS == booking.PaymentCompleted {
			return fmt.Errorf("%w: payment %s -> %s", booking.ErrInvalidTransition, fromPS, toPS)
		}
	}
	return nil
}

// CancelBooking marks a booking cancelled, releasing its seats for the
// showtime (occupancy is derived, so no seat rows need touching).  It is
// idempotent: cancelling an already-cancelled booking succeeds.
func (r *BookingRepo) CancelBooking(ctx context.Context, id uint64) error {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT booking_status FROM bookings WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	if status == string(booking.BookingCancelled) {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE bookings SET booking_status = 'cancelled' WHERE id = ?`, id)
	return err
}

// GetBookingByID loads one booking with its seat snapshot.
func (r *BookingRepo) GetBookingByID(ctx context.Context, id uint64) (*booking.Booking, error) {
	const q = `SELECT id, user_id, showtime_id, reference, booking_status, payment_status,
	                  amount_cents, payment_method, created_at, updated_at
	           FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, err
	}
	seats, err := r.seatsForBookings(ctx, []uint64{b.ID})
	if err != nil {
		return nil, err
	}
	b.Seats = seats[b.ID]
	return b, nil
}

// GetBookingsForUser lists a user's bookings, newest first, each with
// its seat snapshot.
func (r *BookingRepo) GetBookingsForUser(ctx context.Context, userID uint64) ([]booking.Booking, error) {
	const q = `SELECT id, user_id, showtime_id, reference, booking_status, payment_status,
	                  amount_cents, payment_method, created_at, updated_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.Booking
	var ids []uint64
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []booking.Booking{}, nil
	}

	seats, err := r.seatsForBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Seats = seats[out[i].ID]
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		b      booking.Booking
		bs, ps string
		method string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ShowtimeID, &b.Reference, &bs, &ps,
		&b.AmountCents, &method, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.BookingStatus = booking.BookingStatus(bs)
	b.PaymentStatus = booking.PaymentStatus(ps)
	b.PaymentMethod = payment.Method(method)
	return &b, nil
}

// seatsForBookings loads the seat snapshots of the given bookings keyed
// by booking id.
func (r *BookingRepo) seatsForBookings(ctx context.Context, ids []uint64) (map[uint64][]seatmap.Seat, error) {
	q := `SELECT booking_id, seat_label, seat_row, seat_number, seat_class, price_cents
	      FROM booking_seats WHERE booking_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY booking_id, seat_row, seat_number`
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]seatmap.Seat, len(ids))
	for rows.Next() {
		var (
			bid   uint64
			s     seatmap.Seat
			class string
		)
		if err := rows.Scan(&bid, &s.ID, &s.Row, &s.Number, &class, &s.PriceCents); err != nil {
			return nil, err
		}
		s.Class = seatmap.Class(class)
		s.Status = seatmap.StatusOccupied
		out[bid] = append(out[bid], s)
	}
	return out, rows.Err()
}
