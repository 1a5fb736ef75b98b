// Package queue holds the broker message payloads and the background
// consumer that appends confirmed bookings to logs/booking.log.
package queue

// BookingConfirmedEvent is published when a booking reaches confirmed
// with a completed payment.  It carries enough for downstream consumers
// to log, notify or feed analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	Reference     string   `json:"reference"`
	UserID        uint64   `json:"user_id"`
	MovieID       uint64   `json:"movie_id"`
	MovieTitle    string   `json:"movie_title"`
	ShowtimeID    uint64   `json:"showtime_id"`
	SeatLabels    []string `json:"seats"`
	AmountCents   uint32   `json:"amount_cents"`
	PaymentMethod string   `json:"payment_method"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
