// Package booking implements the booking draft, its lifecycle state
// machine and the contract it requires from the remote booking backend.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

// BookingStatus is the remote lifecycle state of a booking record.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks the settlement state of a booking's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Booking is the remote record held by the gateway.  A booking is only
// ever created as (pending, pending); every other state is reached by an
// explicit status transition.
type Booking struct {
	ID            uint64         `json:"id"`
	UserID        uint64         `json:"user_id"`
	ShowtimeID    uint64         `json:"showtime_id"`
	Reference     string         `json:"reference"`
	BookingStatus BookingStatus  `json:"booking_status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	AmountCents   uint32         `json:"amount_cents"`
	PaymentMethod payment.Method `json:"payment_method"`
	Seats         []seatmap.Seat `json:"seats"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CreateBookingInput carries everything the gateway needs to create a
// booking.  Seats is a snapshot of the selected seats at submit time;
// Reference is the client-generated display code.
type CreateBookingInput struct {
	UserID        uint64
	ShowtimeID    uint64
	Reference     string
	Seats         []seatmap.Seat
	AmountCents   uint32
	PaymentMethod payment.Method
}

// Errors returned by Gateway implementations.
var (
	// ErrSeatsUnavailable means server-side re-validation found at least
	// one requested seat already taken for the showtime.
	ErrSeatsUnavailable = errors.New("booking: seats no longer available")
	// ErrBookingNotFound is returned for lookups and transitions on ids
	// the gateway does not know.
	ErrBookingNotFound = errors.New("booking: not found")
	// ErrInvalidTransition rejects status updates that leave a terminal
	// state or skip the defined order.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
)

// Gateway is the remote booking service.  It is the sole arbiter of seat
// occupancy: CreateBooking re-validates seats server-side regardless of
// what the client's map showed, and implementations also act as the
// seatmap.OccupancySource used to generate client maps.
type Gateway interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uint64, bs BookingStatus, ps PaymentStatus) (*Booking, error)
	// CancelBooking is idempotent: cancelling an already-cancelled
	// booking reports success.
	CancelBooking(ctx context.Context, id uint64) error
	GetBookingsForUser(ctx context.Context, userID uint64) ([]Booking, error)
	GetBookingByID(ctx context.Context, id uint64) (*Booking, error)
}
