package booking

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

// ErrValidation marks submit-time validation failures.  They are
// recovered locally: the user corrects the input and no remote call is
// made.
var ErrValidation = errors.New("booking: validation failed")

var validate = validator.New(validator.WithRequiredStructEnabled())

// BuyerInfo is the contact information required before submission.
type BuyerInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

// Session is the in-progress booking draft: the showtime being booked,
// the seat map with its selection ledger, and the buyer's details.  The
// selected seats and the total are live views over the map, never copies,
// so ledger mutations are immediately visible here.
type Session struct {
	MovieID       uint64
	ShowtimeID    uint64
	Map           *seatmap.Map
	Ledger        *seatmap.Ledger
	Buyer         BuyerInfo
	PaymentMethod payment.Method
}

// NewSession binds an empty draft to a freshly generated map.
func NewSession(movieID, showtimeID uint64, m *seatmap.Map) *Session {
	return &Session{
		MovieID:    movieID,
		ShowtimeID: showtimeID,
		Map:        m,
		Ledger:     seatmap.NewLedger(m),
	}
}

// SelectedSeats returns the current selection in map order.
func (s *Session) SelectedSeats() []seatmap.Seat { return s.Ledger.Selected() }

// TotalCents is the sum of base prices over the current selection,
// recomputed on every read.
func (s *Session) TotalCents() uint32 { return s.Ledger.TotalCents() }

// Validate checks that the draft is submittable: at least one seat
// selected, complete buyer info and a known payment method.  All
// problems are reported as ErrValidation so callers can reject the
// submit before any gateway call.
func (s *Session) Validate() error {
	if len(s.SelectedSeats()) == 0 {
		return fmt.Errorf("%w: no seats selected", ErrValidation)
	}
	if err := validate.Struct(s.Buyer); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !payment.ValidMethod(s.PaymentMethod) {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, s.PaymentMethod)
	}
	return nil
}
