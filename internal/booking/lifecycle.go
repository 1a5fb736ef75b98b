package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

// State names a position in the booking lifecycle.
type State string

const (
	StateIdle            State = "idle"
	StateInitializing    State = "initializing"
	StateReady           State = "ready"
	StateSubmitting      State = "submitting"
	StateAwaitingPayment State = "awaiting_payment"
	StateConfirmed       State = "confirmed"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
)

var (
	// ErrInvalidState rejects an operation the current state does not
	// permit, e.g. a second submit while one is in flight.
	ErrInvalidState = errors.New("booking: operation not allowed in current state")
	// ErrCreationFailed wraps gateway failures during booking creation.
	ErrCreationFailed = errors.New("booking: creation failed")
	// ErrPaymentFailed wraps provider failures and payment timeouts.
	ErrPaymentFailed = errors.New("booking: payment failed")
)

// Lifecycle drives one booking session from seat selection through
// creation, payment and confirmation or cancellation.  It is the only
// component that talks to the Gateway, and the single source of truth
// for the session: every dependency is passed in explicitly.
//
// A lifecycle serves one user's one in-progress purchase.  Methods are
// safe for concurrent use, but the model is a single logical flow:
// Select/Deselect are synchronous, while Submit, Pay and Cancel suspend
// on remote calls without holding the lifecycle lock, guarded by the
// state machine so at most one gateway create is ever outstanding.
//
// Failure dispositions, fixed by contract:
//   - Creation failure leaves the session intact in Failed; Submit may
//     be retried.
//   - Payment failure or timeout moves to Failed with the remote booking
//     marked (pending, failed) and otherwise LEFT PENDING for
//     reconciliation; it is never auto-cancelled.  Pay may be retried,
//     or Cancel called explicitly.
type Lifecycle struct {
	mu sync.Mutex

	state    State
	userID   uint64
	session  *Session
	booking  *Booking
	lastErr  error
	inFlight bool

	gateway    Gateway
	occupancy  seatmap.OccupancySource
	provider   payment.Provider
	payTimeout time.Duration
}

// NewLifecycle builds an Idle lifecycle for one user.  occupancy may be
// nil when the caller wants an all-available map (fresh showtime or
// tests); gateway and provider must be non-nil.
func NewLifecycle(userID uint64, gw Gateway, occ seatmap.OccupancySource, p payment.Provider, payTimeout time.Duration) *Lifecycle {
	if gw == nil || p == nil {
		panic("nil dependency passed to NewLifecycle")
	}
	if payTimeout <= 0 {
		payTimeout = 90 * time.Second
	}
	return &Lifecycle{
		state:      StateIdle,
		userID:     userID,
		gateway:    gw,
		occupancy:  occ,
		provider:   p,
		payTimeout: payTimeout,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Booking returns the remote record created by Submit, or nil before it.
func (l *Lifecycle) Booking() *Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.booking
}

// Seats returns the full seat grid of the session's map, or nil when no
// session is active.
func (l *Lifecycle) Seats() []seatmap.Seat {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return nil
	}
	return l.session.Map.Seats()
}

// SelectedSeats returns the selected subset in map order.
func (l *Lifecycle) SelectedSeats() []seatmap.Seat {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return nil
	}
	return l.session.SelectedSeats()
}

// TotalCents is the live selection total; zero when no session is active.
func (l *Lifecycle) TotalCents() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return 0
	}
	return l.session.TotalCents()
}

// Initialize moves Idle -> Initializing -> Ready: it asks the occupancy
// source for the seats already taken for the showtime, generates the
// map and creates an empty session.  Calling it mid-booking is rejected;
// an in-flight selection must be cancelled or cleared first.
func (l *Lifecycle) Initialize(ctx context.Context, movieID, showtimeID uint64, rows, seatsPerRow int, classify seatmap.ClassifyFunc) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return fmt.Errorf("%w: initialize from %s", ErrInvalidState, l.state)
	}
	l.state = StateInitializing
	l.mu.Unlock()

	occupied := seatmap.NoneOccupied
	if l.occupancy != nil {
		ids, err := l.occupancy.OccupiedSeats(ctx, showtimeID)
		if err != nil {
			l.fail(StateIdle, err)
			return fmt.Errorf("booking: load occupancy: %w", err)
		}
		occupied = seatmap.OccupiedSet(ids)
	}

	m, err := seatmap.Generate(rows, seatsPerRow, classify, occupied)
	if err != nil {
		l.fail(StateIdle, err)
		return err
	}

	l.mu.Lock()
	l.session = NewSession(movieID, showtimeID, m)
	l.booking = nil
	l.state = StateReady
	l.mu.Unlock()
	return nil
}

// SelectSeat marks a seat selected.  Allowed only in Ready; the state
// does not change.
func (l *Lifecycle) SelectSeat(seatID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReady {
		return fmt.Errorf("%w: select from %s", ErrInvalidState, l.state)
	}
	return l.session.Ledger.Select(seatID)
}

// DeselectSeat returns a selected seat to available.
func (l *Lifecycle) DeselectSeat(seatID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateReady {
		return fmt.Errorf("%w: deselect from %s", ErrInvalidState, l.state)
	}
	return l.session.Ledger.Deselect(seatID)
}

// Submit validates the draft and creates the remote booking.  The state
// must be exactly Ready (or Failed before any booking was created, for a
// retry); this is the idempotency guard that makes a double submit issue
// exactly one create call.  Validation failures keep the state at Ready
// and never reach the gateway.  On success the lifecycle holds the
// returned (pending, pending) booking and moves to AwaitingPayment.
func (l *Lifecycle) Submit(ctx context.Context, buyer BuyerInfo, method payment.Method) (*Booking, error) {
	l.mu.Lock()
	resubmit := l.state == StateFailed && l.session != nil && l.booking == nil
	if l.state != StateReady && !resubmit {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidState, l.state)
	}
	l.session.Buyer = buyer
	l.session.PaymentMethod = method
	if err := l.session.Validate(); err != nil {
		l.state = StateReady
		l.mu.Unlock()
		return nil, err
	}

	ref, err := NewReference()
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	in := CreateBookingInput{
		UserID:        l.userID,
		ShowtimeID:    l.session.ShowtimeID,
		Reference:     ref,
		Seats:         l.session.SelectedSeats(),
		AmountCents:   l.session.TotalCents(),
		PaymentMethod: method,
	}
	l.state = StateSubmitting
	l.mu.Unlock()

	b, err := l.gateway.CreateBooking(ctx, in)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		// Session retained so the user can retry without re-selecting.
		l.state = StateFailed
		l.lastErr = err
		return nil, fmt.Errorf("%w: %w", ErrCreationFailed, err)
	}
	l.booking = b
	l.state = StateAwaitingPayment
	return b, nil
}

// Pay executes the payment step for the booking created by Submit and
// reconciles the result with the gateway.  On success the booking is
// updated to (confirmed, completed) and the map and session are dropped.
// On provider failure or timeout the lifecycle moves to Failed, the
// remote record is marked (pending, failed) best-effort, and the session
// is kept so the user can retry Pay or Cancel.
func (l *Lifecycle) Pay(ctx context.Context) (*Booking, error) {
	l.mu.Lock()
	retry := l.state == StateFailed && l.booking != nil
	if (l.state != StateAwaitingPayment && !retry) || l.inFlight {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: pay from %s", ErrInvalidState, l.state)
	}
	l.state = StateAwaitingPayment
	l.inFlight = true
	req := payment.Request{
		AmountCents: l.booking.AmountCents,
		Currency:    "ETB",
		Email:       l.session.Buyer.Email,
		FullName:    l.session.Buyer.Name,
		TxRef:       uuid.NewString(),
	}
	bookingID := l.booking.ID
	l.mu.Unlock()

	payCtx, cancel := context.WithTimeout(ctx, l.payTimeout)
	defer cancel()
	_, payErr := l.provider.Charge(payCtx, req)

	if payErr != nil {
		// Mark the failed attempt remotely but leave the booking pending
		// for reconciliation.
		_, _ = l.gateway.UpdateBookingStatus(ctx, bookingID, BookingPending, PaymentFailed)
		l.mu.Lock()
		l.state = StateFailed
		l.lastErr = payErr
		l.inFlight = false
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPaymentFailed, payErr)
	}

	b, err := l.gateway.UpdateBookingStatus(ctx, bookingID, BookingConfirmed, PaymentCompleted)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight = false
	if err != nil {
		// Charged but not confirmed; the pending record is picked up by
		// reconciliation.
		l.state = StateFailed
		l.lastErr = err
		return nil, fmt.Errorf("booking: confirm after payment: %w", err)
	}
	l.booking = b
	l.session = nil
	l.state = StateConfirmed
	return b, nil
}

// Cancel aborts the session from Ready, AwaitingPayment or Failed.  When
// a remote booking exists it is cancelled at the gateway first; only
// then are the selected seats released back to available and the session
// dropped.  Exactly one gateway cancel call is issued per cancellation.
func (l *Lifecycle) Cancel(ctx context.Context) error {
	l.mu.Lock()
	switch l.state {
	case StateReady, StateAwaitingPayment, StateFailed:
	default:
		l.mu.Unlock()
		return fmt.Errorf("%w: cancel from %s", ErrInvalidState, l.state)
	}
	if l.inFlight {
		l.mu.Unlock()
		return fmt.Errorf("%w: payment in flight", ErrInvalidState)
	}
	b := l.booking
	l.mu.Unlock()

	if b != nil {
		if err := l.gateway.CancelBooking(ctx, b.ID); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session != nil {
		l.session.Ledger.ReleaseSelected()
		l.session = nil
	}
	l.state = StateCancelled
	return nil
}

// Clear drops the map and session unconditionally and returns to Idle.
// It is rejected only while a remote call is in flight.
func (l *Lifecycle) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateSubmitting || l.inFlight {
		return fmt.Errorf("%w: clear from %s", ErrInvalidState, l.state)
	}
	l.session = nil
	l.booking = nil
	l.lastErr = nil
	l.state = StateIdle
	return nil
}

// fail records err and resets the state after a failed Initialize.
func (l *Lifecycle) fail(to State, err error) {
	l.mu.Lock()
	l.state = to
	l.lastErr = err
	l.mu.Unlock()
}
