package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Simulator is a Provider for local development and tests.  It settles
// after Delay (honouring context cancellation) and succeeds unless Fail
// is set.
type Simulator struct {
	Delay time.Duration
	Fail  bool
}

// Charge settles the simulated payment.
func (s *Simulator) Charge(ctx context.Context, req Request) (Result, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
	if s.Fail {
		return Result{}, ErrDeclined
	}
	return Result{TransactionID: uuid.NewString()}, nil
}
