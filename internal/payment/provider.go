// Package payment abstracts the payment providers supported at checkout.
// The booking lifecycle only needs a single opaque charge step; everything
// provider-specific lives behind the Provider interface.
package payment

import (
	"context"
	"errors"
)

// Method identifies a payment provider the customer can pick at checkout.
type Method string

const (
	MethodChapa    Method = "chapa"
	MethodTelebirr Method = "telebirr"
	MethodMpesa    Method = "mpesa"
)

// ValidMethod reports whether m is one of the supported providers.
func ValidMethod(m Method) bool {
	switch m {
	case MethodChapa, MethodTelebirr, MethodMpesa:
		return true
	}
	return false
}

// ErrDeclined is returned when the provider processed the charge and
// refused it.  Transport or provider outages surface as other errors.
var ErrDeclined = errors.New("payment: declined")

// Request describes a single charge.
type Request struct {
	AmountCents uint32
	Currency    string
	Email       string
	FullName    string
	TxRef       string // caller-supplied unique reference for the charge
}

// Result is the provider's answer to a successful charge.
type Result struct {
	TransactionID string
	CheckoutURL   string // set by redirect-based providers such as Chapa
}

// Provider executes charges against one payment backend.  Charge blocks
// until the provider settles or the context expires; callers are expected
// to wrap it in a timeout.
type Provider interface {
	Charge(ctx context.Context, req Request) (Result, error)
}

// VerifyResult is the settlement state of a previously initialized
// charge, as reported by the provider.
type VerifyResult struct {
	TxRef       string
	Status      string // provider-reported, e.g. "success", "failed", "pending"
	AmountCents uint32
}

// Verifier is implemented by providers that support after-the-fact
// verification of a charge, used by reconciliation of pending bookings.
// Callers type-assert: not every provider offers it.
type Verifier interface {
	Verify(ctx context.Context, txRef string) (VerifyResult, error)
}
