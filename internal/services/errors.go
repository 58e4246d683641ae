package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the checkout and payment flow
var (
	// ErrInvalidPhoneNumber is returned before any network call when the
	// customer's phone number cannot be normalized to 2547XXXXXXXX.
	ErrInvalidPhoneNumber = errors.New("invalid phone number: expected 07XXXXXXXX, 7XXXXXXXX or 2547XXXXXXXX")

	// ErrInvalidAmount is returned before any network call when the payment
	// amount is not positive.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")

	// ErrPaymentDeclined is returned when the gateway reports the payment FAILED.
	ErrPaymentDeclined = errors.New("payment was declined")

	// ErrPaymentTimeout is returned when confirmation did not arrive within the
	// configured window. The customer should check their M-Pesa messages before
	// retrying.
	ErrPaymentTimeout = errors.New("payment confirmation timed out")

	// ErrPaymentCancelled is returned when the attempt was cancelled before a
	// terminal gateway status arrived.
	ErrPaymentCancelled = errors.New("payment confirmation was cancelled")

	// ErrAttemptAlreadyStarted is returned when Initiate is called on a poller
	// that has already left the idle state. Attempts are never reused.
	ErrAttemptAlreadyStarted = errors.New("payment attempt already started")

	// ErrCheckoutInFlight is returned when a checkout is requested while
	// another one is still outstanding.
	ErrCheckoutInFlight = errors.New("another checkout is already in progress")

	// ErrStaleAttempt is returned when a confirmation arrives for a checkout
	// attempt the user has since cancelled or abandoned.
	ErrStaleAttempt = errors.New("checkout attempt is no longer current")
)

// ValidationError reports a bad cart mutation input. It is recovered locally
// and never reaches the network layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PreconditionError reports a checkout precondition violation. No side effect
// has been performed when one is returned.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// GatewayError reports a network or HTTP failure talking to the payment
// gateway. Message carries the provider's own description verbatim.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// OrderSubmissionError reports a sale submission failure after the payment was
// already confirmed. Money may have moved without an order being recorded, so
// this must reach the operator and is never retried automatically.
type OrderSubmissionError struct {
	PaymentReference string
	Err              error
}

func (e *OrderSubmissionError) Error() string {
	if e.PaymentReference != "" {
		return fmt.Sprintf("sale submission failed after confirmed payment %s: %v (manual reconciliation required)", e.PaymentReference, e.Err)
	}
	return fmt.Sprintf("sale submission failed: %v (manual reconciliation required)", e.Err)
}

func (e *OrderSubmissionError) Unwrap() error {
	return e.Err
}
