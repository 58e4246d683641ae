package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/client/daraja"
	httpClient "github.com/dukahub/duka-api/internal/client/http"
	"github.com/dukahub/duka-api/internal/constants"
	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
)

// PaymentState describes where a payment attempt is in its lifecycle.
type PaymentState string

const (
	PaymentStateIdle                 PaymentState = "IDLE"
	PaymentStateInitiating           PaymentState = "INITIATING"
	PaymentStateAwaitingConfirmation PaymentState = "AWAITING_CONFIRMATION"
	PaymentStateConfirmed            PaymentState = "CONFIRMED"
	PaymentStateDeclined             PaymentState = "DECLINED"
	PaymentStateTimedOut             PaymentState = "TIMED_OUT"
	PaymentStateErrored              PaymentState = "ERROR"
)

// Terminal reports whether the state ends the attempt. Terminal states are
// never left; a new attempt always starts a fresh poller.
func (s PaymentState) Terminal() bool {
	switch s {
	case PaymentStateConfirmed, PaymentStateDeclined, PaymentStateTimedOut, PaymentStateErrored:
		return true
	default:
		return false
	}
}

// Default confirmation timings. Both are configurable so tests can run with
// accelerated clocks.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultConfirmTimeout = 120 * time.Second
)

// PollerConfig configures the confirmation polling cadence.
type PollerConfig struct {
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// PaymentAttempt is the poller's record of one confirmation cycle.
type PaymentAttempt struct {
	CheckoutRequestID string       `json:"checkout_request_id"`
	PhoneNumber       string       `json:"phone_number"`
	AmountCents       int64        `json:"amount_cents"`
	State             PaymentState `json:"state"`
	StartedAt         time.Time    `json:"started_at"`
	LastCheckedAt     time.Time    `json:"last_checked_at"`
	ReceiptNumber     string       `json:"receipt_number,omitempty"`
}

// PaymentPoller drives exactly one mobile-money confirmation cycle:
// initiate, poll on a fixed interval, resolve or time out. It is cancellable
// at any suspension point and cancellation wins any race with an in-flight
// status response. Polling is sequential on one goroutine, so responses are
// always applied in request order; anything arriving after a terminal state
// is discarded unconditionally.
type PaymentPoller struct {
	gateway daraja.DarajaClientInterface
	logger  *zap.Logger
	config  PollerConfig

	mu        sync.Mutex
	attempt   PaymentAttempt
	cancelled bool
	cancelCh  chan struct{}
}

// NewPaymentPoller creates a poller for a single payment attempt.
func NewPaymentPoller(gateway daraja.DarajaClientInterface, config PollerConfig) *PaymentPoller {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.ConfirmTimeout <= 0 {
		config.ConfirmTimeout = DefaultConfirmTimeout
	}
	return &PaymentPoller{
		gateway:  gateway,
		logger:   logger.Log,
		config:   config,
		attempt:  PaymentAttempt{State: PaymentStateIdle},
		cancelCh: make(chan struct{}),
	}
}

// Attempt returns a copy of the current attempt record.
func (p *PaymentPoller) Attempt() PaymentAttempt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempt
}

// Initiate validates the phone number and amount, then asks the gateway to
// push the payment prompt. Validation failures happen before any network
// call. On gateway failure the attempt moves to ERROR and the provider's
// message is preserved verbatim.
func (p *PaymentPoller) Initiate(ctx context.Context, phoneNumber string, amountCents int64, reference string) (string, error) {
	normalized, ok := helpers.NormalizePhoneNumber(phoneNumber)
	if !ok {
		return "", ErrInvalidPhoneNumber
	}
	if amountCents <= 0 {
		return "", ErrInvalidAmount
	}

	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return "", ErrPaymentCancelled
	}
	if p.attempt.State != PaymentStateIdle {
		p.mu.Unlock()
		return "", ErrAttemptAlreadyStarted
	}
	p.attempt.State = PaymentStateInitiating
	p.attempt.PhoneNumber = normalized
	p.attempt.AmountCents = amountCents
	p.attempt.StartedAt = time.Now()
	p.mu.Unlock()

	response, err := p.gateway.InitiateSTKPush(ctx, daraja.STKPushRequest{
		Amount:           amountCents,
		PhoneNumber:      normalized,
		AccountReference: reference,
		TransactionDesc:  "Duka checkout",
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.attempt.State = PaymentStateErrored
		return "", &GatewayError{Op: "initiate", Message: providerMessage(err), Err: err}
	}
	if p.cancelled {
		// Cancelled while the initiation request was in flight
		p.attempt.State = PaymentStateErrored
		return "", ErrPaymentCancelled
	}

	p.attempt.State = PaymentStateAwaitingConfirmation
	p.attempt.CheckoutRequestID = response.CheckoutRequestID

	if p.logger != nil {
		p.logger.Info("STK push initiated",
			zap.String("checkout_request_id", response.CheckoutRequestID),
			zap.Int64("amount_cents", amountCents))
	}

	return response.CheckoutRequestID, nil
}

// AwaitConfirmation performs one immediate status check, then polls on the
// configured interval until the gateway reports COMPLETED or FAILED, the
// overall timeout elapses, or the attempt is cancelled. Transient
// status-check errors are retried silently until the timeout.
func (p *PaymentPoller) AwaitConfirmation(ctx context.Context, checkoutRequestID string) (PaymentAttempt, error) {
	p.mu.Lock()
	state := p.attempt.State
	p.mu.Unlock()

	if state.Terminal() {
		return p.Attempt(), p.terminalError(state)
	}
	if state != PaymentStateAwaitingConfirmation {
		return p.Attempt(), fmt.Errorf("cannot await confirmation from state %s", state)
	}

	deadline := time.NewTimer(p.config.ConfirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		attempt, done, err := p.checkOnce(ctx, checkoutRequestID)
		if done {
			return attempt, err
		}

		select {
		case <-p.cancelCh:
			return p.Attempt(), ErrPaymentCancelled
		case <-ctx.Done():
			p.resolve(PaymentStateErrored, "")
			return p.Attempt(), fmt.Errorf("%w: %v", ErrPaymentCancelled, ctx.Err())
		case <-deadline.C:
			if p.resolve(PaymentStateTimedOut, "") {
				if p.logger != nil {
					p.logger.Warn("payment confirmation timed out",
						zap.String("checkout_request_id", checkoutRequestID),
						zap.Duration("timeout", p.config.ConfirmTimeout))
				}
				return p.Attempt(), ErrPaymentTimeout
			}
			return p.Attempt(), ErrPaymentCancelled
		case <-ticker.C:
		}
	}
}

// Cancel stops the attempt. It may be called at any time before a terminal
// state; it is final and wins any race with an in-flight response: no status
// result observed after cancellation can change the attempt's state, and no
// further gateway calls are made.
func (p *PaymentPoller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelled {
		return
	}
	p.cancelled = true
	if !p.attempt.State.Terminal() {
		p.attempt.State = PaymentStateErrored
	}
	close(p.cancelCh)
}

// checkOnce performs a single gateway status check and applies the result.
// It returns done=true when the attempt reached a terminal state.
func (p *PaymentPoller) checkOnce(ctx context.Context, checkoutRequestID string) (PaymentAttempt, bool, error) {
	p.mu.Lock()
	if p.cancelled {
		attempt := p.attempt
		p.mu.Unlock()
		return attempt, true, ErrPaymentCancelled
	}
	if p.attempt.State.Terminal() {
		attempt := p.attempt
		state := attempt.State
		p.mu.Unlock()
		return attempt, true, p.terminalError(state)
	}
	p.mu.Unlock()

	status, err := p.gateway.PaymentStatus(ctx, checkoutRequestID)
	checkedAt := time.Now()

	p.mu.Lock()
	// Re-check after the network round trip: cancellation and earlier
	// terminal results win over whatever this response says.
	if p.cancelled {
		attempt := p.attempt
		p.mu.Unlock()
		return attempt, true, ErrPaymentCancelled
	}
	if p.attempt.State.Terminal() {
		attempt := p.attempt
		state := attempt.State
		p.mu.Unlock()
		return attempt, true, p.terminalError(state)
	}
	p.attempt.LastCheckedAt = checkedAt
	p.mu.Unlock()

	if err != nil {
		// Transient failures are retried silently until the overall timeout
		if p.logger != nil {
			p.logger.Warn("payment status check failed, will retry",
				zap.String("checkout_request_id", checkoutRequestID),
				zap.Error(err))
		}
		return p.Attempt(), false, nil
	}

	switch status.Status {
	case constants.GatewayStatusCompleted:
		if p.resolve(PaymentStateConfirmed, status.MpesaReceiptNumber) {
			if p.logger != nil {
				p.logger.Info("payment confirmed",
					zap.String("checkout_request_id", checkoutRequestID),
					zap.String("receipt_number", status.MpesaReceiptNumber))
			}
			return p.Attempt(), true, nil
		}
		return p.Attempt(), true, ErrPaymentCancelled
	case constants.GatewayStatusFailed:
		if p.resolve(PaymentStateDeclined, "") {
			if status.ResultDesc != "" {
				return p.Attempt(), true, fmt.Errorf("%w: %s", ErrPaymentDeclined, status.ResultDesc)
			}
			return p.Attempt(), true, ErrPaymentDeclined
		}
		return p.Attempt(), true, ErrPaymentCancelled
	default:
		// PENDING or anything unrecognized keeps polling
		return p.Attempt(), false, nil
	}
}

// resolve applies a terminal state transition. It reports false when the
// transition was discarded because the attempt was already cancelled or
// terminal.
func (p *PaymentPoller) resolve(state PaymentState, receiptNumber string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelled || p.attempt.State.Terminal() {
		return false
	}
	p.attempt.State = state
	if receiptNumber != "" {
		p.attempt.ReceiptNumber = receiptNumber
	}
	return true
}

// terminalError maps a terminal state to the error the caller should see.
func (p *PaymentPoller) terminalError(state PaymentState) error {
	switch state {
	case PaymentStateConfirmed:
		return nil
	case PaymentStateDeclined:
		return ErrPaymentDeclined
	case PaymentStateTimedOut:
		return ErrPaymentTimeout
	default:
		return ErrPaymentCancelled
	}
}

// providerMessage extracts the gateway's own error text so it can be
// surfaced verbatim.
func providerMessage(err error) string {
	var httpErr *httpClient.HTTPError
	if errors.As(err, &httpErr) && httpErr.Body != "" {
		return httpErr.Body
	}
	return err.Error()
}
