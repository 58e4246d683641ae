package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/client/daraja"
	"github.com/dukahub/duka-api/internal/client/salesapi"
	"github.com/dukahub/duka-api/internal/constants"
	"github.com/dukahub/duka-api/internal/helpers"
	"github.com/dukahub/duka-api/internal/logger"
)

// ReceiptEmitter consumes a finalized sale and produces a printable or
// displayable rendering. Emission failures never fail a checkout.
type ReceiptEmitter interface {
	Emit(ctx context.Context, sale *salesapi.Sale) error
}

// CompleteSaleParams contains parameters for completing a checkout.
type CompleteSaleParams struct {
	CustomerID    string
	PaymentMethod string
	PhoneNumber   string
}

// CheckoutService coordinates the price ledger, the payment poller and the
// backend sale submission. It guarantees at most one successful order per
// checkout attempt: a single-use attempt token is minted when the checkout
// starts and must still be current before the sale is submitted, so a stale
// or cancelled confirmation can never complete an abandoned checkout.
type CheckoutService struct {
	ledger   *PriceLedger
	gateway  daraja.DarajaClientInterface
	sales    salesapi.SalesClientInterface
	receipts ReceiptEmitter
	logger   *zap.Logger
	config   PollerConfig

	mu           sync.Mutex
	currentToken uuid.UUID
	poller       *PaymentPoller
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	ledger *PriceLedger,
	gateway daraja.DarajaClientInterface,
	sales salesapi.SalesClientInterface,
	receipts ReceiptEmitter,
	config PollerConfig,
) *CheckoutService {
	return &CheckoutService{
		ledger:   ledger,
		gateway:  gateway,
		sales:    sales,
		receipts: receipts,
		logger:   logger.Log,
		config:   config,
	}
}

// Ledger exposes the cart owned by this checkout session.
func (s *CheckoutService) Ledger() *PriceLedger {
	return s.ledger
}

// PaymentAttempt returns the in-flight payment attempt, if any, for display.
func (s *CheckoutService) PaymentAttempt() (PaymentAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poller == nil {
		return PaymentAttempt{}, false
	}
	return s.poller.Attempt(), true
}

// CompleteSale runs one checkout attempt end to end: validate preconditions,
// snapshot the cart, confirm the payment when the method requires it, submit
// the sale exactly once, clear the cart and emit the receipt. On any
// non-success the cart is left untouched so the user can retry.
func (s *CheckoutService) CompleteSale(ctx context.Context, params CompleteSaleParams) (*salesapi.Sale, error) {
	// Preconditions: fail fast with no side effects and no network calls
	if params.CustomerID == "" {
		return nil, &PreconditionError{Message: "a customer must be selected before completing a sale"}
	}
	if !constants.IsValidPaymentMethod(params.PaymentMethod) {
		return nil, &PreconditionError{Message: "unsupported payment method: " + params.PaymentMethod}
	}
	if s.ledger.IsEmpty() {
		return nil, &PreconditionError{Message: "cannot complete a sale with an empty cart"}
	}
	needsConfirmation := constants.RequiresConfirmation(params.PaymentMethod)
	if needsConfirmation && !helpers.IsPhoneNumberValid(params.PhoneNumber) {
		return nil, &PreconditionError{Message: "a valid M-Pesa phone number is required"}
	}

	token, err := s.beginAttempt(needsConfirmation)
	if err != nil {
		return nil, err
	}
	defer s.endAttempt(token)

	// Immutable copy: later mutations of the live cart must not affect this
	// checkout.
	snapshot := s.ledger.Snapshot()

	var paymentReference string
	if needsConfirmation {
		reference, err := s.confirmPayment(ctx, token, params.PhoneNumber, snapshot.Totals.TotalCents)
		if err != nil {
			return nil, err
		}
		paymentReference = reference
	}

	// The attempt token must still be current: a checkout the user has since
	// cancelled or retried never submits a sale.
	if !s.tokenCurrent(token) {
		return nil, ErrStaleAttempt
	}

	sale, err := s.submitSale(ctx, params, snapshot, paymentReference)
	if err != nil {
		return nil, err
	}

	// Success: only now is the live cart released
	s.ledger.Clear()

	if s.receipts != nil {
		if err := s.receipts.Emit(ctx, sale); err != nil && s.logger != nil {
			s.logger.Warn("receipt emission failed",
				zap.String("sale_id", sale.ID),
				zap.Error(err))
		}
	}

	if s.logger != nil {
		s.logger.Info("sale completed",
			zap.String("sale_id", sale.ID),
			zap.String("payment_method", params.PaymentMethod),
			zap.Int64("total_cents", snapshot.Totals.TotalCents))
	}

	return sale, nil
}

// CancelPayment cancels the in-flight payment attempt, if any, and
// invalidates the attempt token so the checkout cannot complete afterwards.
// It reports whether there was an attempt to cancel.
func (s *CheckoutService) CancelPayment() bool {
	s.mu.Lock()
	poller := s.poller
	hadAttempt := s.currentToken != uuid.Nil
	s.currentToken = uuid.Nil
	s.mu.Unlock()

	if poller != nil {
		poller.Cancel()
	}
	return hadAttempt
}

// confirmPayment drives the STK push and polling cycle for one attempt and
// returns the payment reference to record on the sale.
func (s *CheckoutService) confirmPayment(ctx context.Context, token uuid.UUID, phoneNumber string, amountCents int64) (string, error) {
	s.mu.Lock()
	poller := s.poller
	s.mu.Unlock()
	if poller == nil {
		return "", ErrStaleAttempt
	}

	checkoutRequestID, err := poller.Initiate(ctx, phoneNumber, amountCents, token.String())
	if err != nil {
		return "", err
	}

	attempt, err := poller.AwaitConfirmation(ctx, checkoutRequestID)
	if err != nil {
		return "", err
	}
	if attempt.State != PaymentStateConfirmed {
		return "", ErrPaymentCancelled
	}

	if attempt.ReceiptNumber != "" {
		return attempt.ReceiptNumber, nil
	}
	return checkoutRequestID, nil
}

// submitSale records the sale on the backend exactly once. A failure after a
// confirmed payment means money may have moved without an order existing, so
// it is surfaced loudly as an OrderSubmissionError and never retried here.
func (s *CheckoutService) submitSale(ctx context.Context, params CompleteSaleParams, snapshot CartSnapshot, paymentReference string) (*salesapi.Sale, error) {
	request := salesapi.CreateSaleRequest{
		CustomerID:    params.CustomerID,
		PaymentMethod: params.PaymentMethod,
		Items:         make([]salesapi.SaleItem, 0, len(snapshot.Items)),
	}
	discounts := apportionDiscount(snapshot.Items, snapshot.Totals.DiscountCents)
	for i, item := range snapshot.Items {
		request.Items = append(request.Items, salesapi.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPriceCents,
			Discount:  discounts[i],
		})
	}
	if paymentReference != "" {
		request.MpesaTransactionID = &paymentReference
	}

	sale, err := s.sales.CreateSale(ctx, request)
	if err != nil {
		submissionErr := &OrderSubmissionError{PaymentReference: paymentReference, Err: err}
		if s.logger != nil {
			s.logger.Error("sale submission failed after payment",
				zap.String("customer_id", params.CustomerID),
				zap.String("payment_reference", paymentReference),
				zap.Error(err))
		}
		return nil, submissionErr
	}

	return sale, nil
}

// apportionDiscount splits the cart-level discount across the sale items in
// proportion to their line totals, so the recorded sale always reconciles
// with the amount actually charged. The effective discount is capped at the
// subtotal, matching the ledger's zero floor on the taxable amount, and any
// rounding remainder lands on the last item so the per-item discounts sum
// exactly to the cart discount.
func apportionDiscount(items []LineItem, discountCents int64) []int64 {
	discounts := make([]int64, len(items))
	if len(items) == 0 || discountCents <= 0 {
		return discounts
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * int64(item.Quantity)
	}
	if subtotal <= 0 {
		return discounts
	}

	effective := discountCents
	if effective > subtotal {
		effective = subtotal
	}

	var allocated int64
	for i, item := range items {
		if i == len(items)-1 {
			discounts[i] = effective - allocated
			break
		}
		lineTotal := item.UnitPriceCents * int64(item.Quantity)
		discounts[i] = effective * lineTotal / subtotal
		allocated += discounts[i]
	}
	return discounts
}

// beginAttempt mints the single-use attempt token. Only one checkout may be
// in flight at a time.
func (s *CheckoutService) beginAttempt(needsConfirmation bool) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentToken != uuid.Nil {
		return uuid.Nil, ErrCheckoutInFlight
	}

	s.currentToken = uuid.New()
	if needsConfirmation {
		s.poller = NewPaymentPoller(s.gateway, s.config)
	} else {
		s.poller = nil
	}
	return s.currentToken, nil
}

// endAttempt releases the token and poller if this attempt still owns them.
// An attempt that lost the token must not touch the poller: a retry may
// already be running its own.
func (s *CheckoutService) endAttempt(token uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentToken == token {
		s.currentToken = uuid.Nil
		s.poller = nil
	}
}

// tokenCurrent reports whether the given attempt token is still the live one.
func (s *CheckoutService) tokenCurrent(token uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentToken == token
}
