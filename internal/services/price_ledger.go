package services

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/logger"
)

// DefaultTaxRate is the VAT rate applied at checkout.
const DefaultTaxRate = 0.16

// LineItem is one product line in the cart.
type LineItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// CartTotals holds the derived pricing figures for the current cart contents.
// All values are non-negative cents.
type CartTotals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// CartSnapshot is an immutable copy of the cart taken at checkout start.
// Later mutations of the live cart do not affect it.
type CartSnapshot struct {
	Items  []LineItem `json:"items"`
	Totals CartTotals `json:"totals"`
}

// AddItemParams contains parameters for adding a product to the cart.
// AvailableStock is supplied by the caller, which owns stock knowledge;
// the ledger only enforces that the resulting quantity never exceeds it.
type AddItemParams struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int
	AvailableStock int
}

// PriceLedger owns the cart line items and derives subtotal, discount, tax
// and total under a fixed recalculation rule. Every mutation recomputes the
// totals from scratch; carts are small so correctness wins over caching.
type PriceLedger struct {
	mu            sync.Mutex
	logger        *zap.Logger
	taxRate       float64
	items         []LineItem
	discountCents int64
	totals        CartTotals
}

// NewPriceLedger creates a ledger with the default VAT rate.
func NewPriceLedger() *PriceLedger {
	return NewPriceLedgerWithTaxRate(DefaultTaxRate)
}

// NewPriceLedgerWithTaxRate creates a ledger with a custom tax rate.
func NewPriceLedgerWithTaxRate(taxRate float64) *PriceLedger {
	return &PriceLedger{
		logger:  logger.Log,
		taxRate: taxRate,
	}
}

// AddItem inserts a new line item or increases the quantity of an existing
// one. Quantities are additive, never replaced. The ledger never silently
// clamps a quantity: exceeding the available stock is a ValidationError.
func (l *PriceLedger) AddItem(params AddItemParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if params.ProductID == "" {
		return &ValidationError{Field: "product_id", Message: "must not be empty"}
	}
	if params.Quantity < 1 {
		return &ValidationError{Field: "quantity", Message: "must be at least 1"}
	}
	if params.UnitPriceCents < 0 {
		return &ValidationError{Field: "unit_price", Message: "must not be negative"}
	}

	newQuantity := params.Quantity
	idx := l.indexOf(params.ProductID)
	if idx >= 0 {
		newQuantity += l.items[idx].Quantity
	}
	if newQuantity > params.AvailableStock {
		return &ValidationError{Field: "quantity", Message: "exceeds available stock"}
	}

	if idx >= 0 {
		l.items[idx].Quantity = newQuantity
	} else {
		l.items = append(l.items, LineItem{
			ProductID:      params.ProductID,
			Name:           params.Name,
			UnitPriceCents: params.UnitPriceCents,
			Quantity:       params.Quantity,
		})
	}

	l.recomputeTotals()
	return nil
}

// SetQuantity replaces the quantity of an existing line item. A quantity
// below 1 removes the line entirely.
func (l *PriceLedger) SetQuantity(productID string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(productID)
	if idx < 0 {
		return &ValidationError{Field: "product_id", Message: "not in cart"}
	}

	if quantity < 1 {
		l.items = append(l.items[:idx], l.items[idx+1:]...)
	} else {
		l.items[idx].Quantity = quantity
	}

	l.recomputeTotals()
	return nil
}

// RemoveItem deletes a line item. Removing a product that is not in the cart
// is a no-op.
func (l *PriceLedger) RemoveItem(productID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(productID)
	if idx < 0 {
		return
	}

	l.items = append(l.items[:idx], l.items[idx+1:]...)
	l.recomputeTotals()
}

// ApplyDiscount sets the absolute discount amount in cents.
func (l *PriceLedger) ApplyDiscount(amountCents int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amountCents < 0 {
		return &ValidationError{Field: "discount", Message: "must not be negative"}
	}

	l.discountCents = amountCents
	l.recomputeTotals()
	return nil
}

// Clear empties all items and zeroes all totals.
func (l *PriceLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.discountCents = 0
	l.recomputeTotals()
}

// Totals returns the current derived cart totals.
func (l *PriceLedger) Totals() CartTotals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

// Items returns a copy of the current line items.
func (l *PriceLedger) Items() []LineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyItems()
}

// IsEmpty reports whether the cart holds no line items.
func (l *PriceLedger) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items) == 0
}

// Snapshot captures an immutable copy of the items and totals for an
// in-flight checkout.
func (l *PriceLedger) Snapshot() CartSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CartSnapshot{
		Items:  l.copyItems(),
		Totals: l.totals,
	}
}

func (l *PriceLedger) indexOf(productID string) int {
	for i := range l.items {
		if l.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (l *PriceLedger) copyItems() []LineItem {
	items := make([]LineItem, len(l.items))
	copy(items, l.items)
	return items
}

// recomputeTotals derives the full CartTotals from scratch. The taxable
// amount is floored at zero: a discount larger than the subtotal is accepted
// but never drives the taxable amount (and hence tax or total) negative.
func (l *PriceLedger) recomputeTotals() {
	var subtotal int64
	for i := range l.items {
		subtotal += l.items[i].UnitPriceCents * int64(l.items[i].Quantity)
	}

	taxable := subtotal - l.discountCents
	if taxable < 0 {
		taxable = 0
	}

	tax := int64(math.Round(float64(taxable) * l.taxRate))

	l.totals = CartTotals{
		SubtotalCents: subtotal,
		DiscountCents: l.discountCents,
		TaxCents:      tax,
		TotalCents:    taxable + tax,
	}

	if l.logger != nil {
		l.logger.Debug("cart totals recomputed",
			zap.Int("line_items", len(l.items)),
			zap.Int64("subtotal_cents", l.totals.SubtotalCents),
			zap.Int64("total_cents", l.totals.TotalCents))
	}
}
