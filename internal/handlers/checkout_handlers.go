package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/services"
)

// CheckoutHandler exposes the cart and checkout operations
type CheckoutHandler struct {
	common *CommonServices
	logger *zap.Logger
}

// NewCheckoutHandler creates a handler backed by the checkout service
func NewCheckoutHandler(common *CommonServices, logger *zap.Logger) *CheckoutHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &CheckoutHandler{
		common: common,
		logger: logger,
	}
}

// AddItemRequest represents the request body for adding a product to the cart
type AddItemRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity" binding:"required"`
	AvailableStock int    `json:"available_stock" binding:"required"`
}

// SetQuantityRequest represents the request body for changing a line quantity
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// ApplyDiscountRequest represents the request body for setting the discount
type ApplyDiscountRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

// CompleteSaleRequest represents the request body for completing a checkout
type CompleteSaleRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	PhoneNumber   string `json:"phone_number"`
}

// CartResponse represents the cart contents and derived totals
type CartResponse struct {
	Items  []services.LineItem `json:"items"`
	Totals services.CartTotals `json:"totals"`
}

// GetCart returns the current cart contents and totals
func (h *CheckoutHandler) GetCart(c *gin.Context) {
	ledger := h.common.Checkout.Ledger()
	sendSuccess(c, http.StatusOK, CartResponse{
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	})
}

// AddItem adds a product to the cart or increases its quantity
func (h *CheckoutHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.common.Checkout.Ledger().AddItem(services.AddItemParams{
		ProductID:      req.ProductID,
		Name:           req.Name,
		UnitPriceCents: req.UnitPriceCents,
		Quantity:       req.Quantity,
		AvailableStock: req.AvailableStock,
	})
	if err != nil {
		handleCheckoutError(c, err)
		return
	}

	ledger := h.common.Checkout.Ledger()
	sendSuccess(c, http.StatusOK, CartResponse{
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	})
}

// SetQuantity replaces the quantity of a cart line; zero removes the line
func (h *CheckoutHandler) SetQuantity(c *gin.Context) {
	productID := c.Param("productId")

	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.common.Checkout.Ledger().SetQuantity(productID, req.Quantity); err != nil {
		handleCheckoutError(c, err)
		return
	}

	ledger := h.common.Checkout.Ledger()
	sendSuccess(c, http.StatusOK, CartResponse{
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	})
}

// RemoveItem deletes a cart line
func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	productID := c.Param("productId")

	ledger := h.common.Checkout.Ledger()
	ledger.RemoveItem(productID)

	sendSuccess(c, http.StatusOK, CartResponse{
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	})
}

// ApplyDiscount sets the absolute discount amount for the cart
func (h *CheckoutHandler) ApplyDiscount(c *gin.Context) {
	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.common.Checkout.Ledger().ApplyDiscount(req.AmountCents); err != nil {
		handleCheckoutError(c, err)
		return
	}

	ledger := h.common.Checkout.Ledger()
	sendSuccess(c, http.StatusOK, CartResponse{
		Items:  ledger.Items(),
		Totals: ledger.Totals(),
	})
}

// ClearCart empties the cart and zeroes the totals
func (h *CheckoutHandler) ClearCart(c *gin.Context) {
	h.common.Checkout.Ledger().Clear()
	sendSuccessMessage(c, http.StatusOK, "cart cleared")
}

// CompleteSale runs a checkout attempt. For M-Pesa this call blocks until
// the gateway confirms, declines or the confirmation window elapses.
func (h *CheckoutHandler) CompleteSale(c *gin.Context) {
	var req CompleteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.common.Checkout.CompleteSale(c.Request.Context(), services.CompleteSaleParams{
		CustomerID:    req.CustomerID,
		PaymentMethod: req.PaymentMethod,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		handleCheckoutError(c, err)
		return
	}

	sendSuccess(c, http.StatusCreated, sale)
}

// CancelPayment cancels the in-flight payment attempt, if any
func (h *CheckoutHandler) CancelPayment(c *gin.Context) {
	if !h.common.Checkout.CancelPayment() {
		sendError(c, http.StatusNotFound, "no payment attempt in progress", nil)
		return
	}
	sendSuccessMessage(c, http.StatusOK, "payment attempt cancelled")
}

// GetPaymentAttempt returns the in-flight payment attempt for display
func (h *CheckoutHandler) GetPaymentAttempt(c *gin.Context) {
	attempt, ok := h.common.Checkout.PaymentAttempt()
	if !ok {
		sendError(c, http.StatusNotFound, "no payment attempt in progress", nil)
		return
	}
	sendSuccess(c, http.StatusOK, attempt)
}
