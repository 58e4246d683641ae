package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/logger"
	"github.com/dukahub/duka-api/internal/services"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	Checkout *services.CheckoutService
	logger   *zap.Logger
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(checkout *services.CheckoutService, log *zap.Logger) *CommonServices {
	if log == nil {
		log = logger.Log
	}
	return &CommonServices{
		Checkout: checkout,
		logger:   log,
	}
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendSuccessMessage is a helper function that sends a success message
func sendSuccessMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, SuccessResponse{Message: message})
}

// handleCheckoutError translates the checkout error taxonomy into HTTP
// responses. Order submission failures after a confirmed payment get a
// distinct machine-readable code so operators can spot them.
func handleCheckoutError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var preconditionErr *services.PreconditionError
	var gatewayErr *services.GatewayError
	var submissionErr *services.OrderSubmissionError

	switch {
	case errors.As(err, &validationErr):
		sendError(c, http.StatusBadRequest, validationErr.Error(), err)
	case errors.As(err, &preconditionErr):
		sendError(c, http.StatusBadRequest, preconditionErr.Error(), err)
	case errors.Is(err, services.ErrInvalidPhoneNumber),
		errors.Is(err, services.ErrInvalidAmount):
		sendError(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, services.ErrCheckoutInFlight):
		sendError(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, services.ErrPaymentDeclined):
		sendError(c, http.StatusPaymentRequired, err.Error(), err)
	case errors.Is(err, services.ErrPaymentTimeout):
		sendError(c, http.StatusGatewayTimeout,
			"payment confirmation timed out; ask the customer to check their M-Pesa messages before retrying", err)
	case errors.Is(err, services.ErrPaymentCancelled),
		errors.Is(err, services.ErrStaleAttempt):
		sendError(c, http.StatusConflict, err.Error(), err)
	case errors.As(err, &submissionErr):
		logger.Error("order submission failed after confirmed payment",
			zap.String("payment_reference", submissionErr.PaymentReference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: submissionErr.Error(),
			Code:  "ORDER_SUBMISSION_FAILED",
		})
	case errors.As(err, &gatewayErr):
		sendError(c, http.StatusBadGateway, gatewayErr.Error(), err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
