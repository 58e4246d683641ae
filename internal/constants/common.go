package constants

// Common string constants used throughout the codebase
const (
	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"

	// Status values
	FailedStatus  = "failed"
	SuccessStatus = "success"

	// Currencies
	KESCurrency = "KES"
)

// Payment methods accepted at checkout
const (
	PaymentMethodMpesa        = "MPESA"
	PaymentMethodCash         = "CASH"
	PaymentMethodCard         = "CARD"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
)

// Gateway payment status values reported by the STK push status endpoint
const (
	GatewayStatusPending   = "PENDING"
	GatewayStatusCompleted = "COMPLETED"
	GatewayStatusFailed    = "FAILED"
)

// IsValidPaymentMethod checks if the provided method is one the checkout accepts.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodMpesa, PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

// RequiresConfirmation reports whether a payment method settles asynchronously
// and therefore needs gateway confirmation before a sale may be recorded.
func RequiresConfirmation(method string) bool {
	return method == PaymentMethodMpesa
}
