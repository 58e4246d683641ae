package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dukahub/duka-api/internal/client/salesapi"
	"github.com/dukahub/duka-api/internal/constants"
	"github.com/dukahub/duka-api/internal/logger"
)

const receiptWidth = 40

// ReceiptService renders finalized sales as printable till receipts and
// writes them to the configured destination (a printer spool or display
// stream). It carries no business logic.
type ReceiptService struct {
	out       io.Writer
	storeName string
	logger    *zap.Logger
}

// NewReceiptService creates a receipt service writing to the given destination.
func NewReceiptService(out io.Writer, storeName string) *ReceiptService {
	return &ReceiptService{
		out:       out,
		storeName: storeName,
		logger:    logger.Log,
	}
}

var _ ReceiptEmitter = (*ReceiptService)(nil)

// Emit renders the sale and writes it out.
func (s *ReceiptService) Emit(ctx context.Context, sale *salesapi.Sale) error {
	rendered := s.Render(sale)

	if _, err := io.WriteString(s.out, rendered); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("receipt emitted",
			zap.String("sale_id", sale.ID),
			zap.Int64("total_cents", sale.TotalCents))
	}
	return nil
}

// Render produces the printable representation of a sale.
func (s *ReceiptService) Render(sale *salesapi.Sale) string {
	var b strings.Builder
	divider := strings.Repeat("-", receiptWidth) + "\n"

	b.WriteString(centerLine(s.storeName))
	b.WriteString(centerLine("SALE RECEIPT"))
	b.WriteString(divider)
	b.WriteString(fmt.Sprintf("Sale:    %s\n", sale.ID))
	b.WriteString(fmt.Sprintf("Date:    %s\n", time.Now().Format("02 Jan 2006 15:04")))
	b.WriteString(fmt.Sprintf("Payment: %s\n", sale.PaymentMethod))
	if sale.PaymentReference != "" {
		b.WriteString(fmt.Sprintf("Ref:     %s\n", sale.PaymentReference))
	}
	b.WriteString(divider)

	for _, item := range sale.Items {
		lineTotal := item.Price * int64(item.Quantity)
		b.WriteString(fmt.Sprintf("%-24s %2d x %s\n", truncate(item.ProductID, 24), item.Quantity, formatAmount(item.Price)))
		b.WriteString(fmt.Sprintf("%*s\n", receiptWidth, formatAmount(lineTotal)))
	}

	b.WriteString(divider)
	b.WriteString(totalLine("Subtotal", sale.SubtotalCents))
	if sale.DiscountCents > 0 {
		b.WriteString(totalLine("Discount", -sale.DiscountCents))
	}
	b.WriteString(totalLine("VAT", sale.TaxCents))
	b.WriteString(totalLine("TOTAL", sale.TotalCents))
	b.WriteString(divider)
	b.WriteString(centerLine("Asante! Karibu tena."))

	return b.String()
}

// formatAmount formats cents as a KES money string.
func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, constants.KESCurrency, cents/100, cents%100)
}

func totalLine(label string, cents int64) string {
	amount := formatAmount(cents)
	return fmt.Sprintf("%-*s%s\n", receiptWidth-len(amount), label, amount)
}

func centerLine(text string) string {
	if len(text) >= receiptWidth {
		return text + "\n"
	}
	pad := (receiptWidth - len(text)) / 2
	return strings.Repeat(" ", pad) + text + "\n"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
