package invoices

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
)

// pdfRenderer draws a single-page invoice. Charged amounts are in minor
// currency units; formatting divides by 100 for display only.
type pdfRenderer struct {
	sellerName string
}

// NewPDFRenderer builds the invoice renderer. sellerName appears in the
// document header.
func NewPDFRenderer(sellerName string) Renderer {
	if sellerName == "" {
		sellerName = "Atelier Mora"
	}
	return &pdfRenderer{sellerName: sellerName}
}

func (r *pdfRenderer) Render(ctx context.Context, order models.Order) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", order.OrderID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(120, 10, r.sellerName)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(60, 10, "TAX INVOICE", "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice for order %s", order.OrderID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Issued %s", time.Now().UTC().Format("2 Jan 2006")))
	pdf.Ln(6)
	if order.CustomerName != "" || order.CustomerEmail != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Billed to %s %s", order.CustomerName, order.CustomerEmail))
		pdf.Ln(6)
	}
	if order.PaymentIntentID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Payment reference %s", order.PaymentIntentID))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	currency := strings.ToUpper(order.Currency.String())

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Unit", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.LineItems {
		label := item.ProductID
		if item.VariantID != "" {
			label += " / " + item.VariantID
		}
		if item.Size != "" {
			label += " (" + item.Size + ")"
		}
		pdf.CellFormat(80, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, formatMinorUnits(item.UnitPrice, currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, formatMinorUnits(item.LineTotal(), currency), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(145, 10, "Total charged", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, formatMinorUnits(order.TotalAmount, currency), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMinorUnits(amount int64, currency string) string {
	value := decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("%s %s", currency, value.StringFixed(2))
}
