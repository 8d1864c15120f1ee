package payments

import (
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
)

// MetadataUserIDKey is where the checkout flow stashes the authenticated
// user id on the payment session.
const MetadataUserIDKey = "userId"

// Confirmation is the authoritative payment outcome for one checkout
// session, fetched from the gateway. Read-only; never persisted verbatim.
type Confirmation struct {
	SessionID       string
	PaymentStatus   enums.PaymentStatus
	CustomerEmail   string
	CustomerName    string
	AmountTotal     int64
	Currency        enums.Currency
	Metadata        map[string]string
	LineItems       []models.OrderLineItem
	PaymentIntentID string
	InvoiceID       string

	// Mock marks synthetic sessions. Mock confirmations must never produce
	// a persisted order or invoice.
	Mock bool
}

// UserID returns the authenticated user carried in the session metadata.
func (c *Confirmation) UserID() string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetadataUserIDKey]
}

// Paid reports whether the gateway settled the session.
func (c *Confirmation) Paid() bool {
	return c != nil && c.PaymentStatus == enums.PaymentStatusPaid
}
