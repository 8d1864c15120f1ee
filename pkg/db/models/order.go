package models

import (
	"time"

	"github.com/ateliermora/storefront-backend/pkg/enums"
)

// Order is the durable record of one finalized purchase. Orders live inside
// their user's OrderFragment rows as JSON; OrderID (the checkout session id)
// is the idempotency key and is unique system-wide.
type Order struct {
	OrderID          string            `json:"orderId"`
	PaymentIntentID  string            `json:"paymentIntentId,omitempty"`
	UserID           string            `json:"userId"`
	CustomerEmail    string            `json:"customerEmail,omitempty"`
	CustomerName     string            `json:"customerName,omitempty"`
	LineItems        []OrderLineItem   `json:"lineItems"`
	TotalAmount      int64             `json:"totalAmount"`
	Currency         enums.Currency    `json:"currency"`
	Status           enums.OrderStatus `json:"status"`
	InvoiceURL       string            `json:"invoiceUrl,omitempty"`
	LocalInvoicePath string            `json:"localInvoicePath,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// OrderLineItem is the immutable snapshot of one purchased item.
type OrderLineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	VariantID string `json:"variantId,omitempty"`
	Size      string `json:"size,omitempty"`
}

// total is quantity times unit price in minor currency units.
func (li OrderLineItem) LineTotal() int64 {
	return int64(li.Quantity) * li.UnitPrice
}
