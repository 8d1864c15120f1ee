package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/enums"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const (
	// SessionPrefix is the gateway's checkout session id prefix. Anything
	// without it is rejected before any network call.
	SessionPrefix = "cs_"

	// MockSessionPrefix marks synthetic sessions used in tests and demo
	// flows. They resolve locally and never reach the gateway.
	MockSessionPrefix = "cs_mock_"
)

var expandFields = []string{"payment_intent", "invoice", "line_items"}

// Fetcher retrieves the confirmation record for a checkout session.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID string) (*Confirmation, error)
}

type sessionRetriever interface {
	RetrieveCheckoutSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error)
}

type fetcher struct {
	gateway sessionRetriever
	logg    *logger.Logger
}

// NewFetcher builds the gateway-backed confirmation fetcher.
func NewFetcher(gateway sessionRetriever, logg *logger.Logger) (Fetcher, error) {
	if gateway == nil {
		return nil, errors.New("payment gateway client is required")
	}
	return &fetcher{gateway: gateway, logg: logg}, nil
}

// Fetch is a pure read: no side effects, idempotent, no automatic retries.
func (f *fetcher) Fetch(ctx context.Context, sessionID string) (*Confirmation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !strings.HasPrefix(sessionID, SessionPrefix) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout session id")
	}

	if strings.HasPrefix(sessionID, MockSessionPrefix) {
		f.logg.Info(f.logg.WithSessionID(ctx, sessionID), "resolving mock checkout session")
		return mockConfirmation(sessionID), nil
	}

	session, err := f.gateway.RetrieveCheckoutSession(ctx, sessionID, expandFields)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}

	return confirmationFromSession(session), nil
}

// mockConfirmation resolves synthetic sessions to a fixed paid result. The
// Mock flag is the sentinel downstream code must honor: no order, no
// invoice.
func mockConfirmation(sessionID string) *Confirmation {
	return &Confirmation{
		SessionID:     sessionID,
		PaymentStatus: enums.PaymentStatusPaid,
		CustomerEmail: "mock@example.test",
		CustomerName:  "Mock Customer",
		AmountTotal:   5000,
		Currency:      enums.CurrencyINR,
		Metadata:      map[string]string{"mock": "true"},
		LineItems: []models.OrderLineItem{
			{ProductID: "mock-product", Quantity: 1, UnitPrice: 5000},
		},
		Mock: true,
	}
}

func confirmationFromSession(session *stripe.CheckoutSession) *Confirmation {
	confirmation := &Confirmation{
		SessionID:     session.ID,
		PaymentStatus: enums.PaymentStatus(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      enums.Currency(session.Currency),
		Metadata:      session.Metadata,
	}

	if session.CustomerDetails != nil {
		confirmation.CustomerEmail = session.CustomerDetails.Email
		confirmation.CustomerName = session.CustomerDetails.Name
	}
	if session.PaymentIntent != nil {
		confirmation.PaymentIntentID = session.PaymentIntent.ID
	}
	if session.Invoice != nil {
		confirmation.InvoiceID = session.Invoice.ID
	}
	if session.LineItems != nil {
		confirmation.LineItems = lineItemsFromSession(session.LineItems.Data)
	}

	return confirmation
}

func lineItemsFromSession(items []*stripe.LineItem) []models.OrderLineItem {
	out := make([]models.OrderLineItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		line := models.OrderLineItem{Quantity: int(item.Quantity)}
		if item.Price != nil {
			line.UnitPrice = item.Price.UnitAmount
			line.VariantID = item.Price.Metadata["variant_id"]
			line.Size = item.Price.Metadata["size"]
			if item.Price.Product != nil {
				line.ProductID = item.Price.Product.ID
			}
		}
		out = append(out, line)
	}
	return out
}

func mapGatewayError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "checkout session not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirmation fetch failed")
}
