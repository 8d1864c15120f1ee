package controllers

import (
	"context"
	"net/http"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/api/validators"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/internal/payments"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

type confirmationFetcher interface {
	Fetch(ctx context.Context, sessionID string) (*payments.Confirmation, error)
}

type checkoutReconciler interface {
	Reconcile(ctx context.Context, confirmation *payments.Confirmation) (orders.ReconcileResult, error)
}

type invoiceDispatcher interface {
	Dispatch(ctx context.Context, orderID string)
}

type checkoutSuccessResponse struct {
	Order   models.Order `json:"order"`
	Created bool         `json:"created"`
	Mock    bool         `json:"mock,omitempty"`
}

// CheckoutSuccess finalizes a settled checkout session. Safe to replay: the
// same session always resolves to the same order.
func CheckoutSuccess(fetcher confirmationFetcher, reconciler checkoutReconciler, dispatcher invoiceDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sessionID, err := validators.RequireQuery(r, "session_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithSessionID(ctx, sessionID)

		confirmation, err := fetcher.Fetch(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := reconciler.Reconcile(ctx, confirmation)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Replays dispatch too: generation is keyed by order id and a ready
		// artifact is a no-op, so a failed earlier attempt gets another shot.
		if !result.Mock && dispatcher != nil {
			dispatcher.Dispatch(ctx, result.Order.OrderID)
		}

		responses.WriteSuccess(w, checkoutSuccessResponse{
			Order:   result.Order,
			Created: result.Created,
			Mock:    result.Mock,
		})
	}
}
