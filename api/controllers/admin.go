package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/api/validators"
	"github.com/ateliermora/storefront-backend/internal/orders"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

type orderConsolidator interface {
	Consolidate(ctx context.Context, userID string) (orders.ConsolidationReport, error)
}

type invoiceRetrier interface {
	Retry(ctx context.Context, orderID string) error
}

// AdminConsolidateOrders merges a user's order fragments into one canonical
// record.
func AdminConsolidateOrders(svc orderConsolidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.RequirePathParam(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Consolidate(logg.WithUserID(ctx, userID), userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// AdminRetryInvoice re-queues generation for a failed invoice.
func AdminRetryInvoice(svc invoiceRetrier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.RequirePathParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Retry(logg.WithOrderID(ctx, orderID), orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}
