package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/api/validators"
	"github.com/ateliermora/storefront-backend/pkg/db/models"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

type orderLister interface {
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

// UserOrders returns the user's consolidated purchase history.
func UserOrders(svc orderLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.RequirePathParam(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListOrders(logg.WithUserID(ctx, userID), userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": list})
	}
}
