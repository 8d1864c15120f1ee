package controllers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/api/validators"
	"github.com/ateliermora/storefront-backend/internal/invoices"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
	"github.com/ateliermora/storefront-backend/pkg/storage"
)

type invoiceStatusProvider interface {
	Status(ctx context.Context, orderID string) (invoices.StatusResult, error)
}

// InvoiceStatus answers readiness polls. Unknown sessions report not ready
// rather than erroring, so pollers treat "too early" and "never existed"
// identically.
func InvoiceStatus(svc invoiceStatusProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sessionID, err := validators.RequireQuery(r, "session_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Status(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// InvoiceFile streams a stored invoice PDF.
func InvoiceFile(store storage.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fileName := chi.URLParam(r, "fileName")
		if !validFileName(fileName) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice file name"))
			return
		}

		reader, err := store.Open(ctx, fileName)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "invoice not found"))
			return
		}
		defer reader.Close()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="`+fileName+`"`)
		if _, err := io.Copy(w, reader); err != nil {
			logg.Error(ctx, "streaming invoice file", err)
		}
	}
}

// validFileName rejects anything that could leave the invoice directory.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return false
	}
	return strings.HasSuffix(name, ".pdf")
}
