package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ateliermora/storefront-backend/pkg/config"
)

func adminProtected(cfg config.AdminConfig) http.Handler {
	return AdminAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAdminAuthAcceptsHeaderToken(t *testing.T) {
	handler := adminProtected(config.AdminConfig{Token: "s3cret"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/u/consolidate", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAuthAcceptsBearerToken(t *testing.T) {
	handler := adminProtected(config.AdminConfig{Token: "s3cret"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/u/consolidate", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAuthRejectsBadToken(t *testing.T) {
	handler := adminProtected(config.AdminConfig{Token: "s3cret"})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/u/consolidate", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthClosedWithoutConfiguredToken(t *testing.T) {
	handler := adminProtected(config.AdminConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/u/consolidate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
