package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/pkg/config"
	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// AdminAuth guards the operator surface with the static admin token. With
// no token configured the surface is closed entirely.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin surface is disabled"))
				return
			}

			presented := strings.TrimSpace(r.Header.Get(adminTokenHeader))
			if presented == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					presented = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}

			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Token)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
