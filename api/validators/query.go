package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/ateliermora/storefront-backend/pkg/errors"
)

// RequireQuery returns the trimmed query value or a validation error.
func RequireQuery(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// RequirePathParam validates a chi URL parameter is present.
func RequirePathParam(value, name string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").
			WithDetails(map[string]any{"field": name})
	}
	return value, nil
}
