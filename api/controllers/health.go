package controllers

import (
	"context"
	"net/http"

	"github.com/ateliermora/storefront-backend/api/responses"
	"github.com/ateliermora/storefront-backend/pkg/config"
	"github.com/ateliermora/storefront-backend/pkg/logger"
)

const envHeader = "X-Atelier-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency ping.
type HealthCheck struct {
	Name   string
	Pinger pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every wired dependency and reports per-dependency
// state. Any failure returns 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx := r.Context()
		status := map[string]string{}
		healthy := true

		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				healthy = false
				status[check.Name] = "unreachable"
				if logg != nil {
					logg.Error(ctx, check.Name+" readiness ping failed", err)
				}
				continue
			}
			status[check.Name] = "ok"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
