package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"zemon/zemon/utils/logging"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthController struct {
	checks map[string]Check
}

func NewHealthController() *HealthController {
	return &HealthController{checks: map[string]Check{}}
}

func (h *HealthController) AddCheck(name string, c Check) {
	h.checks[name] = c
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logging.ErrorLogger.Error("health check failed", zap.String("check", name), zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "degraded"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
