package handlers

import (
	"context"
	"log/slog"
	"net/http"

	pkghttp "github.com/BradenHooton/citypulse/pkg/http"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	store  HealthChecker
	driver string
	logger *slog.Logger
}

func NewHealthHandler(store HealthChecker, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("driver", h.driver), slog.Any("error", err))
		pkghttp.WriteError(w, http.StatusServiceUnavailable, pkghttp.CodeUnavailable, "Store unavailable")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": h.driver})
}
