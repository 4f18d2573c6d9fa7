package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// DB is pinged on every check when set.
	DB      db.Pinger
	Timeout time.Duration
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := map[string]string{"status": "ok", "database": "unchecked"}
	if h.DB == nil {
		respondJSON(ctx, w, http.StatusOK, payload)
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := h.DB.Ping(pingCtx); err != nil {
		logging.FromContext(ctx).Warn("health check database ping failed", "error", err)
		payload["status"] = "degraded"
		payload["database"] = "unreachable"
		respondJSON(ctx, w, http.StatusServiceUnavailable, payload)
		return
	}

	payload["database"] = "ok"
	respondJSON(ctx, w, http.StatusOK, payload)
}
