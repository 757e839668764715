package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger is the health probe the handler runs against the database.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers liveness probes. GET /healthz.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HandleHealth reports ok when the database answers a ping.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, envelope{
			Success: false,
			Error:   "database unavailable",
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
