// Package analytichttp serves the dashboard snapshot over HTTP.
package analytichttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/realty-erp/realty-erp/internal/analytics"
	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/rbac"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	ComputeDashboard(ctx context.Context) (analytics.DashboardSnapshot, error)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	rbac    rbac.Middleware
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshot, err := h.service.ComputeDashboard(ctx)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, snapshot)
}
