package reports

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/rbac"
	"github.com/realty-erp/realty-erp/internal/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceReports, shared.ActionView))
		r.Get("/applicant-payment-file", h.applicantPaymentReport)
		r.Get("/applicant-payment-file/export", h.exportApplicantPaymentReport)
		r.Get("/unit-status", h.unitStatus)
	})
}

func (h *Handler) applicantPaymentReport(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ApplicantPaymentReport(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) exportApplicantPaymentReport(w http.ResponseWriter, r *http.Request) {
	// Buffer so a failure can still be reported as a problem document.
	var buf bytes.Buffer
	if err := h.service.ExportApplicantPaymentReport(r.Context(), &buf); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="applicant-payment-file.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil && h.logger != nil {
		h.logger.Warn("reports: write export", slog.Any("error", err))
	}
}

func (h *Handler) unitStatus(w http.ResponseWriter, r *http.Request) {
	var filter UnitStatusFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("project_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "project_id must be an integer")
			return
		}
		filter.ProjectID = id
	}
	filter.Status = strings.TrimSpace(r.URL.Query().Get("status"))

	views, err := h.service.UnitStatus(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}
