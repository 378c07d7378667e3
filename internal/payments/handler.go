package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/rbac"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// Handler exposes payment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(shared.ResourcePayments, shared.ActionCreate)).Post("/", h.recordPayment)
	r.With(h.rbac.Require(shared.ResourcePayments, shared.ActionView)).Get("/", h.listPayments)
	r.With(h.rbac.Require(shared.ResourcePayments, shared.ActionView)).Get("/{id}", h.getPayment)
}

type recordPaymentRequest struct {
	InvoiceID int64  `json:"invoiceId" validate:"required,gt=0"`
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Method    string `json:"method" validate:"omitempty,max=32"`
	Reference string `json:"reference" validate:"omitempty,max=128"`
	Note      string `json:"note" validate:"omitempty,max=512"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := httpx.BindJSON(r, h.validator, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	input := RecordPaymentInput{
		InvoiceID: req.InvoiceID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Note:      req.Note,
	}
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		input.RecordedBy = principal.UserID
	}
	payment, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	var invoiceID int64
	if raw := r.URL.Query().Get("invoice_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invoice_id must be an integer")
			return
		}
		invoiceID = parsed
	}
	payments, err := h.service.ListPayments(r.Context(), invoiceID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be an integer")
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}
