package invoices

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/rbac"
	"github.com/realty-erp/realty-erp/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler manages invoice endpoints.
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

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.ResourceInvoices, shared.ActionView))
		r.Get("/", h.listInvoices)
		r.Get("/{id}", h.getInvoice)
	})
	r.With(h.rbac.Require(shared.ResourceInvoices, shared.ActionCreate)).Post("/", h.createInvoice)
}

type createInvoiceRequest struct {
	ClientID    int64  `json:"clientId" validate:"required,gt=0"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=500"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.BindJSON(r, h.validator, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	input := CreateInvoiceInput{
		ClientID:    req.ClientID,
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
	}
	var err error
	if input.Date, err = parseDate("date", req.Date); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if input.DueDate, err = parseDate("dueDate", req.DueDate); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		input.CreatedBy = principal.UserID
	}
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// parseDate reads an optional calendar date. Blank yields the zero time.
func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q: %w", field, raw, shared.ErrInvalidArgument)
	}
	return t, nil
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	status := ledger.InvoiceStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	invoices, err := h.service.ListInvoices(r.Context(), status)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "id must be an integer")
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}
