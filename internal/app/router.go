package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/realty-erp/realty-erp/internal/analytics/http"
	"github.com/realty-erp/realty-erp/internal/auth"
	"github.com/realty-erp/realty-erp/internal/invoices"
	"github.com/realty-erp/realty-erp/internal/observability"
	"github.com/realty-erp/realty-erp/internal/payments"
	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/reports"
	"github.com/realty-erp/realty-erp/internal/users"
	"github.com/realty-erp/realty-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are not mounted.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Tokens           *auth.Tokens
	PaymentsHandler  *payments.Handler
	InvoicesHandler  *invoices.Handler
	UsersHandler     *users.Handler
	AnalyticsHandler *analytichttp.Handler
	ReportsHandler   *reports.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Tokens:  params.Tokens,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.PaymentsHandler != nil {
		r.Route("/payment", params.PaymentsHandler.MountRoutes)
	}
	if params.InvoicesHandler != nil {
		r.Route("/invoices", params.InvoicesHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.AnalyticsHandler != nil {
		r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "no route for "+r.URL.Path)
	})
	return r
}
