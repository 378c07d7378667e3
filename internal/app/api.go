package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/realty-erp/realty-erp/internal/analytics"
	analytichttp "github.com/realty-erp/realty-erp/internal/analytics/http"
	"github.com/realty-erp/realty-erp/internal/auth"
	"github.com/realty-erp/realty-erp/internal/invoices"
	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/observability"
	"github.com/realty-erp/realty-erp/internal/payments"
	"github.com/realty-erp/realty-erp/internal/rbac"
	"github.com/realty-erp/realty-erp/internal/reports"
	"github.com/realty-erp/realty-erp/internal/shared"
	"github.com/realty-erp/realty-erp/internal/users"
	"github.com/realty-erp/realty-erp/jobs"
)

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// APIDeps carries the infrastructure the HTTP API is assembled from. Cache,
// Audit, Metrics and Jobs are optional.
type APIDeps struct {
	Config  *Config
	Logger  *slog.Logger
	Store   ledger.Store
	Cache   *analytics.Cache
	Audit   AuditRecorder
	Metrics *observability.Metrics
	Jobs    *jobs.Handler
}

// NewAPI wires services and handlers over deps and returns the router.
func NewAPI(deps APIDeps) (http.Handler, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	guard := rbac.Middleware{Logger: logger}
	reportsGuard := rbac.Middleware{Logger: logger, Disabled: cfg.ReportsPublic}

	var (
		paymentsAudit payments.Auditor
		invoicesAudit invoices.Auditor
		usersAudit    users.Auditor
	)
	if deps.Audit != nil {
		paymentsAudit, invoicesAudit, usersAudit = deps.Audit, deps.Audit, deps.Audit
	}
	var reconcileMetrics payments.Metrics
	if deps.Metrics != nil {
		reconcileMetrics = deps.Metrics
	}

	paymentsService := payments.NewService(deps.Store, payments.Options{
		Cache:   deps.Cache,
		Audit:   paymentsAudit,
		Metrics: reconcileMetrics,
		Logger:  logger,
		Timeout: cfg.ReconcileTimeout,
	})
	invoicesService := invoices.NewService(deps.Store, deps.Cache, invoicesAudit, logger)
	usersService := users.NewService(deps.Store, usersAudit, logger)
	analyticsService := analytics.NewService(deps.Store, deps.Cache, logger)
	reportsService := reports.NewService(deps.Store)

	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		PaymentsHandler:  payments.NewHandler(logger, paymentsService, guard),
		InvoicesHandler:  invoices.NewHandler(logger, invoicesService, guard),
		UsersHandler:     users.NewHandler(logger, usersService, guard),
		AnalyticsHandler: analytichttp.NewHandler(logger, analyticsService, guard),
		ReportsHandler:   reports.NewHandler(logger, reportsService, reportsGuard),
		JobHandler:       deps.Jobs,
		Metrics:          deps.Metrics,
	}), nil
}
