// Package analytics computes the dashboard snapshot from the ledger.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// computeTimeout bounds a shared computation once callers have joined it.
const computeTimeout = 10 * time.Second

// Repository is the subset of the ledger read by the dashboard.
type Repository interface {
	ListProjects(ctx context.Context) ([]ledger.Project, error)
	ListClients(ctx context.Context) ([]ledger.Client, error)
	ListInvoices(ctx context.Context) ([]ledger.Invoice, error)
	ListTasks(ctx context.Context) ([]ledger.Task, error)
	ListUsers(ctx context.Context) ([]ledger.User, error)
}

// Counts reports the size of each collection read.
type Counts struct {
	Projects int `json:"projects"`
	Clients  int `json:"clients"`
	Invoices int `json:"invoices"`
	Tasks    int `json:"tasks"`
	Users    int `json:"users"`
}

// DashboardSnapshot is the aggregate served to the dashboard.
type DashboardSnapshot struct {
	KPIs          []KPI         `json:"kpis"`
	TotalRevenue  int64         `json:"totalRevenue"`
	ProjectStatus []StatusCount `json:"projectStatus"`
	Counts        Counts        `json:"counts"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// Service coordinates dashboard computation with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// ComputeDashboard returns the current snapshot, from cache when a fresh
// one exists. Concurrent callers share one computation.
func (s *Service) ComputeDashboard(ctx context.Context) (DashboardSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return DashboardSnapshot{}, err
	}
	key, err := s.cache.BuildKey(ctx, keyDashboard())
	if err != nil {
		s.logger.Warn("analytics: cache version", slog.Any("error", err))
		return s.shared(ctx, keyDashboard(), false)
	}
	var snapshot DashboardSnapshot
	hit, err := s.cache.GetJSON(ctx, key, &snapshot)
	if err != nil {
		s.logger.Warn("analytics: cache read", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		return snapshot, nil
	}
	return s.shared(ctx, key, err == nil)
}

// Warm recomputes the snapshot and stores it under the current version.
func (s *Service) Warm(ctx context.Context) (DashboardSnapshot, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard())
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("analytics: warm: %w", shared.StoreFailure("cache version", err))
	}
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return DashboardSnapshot{}, err
	}
	if err := s.cache.SetJSON(ctx, key, snapshot); err != nil {
		return DashboardSnapshot{}, fmt.Errorf("analytics: warm: %w", shared.StoreFailure("cache write", err))
	}
	return snapshot, nil
}

func (s *Service) shared(ctx context.Context, key string, store bool) (DashboardSnapshot, error) {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		// Detached so one caller going away does not fail the others.
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		snapshot, err := s.snapshot(computeCtx)
		if err != nil {
			return DashboardSnapshot{}, err
		}
		if store {
			if err := s.cache.SetJSON(computeCtx, key, snapshot); err != nil {
				s.logger.Warn("analytics: cache write", slog.String("key", key), slog.Any("error", err))
			}
		}
		return snapshot, nil
	})
	select {
	case <-ctx.Done():
		return DashboardSnapshot{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return DashboardSnapshot{}, res.Err
		}
		return res.Val.(DashboardSnapshot), nil
	}
}

// snapshot reads the five collections concurrently and reduces them.
func (s *Service) snapshot(ctx context.Context) (DashboardSnapshot, error) {
	var (
		projects []ledger.Project
		clients  []ledger.Client
		invoices []ledger.Invoice
		tasks    []ledger.Task
		users    []ledger.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.repo.ListProjects(gctx)
		return err
	})
	g.Go(func() (err error) {
		clients, err = s.repo.ListClients(gctx)
		return err
	})
	g.Go(func() (err error) {
		invoices, err = s.repo.ListInvoices(gctx)
		return err
	})
	g.Go(func() (err error) {
		tasks, err = s.repo.ListTasks(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.repo.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if shared.IsCanceled(err) && ctx.Err() != nil {
			return DashboardSnapshot{}, fmt.Errorf("analytics: dashboard: %w", ctx.Err())
		}
		return DashboardSnapshot{}, fmt.Errorf("analytics: dashboard: %w: %w", shared.ErrStoreUnavailable, err)
	}

	revenue := TotalRevenue(invoices)
	return DashboardSnapshot{
		KPIs:          BuildKPIs(revenue, len(projects), len(clients)),
		TotalRevenue:  revenue,
		ProjectStatus: StatusHistogram(projects),
		Counts: Counts{
			Projects: len(projects),
			Clients:  len(clients),
			Invoices: len(invoices),
			Tasks:    len(tasks),
			Users:    len(users),
		},
		GeneratedAt: s.now().UTC(),
	}, nil
}
