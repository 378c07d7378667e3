// Package invoices creates and reads client invoices. Settlement status is
// owned by the payments package.
package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	GetInvoice(ctx context.Context, id int64) (*ledger.Invoice, error)
	ListInvoices(ctx context.Context) ([]ledger.Invoice, error)
	CreateInvoice(ctx context.Context, invoice ledger.Invoice) (*ledger.Invoice, error)
}

// CacheInvalidator drops derived dashboard snapshots.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Auditor persists audit trail entries.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CreateInvoiceInput carries a new invoice.
type CreateInvoiceInput struct {
	ClientID    int64
	Amount      int64
	Date        time.Time
	DueDate     time.Time
	Description string
	CreatedBy   int64
}

// Service handles invoice business logic.
type Service struct {
	repo   RepositoryPort
	cache  CacheInvalidator
	audit  Auditor
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance. cache, audit and logger may be nil.
func NewService(repo RepositoryPort, cache CacheInvalidator, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, now: time.Now}
}

// CreateInvoice stores a PENDING invoice. Date defaults to today and the due
// date may not precede it.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*ledger.Invoice, error) {
	if input.ClientID <= 0 {
		return nil, fmt.Errorf("client id must be positive: %w", shared.ErrInvalidArgument)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", shared.ErrInvalidArgument)
	}
	if input.Date.IsZero() {
		input.Date = s.now().UTC().Truncate(24 * time.Hour)
	}
	if input.DueDate.IsZero() {
		input.DueDate = input.Date
	}
	if input.DueDate.Before(input.Date) {
		return nil, fmt.Errorf("due date before invoice date: %w", shared.ErrInvalidArgument)
	}

	inv, err := s.repo.CreateInvoice(ctx, ledger.Invoice{
		ClientID:    input.ClientID,
		Amount:      input.Amount,
		Date:        input.Date,
		DueDate:     input.DueDate,
		Description: input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("invoices: create: %w", err)
	}

	s.afterCreate(ctx, inv, input.CreatedBy)
	return inv, nil
}

// afterCreate runs the side effects that must never fail a stored invoice.
func (s *Service) afterCreate(ctx context.Context, inv *ledger.Invoice, actor int64) {
	ctx = context.WithoutCancel(ctx)
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("invoices: bump analytics cache", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor,
			Action:   shared.AuditInvoiceCreated,
			Entity:   "invoice",
			EntityID: strconv.FormatInt(inv.ID, 10),
			Meta:     map[string]any{"client_id": inv.ClientID, "amount": inv.Amount},
		})
		if err != nil {
			s.logger.Warn("invoices: audit", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
		}
	}
}

// GetInvoice returns a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*ledger.Invoice, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invoice id must be positive: %w", shared.ErrInvalidArgument)
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoices: get: %w", err)
	}
	return inv, nil
}

// ListInvoices returns every invoice, optionally narrowed to one status.
func (s *Service) ListInvoices(ctx context.Context, status ledger.InvoiceStatus) ([]ledger.Invoice, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, shared.ErrInvalidArgument)
	}
	all, err := s.repo.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	if status == "" {
		return all, nil
	}
	out := make([]ledger.Invoice, 0, len(all))
	for _, inv := range all {
		if inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}
