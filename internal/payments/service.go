package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// DefaultTimeout bounds a reconciliation transaction when none is configured.
const DefaultTimeout = 5 * time.Second

// Options carries the optional collaborators of Service.
type Options struct {
	Cache   CacheInvalidator
	Audit   Auditor
	Metrics Metrics
	Logger  *slog.Logger
	Timeout time.Duration
}

// Service records payments and settles the invoices they pay.
type Service struct {
	store   ledger.Store
	cache   CacheInvalidator
	audit   Auditor
	metrics Metrics
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
	newRef  func() string
}

// NewService wires the ledger store with the optional collaborators.
func NewService(store ledger.Store, opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:   store,
		cache:   opts.Cache,
		audit:   opts.Audit,
		metrics: opts.Metrics,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
		newRef:  func() string { return uuid.NewString() },
	}
}

// RecordPayment stores a COMPLETED payment for the invoice and marks the
// invoice PAID in the same transaction. An invoice that is already PAID is
// rejected with ErrConflict.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*ledger.Payment, error) {
	if input.InvoiceID <= 0 {
		s.observe(OutcomeInvalid, 0)
		return nil, fmt.Errorf("invoice id must be positive: %w", shared.ErrInvalidArgument)
	}
	if input.Amount <= 0 {
		s.observe(OutcomeInvalid, 0)
		return nil, fmt.Errorf("amount must be positive: %w", shared.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reference := input.Reference
	if reference == "" {
		reference = s.newRef()
	}

	var recorded ledger.Payment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		invoice, err := tx.LockInvoice(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == ledger.InvoiceStatusPaid {
			return fmt.Errorf("invoice %d already paid: %w", invoice.ID, shared.ErrConflict)
		}
		now := s.now().UTC()
		recorded, err = tx.InsertPayment(ctx, ledger.Payment{
			InvoiceID:  invoice.ID,
			Amount:     input.Amount,
			Date:       now,
			Status:     ledger.PaymentStatusCompleted,
			Method:     input.Method,
			Reference:  reference,
			Note:       input.Note,
			RecordedBy: input.RecordedBy,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}
		return tx.SetInvoiceStatus(ctx, invoice.ID, ledger.InvoiceStatusPaid, now)
	})
	if err != nil {
		s.observe(outcomeFor(err), 0)
		return nil, fmt.Errorf("payments: record: %w", err)
	}

	s.observe(OutcomeRecorded, recorded.Amount)
	s.afterCommit(ctx, recorded)
	return &recorded, nil
}

// afterCommit runs the side effects that must never fail a recorded payment.
func (s *Service) afterCommit(ctx context.Context, payment ledger.Payment) {
	ctx = context.WithoutCancel(ctx)
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("payments: bump analytics cache", slog.Int64("payment_id", payment.ID), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		entry := shared.AuditLog{
			ActorID:  payment.RecordedBy,
			Action:   shared.AuditPaymentRecorded,
			Entity:   "payment",
			EntityID: strconv.FormatInt(payment.ID, 10),
			Meta: map[string]any{
				"invoice_id": payment.InvoiceID,
				"amount":     payment.Amount,
				"reference":  payment.Reference,
			},
			At: payment.CreatedAt,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("payments: audit", slog.Int64("payment_id", payment.ID), slog.Any("error", err))
		}
	}
}

// ListPayments returns payments for an invoice, or all payments when
// invoiceID is zero.
func (s *Service) ListPayments(ctx context.Context, invoiceID int64) ([]ledger.Payment, error) {
	if invoiceID < 0 {
		return nil, fmt.Errorf("invoice id must not be negative: %w", shared.ErrInvalidArgument)
	}
	payments, err := s.store.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	return payments, nil
}

// GetPayment returns a single payment.
func (s *Service) GetPayment(ctx context.Context, id int64) (*ledger.Payment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("payment id must be positive: %w", shared.ErrInvalidArgument)
	}
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("payments: get: %w", err)
	}
	return payment, nil
}

func (s *Service) observe(outcome string, amount int64) {
	if s.metrics != nil {
		s.metrics.RecordReconciliation(outcome, amount)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, shared.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, shared.ErrInvalidArgument):
		return OutcomeInvalid
	case shared.IsCanceled(err):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
