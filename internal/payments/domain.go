// Package payments reconciles incoming payments against invoices.
package payments

import (
	"context"

	"github.com/realty-erp/realty-erp/internal/shared"
)

// RecordPaymentInput captures a payment reported by an operator.
type RecordPaymentInput struct {
	InvoiceID  int64
	Amount     int64
	Method     string
	Reference  string
	Note       string
	RecordedBy int64
}

// Reconciliation outcomes reported to metrics.
const (
	OutcomeRecorded = "recorded"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// CacheInvalidator drops derived snapshots after a committed reconciliation.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Auditor persists audit trail entries.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics receives reconciliation counters.
type Metrics interface {
	RecordReconciliation(outcome string, amount int64)
}
