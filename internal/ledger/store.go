package ledger

import (
	"context"
	"time"
)

// Reader exposes the read capability of the ledger. Every method returns
// shared.ErrNotFound for missing single rows and shared.ErrStoreUnavailable
// for persistence failures.
type Reader interface {
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	// ListPayments returns payments for invoiceID, or every payment when
	// invoiceID is zero.
	ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ListClients(ctx context.Context) ([]Client, error)
	ListTasks(ctx context.Context) ([]Task, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListApplicantPaymentFiles(ctx context.Context) ([]ApplicantPaymentFile, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]Property, error)
}

// Resolver loads rows by primary key in bulk. Missing keys are absent from
// the returned map rather than reported as errors.
type Resolver interface {
	BookingsByID(ctx context.Context, ids []int64) (map[int64]Booking, error)
	ProjectsByID(ctx context.Context, ids []int64) (map[int64]Project, error)
	ClientsByID(ctx context.Context, ids []int64) (map[int64]Client, error)
	PropertiesByID(ctx context.Context, ids []int64) (map[int64]Property, error)
	BrokersByID(ctx context.Context, ids []int64) (map[int64]Broker, error)
	SalesEmployeesByID(ctx context.Context, ids []int64) (map[int64]SalesEmployee, error)
	PaymentPlansByID(ctx context.Context, ids []int64) (map[int64]PaymentPlan, error)
}

// Tx is the write capability available inside a transaction.
type Tx interface {
	// LockInvoice reads the invoice and holds a write lock on it until the
	// transaction ends.
	LockInvoice(ctx context.Context, id int64) (*Invoice, error)
	InsertPayment(ctx context.Context, payment Payment) (Payment, error)
	SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus, at time.Time) error
}

// Store is the full ledger capability consumed by the service layer.
type Store interface {
	Reader
	Resolver
	// WithTx runs fn in a transaction. The writes made through Tx become
	// visible together when fn returns nil, and not at all otherwise.
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	CreateInvoice(ctx context.Context, invoice Invoice) (*Invoice, error)
	CreateUser(ctx context.Context, user User) (*User, error)
}
