package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realty-erp/realty-erp/internal/platform/db"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// PostgresStore provides PostgreSQL backed persistence for the ledger.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a store over the shared pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// SQLSTATE codes the store classifies.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
)

// classify maps driver errors onto the shared taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, shared.ErrNotFound)
	}
	if shared.IsCanceled(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, shared.ErrConflict, pgErr.Message)
		case codeForeignKeyViolation, codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, shared.ErrInvalidArgument, pgErr.Message)
		}
	}
	return shared.StoreFailure(op, err)
}

func nullableInt8(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// collect scans every row with scan, closing rows on return.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// --- Invoices ---

const invoiceColumns = `id, client_id, amount, invoice_date, due_date, status, description, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var status string
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.Amount, &inv.Date, &inv.DueDate, &status,
		&inv.Description, &inv.CreatedAt, &inv.UpdatedAt)
	inv.Status = InvoiceStatus(status)
	return inv, err
}

// GetInvoice implements Reader.
func (s *PostgresStore) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, classify("ledger: get invoice", err)
	}
	return &inv, nil
}

// ListInvoices implements Reader.
func (s *PostgresStore) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY id`)
	if err != nil {
		return nil, classify("ledger: list invoices", err)
	}
	out, err := collect(rows, scanInvoice)
	if err != nil {
		return nil, classify("ledger: list invoices", err)
	}
	return out, nil
}

// CreateInvoice stores a new PENDING invoice.
func (s *PostgresStore) CreateInvoice(ctx context.Context, input Invoice) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, `
		INSERT INTO invoices (client_id, amount, invoice_date, due_date, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'PENDING', $5, NOW(), NOW())
		RETURNING `+invoiceColumns,
		input.ClientID, input.Amount, input.Date, input.DueDate, input.Description))
	if err != nil {
		return nil, classify("ledger: create invoice", err)
	}
	return &inv, nil
}

// --- Payments ---

const paymentColumns = `id, invoice_id, amount, payment_date, status, method, reference, note, recorded_by, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	var status string
	var recordedBy pgtype.Int8
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Date, &status, &p.Method,
		&p.Reference, &p.Note, &recordedBy, &p.CreatedAt)
	p.Status = PaymentStatus(status)
	if recordedBy.Valid {
		p.RecordedBy = recordedBy.Int64
	}
	return p, err
}

// GetPayment implements Reader.
func (s *PostgresStore) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, classify("ledger: get payment", err)
	}
	return &p, nil
}

// ListPayments implements Reader.
func (s *PostgresStore) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE ($1::bigint = 0 OR invoice_id = $1)
		ORDER BY id`, invoiceID)
	if err != nil {
		return nil, classify("ledger: list payments", err)
	}
	out, err := collect(rows, scanPayment)
	if err != nil {
		return nil, classify("ledger: list payments", err)
	}
	return out, nil
}

// --- Projects, clients, tasks, users ---

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Location, &p.Status, &p.ClientIDs, &p.CreatedAt)
	if p.ClientIDs == nil {
		p.ClientIDs = []int64{}
	}
	return p, err
}

const projectSelect = `
	SELECT p.id, p.name, p.location, p.status,
	       COALESCE(ARRAY(SELECT pc.client_id FROM project_clients pc WHERE pc.project_id = p.id ORDER BY pc.client_id), '{}'::bigint[]),
	       p.created_at
	FROM projects p`

// ListProjects implements Reader.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, projectSelect+` ORDER BY p.id`)
	if err != nil {
		return nil, classify("ledger: list projects", err)
	}
	out, err := collect(rows, scanProject)
	if err != nil {
		return nil, classify("ledger: list projects", err)
	}
	return out, nil
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	return c, err
}

// ListClients implements Reader.
func (s *PostgresStore) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email, phone FROM clients ORDER BY id`)
	if err != nil {
		return nil, classify("ledger: list clients", err)
	}
	out, err := collect(rows, scanClient)
	if err != nil {
		return nil, classify("ledger: list clients", err)
	}
	return out, nil
}

// ListTasks implements Reader.
func (s *PostgresStore) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, project_id, title, status, assignee_id FROM tasks ORDER BY id`)
	if err != nil {
		return nil, classify("ledger: list tasks", err)
	}
	out, err := collect(rows, func(row pgx.Row) (Task, error) {
		var t Task
		var projectID, assigneeID pgtype.Int8
		err := row.Scan(&t.ID, &projectID, &t.Title, &t.Status, &assigneeID)
		t.ProjectID = nullableInt8(projectID)
		t.AssigneeID = nullableInt8(assigneeID)
		return t, err
	})
	if err != nil {
		return nil, classify("ledger: list tasks", err)
	}
	return out, nil
}

const userColumns = `id, email, name, role, password_hash, is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	return u, err
}

// ListUsers implements Reader.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, classify("ledger: list users", err)
	}
	out, err := collect(rows, scanUser)
	if err != nil {
		return nil, classify("ledger: list users", err)
	}
	return out, nil
}

// CreateUser stores a new user. A duplicate email maps to ErrConflict.
func (s *PostgresStore) CreateUser(ctx context.Context, input User) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+userColumns,
		input.Email, input.Name, input.Role, input.PasswordHash, input.IsActive))
	if err != nil {
		return nil, classify("ledger: create user", err)
	}
	return &u, nil
}

// --- Reporting reads ---

// ListApplicantPaymentFiles implements Reader.
func (s *PostgresStore) ListApplicantPaymentFiles(ctx context.Context) ([]ApplicantPaymentFile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, booking_id, file_number, status, created_at
		FROM applicant_payment_files ORDER BY id`)
	if err != nil {
		return nil, classify("ledger: list applicant payment files", err)
	}
	out, err := collect(rows, func(row pgx.Row) (ApplicantPaymentFile, error) {
		var f ApplicantPaymentFile
		var bookingID pgtype.Int8
		err := row.Scan(&f.ID, &bookingID, &f.FileNumber, &f.Status, &f.CreatedAt)
		f.BookingID = nullableInt8(bookingID)
		return f, err
	})
	if err != nil {
		return nil, classify("ledger: list applicant payment files", err)
	}
	return out, nil
}

const propertyColumns = `id, project_id, phase_id, unit_number, unit_type, area_sqft, price, status`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	var phaseID pgtype.Int8
	err := row.Scan(&p.ID, &p.ProjectID, &phaseID, &p.UnitNumber, &p.Type, &p.AreaSqft, &p.Price, &p.Status)
	p.PhaseID = nullableInt8(phaseID)
	return p, err
}

// ListUnits implements Reader.
func (s *PostgresStore) ListUnits(ctx context.Context, filter UnitFilter) ([]Property, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+propertyColumns+` FROM properties
		WHERE ($1::bigint = 0 OR project_id = $1)
		  AND ($2::text = '' OR UPPER(status) = UPPER($2))
		ORDER BY id`, filter.ProjectID, filter.Status)
	if err != nil {
		return nil, classify("ledger: list units", err)
	}
	out, err := collect(rows, scanProperty)
	if err != nil {
		return nil, classify("ledger: list units", err)
	}
	return out, nil
}

// --- Resolver ---

// byIDs runs query with ids bound to $1 and indexes the rows by key.
func byIDs[T any](ctx context.Context, pool *pgxpool.Pool, op, query string, ids []int64,
	scan func(pgx.Row) (T, error), key func(T) int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := pool.Query(ctx, query, ids)
	if err != nil {
		return nil, classify(op, err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return nil, classify(op, err)
	}
	for _, item := range items {
		out[key(item)] = item
	}
	return out, nil
}

// BookingsByID implements Resolver.
func (s *PostgresStore) BookingsByID(ctx context.Context, ids []int64) (map[int64]Booking, error) {
	return byIDs(ctx, s.pool, "ledger: bookings by id", `
		SELECT id, project_id, client_id, property_id, broker_id, sales_employee_id, payment_plan_id, booking_date, amount
		FROM bookings WHERE id = ANY($1)`, ids,
		func(row pgx.Row) (Booking, error) {
			var b Booking
			var project, client, property, broker, sales, plan pgtype.Int8
			err := row.Scan(&b.ID, &project, &client, &property, &broker, &sales, &plan, &b.BookingDate, &b.Amount)
			b.ProjectID = nullableInt8(project)
			b.ClientID = nullableInt8(client)
			b.PropertyID = nullableInt8(property)
			b.BrokerID = nullableInt8(broker)
			b.SalesEmployeeID = nullableInt8(sales)
			b.PaymentPlanID = nullableInt8(plan)
			return b, err
		},
		func(b Booking) int64 { return b.ID })
}

// ProjectsByID implements Resolver.
func (s *PostgresStore) ProjectsByID(ctx context.Context, ids []int64) (map[int64]Project, error) {
	return byIDs(ctx, s.pool, "ledger: projects by id", projectSelect+` WHERE p.id = ANY($1)`, ids,
		scanProject, func(p Project) int64 { return p.ID })
}

// ClientsByID implements Resolver.
func (s *PostgresStore) ClientsByID(ctx context.Context, ids []int64) (map[int64]Client, error) {
	return byIDs(ctx, s.pool, "ledger: clients by id",
		`SELECT id, name, email, phone FROM clients WHERE id = ANY($1)`, ids,
		scanClient, func(c Client) int64 { return c.ID })
}

// PropertiesByID implements Resolver.
func (s *PostgresStore) PropertiesByID(ctx context.Context, ids []int64) (map[int64]Property, error) {
	return byIDs(ctx, s.pool, "ledger: properties by id",
		`SELECT `+propertyColumns+` FROM properties WHERE id = ANY($1)`, ids,
		scanProperty, func(p Property) int64 { return p.ID })
}

// BrokersByID implements Resolver.
func (s *PostgresStore) BrokersByID(ctx context.Context, ids []int64) (map[int64]Broker, error) {
	return byIDs(ctx, s.pool, "ledger: brokers by id",
		`SELECT id, name, email, phone FROM brokers WHERE id = ANY($1)`, ids,
		func(row pgx.Row) (Broker, error) {
			var b Broker
			err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone)
			return b, err
		},
		func(b Broker) int64 { return b.ID })
}

// SalesEmployeesByID implements Resolver.
func (s *PostgresStore) SalesEmployeesByID(ctx context.Context, ids []int64) (map[int64]SalesEmployee, error) {
	return byIDs(ctx, s.pool, "ledger: sales employees by id",
		`SELECT id, name, email, phone FROM sales_employees WHERE id = ANY($1)`, ids,
		func(row pgx.Row) (SalesEmployee, error) {
			var e SalesEmployee
			err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone)
			return e, err
		},
		func(e SalesEmployee) int64 { return e.ID })
}

// PaymentPlansByID implements Resolver.
func (s *PostgresStore) PaymentPlansByID(ctx context.Context, ids []int64) (map[int64]PaymentPlan, error) {
	return byIDs(ctx, s.pool, "ledger: payment plans by id",
		`SELECT id, name, installments, description FROM payment_plans WHERE id = ANY($1)`, ids,
		func(row pgx.Row) (PaymentPlan, error) {
			var p PaymentPlan
			err := row.Scan(&p.ID, &p.Name, &p.Installments, &p.Description)
			return p, err
		},
		func(p PaymentPlan) int64 { return p.ID })
}

// --- Transactions ---

// WithTx runs fn inside a repeatable-read transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	return classify("ledger: tx", err)
}

func isClassified(err error) bool {
	return errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConflict) ||
		errors.Is(err, shared.ErrInvalidArgument) || errors.Is(err, shared.ErrStoreUnavailable)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(t.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, classify("ledger: lock invoice", err)
	}
	return &inv, nil
}

func (t *pgTx) InsertPayment(ctx context.Context, input Payment) (Payment, error) {
	var recordedBy pgtype.Int8
	if input.RecordedBy > 0 {
		recordedBy = pgtype.Int8{Int64: input.RecordedBy, Valid: true}
	}
	p, err := scanPayment(t.tx.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount, payment_date, status, method, reference, note, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING `+paymentColumns,
		input.InvoiceID, input.Amount, input.Date, string(input.Status), input.Method,
		input.Reference, input.Note, recordedBy))
	if err != nil {
		return Payment{}, classify("ledger: insert payment", err)
	}
	return p, nil
}

func (t *pgTx) SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return classify("ledger: set invoice status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: set invoice status: invoice %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
