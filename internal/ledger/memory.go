package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/realty-erp/realty-erp/internal/shared"
)

// table keeps rows keyed by id together with their insertion order.
type table[T any] struct {
	seq   int64
	order []int64
	rows  map[int64]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

// assign returns id, or the next sequence value when id is zero.
func (t *table[T]) assign(id int64) int64 {
	if id == 0 {
		t.seq++
		return t.seq
	}
	if id > t.seq {
		t.seq = id
	}
	return id
}

func (t *table[T]) put(id int64, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) list() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) byIDs(ids []int64) map[int64]T {
	out := make(map[int64]T, len(ids))
	for _, id := range ids {
		if row, ok := t.rows[id]; ok {
			out[id] = row
		}
	}
	return out
}

// MemoryStore is a process-local Store. Transactions are serialised by a
// store-wide mutex and their writes are applied at commit, so readers never
// observe a half-finished reconciliation.
type MemoryStore struct {
	txMu sync.Mutex

	mu             sync.RWMutex
	invoices       *table[Invoice]
	payments       *table[Payment]
	projects       *table[Project]
	phases         *table[Phase]
	properties     *table[Property]
	clients        *table[Client]
	brokers        *table[Broker]
	salesEmployees *table[SalesEmployee]
	paymentPlans   *table[PaymentPlan]
	bookings       *table[Booking]
	files          *table[ApplicantPaymentFile]
	tasks          *table[Task]
	users          *table[User]
	communications *table[Communication]

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:       newTable[Invoice](),
		payments:       newTable[Payment](),
		projects:       newTable[Project](),
		phases:         newTable[Phase](),
		properties:     newTable[Property](),
		clients:        newTable[Client](),
		brokers:        newTable[Broker](),
		salesEmployees: newTable[SalesEmployee](),
		paymentPlans:   newTable[PaymentPlan](),
		bookings:       newTable[Booking](),
		files:          newTable[ApplicantPaymentFile](),
		tasks:          newTable[Task](),
		users:          newTable[User](),
		communications: newTable[Communication](),
		now:            time.Now,
	}
}

// Seed helpers. They assign an id when the row carries none and return the
// stored row.

func (s *MemoryStore) PutInvoice(row Invoice) Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.invoices.assign(row.ID)
	if row.Status == "" {
		row.Status = InvoiceStatusPending
	}
	s.invoices.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutPayment(row Payment) Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.payments.assign(row.ID)
	s.payments.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutProject(row Project) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.projects.assign(row.ID)
	row.ClientIDs = slices.Clone(row.ClientIDs)
	s.projects.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutPhase(row Phase) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.phases.assign(row.ID)
	s.phases.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutProperty(row Property) Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.properties.assign(row.ID)
	s.properties.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutClient(row Client) Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.clients.assign(row.ID)
	s.clients.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutBroker(row Broker) Broker {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.brokers.assign(row.ID)
	s.brokers.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutSalesEmployee(row SalesEmployee) SalesEmployee {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.salesEmployees.assign(row.ID)
	s.salesEmployees.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutPaymentPlan(row PaymentPlan) PaymentPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.paymentPlans.assign(row.ID)
	s.paymentPlans.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutBooking(row Booking) Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.bookings.assign(row.ID)
	s.bookings.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutApplicantPaymentFile(row ApplicantPaymentFile) ApplicantPaymentFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.files.assign(row.ID)
	s.files.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutTask(row Task) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.tasks.assign(row.ID)
	s.tasks.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutUser(row User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.users.assign(row.ID)
	s.users.put(row.ID, row)
	return row
}

func (s *MemoryStore) PutCommunication(row Communication) Communication {
	s.mu.Lock()
	defer s.mu.Unlock()
	row.ID = s.communications.assign(row.ID)
	s.communications.put(row.ID, row)
	return row
}

// GetInvoice implements Reader.
func (s *MemoryStore) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.invoices.get(id)
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	return &row, nil
}

// ListInvoices implements Reader.
func (s *MemoryStore) ListInvoices(ctx context.Context) ([]Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invoices.list(), nil
}

// GetPayment implements Reader.
func (s *MemoryStore) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.payments.get(id)
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
	}
	return &row, nil
}

// ListPayments implements Reader.
func (s *MemoryStore) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.payments.list()
	if invoiceID == 0 {
		return all, nil
	}
	out := all[:0]
	for _, p := range all {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListProjects implements Reader.
func (s *MemoryStore) ListProjects(ctx context.Context) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.projects.list()
	for i := range out {
		out[i].ClientIDs = slices.Clone(out[i].ClientIDs)
	}
	return out, nil
}

// ListClients implements Reader.
func (s *MemoryStore) ListClients(ctx context.Context) ([]Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.list(), nil
}

// ListTasks implements Reader.
func (s *MemoryStore) ListTasks(ctx context.Context) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.list(), nil
}

// ListUsers implements Reader.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users.list(), nil
}

// ListApplicantPaymentFiles implements Reader.
func (s *MemoryStore) ListApplicantPaymentFiles(ctx context.Context) ([]ApplicantPaymentFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files.list(), nil
}

// ListUnits implements Reader.
func (s *MemoryStore) ListUnits(ctx context.Context, filter UnitFilter) ([]Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.properties.list()
	out := all[:0]
	for _, p := range all {
		if filter.ProjectID != 0 && p.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(p.Status, filter.Status) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// BookingsByID implements Resolver.
func (s *MemoryStore) BookingsByID(ctx context.Context, ids []int64) (map[int64]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookings.byIDs(ids), nil
}

// ProjectsByID implements Resolver.
func (s *MemoryStore) ProjectsByID(ctx context.Context, ids []int64) (map[int64]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.projects.byIDs(ids)
	for id, p := range out {
		p.ClientIDs = slices.Clone(p.ClientIDs)
		out[id] = p
	}
	return out, nil
}

// ClientsByID implements Resolver.
func (s *MemoryStore) ClientsByID(ctx context.Context, ids []int64) (map[int64]Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients.byIDs(ids), nil
}

// PropertiesByID implements Resolver.
func (s *MemoryStore) PropertiesByID(ctx context.Context, ids []int64) (map[int64]Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.properties.byIDs(ids), nil
}

// BrokersByID implements Resolver.
func (s *MemoryStore) BrokersByID(ctx context.Context, ids []int64) (map[int64]Broker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brokers.byIDs(ids), nil
}

// SalesEmployeesByID implements Resolver.
func (s *MemoryStore) SalesEmployeesByID(ctx context.Context, ids []int64) (map[int64]SalesEmployee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesEmployees.byIDs(ids), nil
}

// PaymentPlansByID implements Resolver.
func (s *MemoryStore) PaymentPlansByID(ctx context.Context, ids []int64) (map[int64]PaymentPlan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentPlans.byIDs(ids), nil
}

// CreateInvoice stores a new PENDING invoice.
func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice Invoice) (*Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	invoice.ID = 0
	invoice.Status = InvoiceStatusPending
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	stored := s.PutInvoice(invoice)
	return &stored, nil
}

// CreateUser stores a new user. Emails are unique case-insensitively.
func (s *MemoryStore) CreateUser(ctx context.Context, user User) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users.rows {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, fmt.Errorf("user %s: %w", user.Email, shared.ErrConflict)
		}
	}
	user.ID = s.users.assign(0)
	user.CreatedAt = s.now().UTC()
	s.users.put(user.ID, user)
	return &user, nil
}

// WithTx implements Store.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{store: s, statuses: make(map[int64]statusChange)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type statusChange struct {
	status InvoiceStatus
	at     time.Time
}

// memoryTx stages writes until commit. It relies on the caller holding txMu.
type memoryTx struct {
	store    *MemoryStore
	payments []Payment
	statuses map[int64]statusChange
}

func (t *memoryTx) LockInvoice(ctx context.Context, id int64) (*Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.store.mu.RLock()
	row, ok := t.store.invoices.get(id)
	t.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	if change, staged := t.statuses[id]; staged {
		row.Status = change.status
		row.UpdatedAt = change.at
	}
	return &row, nil
}

func (t *memoryTx) InsertPayment(ctx context.Context, payment Payment) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}
	t.store.mu.Lock()
	payment.ID = t.store.payments.assign(0)
	t.store.mu.Unlock()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = t.store.now().UTC()
	}
	t.payments = append(t.payments, payment)
	return payment, nil
}

func (t *memoryTx) SetInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("invoice status %q: %w", status, shared.ErrInvalidArgument)
	}
	t.store.mu.RLock()
	_, ok := t.store.invoices.get(id)
	t.store.mu.RUnlock()
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, shared.ErrNotFound)
	}
	t.statuses[id] = statusChange{status: status, at: at}
	return nil
}

func (t *memoryTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, p := range t.payments {
		t.store.payments.put(p.ID, p)
	}
	for id, change := range t.statuses {
		row := t.store.invoices.rows[id]
		row.Status = change.status
		row.UpdatedAt = change.at
		t.store.invoices.rows[id] = row
	}
}
