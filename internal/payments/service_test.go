package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/shared"
)

type countingCache struct {
	mu    sync.Mutex
	bumps int
	err   error
}

func (c *countingCache) Bump(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bumps++
	return c.err
}

type memoryAuditor struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (a *memoryAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

type outcomeMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *outcomeMetrics) RecordReconciliation(outcome string, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func newTestService(t *testing.T) (*Service, *ledger.MemoryStore, ledger.Invoice) {
	t.Helper()
	store := ledger.NewMemoryStore()
	inv := store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 250000, Description: "Booking amount"})
	return NewService(store, Options{}), store, inv
}

func TestRecordPaymentSettlesInvoice(t *testing.T) {
	store := ledger.NewMemoryStore()
	inv := store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 250000})
	cache := &countingCache{}
	audit := &memoryAuditor{}
	metrics := &outcomeMetrics{}
	svc := NewService(store, Options{Cache: cache, Audit: audit, Metrics: metrics})

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID, Amount: 250000, Method: "NEFT", RecordedBy: 7,
	})
	require.NoError(t, err)
	require.Equal(t, ledger.PaymentStatusCompleted, payment.Status)
	require.Equal(t, inv.ID, payment.InvoiceID)
	require.Equal(t, int64(250000), payment.Amount)
	require.NotEmpty(t, payment.Reference)
	require.False(t, payment.Date.IsZero())

	got, err := store.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.InvoiceStatusPaid, got.Status)

	stored, err := svc.ListPayments(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	require.Equal(t, 1, cache.bumps)
	require.Len(t, audit.entries, 1)
	require.Equal(t, shared.AuditPaymentRecorded, audit.entries[0].Action)
	require.Equal(t, int64(7), audit.entries[0].ActorID)
	require.Equal(t, 1, metrics.outcomes[OutcomeRecorded])
}

func TestRecordPaymentKeepsGivenReference(t *testing.T) {
	svc, _, inv := newTestService(t)
	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		InvoiceID: inv.ID, Amount: 1, Reference: "UTR-0042",
	})
	require.NoError(t, err)
	require.Equal(t, "UTR-0042", payment.Reference)
}

func TestRecordPaymentRejectsInvalidInput(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()

	cases := []RecordPaymentInput{
		{InvoiceID: inv.ID, Amount: 0},
		{InvoiceID: inv.ID, Amount: -100},
		{InvoiceID: 0, Amount: 100},
		{InvoiceID: -1, Amount: 100},
	}
	for _, input := range cases {
		_, err := svc.RecordPayment(ctx, input)
		require.ErrorIs(t, err, shared.ErrInvalidArgument)
	}

	payments, err := store.ListPayments(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, payments)
	got, err := store.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.InvoiceStatusPending, got.Status)
}

func TestRecordPaymentSmallestAmount(t *testing.T) {
	svc, _, inv := newTestService(t)
	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{InvoiceID: inv.ID, Amount: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), payment.Amount)
}

func TestRecordPaymentMissingInvoice(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{InvoiceID: 999, Amount: 100})
	require.ErrorIs(t, err, shared.ErrNotFound)

	payments, err := store.ListPayments(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, payments)
}

func TestRecordPaymentSecondCallConflicts(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
		require.ErrorIs(t, err, shared.ErrConflict)
	}

	payments, err := store.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestRecordPaymentConcurrentCallsSingleWinner(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: inv.ID, Amount: 500})
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, shared.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, callers-1, conflicts)

	payments, err := store.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestRecordPaymentCanceledContextWritesNothing(t *testing.T) {
	svc, store, inv := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
	require.ErrorIs(t, err, context.Canceled)

	got, err := store.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.InvoiceStatusPending, got.Status)
}

// failingTxStore fails the status update after the payment insert.
type failingTxStore struct {
	*ledger.MemoryStore
}

type failingTx struct {
	ledger.Tx
}

func (f failingTx) SetInvoiceStatus(context.Context, int64, ledger.InvoiceStatus, time.Time) error {
	return shared.StoreFailure("set status", errors.New("disk full"))
}

func (s failingTxStore) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	return s.MemoryStore.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return fn(ctx, failingTx{Tx: tx})
	})
}

func TestRecordPaymentRollsBackPartialWrites(t *testing.T) {
	store := ledger.NewMemoryStore()
	inv := store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 100})
	cache := &countingCache{}
	svc := NewService(failingTxStore{MemoryStore: store}, Options{Cache: cache})

	_, err := svc.RecordPayment(context.Background(), RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
	require.ErrorIs(t, err, shared.ErrStoreUnavailable)

	payments, err := store.ListPayments(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, payments)
	require.Zero(t, cache.bumps)
}

func TestRecordPaymentSideEffectFailureKeepsPayment(t *testing.T) {
	store := ledger.NewMemoryStore()
	inv := store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 100})
	svc := NewService(store, Options{Cache: &countingCache{err: errors.New("redis down")}})

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
	require.NoError(t, err)
	require.NotZero(t, payment.ID)
}

func TestGetPayment(t *testing.T) {
	svc, _, inv := newTestService(t)
	ctx := context.Background()
	recorded, err := svc.RecordPayment(ctx, RecordPaymentInput{InvoiceID: inv.ID, Amount: 100})
	require.NoError(t, err)

	got, err := svc.GetPayment(ctx, recorded.ID)
	require.NoError(t, err)
	require.Equal(t, recorded.Reference, got.Reference)

	_, err = svc.GetPayment(ctx, recorded.ID+100)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.GetPayment(ctx, 0)
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}
