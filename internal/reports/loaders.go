package reports

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/realty-erp/realty-erp/internal/ledger"
)

const (
	loaderWait     = time.Millisecond
	loaderCapacity = 500
)

// loaders batch foreign key lookups for a single report run.
type loaders struct {
	bookings       *dataloader.Loader[int64, *ledger.Booking]
	projects       *dataloader.Loader[int64, *ledger.Project]
	clients        *dataloader.Loader[int64, *ledger.Client]
	properties     *dataloader.Loader[int64, *ledger.Property]
	brokers        *dataloader.Loader[int64, *ledger.Broker]
	salesEmployees *dataloader.Loader[int64, *ledger.SalesEmployee]
	paymentPlans   *dataloader.Loader[int64, *ledger.PaymentPlan]
}

func newLoaders(r ledger.Resolver) *loaders {
	return &loaders{
		bookings:       newLoader(r.BookingsByID),
		projects:       newLoader(r.ProjectsByID),
		clients:        newLoader(r.ClientsByID),
		properties:     newLoader(r.PropertiesByID),
		brokers:        newLoader(r.BrokersByID),
		salesEmployees: newLoader(r.SalesEmployeesByID),
		paymentPlans:   newLoader(r.PaymentPlansByID),
	}
}

func newLoader[T any](fetch func(context.Context, []int64) (map[int64]T, error)) *dataloader.Loader[int64, *T] {
	return dataloader.NewBatchedLoader(batchFunc(fetch),
		dataloader.WithWait[int64, *T](loaderWait),
		dataloader.WithBatchCapacity[int64, *T](loaderCapacity),
	)
}

// batchFunc adapts a bulk fetch to the loader contract. Keys with no row
// resolve to nil data.
func batchFunc[T any](fetch func(context.Context, []int64) (map[int64]T, error)) dataloader.BatchFunc[int64, *T] {
	return func(ctx context.Context, ids []int64) []*dataloader.Result[*T] {
		rows, err := fetch(ctx, ids)
		if err != nil {
			return handleError[*T](len(ids), err)
		}
		results := make([]*dataloader.Result[*T], 0, len(ids))
		for _, id := range ids {
			row, ok := rows[id]
			if !ok {
				results = append(results, &dataloader.Result[*T]{})
				continue
			}
			results = append(results, &dataloader.Result[*T]{Data: &row})
		}
		return results
	}
}

func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// load returns a resolved-nil thunk for a null key.
func load[T any](ctx context.Context, l *dataloader.Loader[int64, *T], id *int64) dataloader.Thunk[*T] {
	if id == nil {
		return func() (*T, error) { return nil, nil }
	}
	return l.Load(ctx, *id)
}
