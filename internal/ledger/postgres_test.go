package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/realty-erp/realty-erp/internal/shared"
)

func TestClassifyDriverErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: shared.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: shared.ErrNotFound},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: shared.ErrConflict},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: shared.ErrConflict},
		{name: "lock not available", err: &pgconn.PgError{Code: "55P03"}, want: shared.ErrConflict},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}, want: shared.ErrConflict},
		{name: "wrapped unique violation", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), want: shared.ErrConflict},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: shared.ErrInvalidArgument},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, want: shared.ErrInvalidArgument},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}, want: shared.ErrStoreUnavailable},
		{name: "plain error", err: errors.New("broken pipe"), want: shared.ErrStoreUnavailable},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: context.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("lock invoice", tc.err)
			require.ErrorIs(t, got, tc.want)
			require.Contains(t, got.Error(), "lock invoice")
		})
	}
}

func TestClassifyKeepsKindsApart(t *testing.T) {
	canceled := classify("list", context.Canceled)
	require.NotErrorIs(t, canceled, shared.ErrStoreUnavailable)

	conflict := classify("insert payment", &pgconn.PgError{Code: "40001"})
	require.NotErrorIs(t, conflict, shared.ErrStoreUnavailable)

	missing := classify("get invoice", pgx.ErrNoRows)
	require.NotErrorIs(t, missing, shared.ErrStoreUnavailable)

	require.NoError(t, classify("noop", nil))
}
