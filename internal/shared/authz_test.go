package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role     Role
		resource string
		action   string
		want     bool
	}{
		{RoleAdmin, ResourceUsers, ActionCreate, true},
		{RoleManager, ResourcePayments, ActionView, true},
		{RoleManager, ResourcePayments, ActionCreate, false},
		{RoleAccountant, ResourcePayments, ActionCreate, true},
		{RoleAccountant, ResourceInvoices, ActionEdit, true},
		{RoleSales, ResourceAnalytics, ActionView, false},
		{RoleViewer, ResourceReports, " VIEW ", true},
		{Role("GHOST"), ResourceReports, ActionView, false},
	}
	for _, tc := range cases {
		got := HasPermission(&Principal{UserID: 1, Role: tc.role}, tc.resource, tc.action)
		require.Equal(t, tc.want, got, "%s %s:%s", tc.role, tc.resource, tc.action)
	}
	require.False(t, HasPermission(nil, ResourceReports, ActionView))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" accountant ")
	require.True(t, ok)
	require.Equal(t, RoleAccountant, role)

	_, ok = ParseRole("root")
	require.False(t, ok)
}

func TestStoreFailureKeepsKnownKinds(t *testing.T) {
	err := StoreFailure("get invoice", fmt.Errorf("wrapped: %w", ErrNotFound))
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrStoreUnavailable)

	err = StoreFailure("list", errors.New("connection reset"))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, "internal error", UserSafeMessage(err))

	err = StoreFailure("list", context.Canceled)
	require.True(t, IsCanceled(err))
	require.Nil(t, StoreFailure("noop", nil))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, PrincipalFromContext(ctx))
	p := &Principal{UserID: 9, Role: RoleSales}
	require.Same(t, p, PrincipalFromContext(ContextWithPrincipal(ctx, p)))
}

func TestAuditLogValidate(t *testing.T) {
	require.Error(t, AuditLog{Action: AuditPaymentRecorded}.Validate())
	require.NoError(t, AuditLog{Action: AuditPaymentRecorded, Entity: "payment", EntityID: "1"}.Validate())

	var logger *AuditLogger
	require.Error(t, logger.Record(context.Background(), AuditLog{}))
}
