package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/realty-erp/realty-erp/internal/analytics"
	"github.com/realty-erp/realty-erp/internal/auth"
	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/observability"
)

const testSecret = "test-secret"

func newTestAPI(t *testing.T, reportsPublic bool) (http.Handler, *ledger.MemoryStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := ledger.NewMemoryStore()
	cfg := &Config{
		JWTSecret:        testSecret,
		ReconcileTimeout: time.Second,
		ReportsPublic:    reportsPublic,
	}
	handler, err := NewAPI(APIDeps{
		Config:  cfg,
		Store:   store,
		Cache:   analytics.NewCache(client, time.Minute),
		Metrics: observability.NewMetrics(),
	})
	require.NoError(t, err)
	return handler, store
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func do(handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPaymentSettlesInvoiceAndRefreshesDashboard(t *testing.T) {
	handler, store := newTestAPI(t, true)
	store.PutProject(ledger.Project{Name: "Skyline", Status: "ACTIVE"})
	inv := store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 10_000_000})
	token := bearer(t, 2, "ACCOUNTANT")

	rec := do(handler, http.MethodGet, "/analytics/dashboard", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before analytics.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	require.Equal(t, int64(10_000_000), before.TotalRevenue)

	rec = do(handler, http.MethodPost, "/payment", token, `{"invoiceId":1,"amount":10000000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var payment ledger.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payment))
	require.Equal(t, int64(2), payment.RecordedBy)

	got, err := store.GetInvoice(t.Context(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.InvoiceStatusPaid, got.Status)

	rec = do(handler, http.MethodPost, "/payment", token, `{"invoiceId":1,"amount":10000000}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = do(handler, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `realty_payment_reconciliations_total{outcome="conflict"} 1`)
}

func TestAuthorizationBoundary(t *testing.T) {
	handler, store := newTestAPI(t, false)
	store.PutInvoice(ledger.Invoice{ClientID: 1, Amount: 500})

	rec := do(handler, http.MethodPost, "/payment", "", `{"invoiceId":1,"amount":500}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(handler, http.MethodPost, "/payment", "not-a-token", `{"invoiceId":1,"amount":500}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer := bearer(t, 5, "VIEWER")
	rec = do(handler, http.MethodPost, "/payment", viewer, `{"invoiceId":1,"amount":500}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(handler, http.MethodGet, "/reports/unit-status", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(handler, http.MethodGet, "/reports/unit-status", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicReportsAndHealth(t *testing.T) {
	handler, _ := newTestAPI(t, true)

	rec := do(handler, http.MethodGet, "/reports/applicant-payment-file", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = do(handler, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(handler, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
