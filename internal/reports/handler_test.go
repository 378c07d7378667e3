package reports

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/rbac"
)

func newReportRouter(fx fixture, guard rbac.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Route("/reports", NewHandler(nil, NewService(fx.repo), guard).MountRoutes)
	return r
}

func serveGet(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerPublicReports(t *testing.T) {
	fx := newFixture()
	booking := fx.fullBooking()
	fx.repo.PutApplicantPaymentFile(ledger.ApplicantPaymentFile{BookingID: ptr(booking.ID), FileNumber: "APF-001"})
	router := newReportRouter(fx, rbac.Middleware{Disabled: true})

	rec := serveGet(router, "/reports/applicant-payment-file")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []BookingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, "Prime Brokers", views[0].Broker.Name)

	rec = serveGet(router, "/reports/unit-status?project_id=1&status=booked")
	require.Equal(t, http.StatusOK, rec.Code)
	var units []UnitStatusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &units))
	require.Len(t, units, 1)
	require.Equal(t, "T1-1204", units[0].UnitNumber)

	rec = serveGet(router, "/reports/unit-status?project_id=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveGet(router, "/reports/applicant-payment-file/export")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	require.NotZero(t, rec.Body.Len())
}

func TestHandlerGuardedReports(t *testing.T) {
	router := newReportRouter(newFixture(), rbac.Middleware{})
	require.Equal(t, http.StatusUnauthorized, serveGet(router, "/reports/applicant-payment-file").Code)
}
