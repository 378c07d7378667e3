package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/realty-erp/realty-erp/internal/ledger"
	"github.com/realty-erp/realty-erp/internal/rbac"
	"github.com/realty-erp/realty-erp/internal/shared"
)

func newTestService() (*Service, *ledger.MemoryStore) {
	store := ledger.NewMemoryStore()
	svc := NewService(store, nil, nil)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestCreateUserHashesPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Email: " Sales@Realty.Local ", Name: "Sales Desk", Role: "sales", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, "sales@realty.local", user.Email)
	require.Equal(t, string(shared.RoleSales), user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "s3cret-pass", user.PasswordHash)
	require.True(t, VerifyPassword(user, "s3cret-pass"))
	require.False(t, VerifyPassword(user, "wrong-pass"))

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")
}

type failingAuditor struct{}

func (failingAuditor) Record(context.Context, shared.AuditLog) error { return errors.New("audit table locked") }

func TestCreateUserSurvivesAuditFailure(t *testing.T) {
	store := ledger.NewMemoryStore()
	var logs bytes.Buffer
	svc := NewService(store, failingAuditor{}, slog.New(slog.NewTextHandler(&logs, nil)))
	svc.cost = bcrypt.MinCost
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{Email: "desk@realty.local", Role: "SALES", Password: "long-enough"})
	require.NoError(t, err)

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, user.ID, all[0].ID)
	require.Contains(t, logs.String(), "users: audit")
	require.Contains(t, logs.String(), "audit table locked")
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []CreateUserInput{
		{Email: "not-an-email", Role: "ADMIN", Password: "long-enough"},
		{Email: "a@realty.local", Role: "OWNER", Password: "long-enough"},
		{Email: "a@realty.local", Role: "ADMIN", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.CreateUser(ctx, input)
		require.ErrorIs(t, err, shared.ErrInvalidArgument)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "ops@realty.local", Role: "ADMIN", Password: "long-enough"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "OPS@realty.local", Role: "VIEWER", Password: "long-enough"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestHandlerCreateAndList(t *testing.T) {
	svc, _ := newTestService()
	admin := &shared.Principal{UserID: 1, Role: shared.RoleAdmin}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), admin)))
		})
	})
	r.Route("/users", NewHandler(nil, svc, rbac.Middleware{}).MountRoutes)

	body := `{"email":"viewer@realty.local","name":"Viewer","role":"VIEWER","password":"long-enough"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var users []ledger.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
}
