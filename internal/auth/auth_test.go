package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/realty-erp/realty-erp/internal/shared"
)

const testSecret = "test-secret"

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func validClaims(userID, role string) Claims {
	return Claims{
		Email: "ops@realty.test",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerify(t *testing.T) {
	tokens, err := NewTokens(testSecret)
	require.NoError(t, err)

	principal, err := tokens.Verify(sign(t, testSecret, validClaims("7", "accountant")))
	require.NoError(t, err)
	require.Equal(t, int64(7), principal.UserID)
	require.Equal(t, shared.RoleAccountant, principal.Role)
	require.Equal(t, "ops@realty.test", principal.Email)
}

func TestVerifyRejects(t *testing.T) {
	tokens, err := NewTokens(testSecret)
	require.NoError(t, err)

	expired := validClaims("1", "ADMIN")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("1", "ADMIN")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":     "garbage",
		"expired":     sign(t, testSecret, expired),
		"other key":   sign(t, "other", validClaims("1", "ADMIN")),
		"bad role":    sign(t, testSecret, validClaims("1", "ROOT")),
		"bad subject": sign(t, testSecret, validClaims("abc", "ADMIN")),
		"alg none":    none,
	}
	for name, raw := range cases {
		_, err := tokens.Verify(raw)
		require.ErrorIs(t, err, shared.ErrUnauthorized, name)
	}

	_, err = NewTokens("")
	require.Error(t, err)
}

func TestAuthenticateMiddleware(t *testing.T) {
	tokens, err := NewTokens(testSecret)
	require.NoError(t, err)
	var seen *shared.Principal
	handler := Authenticate(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Nil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, testSecret, validClaims("3", "VIEWER")))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(3), seen.UserID)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	require.Nil(t, seen)
}
