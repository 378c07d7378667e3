package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// Authenticate attaches the bearer token's principal to the request context.
// Requests without a token pass through anonymous; the rbac guard decides
// whether the route needs one. A malformed or expired token is rejected.
func Authenticate(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := tokens.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Debug("invalid bearer token", slog.Any("error", err))
				}
				httpx.RespondError(w, r, logger, shared.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return header
	}
	return strings.TrimSpace(token)
}
