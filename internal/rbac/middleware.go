// Package rbac guards HTTP routes with the shared role matrix.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
	// Disabled lets every request through. Used for routes that are
	// intentionally public.
	Disabled bool
}

// Require ensures the current principal may perform action on resource.
// Requests without a principal get 401, principals lacking the grant get 403.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Disabled {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, r, m.Logger, shared.ErrUnauthorized)
				return
			}
			if !shared.HasPermission(principal, resource, action) {
				if m.Logger != nil {
					m.Logger.Debug("rbac denied",
						slog.Int64("user_id", principal.UserID),
						slog.String("role", string(principal.Role)),
						slog.String("permission", resource+":"+action))
				}
				httpx.RespondError(w, r, m.Logger, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
