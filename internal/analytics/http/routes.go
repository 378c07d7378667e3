package analytichttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/realty-erp/realty-erp/internal/platform/httpx"
	"github.com/realty-erp/realty-erp/internal/shared"
)

// dashboardRequestsPerMinute caps recomputations triggered by one caller.
const dashboardRequestsPerMinute = 60

// MountRoutes registers analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(dashboardRequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
		}),
	)

	r.Group(func(gr chi.Router) {
		gr.Use(h.rbac.Require(shared.ResourceAnalytics, shared.ActionView))
		gr.Use(limiter)
		gr.Get("/dashboard", h.handleDashboard)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		return "user:" + strconv.FormatInt(principal.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
