package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/realty-erp/realty-erp/internal/shared"
)

// StatusFor maps the shared error taxonomy onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if logger != nil {
		switch {
		case shared.IsCanceled(err):
			logger.DebugContext(r.Context(), "request abandoned", slog.String("path", r.URL.Path), slog.Any("error", err))
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
	}
	Problem(w, status, http.StatusText(status), shared.UserSafeMessage(err))
}
