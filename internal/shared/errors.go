package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a state transition that violates an invariant.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable indicates the underlying persistence failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUnauthorized occurs when the request carries no valid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden occurs when the principal lacks the required permission.
	ErrForbidden = errors.New("forbidden")
)

// StoreFailure classifies err as ErrStoreUnavailable unless it already carries
// one of the known kinds. Context errors are kept so callers can detect
// cancellation with errors.Is.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidArgument) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// IsCanceled reports whether err was caused by the caller going away.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// UserSafeMessage returns a message that can be shown to API clients without
// leaking store internals.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return err.Error()
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	default:
		return "internal error"
	}
}
