package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/realty-erp/realty-erp/internal/shared"
)

// BindJSON decodes the request body into target and validates it. Every
// failure is reported as shared.ErrInvalidArgument.
func BindJSON(r *http.Request, v *validator.Validate, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, shared.ErrInvalidArgument)
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), shared.ErrInvalidArgument)
		}
		return fmt.Errorf("validate body: %v: %w", err, shared.ErrInvalidArgument)
	}
	return nil
}
