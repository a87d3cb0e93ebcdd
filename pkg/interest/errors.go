package interest

import "errors"

// Validation errors are terminal and surfaced to the caller as 400s. They
// are checked before any remote call is issued.
var (
	// ErrMissingRequiredFields is returned when deal_id, user_email or flag
	// is absent from the intent.
	ErrMissingRequiredFields = errors.New("missing required fields: deal_id, user_email, flag")
	// ErrActionNotAllowed is returned for an action_taken value that maps to
	// neither transition.
	ErrActionNotAllowed = errors.New("action not allowed")
)

// IsValidationError reports whether err is a terminal input error that
// should produce an HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingRequiredFields) ||
		errors.Is(err, ErrActionNotAllowed)
}
