// internal/core/domain/errors.go
package domain

import "errors"

// FetchErrorMessage is the only text shown to users when a product fetch fails
const FetchErrorMessage = "Failed to load products. Please check your connection and try again."

// ErrCategoryFetch marks a failed category enumeration. It is logged, never shown.
var ErrCategoryFetch = errors.New("category fetch failed")

// FetchError is returned for any failure of a compiled product query. Error()
// always yields FetchErrorMessage; the technical cause is kept for logging.
type FetchError struct {
	Err error
}

// NewFetchError wraps cause in a FetchError
func NewFetchError(cause error) *FetchError {
	return &FetchError{Err: cause}
}

func (e *FetchError) Error() string {
	return FetchErrorMessage
}

// Unwrap exposes the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cause returns the technical error text for diagnostics
func (e *FetchError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
