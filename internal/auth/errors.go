package auth

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable classification of an authentication failure.
type Kind string

// Failure kinds. These also appear verbatim in a session's persisted
// last_error record and in metrics labels, so they are stable strings.
const (
	// KindMissingParameter indicates a callback or API call without a
	// required parameter (code, state/session id, scopes).
	KindMissingParameter Kind = "missing_parameter"

	// KindProviderDenied indicates the provider reported an error on the
	// callback (user declined consent, invalid request, ...) and no token
	// exchange was attempted.
	KindProviderDenied Kind = "provider_denied"

	// KindUnknownSession indicates an operation referenced a session id
	// that was never created.
	KindUnknownSession Kind = "unknown_session"

	// KindExchangeFailed indicates the authorization-code exchange against
	// the provider's token endpoint failed.
	KindExchangeFailed Kind = "token_exchange_failed"

	// KindRefreshFailed indicates a token refresh against the provider's
	// token endpoint failed.
	KindRefreshFailed Kind = "token_refresh_failed"

	// KindStore indicates the durable session store could not be read or
	// written. Distinguishable from a normal unauthenticated state.
	KindStore Kind = "store_error"
)

// Error is a tagged authentication error. Callers branch on Kind instead of
// parsing messages, and the wrapped cause stays available through Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tagged authentication error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a tagged authentication error wrapping a cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is (or wraps) an auth error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// ErrorKind returns the kind of err, or an empty Kind when err is not an
// auth error.
func ErrorKind(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
