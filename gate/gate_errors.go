package gate

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a gate error.
var (
	ErrValidation     = errors.New("validation error")      // Missing or malformed input
	ErrServerFormat   = errors.New("server format error")   // Reply was not usable structured data
	ErrCredentials    = errors.New("credential error")      // Server rejected the credentials
	ErrAuthorization  = errors.New("authorization error")   // Authenticated, but wrong role for this portal
	ErrNetwork        = errors.New("network error")         // No reply from the server
	ErrSessionExpired = errors.New("session expired error") // 401 or expired token on an authenticated call
)

var (
	ErrLoginInProgress = errors.New("login already in progress")
	ErrDiscarded       = errors.New("login response discarded")
	ErrClosed          = errors.New("gate closed")
)

const (
	msgServiceUnavailable = "The service is unavailable right now. Please try again later."
	msgCannotReachServer  = "Cannot reach the server. Check your connection and try again."
	msgLoginInProgress    = "A sign-in is already in progress."
	msgSomethingWentWrong = "Something went wrong. Please try again."
)

// AuthError is returned by gate operations. Kind is one of the Err* kinds above;
// Message is safe to show to the user.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

func newAuthError(kind error, message string, cause error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: cause}
}

func (e *AuthError) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the text to show inline for err. Session expiry is never shown
// inline and yields an empty string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrSessionExpired):
		return ""
	case errors.Is(err, ErrLoginInProgress):
		return msgLoginInProgress
	case errors.Is(err, ErrNetwork):
		return msgCannotReachServer
	case errors.Is(err, ErrServerFormat):
		return msgServiceUnavailable
	}

	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return msgSomethingWentWrong
}
