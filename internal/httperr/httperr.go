// Package httperr defines the service error taxonomy and its HTTP rendering.
// Handlers and services return these values; the echo error handler turns
// them into a JSON body with a stable machine-readable code.
package httperr

import "net/http"

type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// Is matches on the code, so errors.Is(NotFound("post not found"),
// ErrNotFound) holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

var (
	// One message for both unknown email and wrong password.
	ErrInvalidCredentials = New(http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS", "invalid email or password")

	ErrMissingToken      = New(http.StatusUnauthorized, "TOKEN_MISSING", "missing token")
	ErrTokenExpired      = New(http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
	ErrTokenMalformed    = New(http.StatusUnauthorized, "TOKEN_MALFORMED", "malformed token")
	ErrBadSignature      = New(http.StatusUnauthorized, "TOKEN_BAD_SIGNATURE", "token signature mismatch")
	ErrStaleRefreshToken = New(http.StatusUnauthorized, "REFRESH_STALE", "refresh token superseded")

	ErrForbidden      = New(http.StatusForbidden, "FORBIDDEN", "forbidden")
	ErrNotFound       = New(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrDuplicateEmail = New(http.StatusConflict, "EMAIL_TAKEN", "email already registered")
)

func NotFound(message string) *Error {
	return New(http.StatusNotFound, ErrNotFound.Code, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, ErrForbidden.Code, message)
}
