package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT and tokens
	ErrInvalidSigningMethod = errors.New("invalid token signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidSignature     = errors.New("token signature is invalid")
	ErrMalformedToken       = errors.New("token is malformed")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenNotYetValid     = errors.New("token is not valid yet")
	ErrTokenIsNotAccess     = errors.New("token is not an access token")
	ErrTokenIsNotRefresh    = errors.New("token is not a refresh token")

	// Authorization
	ErrEmptyAuthHeader    = errors.New("token not found")
	ErrInvalidAuthHeader  = errors.New("Invalid token")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrUnauthorized       = errors.New("Unauthenticated")
	ErrForbidden          = errors.New("forbidden")

	// Context
	ErrPrincipalNotFoundInContext = errors.New("principal not found in request context")

	// Common
	ErrNotFound       = errors.New("record not found")
	ErrBadRequest     = errors.New("bad request")
	ErrEmailTaken     = errors.New("User already exists with that email")
	ErrInternalServer = errors.New("internal server error")
)

// HttpError carries the status code and the client-facing message. Err is the
// underlying cause and is only logged.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, details interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Details: details}
}

// WithCause attaches the underlying error. It is logged, never sent.
func (e *HttpError) WithCause(err error) *HttpError {
	e.Err = err
	return e
}

func NewBadRequestError(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, nil, nil)
}

func NewNotFoundError(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message, nil, nil)
}

func NewUnauthenticatedError(message string) *HttpError {
	return NewHttpError(http.StatusUnauthorized, message, nil, nil)
}

func NewForbiddenError(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message, nil, nil)
}

func NewUnprocessableError(message string, details interface{}) *HttpError {
	return NewHttpError(http.StatusUnprocessableEntity, message, nil, details)
}

// StatusFor maps sentinel errors to HTTP status codes. ok is false when err
// carries no known kind.
func StatusFor(err error) (code int, ok bool) {
	var httpErr *HttpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, true
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest, true
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrEmptyAuthHeader),
		errors.Is(err, ErrInvalidAuthHeader),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenNotYetValid),
		errors.Is(err, ErrTokenIsNotAccess),
		errors.Is(err, ErrTokenIsNotRefresh),
		errors.Is(err, ErrPrincipalNotFoundInContext):
		return http.StatusUnauthorized, true
	}
	return http.StatusInternalServerError, false
}
