package failure

import (
	"errors"
	"net/http"
)

// Failure pairs a message with the HTTP status it maps to. The cause, when present, stays
// reachable through errors.Is and errors.As but is never rendered to clients.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	cause error
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func (e *Failure) Error() string {
	return e.Message
}

func (e *Failure) Unwrap() error {
	return e.cause
}

func fromError(code int, err error) error {
	if err == nil {
		return nil
	}

	return &Failure{Code: code, Message: err.Error(), cause: err}
}

func fromString(code int, msg string) error {
	return &Failure{Code: code, Message: msg}
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	return fromError(http.StatusBadRequest, err)
}

// BadRequestFromString returns a new Failure with code for bad requests with message set from string.
func BadRequestFromString(msg string) error {
	return fromString(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return fromString(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return fromString(http.StatusForbidden, msg)
}

// NotFound returns a new Failure with code for entity not found.
func NotFound(msg string) error {
	return fromString(http.StatusNotFound, msg)
}

// Conflict marks a request that collides with current state, such as an overlapping booking.
func Conflict(msg string) error {
	return fromString(http.StatusConflict, msg)
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	return fromError(http.StatusInternalServerError, err)
}

// Unavailable marks a transient infrastructure error (storage, lock, session backend).
func Unavailable(err error) error {
	return fromError(http.StatusServiceUnavailable, err)
}

// IsRetryable reports whether the caller may retry the operation that produced err.
func IsRetryable(err error) bool {
	return GetCode(err) == http.StatusServiceUnavailable
}

// GetCode returns the status of the outermost Failure in err's chain, defaulting to 500.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}
