package apierror

import (
	"database/sql"
	"errors"
	"net/http"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/lib/pq"
)

// Error carries an HTTP status alongside a client-safe message. Handlers
// return these and a single translation layer turns anything else into one.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func InvalidRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
}

const pqUniqueViolation = "23505"

// Translate maps raw database/token errors onto the error taxonomy. Already
// translated errors pass through untouched. Invalid tokens surface as 500 in
// production so the response does not hint at the token scheme.
func Translate(err error, env string) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return &Error{Status: http.StatusBadRequest, Message: "duplicate value entered for a unique field", Err: err}
	}
	var jwtErr *jwt.ValidationError
	if errors.As(err, &jwtErr) {
		status := http.StatusUnauthorized
		if env == "prod" {
			status = http.StatusInternalServerError
		}
		return &Error{Status: status, Message: "token is invalid, try signing in again", Err: err}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Status: http.StatusNotFound, Message: "resource not found", Err: err}
	}
	return Internal(err)
}
