package service

import "net/http"

// Error carries the HTTP status a failure should map to, plus an optional
// machine-readable code and extra payload for the response envelope.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func badRequest(message string) *Error {
	return newError(http.StatusBadRequest, message)
}

func unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, message)
}

func forbidden(message string) *Error {
	return newError(http.StatusForbidden, message)
}

func notFound(message string) *Error {
	return newError(http.StatusNotFound, message)
}

func conflict(message string) *Error {
	return newError(http.StatusConflict, message)
}

// HTTPStatus maps any error to a status code, defaulting to 500.
func HTTPStatus(err error) int {
	if se, ok := err.(*Error); ok {
		return se.Status
	}
	return http.StatusInternalServerError
}

// ErrDetails returns the extra payload attached to a service error, if any.
func ErrDetails(err error) map[string]interface{} {
	if se, ok := err.(*Error); ok {
		return se.Details
	}
	return nil
}
