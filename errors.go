package tyjson

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the client-facing envelope.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindPermission
	KindNotFound
	KindMethod
	KindConflict
	KindUpstream
	KindRateLimited
)

// Status maps the kind to its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethod:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindMethod:
		return "method"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// APIError is the error type controllers return. The dispatcher turns it
// into an envelope; Message is what the client sees.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Expected reports whether the error is a deliberate client-facing outcome
// that should not be logged as a failure.
func (e *APIError) Expected() bool {
	return e.Kind != KindInternal && e.Kind != KindUpstream
}

func newAPIError(kind ErrorKind, msg string) *APIError {
	return &APIError{Kind: kind, Message: msg}
}

func errValidation(msg string) *APIError { return newAPIError(KindValidation, msg) }
func errAuth(msg string) *APIError       { return newAPIError(KindAuth, msg) }
func errPermission(msg string) *APIError { return newAPIError(KindPermission, msg) }
func errNotFound(msg string) *APIError   { return newAPIError(KindNotFound, msg) }

func errUpstream(msg string, err error) *APIError {
	return &APIError{Kind: KindUpstream, Message: msg, Err: err}
}

var (
	errForbidden        = errPermission("Access Forbidden")
	errEndpointNotFound = errNotFound("Endpoint not found")
	errMethodNotAllowed = newAPIError(KindMethod, "Method Not Allowed")
)

// asAPIError classifies any error. Anything that is not already an
// *APIError becomes an internal error with the generic message.
func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// kindForStatus classifies an HTTP status raised outside the controllers,
// such as Echo's own 404 and 405.
func kindForStatus(code int) ErrorKind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusForbidden:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusMethodNotAllowed:
		return KindMethod
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindInternal
	}
}
