package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the machine-readable class of an issuance failure.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindConfiguration   ErrorKind = "configuration_error"
	KindUpstreamAuth    ErrorKind = "upstream_auth_error"
	KindUpstreamToken   ErrorKind = "upstream_token_error"
	KindInternal        ErrorKind = "internal_error"
)

// Error is the error type returned by the issuance components.
// The HTTP layer is the only place that translates it into a response.
type Error struct {
	Kind ErrorKind

	// Message is safe to return to the client.
	Message string

	// UpstreamStatus is the status code reported by the remote platform, if any.
	UpstreamStatus int

	// UpstreamMessage is the message reported by the remote platform, if any.
	UpstreamMessage string

	// Cause is the underlying error. It is only exposed in development mode.
	Cause error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.UpstreamStatus != 0 {
		msg += fmt.Sprintf(" (upstream status %d)", e.UpstreamStatus)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode maps the error to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUpstreamAuth, KindUpstreamToken:
		if e.UpstreamStatus >= 400 && e.UpstreamStatus <= 599 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func UnauthenticatedError(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func ConfigurationError(msg string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Cause: cause}
}

func InternalError(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: cause}
}

func UpstreamAuthError(status int, upstreamMsg string, cause error) *Error {
	return &Error{
		Kind:            KindUpstreamAuth,
		Message:         "authentication against the analytics platform failed",
		UpstreamStatus:  status,
		UpstreamMessage: upstreamMsg,
		Cause:           cause,
	}
}

func UpstreamTokenError(status int, upstreamMsg string, cause error) *Error {
	return &Error{
		Kind:            KindUpstreamToken,
		Message:         "guest token request to the analytics platform failed",
		UpstreamStatus:  status,
		UpstreamMessage: upstreamMsg,
		Cause:           cause,
	}
}

// AsError extracts a *Error from err. Errors of any other type are
// reported as internal errors.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return InternalError("internal server error", err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	return AsError(err).Kind
}
