// Package apperr defines the error kinds understood by the HTTP response
// pipeline. Every error that reaches the dispatcher falls into exactly one
// kind, decided when the error is constructed:
//
//   - Domain errors (*ResponseError) carry an HTTP status, a numeric
//     application code and optional hint/meta for the client.
//   - External-API errors (*ExternalAPIError) describe failures proxied from
//     third-party integrations and expose an allow-listed set of extra fields.
//   - Anything else is unclassified and rendered as a generic 500.
//
// Database query failures are not a separate kind here; they live in the
// dberr package and are sub-classified by the dispatcher.
package apperr

import (
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind enumerates the error kinds handled by the response pipeline.
type Kind int

const (
	// KindUnclassified is any error not constructed by this package.
	KindUnclassified Kind = iota
	// KindDomain is a *ResponseError.
	KindDomain
	// KindExternalAPI is an *ExternalAPIError.
	KindExternalAPI
)

// String returns a stable label, suitable for metrics.
func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindExternalAPI:
		return "external_api"
	default:
		return "unclassified"
	}
}

// ResponseError is a domain error that knows how it should be presented to
// the client.
//
// Fields:
//   - Status: HTTP status code of the response.
//   - Code: numeric application error code (defaults to Status).
//   - Message: human-readable message, safe for clients.
//   - Hint: optional remediation hint.
//   - Meta: optional structured details; copied verbatim into the envelope.
type ResponseError struct {
	Status  int
	Code    int
	Message string
	Hint    string
	Meta    map[string]any

	cause error
	stack error
}

// Option customizes a ResponseError at construction.
type Option func(*ResponseError)

// WithHint attaches a remediation hint.
func WithHint(hint string) Option {
	return func(e *ResponseError) { e.Hint = hint }
}

// WithMeta attaches structured details for the client.
func WithMeta(meta map[string]any) Option {
	return func(e *ResponseError) { e.Meta = meta }
}

// WithCode overrides the application error code (defaults to the status).
func WithCode(code int) Option {
	return func(e *ResponseError) { e.Code = code }
}

// WithCause records the underlying error for errors.Is/As traversal.
func WithCause(err error) Option {
	return func(e *ResponseError) { e.cause = err }
}

// New builds a ResponseError with the given status and message. The call
// stack is captured here so it can be rendered in development mode.
func New(status int, message string, opts ...Option) *ResponseError {
	e := &ResponseError{
		Status:  status,
		Code:    status,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stack = pkgerrors.New(message)
	return e
}

// BadRequest builds a 400 domain error.
func BadRequest(message string, opts ...Option) *ResponseError {
	return New(http.StatusBadRequest, message, opts...)
}

// Unauthorized builds a 401 domain error.
func Unauthorized(message string, opts ...Option) *ResponseError {
	return New(http.StatusUnauthorized, message, opts...)
}

// Forbidden builds a 403 domain error.
func Forbidden(message string, opts ...Option) *ResponseError {
	return New(http.StatusForbidden, message, opts...)
}

// NotFound builds a 404 domain error.
func NotFound(message string, opts ...Option) *ResponseError {
	return New(http.StatusNotFound, message, opts...)
}

// Conflict builds a 409 domain error.
func Conflict(message string, opts ...Option) *ResponseError {
	return New(http.StatusConflict, message, opts...)
}

// Internal builds a 500 domain error.
func Internal(message string, opts ...Option) *ResponseError {
	return New(http.StatusInternalServerError, message, opts...)
}

func (e *ResponseError) Error() string { return e.Message }

func (e *ResponseError) Unwrap() error { return e.cause }

// StackTrace exposes the construction stack (pkg/errors convention).
func (e *ResponseError) StackTrace() pkgerrors.StackTrace {
	if st, ok := e.stack.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// AsResponseError returns the first *ResponseError in err's chain.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// KindOf reports the kind of err. Domain errors win over external-API errors
// when both appear in the chain, since the outermost intent is the domain one.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnclassified
	}
	if _, ok := AsResponseError(err); ok {
		return KindDomain
	}
	if _, ok := AsExternalAPIError(err); ok {
		return KindExternalAPI
	}
	return KindUnclassified
}

// messageOverride replaces the client-facing message of an error while
// keeping the original reachable through Unwrap.
type messageOverride struct {
	msg string
	err error
}

func (m *messageOverride) Error() string { return m.msg }
func (m *messageOverride) Unwrap() error { return m.err }

// WithMessage returns err with its message replaced by msg. The original
// error stays in the chain, so errors.Is/As and stack lookups keep working.
func WithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &messageOverride{msg: msg, err: err}
}
