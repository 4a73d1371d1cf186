package apperr

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// ExternalAPIError describes a failure returned by a third-party API that the
// service called on the client's behalf (e.g. a workflow webhook).
//
// Only the fields returned by Fields are ever exposed to clients; the wrapped
// cause and any response body stay server-side.
type ExternalAPIError struct {
	Name        string // error name, e.g. "WebhookError"
	Message     string
	HTTPCode    string // status returned by the third party, as text ("502")
	Description string // short explanation safe for clients
	Level       string // "warning" for 4xx upstream responses, "error" otherwise
	Timestamp   int64  // unix milliseconds

	cause error
	stack error
}

// NewExternalAPIError builds an ExternalAPIError for an upstream response
// with status httpCode (0 when no response was received).
func NewExternalAPIError(name, message string, httpCode int, description string, cause error) *ExternalAPIError {
	e := &ExternalAPIError{
		Name:        name,
		Message:     message,
		Description: description,
		Level:       "error",
		Timestamp:   time.Now().UnixMilli(),
		cause:       cause,
	}
	if httpCode > 0 {
		e.HTTPCode = strconv.Itoa(httpCode)
		if httpCode >= http.StatusBadRequest && httpCode < http.StatusInternalServerError {
			e.Level = "warning"
		}
	}
	e.stack = pkgerrors.New(message)
	return e
}

func (e *ExternalAPIError) Error() string { return e.Message }

func (e *ExternalAPIError) Unwrap() error { return e.cause }

// StackTrace exposes the construction stack (pkg/errors convention).
func (e *ExternalAPIError) StackTrace() pkgerrors.StackTrace {
	if st, ok := e.stack.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Fields returns the allow-listed, client-visible diagnostic fields. Empty
// values are omitted.
func (e *ExternalAPIError) Fields() map[string]any {
	out := make(map[string]any, 5)
	if e.Name != "" {
		out["name"] = e.Name
	}
	if e.HTTPCode != "" {
		out["httpCode"] = e.HTTPCode
	}
	if e.Description != "" {
		out["description"] = e.Description
	}
	if e.Level != "" {
		out["level"] = e.Level
	}
	if e.Timestamp != 0 {
		out["timestamp"] = e.Timestamp
	}
	return out
}

// AsExternalAPIError returns the first *ExternalAPIError in err's chain.
func AsExternalAPIError(err error) (*ExternalAPIError, bool) {
	var ee *ExternalAPIError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
