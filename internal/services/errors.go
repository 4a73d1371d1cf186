// Package services defines the business logic for workflows, tags, license
// activation and public forms. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
// Database failures are passed through untouched (already wrapped by the
// repository layer) so the response dispatcher can classify them.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates that the requested workflow does not exist
	// or is not accessible to the current user.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNoWebhookURL is returned when a webhook test is requested for a
	// workflow without a webhook URL.
	ErrNoWebhookURL = errors.New("workflow has no webhook URL")

	// ErrFormNotFound indicates that no active workflow publishes a form at
	// the requested path.
	ErrFormNotFound = errors.New("form not found")

	// ErrExecutionNotFound indicates that the execution does not exist.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionNotWaiting is returned when a form is submitted to an
	// execution that already finished.
	ErrExecutionNotWaiting = errors.New("the execution is no longer waiting for a form submission")

	// ErrInvalidLicenseKey is returned for malformed license keys.
	ErrInvalidLicenseKey = errors.New("license key is invalid")
)

// ValidationError reports invalid user input. Messages may quote user
// supplied values verbatim (for example a workflow name).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
