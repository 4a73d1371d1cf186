// Package handlers defines the HTTP endpoints of the public API.
//
// Handlers are transport-thin: they bind and check input, call a service and
// return the payload or an error. Writing the response is left to the
// respond.Dispatcher, so handlers never build envelopes themselves.
//
// This file maps service errors onto domain errors. Errors that are already
// domain or external-API errors, and database query failures, are returned
// unchanged so the dispatcher can classify them.
package handlers

import (
	"errors"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
	"github.com/tbourn/go-workflow-backend/internal/services"
)

// apiError translates err into the error returned to the dispatcher.
func apiError(err error) error {
	if err == nil {
		return nil
	}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return apperr.BadRequest(verr.Message,
			apperr.WithMeta(map[string]any{"field": verr.Field}),
			apperr.WithCause(err))
	case errors.Is(err, services.ErrWorkflowNotFound),
		errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrExecutionNotFound):
		return apperr.NotFound(err.Error(), apperr.WithCause(err))
	case errors.Is(err, services.ErrExecutionNotWaiting):
		return apperr.Conflict(err.Error(), apperr.WithCause(err))
	case errors.Is(err, services.ErrNoWebhookURL):
		return apperr.BadRequest(err.Error(),
			apperr.WithHint("set webhookUrl on the workflow first"),
			apperr.WithCause(err))
	case errors.Is(err, services.ErrInvalidLicenseKey):
		return apperr.BadRequest(err.Error(),
			apperr.WithHint("license keys look like XXXX-XXXX-XXXX-XXXX"),
			apperr.WithCause(err))
	}
	return err
}
