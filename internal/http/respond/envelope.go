// Package respond completes HTTP requests for the API. Handlers return a
// value or an error; the Dispatcher turns that into either a success
// envelope or an error envelope (or, for the public form routes, an HTML
// page), so every endpoint answers with the same shapes:
//
//	HTTP/1.1 200 OK
//	{ "data": { "id": "…", "name": "Order sync" } }
//
//	HTTP/1.1 400 Bad Request
//	{ "code": 400, "message": "License activation requires EULA acceptance",
//	  "meta": { "eulaUrl": "https://example.com/license/eula" } }
//
// Database unique-constraint violations are detected with
// dberr.IsUniqueConstraintError and answered with a fixed message, so raw
// driver text never reaches clients.
package respond

import "encoding/json"

// ErrorEnvelope is the body of every JSON error response.
//
// Code is the numeric application error code, 0 for errors that do not carry
// one. Stacktrace is only filled in development mode. Meta is present only
// when the error supplied it.
type ErrorEnvelope struct {
	Code       int            `json:"code" example:"400"`
	Message    string         `json:"message" example:"workflow name is required"`
	Hint       string         `json:"hint,omitempty" example:"pick a different name"`
	Stacktrace string         `json:"stacktrace,omitempty"`
	Meta       map[string]any `json:"meta,omitempty" swaggertype:"object"`

	// Extra holds the allow-listed fields of an external-API error. They are
	// flattened into the top-level object and never replace the fields above.
	Extra map[string]any `json:"-" swaggerignore:"true"`
}

// MarshalJSON flattens Extra into the envelope.
func (e ErrorEnvelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+5)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["code"] = e.Code
	out["message"] = e.Message
	if e.Hint != "" {
		out["hint"] = e.Hint
	} else {
		delete(out, "hint")
	}
	if e.Stacktrace != "" {
		out["stacktrace"] = e.Stacktrace
	} else {
		delete(out, "stacktrace")
	}
	if e.Meta != nil {
		out["meta"] = e.Meta
	} else {
		delete(out, "meta")
	}
	return json.Marshal(out)
}

// SuccessEnvelope wraps a successful, non-raw payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}
