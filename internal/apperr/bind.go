package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldViolation describes one failed validation rule on a request field.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// FromBindError converts a request binding failure (as returned by
// gin.Context.ShouldBindJSON) into a 400 domain error. Validation failures
// list the offending fields under meta.fields.
func FromBindError(err error) *ResponseError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldViolation{
				Field: lowerFirst(fe.Field()),
				Rule:  fe.Tag(),
			})
		}
		return BadRequest("request validation failed",
			WithMeta(map[string]any{"fields": fields}),
			WithCause(err),
		)
	}

	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return BadRequest("request body is empty", WithCause(err))
	case errors.As(err, &syn), errors.As(err, &typ), errors.Is(err, io.ErrUnexpectedEOF):
		return BadRequest("request body is not valid JSON", WithCause(err))
	}
	return BadRequest("invalid request", WithCause(err))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
