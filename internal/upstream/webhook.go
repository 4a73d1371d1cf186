// Package upstream contains clients for third-party HTTP APIs called on a
// client's behalf. Failures are reported as *apperr.ExternalAPIError so the
// response layer can expose a fixed set of diagnostic fields.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

// ErrorName is the ExternalAPIError name used for webhook failures.
const ErrorName = "WebhookError"

const maxDescription = 200

// Delivery summarizes a successful webhook call.
type Delivery struct {
	StatusCode int    `json:"statusCode" example:"200"`
	DurationMS int64  `json:"durationMs" example:"42"`
	Body       string `json:"body,omitempty"`
}

// WebhookClient posts JSON payloads to workflow webhook URLs.
type WebhookClient struct {
	http *resty.Client
}

// NewWebhookClient returns a client with the given per-call timeout.
func NewWebhookClient(timeout time.Duration) *WebhookClient {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "go-workflow-backend/webhook")
	return &WebhookClient{http: c}
}

// Deliver posts payload to url. A transport failure or a non-2xx answer is
// returned as *apperr.ExternalAPIError. The upstream body of a failed call is
// logged, never returned.
func (w *WebhookClient) Deliver(ctx context.Context, url string, payload any) (*Delivery, error) {
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(url)
	if err != nil {
		return nil, apperr.NewExternalAPIError(ErrorName,
			"The webhook could not be reached", 0, "request failed before a response was received", err)
	}

	body := truncate(strings.TrimSpace(resp.String()), maxDescription)
	if !resp.IsSuccess() {
		code := resp.StatusCode()
		log.Ctx(ctx).Warn().
			Int("status", code).
			Str("body", body).
			Msg("webhook rejected delivery")
		return nil, apperr.NewExternalAPIError(ErrorName,
			fmt.Sprintf("The webhook responded with status %d", code), code, statusDescription(code), nil)
	}
	return &Delivery{
		StatusCode: resp.StatusCode(),
		DurationMS: resp.Time().Milliseconds(),
		Body:       body,
	}, nil
}

// statusDescription is the client-facing description of a non-2xx answer.
func statusDescription(code int) string {
	text := http.StatusText(code)
	if text == "" {
		text = fmt.Sprintf("Status %d", code)
	}
	return text + ": the webhook endpoint rejected the delivery"
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}
