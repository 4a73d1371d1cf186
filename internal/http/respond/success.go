package respond

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/http/middleware"
)

type successOptions struct {
	raw     bool
	status  int
	headers map[string]string
}

// SuccessOption customizes SendSuccess.
type SuccessOption func(*successOptions)

// Raw writes the payload as the body instead of wrapping it in {"data": …}.
func Raw() SuccessOption {
	return func(o *successOptions) { o.raw = true }
}

// WithStatus overrides the response status.
func WithStatus(code int) SuccessOption {
	return func(o *successOptions) { o.status = code }
}

// WithHeaders sets response headers before the body is written.
func WithHeaders(h map[string]string) SuccessOption {
	return func(o *successOptions) { o.headers = h }
}

// SendSuccess writes a successful response.
//
// The status defaults to whatever the handler already set with c.Status
// (200 otherwise). Data implementing io.Reader is streamed to the client
// as-is and closed afterwards when it is an io.Closer. In raw mode a string
// is sent as text, a []byte as an octet stream and anything else as JSON.
// Otherwise the payload is wrapped as {"data": data}.
func SendSuccess(c *gin.Context, data any, opts ...SuccessOption) {
	o := successOptions{status: c.Writer.Status()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.status == 0 {
		o.status = http.StatusOK
	}
	for k, v := range o.headers {
		c.Header(k, v)
	}

	if r, ok := data.(io.Reader); ok {
		if rc, ok := r.(io.Closer); ok {
			defer rc.Close()
		}
		c.Status(o.status)
		if _, err := io.Copy(c.Writer, r); err != nil {
			// Headers are gone by now; the client sees a truncated body.
			middleware.LoggerFrom(c).Warn().Err(err).Msg("response stream aborted")
		}
		return
	}

	if o.raw {
		switch v := data.(type) {
		case string:
			c.Data(o.status, "text/plain; charset=utf-8", []byte(v))
		case []byte:
			c.Data(o.status, "application/octet-stream", v)
		default:
			c.JSON(o.status, data)
		}
		return
	}
	c.JSON(o.status, SuccessEnvelope{Data: data})
}
