package respond

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/http/middleware"
	"github.com/tbourn/go-workflow-backend/internal/observability"
)

// UniqueViolationMessage replaces the message of any unique-constraint
// violation before it reaches the client.
const UniqueViolationMessage = "There is already an entry with this name"

// HandlerFunc is an endpoint that returns its payload instead of writing it.
// A handler may still write the response itself (streaming, redirects); the
// returned value is then ignored.
type HandlerFunc func(c *gin.Context) (any, error)

// Options configures a Dispatcher.
type Options struct {
	// DevMode exposes stack traces and logs every domain error.
	DevMode bool
	// Reporter receives errors treated as incidents. Nil disables reporting.
	Reporter observability.Reporter
	// Pages are the HTML error page rules, checked in order.
	Pages []ErrorPage
	// Templates overrides the page templates (defaults to Templates()).
	Templates *template.Template
}

// Dispatcher completes requests for HandlerFuncs. It holds no per-request
// state and is safe for concurrent use.
type Dispatcher struct {
	devMode  bool
	reporter observability.Reporter
	pages    []ErrorPage
	tmpl     *template.Template
}

// New returns a Dispatcher configured by opts.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		devMode:  opts.DevMode,
		reporter: opts.Reporter,
		pages:    opts.Pages,
		tmpl:     opts.Templates,
	}
	if d.tmpl == nil {
		d.tmpl = Templates()
	}
	return d
}

// Send adapts h to a gin.HandlerFunc. A returned error goes through Fail.
// Otherwise, unless h already wrote the response, the payload is written by
// SendSuccess (unwrapped when raw is set).
func (d *Dispatcher) Send(h HandlerFunc, raw bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h(c)
		if err != nil {
			d.Fail(c, err)
			return
		}
		if c.Writer.Written() {
			return
		}
		if raw {
			SendSuccess(c, data, Raw())
			return
		}
		SendSuccess(c, data)
	}
}

// Fail reports err when it is an incident, hides database unique-constraint
// details behind UniqueViolationMessage and writes the error response.
//
// Domain errors with a status up to 404 are expected client errors and are
// not reported.
func (d *Dispatcher) Fail(c *gin.Context, err error) {
	if err == nil {
		err = apperr.Internal(unknownErrorMessage, apperr.WithCode(0))
	}
	if d.reporter != nil && shouldReport(err) {
		d.reporter.Report(c.Request.Context(), err, map[string]string{
			"http.method": c.Request.Method,
			"http.route":  c.FullPath(),
			"request_id":  middleware.RequestIDFrom(c),
		})
	}
	if dberr.IsUniqueConstraintError(err) {
		middleware.ObserveUniqueViolation()
		err = apperr.WithMessage(err, UniqueViolationMessage)
	}
	d.SendError(c, err)
}

func shouldReport(err error) bool {
	re, ok := apperr.AsResponseError(err)
	return !ok || re.Status > http.StatusNotFound
}

// SendError writes err as an error page (when a page rule matches a domain
// error) or as the JSON error envelope.
func (d *Dispatcher) SendError(c *gin.Context, err error) {
	lg := middleware.LoggerFrom(c)
	kind := apperr.KindOf(err)

	if re, ok := apperr.AsResponseError(err); ok {
		if d.devMode {
			lg.Error().Int("status", re.Status).Str("message", err.Error()).Msg("api error")
		}
		if p, ok := pageFor(d.pages, c, re); ok && !c.Writer.Written() {
			middleware.ObserveErrorResponse(kind.String(), re.Status)
			renderPage(c, d.tmpl, p, re)
			return
		}
	}
	if ee, ok := apperr.AsExternalAPIError(err); ok && d.devMode {
		lg.Error().Str("name", ee.Name).Str("message", ee.Message).Msg("external api error")
	}

	status, env := BuildErrorEnvelope(err, d.devMode)
	middleware.ObserveErrorResponse(kind.String(), status)
	writeError(c, status, env)
}
