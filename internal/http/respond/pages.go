package respond

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
)

// Page template names.
const (
	PageFormNotFound = "form-trigger-404.html"
	PageFormConflict = "form-trigger-409.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Templates returns the parsed error page templates, for engines that want
// to render them directly (gin.Engine.SetHTMLTemplate).
func Templates() *template.Template { return pageTemplates }

// ErrorPage renders a domain error as an HTML page instead of the JSON
// envelope. A rule applies when the error's application code equals Code and
// Match accepts the request.
type ErrorPage struct {
	Code     int
	Match    func(r *http.Request) bool
	Template string
	// Data builds the template data. Nil means no data.
	Data func(c *gin.Context, re *apperr.ResponseError) gin.H
}

// DefaultErrorPages returns the rules for the public form routes:
//
//   - code 404 on a path whose first segment contains "form", or on any
//     request URI (query included) containing legacyMarker: the
//     form-not-found page, flagged as a test form when the first segment
//     contains "test".
//   - code 409 on a path containing "form-waiting": the conflict page
//     showing the error message.
func DefaultErrorPages(legacyMarker string) []ErrorPage {
	return []ErrorPage{
		{
			Code: http.StatusNotFound,
			Match: func(r *http.Request) bool {
				if strings.Contains(firstSegment(r.URL.Path), "form") {
					return true
				}
				return legacyMarker != "" && strings.Contains(r.URL.RequestURI(), legacyMarker)
			},
			Template: PageFormNotFound,
			Data: func(c *gin.Context, _ *apperr.ResponseError) gin.H {
				return gin.H{"isTestWebhook": strings.Contains(firstSegment(c.Request.URL.Path), "test")}
			},
		},
		{
			Code:     http.StatusConflict,
			Match:    func(r *http.Request) bool { return strings.Contains(r.URL.Path, "form-waiting") },
			Template: PageFormConflict,
			Data: func(_ *gin.Context, re *apperr.ResponseError) gin.H {
				return gin.H{"message": re.Message}
			},
		},
	}
}

// firstSegment returns "form" for "/form/abc".
func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// pageFor returns the first rule matching re on the request.
func pageFor(pages []ErrorPage, c *gin.Context, re *apperr.ResponseError) (ErrorPage, bool) {
	for _, p := range pages {
		if p.Code == re.Code && p.Match != nil && p.Match(c.Request) {
			return p, true
		}
	}
	return ErrorPage{}, false
}

// renderPage writes the page with the domain error's status.
func renderPage(c *gin.Context, tmpl *template.Template, p ErrorPage, re *apperr.ResponseError) {
	var data gin.H
	if p.Data != nil {
		data = p.Data(c, re)
	}
	status := http.StatusInternalServerError
	if validStatus(re.Status) {
		status = re.Status
	}
	c.Render(status, render.HTML{Template: tmpl, Name: p.Template, Data: data})
	c.Abort()
}
