package respond

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/observability"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

var _ observability.Reporter = (*recordingReporter)(nil)

func serve(t *testing.T, d *Dispatcher, method, path, route string, h HandlerFunc, raw bool) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, route, d.Send(h, raw))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return m
}

func uniqueViolation(msg string) error {
	return dberr.Wrap(&dberr.DriverError{Code: "23505", Message: msg}, "insert workflows")
}

func TestSend_UniqueViolationMessageRewritten(t *testing.T) {
	for _, msg := range []string{
		`duplicate key value violates unique constraint "ux_workflows_name"`,
		"some driver text nobody should see",
	} {
		d := New(Options{})
		w := serve(t, d, http.MethodPost, "/api/v1/workflows", "/api/v1/workflows", func(*gin.Context) (any, error) {
			return nil, fmt.Errorf("create workflow: %w", uniqueViolation(msg))
		}, false)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d", w.Code)
		}
		b := body(t, w)
		if b["message"] != UniqueViolationMessage || b["code"] != float64(0) {
			t.Fatalf("unexpected body: %v", b)
		}
		if strings.Contains(w.Body.String(), msg) {
			t.Fatalf("driver message leaked: %s", w.Body.String())
		}
	}
}

func TestSend_ValidationTextIsNotRewritten(t *testing.T) {
	d := New(Options{})
	msg := `node references workflow "Duplicate Detection" which does not exist`
	w := serve(t, d, http.MethodPost, "/api/v1/workflows", "/api/v1/workflows", func(*gin.Context) (any, error) {
		return nil, apperr.BadRequest(msg)
	}, false)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if b := body(t, w); b["message"] != msg || b["code"] != float64(400) {
		t.Fatalf("unexpected body: %v", b)
	}
}

func TestSend_ReportingSkipsClientErrorsUpTo404(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		report bool
	}{
		{"400", apperr.BadRequest("bad"), false},
		{"401", apperr.Unauthorized("who"), false},
		{"404", apperr.NotFound("gone"), false},
		{"409", apperr.Conflict("taken"), true},
		{"500 domain", apperr.Internal("boom"), true},
		{"plain", errors.New("plain"), true},
		{"query failure", uniqueViolation("dup"), true},
		{"external", apperr.NewExternalAPIError("WebhookError", "down", 0, "", nil), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := &recordingReporter{}
			d := New(Options{Reporter: rep})
			serve(t, d, http.MethodGet, "/x", "/x", func(*gin.Context) (any, error) { return nil, tc.err }, false)
			if got := rep.count() == 1; got != tc.report {
				t.Fatalf("reported=%v want %v", got, tc.report)
			}
		})
	}
}

func TestSend_ReporterGetsOriginalError(t *testing.T) {
	rep := &recordingReporter{}
	d := New(Options{Reporter: rep})
	orig := uniqueViolation("raw driver text")
	serve(t, d, http.MethodGet, "/x", "/x", func(*gin.Context) (any, error) { return nil, orig }, false)

	if rep.count() != 1 || rep.errs[0].Error() != "raw driver text" {
		t.Fatalf("reporter should see the unrewritten error: %v", rep.errs)
	}
}

func TestSend_SuccessEnvelopeAndRaw(t *testing.T) {
	d := New(Options{})
	payload := func(*gin.Context) (any, error) { return gin.H{"id": "w1"}, nil }

	w := serve(t, d, http.MethodGet, "/x", "/x", payload, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	data, ok := body(t, w)["data"].(map[string]any)
	if !ok || data["id"] != "w1" {
		t.Fatalf("expected {data:{id}}: %s", w.Body.String())
	}

	w = serve(t, d, http.MethodGet, "/x", "/x", payload, true)
	if b := body(t, w); b["id"] != "w1" || b["data"] != nil {
		t.Fatalf("raw mode must not wrap: %s", w.Body.String())
	}

	w = serve(t, d, http.MethodGet, "/x", "/x", func(*gin.Context) (any, error) { return 3, nil }, true)
	if strings.TrimSpace(w.Body.String()) != "3" {
		t.Fatalf("raw number body: %q", w.Body.String())
	}
}

func TestSend_HandlerStatusIsKept(t *testing.T) {
	d := New(Options{})
	w := serve(t, d, http.MethodPost, "/x", "/x", func(c *gin.Context) (any, error) {
		c.Status(http.StatusCreated)
		return gin.H{"id": "w1"}, nil
	}, false)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSend_HandlerThatAlreadyWroteIsLeftAlone(t *testing.T) {
	d := New(Options{})
	w := serve(t, d, http.MethodGet, "/x", "/x", func(c *gin.Context) (any, error) {
		c.String(http.StatusAccepted, "streamed")
		return gin.H{"ignored": true}, nil
	}, false)
	if w.Code != http.StatusAccepted || w.Body.String() != "streamed" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestSendError_DevModeLogsAndStacktrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	lg := zerolog.New(&buf)

	d := New(Options{DevMode: true})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("logger", &lg); c.Next() })
	r.GET("/x", d.Send(func(*gin.Context) (any, error) {
		return nil, apperr.NotFound("workflow not found")
	}, false))
	r.GET("/ext", d.Send(func(*gin.Context) (any, error) {
		return nil, apperr.NewExternalAPIError("WebhookError", "down", 503, "unavailable", nil)
	}, false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if st, _ := body(t, w)["stacktrace"].(string); st == "" {
		t.Fatalf("dev mode should expose the stacktrace: %s", w.Body.String())
	}
	if !strings.Contains(buf.String(), `"status":404`) || !strings.Contains(buf.String(), "workflow not found") {
		t.Fatalf("domain error not logged: %s", buf.String())
	}

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ext", nil))
	if !strings.Contains(buf.String(), `"name":"WebhookError"`) {
		t.Fatalf("external error not logged: %s", buf.String())
	}
}

func TestSendError_ProdModeIsQuietAndHidesStack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	lg := zerolog.New(&buf)

	d := New(Options{})
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("logger", &lg); c.Next() })
	r.GET("/x", d.Send(func(*gin.Context) (any, error) { return nil, apperr.NotFound("nope") }, false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if _, ok := body(t, w)["stacktrace"]; ok {
		t.Fatalf("stacktrace leaked: %s", w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}

func TestFail_NilErrorStillAnswers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	d := New(Options{})
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { d.Fail(c, nil) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if b := body(t, w); b["message"] != "Unknown error" || b["code"] != float64(0) {
		t.Fatalf("unexpected body: %v", b)
	}
}

func TestSend_ConcurrentRequestsAreIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rep := &recordingReporter{}
	d := New(Options{Reporter: rep})
	r := gin.New()
	r.GET("/ok", d.Send(func(*gin.Context) (any, error) { return "fine", nil }, false))
	r.GET("/dup", d.Send(func(*gin.Context) (any, error) { return nil, uniqueViolation("dup") }, false))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/ok"
			if i%2 == 1 {
				path = "/dup"
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			if path == "/ok" && w.Code != http.StatusOK {
				t.Errorf("ok: status=%d", w.Code)
			}
			if path == "/dup" && !strings.Contains(w.Body.String(), UniqueViolationMessage) {
				t.Errorf("dup: body=%s", w.Body.String())
			}
		}(i)
	}
	wg.Wait()
	if rep.count() != 10 {
		t.Fatalf("reports=%d", rep.count())
	}
}
