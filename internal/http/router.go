// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Every error response, including the ones produced by middleware, is written
// by a single respond.Dispatcher so clients always see the same envelope.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
	"github.com/tbourn/go-workflow-backend/internal/config"
	"github.com/tbourn/go-workflow-backend/internal/domain"
	"github.com/tbourn/go-workflow-backend/internal/http/handlers"
	"github.com/tbourn/go-workflow-backend/internal/http/middleware"
	"github.com/tbourn/go-workflow-backend/internal/http/respond"
	"github.com/tbourn/go-workflow-backend/internal/observability"
	"github.com/tbourn/go-workflow-backend/internal/repo"
	"github.com/tbourn/go-workflow-backend/internal/services"
	"github.com/tbourn/go-workflow-backend/internal/upstream"
)

// repoShim adapts the repository free functions to the repository interfaces
// expected by the services.
type repoShim struct{}

func (repoShim) CreateWorkflow(ctx context.Context, db *gorm.DB, w *domain.Workflow) error {
	return repo.CreateWorkflow(ctx, db, w)
}

func (repoShim) CountWorkflows(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountWorkflows(ctx, db, ownerID)
}

func (repoShim) ListWorkflowsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Workflow, error) {
	return repo.ListWorkflowsPage(ctx, db, ownerID, offset, limit)
}

func (repoShim) GetWorkflow(ctx context.Context, db *gorm.DB, id, ownerID string) (*domain.Workflow, error) {
	return repo.GetWorkflow(ctx, db, id, ownerID)
}

func (repoShim) RenameWorkflow(ctx context.Context, db *gorm.DB, id, ownerID, name string) error {
	return repo.RenameWorkflow(ctx, db, id, ownerID, name)
}

func (repoShim) WorkflowNamesExist(ctx context.Context, db *gorm.DB, names []string) (map[string]bool, error) {
	return repo.WorkflowNamesExist(ctx, db, names)
}

func (repoShim) WorkflowsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error) {
	return repo.WorkflowsStats(ctx, db, ownerID)
}

func (repoShim) FindWorkflowByFormPath(ctx context.Context, db *gorm.DB, path string) (*domain.Workflow, error) {
	return repo.FindWorkflowByFormPath(ctx, db, path)
}

func (repoShim) CreateTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	return repo.CreateTag(ctx, db, name)
}

func (repoShim) ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	return repo.ListTags(ctx, db)
}

func (repoShim) CreateExecution(ctx context.Context, db *gorm.DB, workflowID, status string) (*domain.Execution, error) {
	return repo.CreateExecution(ctx, db, workflowID, status)
}

func (repoShim) GetExecution(ctx context.Context, db *gorm.DB, id string) (*domain.Execution, error) {
	return repo.GetExecution(ctx, db, id)
}

func (repoShim) FinishExecution(ctx context.Context, db *gorm.DB, id, status string) error {
	return repo.FinishExecution(ctx, db, id, status)
}

func (repoShim) GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, userID, scope, key, now)
}

func (repoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, ttl)
}

// Deps are optional collaborators. Zero values get production defaults.
type Deps struct {
	// Webhook delivers workflow test payloads.
	Webhook services.Webhook
	// Reporter receives request errors treated as incidents.
	Reporter observability.Reporter
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the dispatcher used to complete requests.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with query redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) *respond.Dispatcher {
	r.HandleMethodNotAllowed = true

	if deps.Webhook == nil {
		deps.Webhook = upstream.NewWebhookClient(cfg.UpstreamTimeout)
	}
	if deps.Reporter == nil {
		deps.Reporter = observability.NewSpanReporter(log.Logger)
	}

	disp := respond.New(respond.Options{
		DevMode:  cfg.DevMode(),
		Reporter: deps.Reporter,
		Pages:    respond.DefaultErrorPages(cfg.Forms.LegacyMarker),
	})

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery through the dispatcher
	r.Use(middleware.Recovery(disp.Fail))

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, Fail: disp.Fail},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return rec != nil, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler(disp.Fail))

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", handlers.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers. The swagger UI needs scripts, so the page CSP is
	// left off when it is served.
	csp := middleware.DefaultPageCSP
	if cfg.SwaggerEnabled {
		csp = ""
	}
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		CSP:          csp,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		disp.Fail(c, apperr.NotFound("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		disp.Fail(c, apperr.New(http.StatusMethodNotAllowed, "method not allowed"))
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	wfSvc := services.NewWorkflowService(db, repoShim{}, deps.Webhook)
	wfSvc.Idem = repoShim{}
	wfSvc.IdempotencyTTL = cfg.IdempotencyTTL
	h := handlers.New(
		wfSvc,
		services.NewTagService(db, repoShim{}),
		services.NewLicenseService(cfg.EULAURL),
		services.NewFormService(db, repoShim{}),
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Workflows
		api.POST("/workflows", disp.Send(h.CreateWorkflow, false))
		api.GET("/workflows", disp.Send(h.ListWorkflows, false))
		api.GET("/workflows/count", disp.Send(h.CountWorkflows, true))
		api.GET("/workflows/:id", disp.Send(h.GetWorkflow, false))
		api.PATCH("/workflows/:id", disp.Send(h.RenameWorkflow, false))
		api.GET("/workflows/:id/export", disp.Send(h.ExportWorkflow, false))
		api.POST("/workflows/:id/test-webhook", disp.Send(h.TestWorkflowWebhook, false))

		// Tags
		api.POST("/tags", disp.Send(h.CreateTag, false))
		api.GET("/tags", disp.Send(h.ListTags, false))

		// License
		api.POST("/license/activate", disp.Send(h.ActivateLicense, false))
	}

	// Public forms (outside the API base path)
	r.GET("/form/:path", disp.Send(h.OpenForm, false))
	r.GET("/form-test/:path", disp.Send(h.OpenTestForm, false))
	r.GET("/form-waiting/:id", disp.Send(h.FormWaiting, false))
	r.POST("/form-waiting/:id", disp.Send(h.SubmitForm, false))

	return disp
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
