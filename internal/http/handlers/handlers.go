package handlers

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workflow-backend/internal/domain"
	"github.com/tbourn/go-workflow-backend/internal/http/middleware"
	"github.com/tbourn/go-workflow-backend/internal/services"
	"github.com/tbourn/go-workflow-backend/internal/upstream"
)

//
// Service contracts (context-aware)
//

// WorkflowService defines the workflow operations consumed by the handlers.
type WorkflowService interface {
	CreateOnce(ctx context.Context, ownerID, scope, key string, in services.CreateWorkflowInput) (*domain.Workflow, bool, error)
	ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Workflow, int64, error)
	Count(ctx context.Context, ownerID string) (int64, error)
	Stats(ctx context.Context, ownerID string) (int64, *time.Time, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Workflow, error)
	Rename(ctx context.Context, ownerID, id, name string) (*domain.Workflow, error)
	Export(ctx context.Context, ownerID, id string) (io.ReadCloser, error)
	TestWebhook(ctx context.Context, ownerID, id string) (*upstream.Delivery, error)
}

// TagService defines tag operations.
type TagService interface {
	Create(ctx context.Context, name string) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
}

// LicenseService activates licenses.
type LicenseService interface {
	Activate(ctx context.Context, key string, eulaAccepted bool) (*services.Activation, error)
}

// FormService serves the public form routes.
type FormService interface {
	Open(ctx context.Context, path string, test bool) (*services.FormView, error)
	Waiting(ctx context.Context, executionID string) (*domain.Execution, error)
	Submit(ctx context.Context, executionID string) (*domain.Execution, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on service interfaces only.
type Handlers struct {
	workflows WorkflowService
	tags      TagService
	license   LicenseService
	forms     FormService
}

// New constructs Handlers bound to the given services.
func New(workflows WorkflowService, tags TagService, license LicenseService, forms FormService) *Handlers {
	return &Handlers{workflows: workflows, tags: tags, license: license, forms: forms}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page and page_size and bounds them.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = atoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = atoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// atoiDefault returns def when s is empty or not an integer.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func userID(c *gin.Context) string { return middleware.UserID(c) }
