// Workflow HTTP handlers.
//
//   - POST  /workflows                    (create, Idempotency-Key aware)
//   - GET   /workflows                    (list, paginated, weak ETag)
//   - GET   /workflows/count              (raw count)
//   - GET   /workflows/{id}               (get)
//   - PATCH /workflows/{id}               (rename)
//   - GET   /workflows/{id}/export        (streamed JSON document)
//   - POST  /workflows/{id}/test-webhook  (third-party delivery)
//
// Duplicate names are not checked here. The insert fails on the unique index
// and the dispatcher answers with a fixed message.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-workflow-backend/internal/apperr"
	"github.com/tbourn/go-workflow-backend/internal/domain"
	"github.com/tbourn/go-workflow-backend/internal/http/middleware"
	"github.com/tbourn/go-workflow-backend/internal/services"
)

// HeaderIdempotencyReplayed marks a response served from a previous request.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// DTOs
//

// CreateWorkflowRequest is the JSON payload for creating a workflow.
type CreateWorkflowRequest struct {
	Name       string          `json:"name" binding:"required,max=256" example:"Order sync"`
	Active     bool            `json:"active" example:"false"`
	FormPath   string          `json:"formPath,omitempty" binding:"omitempty,max=128" example:"contact-us"`
	WebhookURL string          `json:"webhookUrl,omitempty" binding:"omitempty,url,max=2048" example:"https://hooks.example.com/orders"`
	Nodes      []services.Node `json:"nodes,omitempty" binding:"omitempty,dive"`
}

// RenameWorkflowRequest is the JSON payload for renaming a workflow.
type RenameWorkflowRequest struct {
	Name string `json:"name" binding:"required,max=256" example:"Order sync v2"`
}

// ListWorkflowsResponse wraps a page of workflows.
type ListWorkflowsResponse struct {
	Workflows  []domain.Workflow `json:"workflows"`
	Pagination Pagination        `json:"pagination"`
}

// CountResponse is the raw body of the count endpoint.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

func workflowID(c *gin.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.BadRequest("workflow id must be a UUID")
	}
	return id, nil
}

//
// Handlers
//

// CreateWorkflow godoc
// @ID          createWorkflow
// @Summary     Create a workflow
// @Description Creates a workflow owned by the current user. Names are unique across the installation.
// @Description Supports idempotency via the Idempotency-Key header (same key → same workflow).
// @Tags        Workflows
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateWorkflowRequest  true  "Workflow"
//
// @Success     201  {object}  respond.SuccessEnvelope{data=domain.Workflow}
// @Success     200  {object}  respond.SuccessEnvelope{data=domain.Workflow}  "Replayed"
// @Failure     400  {object}  respond.ErrorEnvelope  "Validation failed"
// @Failure     500  {object}  respond.ErrorEnvelope  "Duplicate name or internal error"
// @Router      /workflows [post]
func (h *Handlers) CreateWorkflow(c *gin.Context) (any, error) {
	var req CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.FromBindError(err)
	}

	key, _ := middleware.GetIdempotencyKey(c)
	w, replayed, err := h.workflows.CreateOnce(c.Request.Context(), userID(c), middleware.IdempotencyScope(c), key, services.CreateWorkflowInput{
		Name:       req.Name,
		Active:     req.Active,
		FormPath:   req.FormPath,
		WebhookURL: req.WebhookURL,
		Nodes:      req.Nodes,
	})
	if err != nil {
		return nil, apiError(err)
	}
	if replayed {
		c.Header(HeaderIdempotencyReplayed, "true")
		return w, nil
	}
	c.Status(http.StatusCreated)
	return w, nil
}

// ListWorkflows godoc
// @ID          listWorkflows
// @Summary     List workflows (paginated)
// @Description Returns a page of the user's workflows. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Workflows
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} respond.SuccessEnvelope{data=handlers.ListWorkflowsResponse}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} respond.ErrorEnvelope "Internal error"
// @Router      /workflows [get]
func (h *Handlers) ListWorkflows(c *gin.Context) (any, error) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.workflows.Stats(ctx, uid); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"workflows:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.AbortWithStatus(http.StatusNotModified)
			return nil, nil
		}
	}

	items, total, err := h.workflows.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		return nil, apiError(err)
	}
	return ListWorkflowsResponse{
		Workflows:  items,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// CountWorkflows godoc
// @ID          countWorkflows
// @Summary     Count workflows
// @Description Returns the number of workflows owned by the current user, without the data envelope.
// @Tags        Workflows
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Success     200  {object} handlers.CountResponse
// @Failure     500  {object} respond.ErrorEnvelope "Internal error"
// @Router      /workflows/count [get]
func (h *Handlers) CountWorkflows(c *gin.Context) (any, error) {
	n, err := h.workflows.Count(c.Request.Context(), userID(c))
	if err != nil {
		return nil, apiError(err)
	}
	return CountResponse{Count: n}, nil
}

// GetWorkflow godoc
// @ID          getWorkflow
// @Summary     Get a workflow
// @Tags        Workflows
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workflow ID (UUID)"     format(uuid)
// @Success     200  {object} respond.SuccessEnvelope{data=domain.Workflow}
// @Failure     400  {object} respond.ErrorEnvelope "Bad request"
// @Failure     404  {object} respond.ErrorEnvelope "Workflow not found"
// @Router      /workflows/{id} [get]
func (h *Handlers) GetWorkflow(c *gin.Context) (any, error) {
	id, err := workflowID(c)
	if err != nil {
		return nil, err
	}
	w, err := h.workflows.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		return nil, apiError(err)
	}
	return w, nil
}

// RenameWorkflow godoc
// @ID          renameWorkflow
// @Summary     Rename a workflow
// @Tags        Workflows
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workflow ID (UUID)"     format(uuid)
// @Param       body       body    handlers.RenameWorkflowRequest  true  "New name"
// @Success     200  {object} respond.SuccessEnvelope{data=domain.Workflow}
// @Failure     400  {object} respond.ErrorEnvelope "Bad request"
// @Failure     404  {object} respond.ErrorEnvelope "Workflow not found"
// @Failure     500  {object} respond.ErrorEnvelope "Duplicate name or internal error"
// @Router      /workflows/{id} [patch]
func (h *Handlers) RenameWorkflow(c *gin.Context) (any, error) {
	id, err := workflowID(c)
	if err != nil {
		return nil, err
	}
	var req RenameWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperr.FromBindError(err)
	}
	w, err := h.workflows.Rename(c.Request.Context(), userID(c), id, req.Name)
	if err != nil {
		return nil, apiError(err)
	}
	return w, nil
}

// ExportWorkflow godoc
// @ID          exportWorkflow
// @Summary     Export a workflow
// @Description Streams the workflow definition as a JSON document download.
// @Tags        Workflows
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workflow ID (UUID)"     format(uuid)
// @Success     200  {file}   file
// @Failure     404  {object} respond.ErrorEnvelope "Workflow not found"
// @Router      /workflows/{id}/export [get]
func (h *Handlers) ExportWorkflow(c *gin.Context) (any, error) {
	id, err := workflowID(c)
	if err != nil {
		return nil, err
	}
	rc, err := h.workflows.Export(c.Request.Context(), userID(c), id)
	if err != nil {
		return nil, apiError(err)
	}
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="workflow-%s.json"`, id))
	return rc, nil
}

// TestWorkflowWebhook godoc
// @ID          testWorkflowWebhook
// @Summary     Send a test delivery to the workflow webhook
// @Description Posts a sample payload to the workflow's webhook URL. Upstream failures are
// @Description returned with the third party's status in httpCode.
// @Tags        Workflows
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workflow ID (UUID)"     format(uuid)
// @Success     200  {object} respond.SuccessEnvelope{data=upstream.Delivery}
// @Failure     400  {object} respond.ErrorEnvelope "No webhook URL"
// @Failure     404  {object} respond.ErrorEnvelope "Workflow not found"
// @Failure     500  {object} respond.ErrorEnvelope "Upstream failure"
// @Router      /workflows/{id}/test-webhook [post]
func (h *Handlers) TestWorkflowWebhook(c *gin.Context) (any, error) {
	id, err := workflowID(c)
	if err != nil {
		return nil, err
	}
	d, err := h.workflows.TestWebhook(c.Request.Context(), userID(c), id)
	if err != nil {
		return nil, apiError(err)
	}
	return d, nil
}
