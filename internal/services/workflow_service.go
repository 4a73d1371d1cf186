// Package services – WorkflowService
//
// This file implements the WorkflowService, which manages the lifecycle of
// workflows. It normalizes and validates names and node definitions, enforces
// ownership, streams exports and triggers webhook test deliveries.
//
// Name uniqueness is left to the database: a duplicate surfaces as a
// unique-constraint query failure and is rewritten into a user-facing message
// by the HTTP layer. Validation messages, on the other hand, may quote
// user-supplied names and are reported as *ValidationError.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/domain"
	"github.com/tbourn/go-workflow-backend/internal/upstream"
)

// WorkflowRepo defines the repository contract required by WorkflowService.
type WorkflowRepo interface {
	CreateWorkflow(ctx context.Context, db *gorm.DB, w *domain.Workflow) error
	CountWorkflows(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)
	ListWorkflowsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Workflow, error)
	GetWorkflow(ctx context.Context, db *gorm.DB, id, ownerID string) (*domain.Workflow, error)
	RenameWorkflow(ctx context.Context, db *gorm.DB, id, ownerID, name string) error
	WorkflowNamesExist(ctx context.Context, db *gorm.DB, names []string) (map[string]bool, error)
	WorkflowsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, error)
}

// IdempotencyStore records completed creations so retried requests carrying
// the same Idempotency-Key get the original result back.
type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// Webhook delivers test payloads to third-party endpoints.
type Webhook interface {
	Deliver(ctx context.Context, url string, payload any) (*upstream.Delivery, error)
}

// Node is one step of a workflow definition. A node of type
// "executeWorkflow" references another workflow by name.
type Node struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Workflow string          `json:"workflow,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// NodeTypeExecuteWorkflow runs another workflow.
const NodeTypeExecuteWorkflow = "executeWorkflow"

// CreateWorkflowInput carries the fields accepted on creation.
type CreateWorkflowInput struct {
	Name       string
	Active     bool
	FormPath   string
	WebhookURL string
	Nodes      []Node
}

// WorkflowService provides workflow operations.
type WorkflowService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the workflow repository used by this service.
	Repo WorkflowRepo
	// Webhook performs test deliveries; nil disables them.
	Webhook Webhook
	// Idem stores Idempotency-Key outcomes; nil disables replays.
	Idem IdempotencyStore
	// IdempotencyTTL is how long a key replays its result.
	IdempotencyTTL time.Duration

	// NameMaxLen caps names by rune length.
	NameMaxLen int
	// MaxNodes caps the number of nodes per workflow.
	MaxNodes int
}

// NewWorkflowService constructs a WorkflowService with default limits.
func NewWorkflowService(db *gorm.DB, r WorkflowRepo, wh Webhook) *WorkflowService {
	return &WorkflowService{
		DB:             db,
		Repo:           r,
		Webhook:        wh,
		NameMaxLen:     128,
		MaxNodes:       200,
		IdempotencyTTL: 24 * time.Hour,
	}
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	formPathRE   = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,127}$`)
)

// NormalizeName applies Unicode NFC, trims, and collapses inner whitespace.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Create validates in and persists a new workflow owned by ownerID.
func (s *WorkflowService) Create(ctx context.Context, ownerID string, in CreateWorkflowInput) (*domain.Workflow, error) {
	name, err := s.validName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := s.validateNodes(ctx, in.Nodes); err != nil {
		return nil, err
	}
	nodes := in.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	raw, err := json.Marshal(nodes)
	if err != nil {
		return nil, err
	}

	w := &domain.Workflow{
		OwnerID:    ownerID,
		Name:       name,
		Active:     in.Active,
		WebhookURL: strings.TrimSpace(in.WebhookURL),
		Nodes:      string(raw),
	}
	if p := strings.ToLower(strings.TrimSpace(in.FormPath)); p != "" {
		if !formPathRE.MatchString(p) {
			return nil, invalid("formPath", "form path %q must contain only lowercase letters, digits and dashes", in.FormPath)
		}
		w.FormPath = &p
	}
	if err := s.Repo.CreateWorkflow(ctx, s.DB, w); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateOnce is Create guarded by an idempotency key. When a still-valid
// record exists for (ownerID, scope, key) the workflow it points at is
// returned with replayed set. Recording the outcome is best effort: a failure
// to store it never fails the creation.
func (s *WorkflowService) CreateOnce(ctx context.Context, ownerID, scope, key string, in CreateWorkflowInput) (w *domain.Workflow, replayed bool, err error) {
	if key == "" || s.Idem == nil {
		w, err = s.Create(ctx, ownerID, in)
		return w, false, err
	}

	if rec, err := s.Idem.GetIdempotency(ctx, s.DB, ownerID, scope, key, time.Now().UTC()); err == nil && rec != nil {
		prev, err := s.Get(ctx, ownerID, rec.ResourceID)
		if err == nil {
			return prev, true, nil
		}
		if !errors.Is(err, ErrWorkflowNotFound) {
			return nil, false, err
		}
		// The workflow is gone; fall through and create a new one.
	}

	w, err = s.Create(ctx, ownerID, in)
	if err != nil {
		return nil, false, err
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	// The workflow exists either way; a lost record only disables replays.
	if _, err := s.Idem.CreateIdempotency(ctx, s.DB, ownerID, scope, key, w.ID, http.StatusCreated, ttl); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("idempotency_key", key).
			Str("workflow_id", w.ID).
			Msg("idempotency record not stored")
	}
	return w, false, nil
}

// ListPage returns a page of workflows for ownerID and the total count.
func (s *WorkflowService) ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Workflow, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := s.Repo.CountWorkflows(ctx, s.DB, ownerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Workflow{}, 0, nil
	}
	items, err := s.Repo.ListWorkflowsPage(ctx, s.DB, ownerID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Count returns the number of workflows owned by ownerID.
func (s *WorkflowService) Count(ctx context.Context, ownerID string) (int64, error) {
	return s.Repo.CountWorkflows(ctx, s.DB, ownerID)
}

// Stats returns the count and latest update time, used for ETags.
func (s *WorkflowService) Stats(ctx context.Context, ownerID string) (int64, *time.Time, error) {
	return s.Repo.WorkflowsStats(ctx, s.DB, ownerID)
}

// Get returns a workflow owned by ownerID.
func (s *WorkflowService) Get(ctx context.Context, ownerID, id string) (*domain.Workflow, error) {
	w, err := s.Repo.GetWorkflow(ctx, s.DB, id, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkflowNotFound
	}
	return w, err
}

// Rename changes a workflow's name and returns the updated workflow.
func (s *WorkflowService) Rename(ctx context.Context, ownerID, id, name string) (*domain.Workflow, error) {
	name, err := s.validName(name)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RenameWorkflow(ctx, s.DB, id, ownerID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return s.Get(ctx, ownerID, id)
}

// Export streams the workflow as an indented JSON document. The caller must
// close the returned reader.
func (s *WorkflowService) Export(ctx context.Context, ownerID, id string) (io.ReadCloser, error) {
	w, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	doc := struct {
		Name   string          `json:"name"`
		Active bool            `json:"active"`
		Nodes  json.RawMessage `json:"nodes"`
	}{Name: w.Name, Active: w.Active, Nodes: json.RawMessage(w.Nodes)}

	pr, pw := io.Pipe()
	go func() {
		enc := json.NewEncoder(pw)
		enc.SetIndent("", "  ")
		pw.CloseWithError(enc.Encode(doc))
	}()
	return pr, nil
}

// TestWebhook posts a test payload to the workflow's webhook URL. Upstream
// failures are returned as *apperr.ExternalAPIError by the webhook client.
func (s *WorkflowService) TestWebhook(ctx context.Context, ownerID, id string) (*upstream.Delivery, error) {
	w, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if w.WebhookURL == "" || s.Webhook == nil {
		return nil, ErrNoWebhookURL
	}
	return s.Webhook.Deliver(ctx, w.WebhookURL, map[string]any{
		"test":       true,
		"workflowId": w.ID,
		"workflow":   w.Name,
		"sentAt":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *WorkflowService) validName(name string) (string, error) {
	name = NormalizeName(name)
	if name == "" {
		return "", invalid("name", "workflow name must not be empty")
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return "", invalid("name", "workflow name must be at most %d characters", s.NameMaxLen)
	}
	return name, nil
}

// validateNodes checks node names are unique and that every referenced
// sub-workflow exists. Messages quote user-supplied names verbatim.
func (s *WorkflowService) validateNodes(ctx context.Context, nodes []Node) error {
	if s.MaxNodes > 0 && len(nodes) > s.MaxNodes {
		return invalid("nodes", "a workflow may contain at most %d nodes", s.MaxNodes)
	}
	seen := make(map[string]struct{}, len(nodes))
	var refs []string
	for i, n := range nodes {
		name := NormalizeName(n.Name)
		if name == "" {
			return invalid("nodes", "node %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return invalid("nodes", "duplicate node name %q", name)
		}
		seen[name] = struct{}{}
		if n.Type == NodeTypeExecuteWorkflow {
			ref := NormalizeName(n.Workflow)
			if ref == "" {
				return invalid("nodes", "node %q must reference a workflow", name)
			}
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	exists, err := s.Repo.WorkflowNamesExist(ctx, s.DB, refs)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if !exists[ref] {
			return invalid("nodes", "node references workflow %q which does not exist", ref)
		}
	}
	return nil
}
