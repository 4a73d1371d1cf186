package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// FormRepo defines the repository contract required by FormService.
type FormRepo interface {
	FindWorkflowByFormPath(ctx context.Context, db *gorm.DB, path string) (*domain.Workflow, error)
	CreateExecution(ctx context.Context, db *gorm.DB, workflowID, status string) (*domain.Execution, error)
	GetExecution(ctx context.Context, db *gorm.DB, id string) (*domain.Execution, error)
	FinishExecution(ctx context.Context, db *gorm.DB, id, status string) error
}

// FormView describes a form opened by a visitor.
type FormView struct {
	WorkflowID   string `json:"workflowId"`
	WorkflowName string `json:"workflowName"`
	ExecutionID  string `json:"executionId"`
	Test         bool   `json:"test"`
}

// FormService serves public workflow forms and form-waiting executions.
type FormService struct {
	DB   *gorm.DB
	Repo FormRepo
}

// NewFormService constructs a FormService.
func NewFormService(db *gorm.DB, r FormRepo) *FormService {
	return &FormService{DB: db, Repo: r}
}

// Open starts a waiting execution for the workflow publishing the form at
// path. test marks requests coming from the editor's test URL.
func (s *FormService) Open(ctx context.Context, path string, test bool) (*FormView, error) {
	w, err := s.Repo.FindWorkflowByFormPath(ctx, s.DB, path)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	ex, err := s.Repo.CreateExecution(ctx, s.DB, w.ID, domain.ExecutionWaiting)
	if err != nil {
		return nil, err
	}
	return &FormView{WorkflowID: w.ID, WorkflowName: w.Name, ExecutionID: ex.ID, Test: test}, nil
}

// Waiting returns the execution if it still accepts a form submission.
func (s *FormService) Waiting(ctx context.Context, executionID string) (*domain.Execution, error) {
	ex, err := s.Repo.GetExecution(ctx, s.DB, executionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExecutionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !ex.Waiting() {
		return nil, ErrExecutionNotWaiting
	}
	return ex, nil
}

// Submit completes a waiting execution.
func (s *FormService) Submit(ctx context.Context, executionID string) (*domain.Execution, error) {
	if _, err := s.Waiting(ctx, executionID); err != nil {
		return nil, err
	}
	if err := s.Repo.FinishExecution(ctx, s.DB, executionID, domain.ExecutionSuccess); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost the race with a concurrent submission.
			return nil, ErrExecutionNotWaiting
		}
		return nil, err
	}
	return s.Repo.GetExecution(ctx, s.DB, executionID)
}
