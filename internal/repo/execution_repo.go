package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// CreateExecution starts an execution of workflowID with the given status.
func CreateExecution(ctx context.Context, db *gorm.DB, workflowID, status string) (*domain.Execution, error) {
	e := &domain.Execution{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, dberr.Wrap(err, "insert executions")
	}
	return e, nil
}

// GetExecution fetches an execution by id.
func GetExecution(ctx context.Context, db *gorm.DB, id string) (*domain.Execution, error) {
	var e domain.Execution
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, dberr.Wrap(err, "select execution")
	}
	return &e, nil
}

// FinishExecution moves a waiting execution to status and stamps
// FinishedAt. It returns ErrNotFound when the execution does not exist or
// is no longer waiting.
func FinishExecution(ctx context.Context, db *gorm.DB, id, status string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Execution{}).
		Where("id = ? AND status = ?", id, domain.ExecutionWaiting).
		Updates(map[string]any{"status": status, "finished_at": now})
	if res.Error != nil {
		return dberr.Wrap(res.Error, "update executions")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
