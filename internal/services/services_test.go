package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-workflow-backend/internal/domain"
	"github.com/tbourn/go-workflow-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// repoShim forwards to the repo package functions.
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
func (repoShim) CreateTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	return repo.CreateTag(ctx, db, name)
}
func (repoShim) ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	return repo.ListTags(ctx, db)
}
func (repoShim) FindWorkflowByFormPath(ctx context.Context, db *gorm.DB, path string) (*domain.Workflow, error) {
	return repo.FindWorkflowByFormPath(ctx, db, path)
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
