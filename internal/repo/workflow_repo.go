// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Workflow
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a workflow is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound).
//   - Every other database error is wrapped with dberr.Wrap, so callers can
//     classify it (see dberr.IsUniqueConstraintError). A duplicate workflow
//     name therefore surfaces as a query failure carrying the driver's code.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateWorkflow inserts w, assigning a UUID and UTC timestamps when unset.
func CreateWorkflow(ctx context.Context, db *gorm.DB, w *domain.Workflow) error {
	now := time.Now().UTC()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Nodes == "" {
		w.Nodes = "[]"
	}
	w.CreatedAt, w.UpdatedAt = now, now
	return dberr.Wrap(db.WithContext(ctx).Create(w).Error, "insert workflows")
}

// CountWorkflows returns the number of workflows owned by ownerID.
func CountWorkflows(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Workflow{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, dberr.Wrap(err, "count workflows")
}

// ListWorkflowsPage returns a page of workflows for ownerID ordered by
// creation time, most recent first.
func ListWorkflowsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Workflow, error) {
	var out []domain.Workflow
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, dberr.Wrap(err, "select workflows")
}

// GetWorkflow fetches a workflow by id and owner.
func GetWorkflow(ctx context.Context, db *gorm.DB, id, ownerID string) (*domain.Workflow, error) {
	var w domain.Workflow
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&w).Error
	if err != nil {
		return nil, dberr.Wrap(err, "select workflow")
	}
	return &w, nil
}

// FindWorkflowByFormPath returns the active workflow publishing the form at
// path, or ErrNotFound.
func FindWorkflowByFormPath(ctx context.Context, db *gorm.DB, path string) (*domain.Workflow, error) {
	var w domain.Workflow
	err := db.WithContext(ctx).
		Where("form_path = ? AND active = ?", path, true).
		First(&w).Error
	if err != nil {
		return nil, dberr.Wrap(err, "select workflow by form path")
	}
	return &w, nil
}

// RenameWorkflow sets the name of a workflow owned by ownerID. It returns
// ErrNotFound when no row matched.
func RenameWorkflow(ctx context.Context, db *gorm.DB, id, ownerID, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Workflow{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return dberr.Wrap(res.Error, "update workflows")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// WorkflowNamesExist returns the subset of names that belong to existing
// workflows.
func WorkflowNamesExist(ctx context.Context, db *gorm.DB, names []string) (map[string]bool, error) {
	out := make(map[string]bool, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var found []string
	err := db.WithContext(ctx).
		Model(&domain.Workflow{}).
		Where("name IN ?", names).
		Pluck("name", &found).Error
	if err != nil {
		return nil, dberr.Wrap(err, "select workflow names")
	}
	for _, n := range found {
		out[n] = true
	}
	return out, nil
}
