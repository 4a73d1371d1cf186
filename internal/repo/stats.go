// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// WorkflowsStats returns the number of workflows owned by ownerID and the
// greatest UpdatedAt among them. When the owner has no workflows the count
// is 0 and maxUpdatedAt is nil.
func WorkflowsStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Workflow{}).Where("owner_id = ?", ownerID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, dberr.Wrap(err, "count workflows")
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, dberr.Wrap(err, "select workflows updated_at")
	}
	return count, &row.UpdatedAt, nil
}
