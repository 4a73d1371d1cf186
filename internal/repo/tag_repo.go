package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/dberr"
	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// CreateTag inserts a tag named name. Duplicate names are reported by the
// database as a unique-constraint query failure.
func CreateTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	t := &domain.Tag{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, dberr.Wrap(err, "insert tags")
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, dberr.Wrap(err, "select tags")
}
