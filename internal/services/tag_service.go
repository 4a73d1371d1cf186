package services

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-workflow-backend/internal/domain"
)

// TagRepo defines the repository contract required by TagService.
type TagRepo interface {
	CreateTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error)
}

// TagService manages workflow tags. Tag names are lower-cased so "Ops" and
// "ops" collide on the database unique index.
type TagService struct {
	DB   *gorm.DB
	Repo TagRepo

	NameMaxLen int
}

// NewTagService constructs a TagService.
func NewTagService(db *gorm.DB, r TagRepo) *TagService {
	return &TagService{DB: db, Repo: r, NameMaxLen: 64}
}

// Create stores a new tag.
func (s *TagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	// Casers keep state between calls; build one per call.
	name = cases.Lower(language.Und).String(NormalizeName(name))
	if name == "" {
		return nil, invalid("name", "tag name must not be empty")
	}
	if utf8.RuneCountInString(name) > s.NameMaxLen {
		return nil, invalid("name", "tag name must be at most %d characters", s.NameMaxLen)
	}
	return s.Repo.CreateTag(ctx, s.DB, name)
}

// List returns all tags.
func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	return s.Repo.ListTags(ctx, s.DB)
}
