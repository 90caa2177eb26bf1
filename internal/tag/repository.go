package tag

import (
	"context"

	"literature-manager/internal/domain"

	"gorm.io/gorm"
)

// Summary is a tag with the number of publications carrying it.
type Summary struct {
	domain.Tag
	PublicationCount int64 `json:"publication_count"`
}

type Repository interface {
	List(ctx context.Context) ([]Summary, error)
	FindByID(ctx context.Context, id uint64) (*domain.Tag, error)
	Create(ctx context.Context, tag *domain.Tag) error
	Update(ctx context.Context, tag *domain.Tag) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Summary, error) {
	tags := []Summary{}
	err := r.db.WithContext(ctx).
		Model(&domain.Tag{}).
		Select("tags.id, tags.name, COUNT(publication_tags.publication_id) AS publication_count").
		Joins("LEFT JOIN publication_tags ON publication_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("tags.name").
		Scan(&tags).Error
	return tags, err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Tag, error) {
	var tag domain.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, tag *domain.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *RepositoryImpl) Update(ctx context.Context, tag *domain.Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}
