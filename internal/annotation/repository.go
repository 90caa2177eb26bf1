package annotation

import (
	"context"

	"literature-manager/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	PublicationExists(ctx context.Context, publicationID uint64) (bool, error)
	List(ctx context.Context, publicationID uint64) ([]domain.Annotation, error)
	Find(ctx context.Context, publicationID, id uint64) (*domain.Annotation, error)
	Create(ctx context.Context, annotation *domain.Annotation) error
	Update(ctx context.Context, annotation *domain.Annotation) error
	Delete(ctx context.Context, annotation *domain.Annotation) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) PublicationExists(ctx context.Context, publicationID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Publication{}).Where("id = ?", publicationID).Count(&count).Error
	return count > 0, err
}

func (r *RepositoryImpl) List(ctx context.Context, publicationID uint64) ([]domain.Annotation, error) {
	annotations := []domain.Annotation{}
	err := r.db.WithContext(ctx).
		Where("publication_id = ?", publicationID).
		Order("page_number, id").
		Find(&annotations).Error
	return annotations, err
}

// Find only matches annotations of the given publication.
func (r *RepositoryImpl) Find(ctx context.Context, publicationID, id uint64) (*domain.Annotation, error) {
	var annotation domain.Annotation
	err := r.db.WithContext(ctx).
		Where("id = ? AND publication_id = ?", id, publicationID).
		First(&annotation).Error
	if err != nil {
		return nil, err
	}
	return &annotation, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, annotation *domain.Annotation) error {
	return r.db.WithContext(ctx).Create(annotation).Error
}

func (r *RepositoryImpl) Update(ctx context.Context, annotation *domain.Annotation) error {
	return r.db.WithContext(ctx).Save(annotation).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, annotation *domain.Annotation) error {
	return r.db.WithContext(ctx).Delete(annotation).Error
}
