package project

import (
	"context"

	"literature-manager/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Project, error)
	FindByID(ctx context.Context, id uint64) (*domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := r.db.WithContext(ctx).Order("title, id").Find(&projects).Error
	return projects, err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *RepositoryImpl) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}
