package journal

import (
	"context"

	"literature-manager/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Journal, error)
	FindByID(ctx context.Context, id uint64) (*domain.Journal, error)
	Create(ctx context.Context, journal *domain.Journal) error
	Update(ctx context.Context, journal *domain.Journal) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]domain.Journal, error) {
	journals := []domain.Journal{}
	err := r.db.WithContext(ctx).Order("name, id").Find(&journals).Error
	return journals, err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Journal, error) {
	var journal domain.Journal
	if err := r.db.WithContext(ctx).First(&journal, id).Error; err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, journal *domain.Journal) error {
	return r.db.WithContext(ctx).Create(journal).Error
}

func (r *RepositoryImpl) Update(ctx context.Context, journal *domain.Journal) error {
	return r.db.WithContext(ctx).Save(journal).Error
}
