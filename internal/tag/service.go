package tag

import (
	"context"
	defError "errors"
	"strings"

	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/publication"

	"gorm.io/gorm"
)

type Service interface {
	ListTags(ctx context.Context) ([]Summary, error)
	GetTag(ctx context.Context, id uint64) (*Detail, error)
	CreateTag(ctx context.Context, form Form) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id uint64, form Form) (*domain.Tag, error)
}

type PublicationProvider interface {
	ListPublicationsBy(ctx context.Context, filter publication.Filter) ([]domain.Publication, error)
}

type DefaultService struct {
	repository   Repository
	publications PublicationProvider
}

func NewService(repository Repository, publications PublicationProvider) Service {
	return &DefaultService{
		repository:   repository,
		publications: publications,
	}
}

type Form struct {
	Name string `json:"name" binding:"required,max=100"`
}

type Detail struct {
	domain.Tag
	Publications []domain.Publication `json:"publications"`
}

func (s *DefaultService) ListTags(ctx context.Context) ([]Summary, error) {
	return s.repository.List(ctx)
}

func (s *DefaultService) GetTag(ctx context.Context, id uint64) (*Detail, error) {
	tag, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Tag", err)
	}
	pubs, err := s.publications.ListPublicationsBy(ctx, publication.Filter{TagID: id})
	if err != nil {
		return nil, err
	}
	return &Detail{Tag: *tag, Publications: pubs}, nil
}

func (s *DefaultService) CreateTag(ctx context.Context, form Form) (*domain.Tag, error) {
	tag := domain.Tag{Name: strings.TrimSpace(form.Name)}
	if err := s.repository.Create(ctx, &tag); err != nil {
		return nil, duplicateName(err)
	}
	return &tag, nil
}

func (s *DefaultService) UpdateTag(ctx context.Context, id uint64, form Form) (*domain.Tag, error) {
	tag, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Tag", err)
	}
	tag.Name = strings.TrimSpace(form.Name)
	if err := s.repository.Update(ctx, tag); err != nil {
		return nil, duplicateName(err)
	}
	return tag, nil
}

func duplicateName(err error) error {
	if defError.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Conflict("A tag with this name already exists", err)
	}
	return err
}
