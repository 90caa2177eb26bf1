package journal

import (
	"context"
	"strings"

	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/publication"
	"literature-manager/redis"
)

type Service interface {
	ListJournals(ctx context.Context) ([]domain.Journal, error)
	GetJournal(ctx context.Context, id uint64) (*Detail, error)
	CreateJournal(ctx context.Context, form Form) (*domain.Journal, error)
	UpdateJournal(ctx context.Context, id uint64, form Form) (*domain.Journal, error)
}

type PublicationProvider interface {
	ListPublicationsBy(ctx context.Context, filter publication.Filter) ([]domain.Publication, error)
}

type DefaultService struct {
	repository   Repository
	publications PublicationProvider
	cache        *redis.Cache
}

func NewService(repository Repository, publications PublicationProvider, cache *redis.Cache) Service {
	return &DefaultService{
		repository:   repository,
		publications: publications,
		cache:        cache,
	}
}

type Form struct {
	Name      string  `json:"name" binding:"required,max=255"`
	ShortName *string `json:"short_name" binding:"omitempty,max=255"`
	ISSN      *string `json:"issn" binding:"omitempty,max=20"`
	Publisher *string `json:"publisher" binding:"omitempty,max=255"`
}

func (f Form) apply(j *domain.Journal) {
	j.Name = strings.TrimSpace(f.Name)
	j.ShortName = blankToNil(f.ShortName)
	j.ISSN = blankToNil(f.ISSN)
	j.Publisher = blankToNil(f.Publisher)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Detail is a journal with everything published in it.
type Detail struct {
	domain.Journal
	Publications []domain.Publication `json:"publications"`
}

func (s *DefaultService) ListJournals(ctx context.Context) ([]domain.Journal, error) {
	return s.repository.List(ctx)
}

func (s *DefaultService) GetJournal(ctx context.Context, id uint64) (*Detail, error) {
	journal, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Journal", err)
	}
	pubs, err := s.publications.ListPublicationsBy(ctx, publication.Filter{JournalID: id})
	if err != nil {
		return nil, err
	}
	return &Detail{Journal: *journal, Publications: pubs}, nil
}

func (s *DefaultService) CreateJournal(ctx context.Context, form Form) (*domain.Journal, error) {
	var journal domain.Journal
	form.apply(&journal)
	if err := s.repository.Create(ctx, &journal); err != nil {
		return nil, err
	}
	return &journal, nil
}

// UpdateJournal invalidates exports, which print the journal name.
func (s *DefaultService) UpdateJournal(ctx context.Context, id uint64, form Form) (*domain.Journal, error) {
	journal, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Journal", err)
	}
	form.apply(journal)
	if err := s.repository.Update(ctx, journal); err != nil {
		return nil, err
	}
	s.cache.InvalidateExports(ctx)
	return journal, nil
}
