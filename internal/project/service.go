package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"literature-manager/internal/biblatex"
	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/publication"
	"literature-manager/redis"

	"github.com/rs/zerolog/log"
)

// ExportTTL bounds how long an export stays cached even without changes.
const ExportTTL = 24 * time.Hour

type Service interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id uint64) (*Detail, error)
	CreateProject(ctx context.Context, form Form) (*domain.Project, error)
	UpdateProject(ctx context.Context, id uint64, form Form) (*domain.Project, error)
	Export(ctx context.Context, id uint64, opts biblatex.Options) (string, error)
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
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
}

func (f Form) apply(p *domain.Project) {
	p.Title = strings.TrimSpace(f.Title)
	p.Description = strings.TrimSpace(f.Description)
}

// Detail is a project with its publications and every export variant,
// keyed by variant name.
type Detail struct {
	domain.Project
	Publications []domain.Publication `json:"publications"`
	BibLaTeX     map[string]string    `json:"biblatex"`
}

func (s *DefaultService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repository.List(ctx)
}

func (s *DefaultService) GetProject(ctx context.Context, id uint64) (*Detail, error) {
	project, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Project", err)
	}
	pubs, err := s.publications.ListPublicationsBy(ctx, publication.Filter{ProjectID: id})
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Project:      *project,
		Publications: pubs,
		BibLaTeX:     make(map[string]string, len(biblatex.Variants)),
	}
	for name, opts := range biblatex.Variants {
		detail.BibLaTeX[name] = s.cachedExport(ctx, id, opts, func() string {
			return biblatex.FormatAll(pubs, opts)
		})
	}
	return detail, nil
}

func (s *DefaultService) CreateProject(ctx context.Context, form Form) (*domain.Project, error) {
	var project domain.Project
	form.apply(&project)
	if err := s.repository.Create(ctx, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *DefaultService) UpdateProject(ctx context.Context, id uint64, form Form) (*domain.Project, error) {
	project, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Project", err)
	}
	form.apply(project)
	if err := s.repository.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Export renders every publication of the project as BibLaTeX.
func (s *DefaultService) Export(ctx context.Context, id uint64, opts biblatex.Options) (string, error) {
	if _, err := s.repository.FindByID(ctx, id); err != nil {
		return "", errors.FromLookup("Project", err)
	}

	var renderErr error
	out := s.cachedExport(ctx, id, opts, func() string {
		pubs, err := s.publications.ListPublicationsBy(ctx, publication.Filter{ProjectID: id})
		if err != nil {
			renderErr = err
			return ""
		}
		return biblatex.FormatAll(pubs, opts)
	})
	return out, renderErr
}

// cachedExport serves from redis under the current exports version and
// falls back to render on a miss. Cache failures only cost a re-render.
func (s *DefaultService) cachedExport(ctx context.Context, id uint64, opts biblatex.Options, render func() string) string {
	key := exportKey(s.cache.GetVersion(ctx, redis.ExportsVersionKey), id, opts)

	var cached string
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("export cache read failed")
	}
	if found {
		return cached
	}

	out := render()
	if out == "" {
		return out
	}
	if err := s.cache.Set(ctx, key, out, ExportTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("export cache write failed")
	}
	return out
}

func exportKey(version int64, id uint64, opts biblatex.Options) string {
	return fmt.Sprintf("exports:%d:project:%d:%t:%t", version, id, opts.ShortFirstNames, opts.ShortJournalNames)
}
