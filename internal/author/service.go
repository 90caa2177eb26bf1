package author

import (
	"context"
	"strings"

	"literature-manager/internal/dedupe"
	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/publication"
	"literature-manager/redis"
)

type Service interface {
	ListAuthors(ctx context.Context) ([]domain.Author, error)
	GetAuthor(ctx context.Context, id uint64) (*Detail, error)
	CreateAuthor(ctx context.Context, form Form) (*domain.Author, error)
	UpdateAuthor(ctx context.Context, id uint64, form Form) (*domain.Author, error)
	DeleteAuthor(ctx context.Context, id uint64) error
	FindDuplicates(ctx context.Context) ([]dedupe.Group, error)
	MergeAuthors(ctx context.Context, plan MergePlan) (*domain.Author, error)
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
	FirstName  string  `json:"first_name" binding:"required,max=100"`
	LastName   string  `json:"last_name" binding:"required,max=100"`
	ORCID      *string `json:"orcid" binding:"omitempty,max=19"`
	University *string `json:"university" binding:"omitempty,max=255"`
	Department *string `json:"department" binding:"omitempty,max=255"`
}

func (f Form) apply(a *domain.Author) {
	a.FirstName = strings.TrimSpace(f.FirstName)
	a.LastName = strings.TrimSpace(f.LastName)
	a.ORCID = blankToNil(f.ORCID)
	a.University = blankToNil(f.University)
	a.Department = blankToNil(f.Department)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// Detail is an author with the publications they are credited on.
type Detail struct {
	domain.Author
	Publications []domain.Publication `json:"publications"`
}

// Side names one of the two authors in a merge.
type Side string

const (
	SidePrimary   Side = "primary"
	SideDuplicate Side = "duplicate"
)

// MergeFields are the author fields a merge can take from either side.
var MergeFields = []string{"first_name", "last_name", "orcid", "university", "department"}

// MergePlan describes a merge. Keep selects the row that survives, and
// Sources picks per field which author's value it ends up with; fields
// without a source follow Keep.
type MergePlan struct {
	PrimaryID   uint64          `json:"primary_id" binding:"required"`
	DuplicateID uint64          `json:"duplicate_id" binding:"required"`
	Keep        Side            `json:"keep"`
	Sources     map[string]Side `json:"sources"`
}

func (p MergePlan) source(field string) Side {
	if side, ok := p.Sources[field]; ok && side != "" {
		return side
	}
	return p.Keep
}

func (p MergePlan) resolve(primary, duplicate domain.Author) domain.Author {
	pick := func(field string) domain.Author {
		if p.source(field) == SideDuplicate {
			return duplicate
		}
		return primary
	}
	return domain.Author{
		FirstName:  pick("first_name").FirstName,
		LastName:   pick("last_name").LastName,
		ORCID:      pick("orcid").ORCID,
		University: pick("university").University,
		Department: pick("department").Department,
	}
}

func (p *MergePlan) validate() error {
	if p.PrimaryID == p.DuplicateID {
		return errors.BadRequest("Cannot merge an author with itself", nil)
	}
	if p.Keep == "" {
		p.Keep = SidePrimary
	}
	if p.Keep != SidePrimary && p.Keep != SideDuplicate {
		return errors.BadRequest("keep must be primary or duplicate", nil)
	}
	for field, side := range p.Sources {
		if !isMergeField(field) {
			return errors.BadRequest("unknown merge field: "+field, nil)
		}
		if side != "" && side != SidePrimary && side != SideDuplicate {
			return errors.BadRequest("source for "+field+" must be primary or duplicate", nil)
		}
	}
	return nil
}

func isMergeField(field string) bool {
	for _, f := range MergeFields {
		if f == field {
			return true
		}
	}
	return false
}

func (s *DefaultService) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	return s.repository.List(ctx)
}

func (s *DefaultService) GetAuthor(ctx context.Context, id uint64) (*Detail, error) {
	author, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Author", err)
	}
	pubs, err := s.publications.ListPublicationsBy(ctx, publication.Filter{AuthorID: id})
	if err != nil {
		return nil, err
	}
	return &Detail{Author: *author, Publications: pubs}, nil
}

func (s *DefaultService) CreateAuthor(ctx context.Context, form Form) (*domain.Author, error) {
	var author domain.Author
	form.apply(&author)
	if err := s.repository.Create(ctx, &author); err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *DefaultService) UpdateAuthor(ctx context.Context, id uint64, form Form) (*domain.Author, error) {
	author, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Author", err)
	}
	form.apply(author)
	if err := s.repository.Update(ctx, author); err != nil {
		return nil, err
	}
	s.cache.InvalidateExports(ctx)
	return author, nil
}

func (s *DefaultService) DeleteAuthor(ctx context.Context, id uint64) error {
	if err := s.repository.Delete(ctx, id); err != nil {
		return errors.FromLookup("Author", err)
	}
	s.cache.InvalidateExports(ctx)
	return nil
}

func (s *DefaultService) FindDuplicates(ctx context.Context) ([]dedupe.Group, error) {
	authors, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}
	return dedupe.FindDuplicateGroups(authors), nil
}

func (s *DefaultService) MergeAuthors(ctx context.Context, plan MergePlan) (*domain.Author, error) {
	if err := plan.validate(); err != nil {
		return nil, err
	}
	merged, err := s.repository.Merge(ctx, plan)
	if err != nil {
		return nil, errors.FromLookup("Author", err)
	}
	s.cache.InvalidateExports(ctx)
	return merged, nil
}
