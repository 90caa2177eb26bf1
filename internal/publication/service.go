package publication

import (
	"context"
	defError "errors"
	"io"
	"path/filepath"
	"strings"

	"literature-manager/internal/attachment"
	"literature-manager/internal/biblatex"
	"literature-manager/internal/crossref"
	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/ledger"
	"literature-manager/internal/utils"
	"literature-manager/redis"

	"github.com/rs/zerolog/log"
)

type Service interface {
	ListPublications(ctx context.Context, page, pageSize int) (*PaginatedPublications, error)
	ListPublicationsBy(ctx context.Context, filter Filter) ([]domain.Publication, error)
	GetPublication(ctx context.Context, id uint64) (*domain.Publication, error)
	CreatePublication(ctx context.Context, form Form) (*domain.Publication, error)
	UpdatePublication(ctx context.Context, id uint64, form Form) (*domain.Publication, error)
	DeletePublication(ctx context.Context, id uint64) error
	SetAuthors(ctx context.Context, id uint64, authorIDs []uint64) ([]domain.Author, error)
	ImportFromDOI(ctx context.Context, doi string) (*domain.Publication, error)
	PreviewDOI(ctx context.Context, id uint64) (*DOIPreview, error)
	UpdateFromDOI(ctx context.Context, id uint64, sources Sources) (*domain.Publication, error)
	AttachFile(ctx context.Context, id uint64, filename string, content io.Reader) (*AttachResult, error)
	BibLaTeX(ctx context.Context, id uint64, opts biblatex.Options) (string, error)
	RefreshAllKeys(ctx context.Context) (int, error)
}

// DOIResolver turns a DOI into publication metadata.
type DOIResolver interface {
	Lookup(ctx context.Context, doi string) (*crossref.Metadata, error)
}

type DefaultService struct {
	repository Repository
	resolver   DOIResolver
	files      *attachment.Store
	cache      *redis.Cache
}

func NewService(repository Repository, resolver DOIResolver, files *attachment.Store, cache *redis.Cache) Service {
	return &DefaultService{
		repository: repository,
		resolver:   resolver,
		files:      files,
		cache:      cache,
	}
}

type PaginatedPublications struct {
	Data []domain.Publication `json:"data"`
	Meta utils.PageMeta       `json:"meta"`
}

// Form is the writable part of a publication. AuthorIDs, TagIDs and
// ProjectIDs follow Relations: omitted keeps, [] clears.
type Form struct {
	Title           string                 `json:"title" binding:"required,max=500"`
	Year            uint                   `json:"year" binding:"required,min=1"`
	DOI             *string                `json:"doi" binding:"omitempty,max=255"`
	PublicationType domain.PublicationType `json:"publication_type" binding:"omitempty,oneof=article proceedings book"`
	JournalID       *uint64                `json:"journal_id"`
	Volume          string                 `json:"volume" binding:"max=50"`
	Pages           string                 `json:"pages" binding:"max=50"`
	Abstract        *string                `json:"abstract"`
	AuthorIDs       []uint64               `json:"author_ids"`
	TagIDs          []uint64               `json:"tag_ids"`
	ProjectIDs      []uint64               `json:"project_ids"`
}

func (f Form) apply(pub *domain.Publication) {
	pub.Title = strings.TrimSpace(f.Title)
	pub.Year = f.Year
	pub.DOI = nil
	if f.DOI != nil {
		if doi := crossref.NormalizeDOI(*f.DOI); doi != "" {
			pub.DOI = &doi
		}
	}
	pub.PublicationType = f.PublicationType
	if !pub.PublicationType.Valid() {
		pub.PublicationType = domain.PublicationTypeArticle
	}
	pub.JournalID = f.JournalID
	pub.Volume = f.Volume
	pub.Pages = f.Pages
	pub.Abstract = f.Abstract
}

func (f Form) relations() Relations {
	return Relations{AuthorIDs: f.AuthorIDs, TagIDs: f.TagIDs, ProjectIDs: f.ProjectIDs}
}

type DOIPreview struct {
	Publication *domain.Publication `json:"publication"`
	Metadata    *crossref.Metadata  `json:"doi_data"`
}

type AttachResult struct {
	Publication *domain.Publication `json:"publication"`
	DetectedDOI string              `json:"detected_doi,omitempty"`
	DOIStored   bool                `json:"doi_stored"`
}

func (s *DefaultService) ListPublications(ctx context.Context, page, pageSize int) (*PaginatedPublications, error) {
	pubs, meta, err := s.repository.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedPublications{Data: pubs, Meta: meta}, nil
}

func (s *DefaultService) ListPublicationsBy(ctx context.Context, filter Filter) ([]domain.Publication, error) {
	return s.repository.ListBy(ctx, filter)
}

func (s *DefaultService) GetPublication(ctx context.Context, id uint64) (*domain.Publication, error) {
	pub, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.FromLookup("Publication", err)
	}
	return pub, nil
}

func (s *DefaultService) CreatePublication(ctx context.Context, form Form) (*domain.Publication, error) {
	var pub domain.Publication
	form.apply(&pub)

	if err := s.checkDOI(ctx, pub.DOI, 0); err != nil {
		return nil, err
	}
	if err := s.repository.Create(ctx, &pub, form.relations()); err != nil {
		return nil, writeError(err)
	}
	s.cache.InvalidateExports(ctx)

	return s.GetPublication(ctx, pub.ID)
}

func (s *DefaultService) UpdatePublication(ctx context.Context, id uint64, form Form) (*domain.Publication, error) {
	pub, err := s.GetPublication(ctx, id)
	if err != nil {
		return nil, err
	}
	oldYear := pub.Year
	form.apply(pub)
	pub.Journal = nil

	if err := s.checkDOI(ctx, pub.DOI, id); err != nil {
		return nil, err
	}
	if err := s.repository.Update(ctx, pub, form.relations(), pub.Year != oldYear); err != nil {
		return nil, writeError(err)
	}
	s.cache.InvalidateExports(ctx)

	return s.GetPublication(ctx, id)
}

func (s *DefaultService) DeletePublication(ctx context.Context, id uint64) error {
	pub, err := s.GetPublication(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repository.Delete(ctx, id); err != nil {
		return errors.FromLookup("Publication", err)
	}
	s.cache.InvalidateExports(ctx)

	s.removeUnreferenced(ctx, pub.File, id)
	return nil
}

// removeUnreferenced deletes file unless a publication other than ownerID
// still points at it. Failures are logged; the database is already consistent.
func (s *DefaultService) removeUnreferenced(ctx context.Context, file string, ownerID uint64) {
	if file == "" {
		return
	}
	inUse, err := s.repository.FileInUse(ctx, file, ownerID)
	if err != nil {
		log.Warn().Err(err).Str("file", file).Msg("could not check attachment references, keeping file")
		return
	}
	if inUse {
		log.Info().Str("file", file).Msg("attachment still referenced, keeping file")
		return
	}
	if err := s.files.Remove(file); err != nil {
		log.Warn().Err(err).Str("file", file).Msg("failed to remove attachment")
	}
}

func (s *DefaultService) SetAuthors(ctx context.Context, id uint64, authorIDs []uint64) ([]domain.Author, error) {
	authors, err := s.repository.SetAuthors(ctx, id, authorIDs)
	if err != nil {
		return nil, writeError(errors.FromLookup("Publication", err))
	}
	s.cache.InvalidateExports(ctx)
	return authors, nil
}

// ImportFromDOI resolves doi before touching the database, so a failed
// lookup writes nothing.
func (s *DefaultService) ImportFromDOI(ctx context.Context, doi string) (*domain.Publication, error) {
	doi = crossref.NormalizeDOI(doi)
	if doi == "" {
		return nil, errors.BadRequest("DOI is required", nil)
	}
	if err := s.checkDOI(ctx, &doi, 0); err != nil {
		return nil, err
	}

	meta, err := s.resolver.Lookup(ctx, doi)
	if err != nil {
		return nil, lookupError(err)
	}
	meta.DOI = doi

	pub, err := s.repository.CreateFromMetadata(ctx, meta)
	if err != nil {
		return nil, writeError(err)
	}
	s.cache.InvalidateExports(ctx)

	return s.GetPublication(ctx, pub.ID)
}

func (s *DefaultService) PreviewDOI(ctx context.Context, id uint64) (*DOIPreview, error) {
	pub, err := s.GetPublication(ctx, id)
	if err != nil {
		return nil, err
	}
	if pub.DOIValue() == "" {
		return nil, errors.BadRequest("Publication has no DOI", nil)
	}

	meta, err := s.resolver.Lookup(ctx, pub.DOIValue())
	if err != nil {
		return nil, lookupError(err)
	}
	return &DOIPreview{Publication: pub, Metadata: meta}, nil
}

func (s *DefaultService) UpdateFromDOI(ctx context.Context, id uint64, sources Sources) (*domain.Publication, error) {
	for field, source := range sources {
		if source != SourceDOI && source != SourceCurrent {
			return nil, errors.BadRequest("invalid source for "+field+": "+source, nil)
		}
	}

	preview, err := s.PreviewDOI(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repository.ApplyMetadata(ctx, id, preview.Metadata, sources); err != nil {
		return nil, writeError(errors.FromLookup("Publication", err))
	}
	s.cache.InvalidateExports(ctx)

	return s.GetPublication(ctx, id)
}

// AttachFile stores content under a name derived from the publication and
// records the first DOI printed in the PDF when the publication has none.
func (s *DefaultService) AttachFile(ctx context.Context, id uint64, filename string, content io.Reader) (*AttachResult, error) {
	pub, err := s.GetPublication(ctx, id)
	if err != nil {
		return nil, err
	}

	lastName := ""
	if len(pub.Authors) > 0 {
		lastName = pub.Authors[0].LastName
	}
	ext := filepath.Ext(filepath.Base(filename))
	name := attachment.FileName(pub.Year, lastName, pub.Title, ext)

	// the current file is replaced in place only when no other row shares it
	reuse := pub.File
	if reuse != "" {
		shared, err := s.repository.FileInUse(ctx, reuse, id)
		if err != nil {
			return nil, err
		}
		if shared {
			reuse = ""
		}
	}
	rel, err := s.files.Save(name, content, reuse)
	if err != nil {
		return nil, err
	}

	result := &AttachResult{}
	var storeDOI *string
	if strings.EqualFold(ext, ".pdf") {
		detected, err := attachment.ExtractDOI(s.files.Path(rel))
		if err != nil {
			log.Warn().Err(err).Uint64("publication_id", id).Msg("could not scan attachment for a DOI")
		}
		result.DetectedDOI = detected
		if detected != "" && pub.DOIValue() == "" {
			taken, err := s.repository.ExistsDOI(ctx, detected, id)
			if err != nil {
				s.discardNew(rel, pub.File)
				return nil, err
			}
			if !taken {
				storeDOI = &detected
				result.DOIStored = true
			}
		}
	}

	if err := s.repository.SetFile(ctx, id, rel, storeDOI); err != nil {
		s.discardNew(rel, pub.File)
		return nil, errors.FromLookup("Publication", err)
	}
	s.cache.InvalidateExports(ctx)

	if pub.File != rel {
		s.removeUnreferenced(ctx, pub.File, id)
	}

	result.Publication, err = s.GetPublication(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// discardNew removes a freshly written attachment that was never recorded.
// When it replaced the previous file in place there is nothing to undo.
func (s *DefaultService) discardNew(rel, previous string) {
	if rel == previous {
		return
	}
	if err := s.files.Remove(rel); err != nil {
		log.Warn().Err(err).Str("file", rel).Msg("failed to remove unrecorded attachment")
	}
}

func (s *DefaultService) BibLaTeX(ctx context.Context, id uint64, opts biblatex.Options) (string, error) {
	pub, err := s.GetPublication(ctx, id)
	if err != nil {
		return "", err
	}
	return biblatex.Format(*pub, opts), nil
}

func (s *DefaultService) RefreshAllKeys(ctx context.Context) (int, error) {
	changed, err := s.repository.RefreshAllKeys(ctx)
	if changed > 0 {
		s.cache.InvalidateExports(ctx)
	}
	return changed, err
}

func (s *DefaultService) checkDOI(ctx context.Context, doi *string, excludeID uint64) error {
	if doi == nil || *doi == "" {
		return nil
	}
	taken, err := s.repository.ExistsDOI(ctx, *doi, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errors.Conflict("A publication with this DOI already exists", nil)
	}
	return nil
}

// writeError maps repository failures caused by bad references to 400.
func writeError(err error) error {
	switch {
	case defError.Is(err, ledger.ErrUnknownAuthor):
		return errors.BadRequest("Unknown author", err)
	case defError.Is(err, ErrUnknownReference):
		return errors.BadRequest(err.Error(), err)
	}
	return err
}

func lookupError(err error) error {
	switch {
	case defError.Is(err, crossref.ErrEmptyDOI):
		return errors.BadRequest("DOI is required", err)
	case defError.Is(err, crossref.ErrMissingTitle), defError.Is(err, crossref.ErrMissingYear):
		return errors.BadRequest(err.Error(), err)
	}
	return errors.BadGateway("DOI lookup failed", err)
}
