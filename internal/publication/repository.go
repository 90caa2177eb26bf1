package publication

import (
	"context"
	"errors"
	"fmt"

	"literature-manager/internal/citekey"
	"literature-manager/internal/crossref"
	"literature-manager/internal/domain"
	"literature-manager/internal/ledger"
	"literature-manager/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownReference is returned when a journal, tag or project id in a
// request does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// Filter narrows ListBy to publications linked to one entity. Zero fields
// are ignored.
type Filter struct {
	AuthorID  uint64
	JournalID uint64
	TagID     uint64
	ProjectID uint64
}

// Relations are the links written alongside a publication. A nil slice
// leaves the existing links untouched, an empty one clears them.
type Relations struct {
	AuthorIDs  []uint64
	TagIDs     []uint64
	ProjectIDs []uint64
}

type Repository interface {
	List(ctx context.Context, page, pageSize int) ([]domain.Publication, utils.PageMeta, error)
	ListBy(ctx context.Context, filter Filter) ([]domain.Publication, error)
	FindByID(ctx context.Context, id uint64) (*domain.Publication, error)
	ExistsDOI(ctx context.Context, doi string, excludeID uint64) (bool, error)
	Create(ctx context.Context, pub *domain.Publication, rel Relations) error
	Update(ctx context.Context, pub *domain.Publication, rel Relations, yearChanged bool) error
	Delete(ctx context.Context, id uint64) error
	SetAuthors(ctx context.Context, id uint64, authorIDs []uint64) ([]domain.Author, error)
	CreateFromMetadata(ctx context.Context, meta *crossref.Metadata) (*domain.Publication, error)
	ApplyMetadata(ctx context.Context, id uint64, meta *crossref.Metadata, sources Sources) error
	SetFile(ctx context.Context, id uint64, file string, doi *string) error
	FileInUse(ctx context.Context, file string, excludeID uint64) (bool, error)
	RefreshAllKeys(ctx context.Context) (int, error)
}

type RepositoryImpl struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db, ledger: ledger.New(db)}
}

func listOrder(db *gorm.DB) *gorm.DB {
	return db.Order("publications.year DESC, publications.title ASC, publications.id ASC")
}

func (r *RepositoryImpl) List(ctx context.Context, page, pageSize int) ([]domain.Publication, utils.PageMeta, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&domain.Publication{}).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, err
	}

	pubs := []domain.Publication{}
	err := listOrder(db.Preload("Journal").Preload("Tags", tagOrder)).
		Offset(utils.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&pubs).Error
	if err != nil {
		return nil, utils.PageMeta{}, err
	}
	if err := r.ledger.Fill(ctx, pubs); err != nil {
		return nil, utils.PageMeta{}, err
	}
	return pubs, utils.NewPageMeta(total, page, pageSize), nil
}

func tagOrder(db *gorm.DB) *gorm.DB {
	return db.Order("tags.name")
}

func (r *RepositoryImpl) ListBy(ctx context.Context, filter Filter) ([]domain.Publication, error) {
	q := r.db.WithContext(ctx).Model(&domain.Publication{}).Preload("Journal").Preload("Tags", tagOrder)

	if filter.AuthorID != 0 {
		q = q.Where("publications.id IN (?)",
			r.db.Model(&domain.Authorship{}).Select("publication_id").Where("author_id = ?", filter.AuthorID))
	}
	if filter.JournalID != 0 {
		q = q.Where("publications.journal_id = ?", filter.JournalID)
	}
	if filter.TagID != 0 {
		q = q.Where("publications.id IN (?)",
			r.db.Table("publication_tags").Select("publication_id").Where("tag_id = ?", filter.TagID))
	}
	if filter.ProjectID != 0 {
		q = q.Where("publications.id IN (?)",
			r.db.Table("project_publications").Select("publication_id").Where("project_id = ?", filter.ProjectID))
	}

	pubs := []domain.Publication{}
	if err := listOrder(q).Find(&pubs).Error; err != nil {
		return nil, err
	}
	if err := r.ledger.Fill(ctx, pubs); err != nil {
		return nil, err
	}
	return pubs, nil
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Publication, error) {
	var pub domain.Publication
	err := r.db.WithContext(ctx).
		Preload("Journal").
		Preload("Tags", tagOrder).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("projects.title") }).
		First(&pub, id).Error
	if err != nil {
		return nil, err
	}

	authors, err := r.ledger.OrderedAuthors(ctx, id)
	if err != nil {
		return nil, err
	}
	pub.Authors = authors
	return &pub, nil
}

func (r *RepositoryImpl) ExistsDOI(ctx context.Context, doi string, excludeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Publication{}).
		Where("doi = ? AND id <> ?", doi, excludeID).
		Count(&count).Error
	return count > 0, err
}

// FileInUse reports whether a publication other than excludeID points at file.
func (r *RepositoryImpl) FileInUse(ctx context.Context, file string, excludeID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Publication{}).
		Where("file = ? AND id <> ?", file, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts pub with a fresh citation key and writes its links.
func (r *RepositoryImpl) Create(ctx context.Context, pub *domain.Publication, rel Relations) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.create(ctx, tx, pub, rel)
	})
}

func (r *RepositoryImpl) create(ctx context.Context, tx *gorm.DB, pub *domain.Publication, rel Relations) error {
	if err := checkJournal(tx, pub.JournalID); err != nil {
		return err
	}

	src := citekey.Source{Year: pub.Year}
	if len(rel.AuthorIDs) > 0 {
		var firstAuthor domain.Author
		if err := tx.Select("id", "last_name").First(&firstAuthor, rel.AuthorIDs[0]).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrUnknownAuthor
			}
			return err
		}
		src.FirstAuthorLastName = firstAuthor.LastName
	}

	l := r.ledger.WithTx(tx)
	key, err := l.AvailableKey(ctx, src, 0)
	if err != nil {
		return err
	}
	pub.CitationKey = key

	if err := tx.Omit(clause.Associations).Create(pub).Error; err != nil {
		return err
	}

	authors, err := l.SetAuthorsInOrder(ctx, pub.ID, rel.AuthorIDs)
	if err != nil {
		return err
	}
	pub.Authors = authors

	return replaceLinks(tx, pub, rel)
}

// Update saves pub's columns and links. The citation key is regenerated
// when the authors are replaced or the year changed.
func (r *RepositoryImpl) Update(ctx context.Context, pub *domain.Publication, rel Relations, yearChanged bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkJournal(tx, pub.JournalID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(pub).Error; err != nil {
			return err
		}

		l := r.ledger.WithTx(tx)
		switch {
		case rel.AuthorIDs != nil:
			if _, err := l.SetAuthorsInOrder(ctx, pub.ID, rel.AuthorIDs); err != nil {
				return err
			}
		case yearChanged:
			if _, err := l.RefreshCitationKey(ctx, pub.ID); err != nil {
				return err
			}
		}

		return replaceLinks(tx, pub, rel)
	})
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pub := domain.Publication{ID: id}
		if err := tx.Select("id").First(&pub, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&pub).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&pub).Association("Projects").Clear(); err != nil {
			return err
		}
		if err := tx.Where("publication_id = ?", id).Delete(&domain.Authorship{}).Error; err != nil {
			return err
		}
		if err := tx.Where("publication_id = ?", id).Delete(&domain.Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&pub).Error
	})
}

func (r *RepositoryImpl) SetAuthors(ctx context.Context, id uint64, authorIDs []uint64) ([]domain.Author, error) {
	return r.ledger.SetAuthorsInOrder(ctx, id, authorIDs)
}

// CreateFromMetadata creates a publication and any missing journal and
// authors from a DOI record, all or nothing.
func (r *RepositoryImpl) CreateFromMetadata(ctx context.Context, meta *crossref.Metadata) (*domain.Publication, error) {
	pub := &domain.Publication{
		Title:           meta.Title,
		Year:            meta.Year,
		DOI:             &meta.DOI,
		PublicationType: meta.PublicationType,
		Volume:          meta.Volume,
		Pages:           meta.Pages,
		Abstract:        optional(meta.Abstract),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		journalID, err := journalFor(tx, meta)
		if err != nil {
			return err
		}
		pub.JournalID = journalID

		authorIDs, err := authorsFor(tx, meta.Authors)
		if err != nil {
			return err
		}
		return r.create(ctx, tx, pub, Relations{AuthorIDs: authorIDs})
	})
	if err != nil {
		return nil, err
	}
	return pub, nil
}

// Sources selects, per field, whether ApplyMetadata takes the DOI value.
// Recognised fields: title, year, abstract, volume, pages,
// publication_type, journal, authors.
type Sources map[string]string

const (
	SourceDOI     = "doi"
	SourceCurrent = "current"
)

func (s Sources) fromDOI(field string) bool {
	return s[field] == SourceDOI
}

// ApplyMetadata copies the selected fields of a DOI record onto an
// existing publication and regenerates its citation key.
func (r *RepositoryImpl) ApplyMetadata(ctx context.Context, id uint64, meta *crossref.Metadata, sources Sources) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pub domain.Publication
		if err := tx.First(&pub, id).Error; err != nil {
			return err
		}

		if sources.fromDOI("title") {
			pub.Title = meta.Title
		}
		if sources.fromDOI("year") {
			pub.Year = meta.Year
		}
		if sources.fromDOI("abstract") {
			pub.Abstract = optional(meta.Abstract)
		}
		if sources.fromDOI("volume") {
			pub.Volume = meta.Volume
		}
		if sources.fromDOI("pages") {
			pub.Pages = meta.Pages
		}
		if sources.fromDOI("publication_type") {
			pub.PublicationType = meta.PublicationType
		}
		if sources.fromDOI("journal") {
			journalID, err := journalFor(tx, meta)
			if err != nil {
				return err
			}
			pub.JournalID = journalID
		}

		if err := tx.Omit(clause.Associations).Save(&pub).Error; err != nil {
			return err
		}

		l := r.ledger.WithTx(tx)
		if sources.fromDOI("authors") {
			authorIDs, err := authorsFor(tx, meta.Authors)
			if err != nil {
				return err
			}
			if _, err := l.SetAuthorsInOrder(ctx, id, authorIDs); err != nil {
				return err
			}
			return nil
		}
		_, err := l.RefreshCitationKey(ctx, id)
		return err
	})
}

// SetFile stores the attachment path, and doi when it is not nil.
func (r *RepositoryImpl) SetFile(ctx context.Context, id uint64, file string, doi *string) error {
	updates := map[string]any{"file": file}
	if doi != nil {
		updates["doi"] = *doi
	}
	res := r.db.WithContext(ctx).Model(&domain.Publication{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RefreshAllKeys regenerates every citation key in id order, each in its
// own transaction, and reports how many changed.
func (r *RepositoryImpl) RefreshAllKeys(ctx context.Context) (int, error) {
	var pubs []domain.Publication
	if err := r.db.WithContext(ctx).Select("id", "citation_key").Order("id").Find(&pubs).Error; err != nil {
		return 0, err
	}

	changed := 0
	for _, pub := range pubs {
		key, err := r.ledger.RefreshCitationKey(ctx, pub.ID)
		if err != nil {
			return changed, fmt.Errorf("refreshing key of publication %d: %w", pub.ID, err)
		}
		if key != pub.CitationKey {
			changed++
		}
	}
	return changed, nil
}

func checkJournal(tx *gorm.DB, journalID *uint64) error {
	if journalID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&domain.Journal{}).Where("id = ?", *journalID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: journal %d", ErrUnknownReference, *journalID)
	}
	return nil
}

func replaceLinks(tx *gorm.DB, pub *domain.Publication, rel Relations) error {
	if rel.TagIDs != nil {
		tags, err := findAll[domain.Tag](tx, "tag", rel.TagIDs)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, pub, "Tags", tags); err != nil {
			return err
		}
		pub.Tags = tags
	}
	if rel.ProjectIDs != nil {
		projects, err := findAll[domain.Project](tx, "project", rel.ProjectIDs)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, pub, "Projects", projects); err != nil {
			return err
		}
		pub.Projects = projects
	}
	return nil
}

func replaceAssociation[T any](tx *gorm.DB, pub *domain.Publication, name string, values []T) error {
	assoc := tx.Model(pub).Association(name)
	if len(values) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

func findAll[T any](tx *gorm.DB, kind string, ids []uint64) ([]T, error) {
	unique := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	rows := []T{}
	if len(unique) == 0 {
		return rows, nil
	}
	if err := tx.Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != len(unique) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReference, kind)
	}
	return rows, nil
}

// journalFor finds or creates the journal named in meta, nil when absent.
func journalFor(tx *gorm.DB, meta *crossref.Metadata) (*uint64, error) {
	if meta.JournalTitle == "" {
		return nil, nil
	}
	var journal domain.Journal
	err := tx.Where("name = ?", meta.JournalTitle).
		Attrs(domain.Journal{Name: meta.JournalTitle, ISSN: optional(meta.ISSN)}).
		FirstOrCreate(&journal).Error
	if err != nil {
		return nil, err
	}
	return &journal.ID, nil
}

// authorsFor finds or creates an author per entry, matched on exact names.
func authorsFor(tx *gorm.DB, entries []crossref.Author) ([]uint64, error) {
	ids := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		var author domain.Author
		err := tx.Where("first_name = ? AND last_name = ?", entry.FirstName, entry.LastName).
			Attrs(domain.Author{FirstName: entry.FirstName, LastName: entry.LastName, ORCID: entry.ORCID}).
			FirstOrCreate(&author).Error
		if err != nil {
			return nil, err
		}
		ids = append(ids, author.ID)
	}
	return ids, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
