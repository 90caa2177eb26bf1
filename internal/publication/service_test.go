package publication

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"literature-manager/internal/attachment"
	"literature-manager/internal/biblatex"
	"literature-manager/internal/crossref"
	"literature-manager/internal/domain"
	"literature-manager/internal/errors"
	"literature-manager/internal/testutil"
	"literature-manager/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Lookup(ctx context.Context, doi string) (*crossref.Metadata, error) {
	args := m.Called(ctx, doi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crossref.Metadata), args.Error(1)
}

type fixture struct {
	db       *gorm.DB
	service  Service
	resolver *MockResolver
	media    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	resolver := new(MockResolver)
	media := t.TempDir()
	return &fixture{
		db:       db,
		service:  NewService(NewRepository(db), resolver, attachment.NewStore(media), redis.NewCache(nil)),
		resolver: resolver,
		media:    media,
	}
}

func (f *fixture) author(t *testing.T, first, last string) domain.Author {
	t.Helper()
	a := domain.Author{FirstName: first, LastName: last}
	require.NoError(t, f.db.Create(&a).Error)
	return a
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.media, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.media, filepath.FromSlash(rel)))
	return err == nil
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func authorIDs(authors []domain.Author) []uint64 {
	ids := make([]uint64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	return ids
}

func nature() *crossref.Metadata {
	orcid := "0000-0002-1825-0097"
	return &crossref.Metadata{
		DOI:             "10.1038/nature14539",
		Title:           "Deep learning",
		Year:            2015,
		Abstract:        "Deep learning allows computational models.",
		JournalTitle:    "Nature",
		ISSN:            "0028-0836",
		Volume:          "521",
		Pages:           "436-444",
		PublicationType: domain.PublicationTypeArticle,
		Authors: []crossref.Author{
			{FirstName: "Yann", LastName: "LeCun", ORCID: &orcid},
			{FirstName: "Yoshua", LastName: "Bengio"},
			{FirstName: "Geoffrey", LastName: "Hinton"},
		},
	}
}

func TestCreatePublication_KeysAndCollisions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")
	doe := f.author(t, "Jane", "Doe")

	first, err := f.service.CreatePublication(ctx, Form{Title: "One", Year: 2020, AuthorIDs: []uint64{smith.ID, doe.ID}})
	require.NoError(t, err)
	assert.Equal(t, "smith2020", first.CitationKey)
	assert.Equal(t, []uint64{smith.ID, doe.ID}, authorIDs(first.Authors))
	assert.Equal(t, domain.PublicationTypeArticle, first.PublicationType)

	second, err := f.service.CreatePublication(ctx, Form{Title: "Two", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	assert.Equal(t, "smith2020-2", second.CitationKey)

	anonymous, err := f.service.CreatePublication(ctx, Form{Title: "Three", Year: 1999})
	require.NoError(t, err)
	assert.Equal(t, "publication1999", anonymous.CitationKey)
}

func TestCreatePublication_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	journalID := uint64(77)

	_, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, AuthorIDs: []uint64{99}})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	_, err = f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, JournalID: &journalID})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	_, err = f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, TagIDs: []uint64{5}})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	var count int64
	f.db.Model(&domain.Publication{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreatePublication_TagsAndProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tag := domain.Tag{Name: "ml"}
	project := domain.Project{Title: "Thesis"}
	require.NoError(t, f.db.Create(&tag).Error)
	require.NoError(t, f.db.Create(&project).Error)

	pub, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, TagIDs: []uint64{tag.ID}, ProjectIDs: []uint64{project.ID}})
	require.NoError(t, err)
	require.Len(t, pub.Tags, 1)
	require.Len(t, pub.Projects, 1)

	byTag, err := f.service.ListPublicationsBy(ctx, Filter{TagID: tag.ID})
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	// omitted ids keep links, [] clears them
	updated, err := f.service.UpdatePublication(ctx, pub.ID, Form{Title: "T", Year: 2020})
	require.NoError(t, err)
	assert.Len(t, updated.Tags, 1)

	updated, err = f.service.UpdatePublication(ctx, pub.ID, Form{Title: "T", Year: 2020, TagIDs: []uint64{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
	assert.Len(t, updated.Projects, 1)
}

func TestUpdatePublication_YearChangeRefreshesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)

	pub, err = f.service.UpdatePublication(ctx, pub.ID, Form{Title: "T", Year: 2021})
	require.NoError(t, err)
	assert.Equal(t, "smith2021", pub.CitationKey)
	assert.Equal(t, []uint64{smith.ID}, authorIDs(pub.Authors))
}

func TestSetAuthors_RefreshesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")
	doe := f.author(t, "Jane", "Doe")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, AuthorIDs: []uint64{smith.ID, doe.ID}})
	require.NoError(t, err)

	authors, err := f.service.SetAuthors(ctx, pub.ID, []uint64{doe.ID, smith.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{doe.ID, smith.ID}, authorIDs(authors))

	got, err := f.service.GetPublication(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "doe2020", got.CitationKey)

	_, err = f.service.SetAuthors(ctx, 999, nil)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestGetPublication_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.GetPublication(context.Background(), 42)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
}

func TestDeletePublication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&domain.Annotation{PublicationID: pub.ID, PageNumber: 1, Color: domain.DefaultAnnotationColor}).Error)

	require.NoError(t, f.service.DeletePublication(ctx, pub.ID))

	var rows int64
	f.db.Model(&domain.Authorship{}).Count(&rows)
	assert.Zero(t, rows)
	f.db.Model(&domain.Annotation{}).Count(&rows)
	assert.Zero(t, rows)
	f.db.Model(&domain.Author{}).Count(&rows)
	assert.Equal(t, int64(1), rows)

	assert.Equal(t, http.StatusNotFound, apiStatus(t, f.service.DeletePublication(ctx, pub.ID)))
}

func TestListPublications_OrderAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, form := range []Form{
		{Title: "B", Year: 2019},
		{Title: "A", Year: 2019},
		{Title: "C", Year: 2021},
	} {
		_, err := f.service.CreatePublication(ctx, form)
		require.NoError(t, err)
	}

	page, err := f.service.ListPublications(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "C", page.Data[0].Title)
	assert.Equal(t, "A", page.Data[1].Title)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPage)
}

func TestImportFromDOI(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.author(t, "Yoshua", "Bengio")

	f.resolver.On("Lookup", mock.Anything, "10.1038/nature14539").Return(nature(), nil).Once()

	pub, err := f.service.ImportFromDOI(ctx, "https://doi.org/10.1038/nature14539")
	require.NoError(t, err)
	f.resolver.AssertExpectations(t)

	assert.Equal(t, "Deep learning", pub.Title)
	assert.Equal(t, "10.1038/nature14539", pub.DOIValue())
	assert.Equal(t, "lecun2015", pub.CitationKey)
	require.NotNil(t, pub.Journal)
	assert.Equal(t, "Nature", pub.Journal.Name)
	require.Len(t, pub.Authors, 3)
	assert.Equal(t, existing.ID, pub.Authors[1].ID)
	require.NotNil(t, pub.Authors[0].ORCID)
	assert.Equal(t, "0000-0002-1825-0097", *pub.Authors[0].ORCID)

	_, err = f.service.ImportFromDOI(ctx, "10.1038/nature14539")
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))
}

func TestImportFromDOI_LookupFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.resolver.On("Lookup", mock.Anything, "10.1/missing").Return(nil, crossref.ErrUpstream).Once()
	f.resolver.On("Lookup", mock.Anything, "10.1/untitled").Return(nil, crossref.ErrMissingTitle).Once()

	_, err := f.service.ImportFromDOI(ctx, "10.1/missing")
	assert.Equal(t, http.StatusBadGateway, apiStatus(t, err))

	_, err = f.service.ImportFromDOI(ctx, "10.1/untitled")
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	_, err = f.service.ImportFromDOI(ctx, "   ")
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	for _, model := range []any{&domain.Publication{}, &domain.Journal{}, &domain.Author{}} {
		var count int64
		f.db.Model(model).Count(&count)
		assert.Zero(t, count)
	}
}

func TestUpdateFromDOI_SelectedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")
	doi := "10.1038/nature14539"

	pub, err := f.service.CreatePublication(ctx, Form{Title: "draft", Year: 2014, DOI: &doi, Volume: "1", AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	assert.Equal(t, "smith2014", pub.CitationKey)

	f.resolver.On("Lookup", mock.Anything, doi).Return(nature(), nil)

	preview, err := f.service.PreviewDOI(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep learning", preview.Metadata.Title)

	updated, err := f.service.UpdateFromDOI(ctx, pub.ID, Sources{"title": SourceDOI, "year": SourceDOI, "volume": SourceCurrent, "journal": SourceDOI})
	require.NoError(t, err)
	assert.Equal(t, "Deep learning", updated.Title)
	assert.Equal(t, uint(2015), updated.Year)
	assert.Equal(t, "1", updated.Volume)
	require.NotNil(t, updated.Journal)
	assert.Equal(t, "Nature", updated.Journal.Name)
	assert.Equal(t, []uint64{smith.ID}, authorIDs(updated.Authors))
	assert.Equal(t, "smith2015", updated.CitationKey)

	updated, err = f.service.UpdateFromDOI(ctx, pub.ID, Sources{"authors": SourceDOI})
	require.NoError(t, err)
	require.Len(t, updated.Authors, 3)
	assert.Equal(t, "LeCun", updated.Authors[0].LastName)
	assert.Equal(t, "lecun2015", updated.CitationKey)

	_, err = f.service.UpdateFromDOI(ctx, pub.ID, Sources{"title": "upstream"})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}

func TestPreviewDOI_NoDOI(t *testing.T) {
	f := newFixture(t)
	pub, err := f.service.CreatePublication(context.Background(), Form{Title: "T", Year: 2020})
	require.NoError(t, err)

	_, err = f.service.PreviewDOI(context.Background(), pub.ID)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	f.resolver.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestAttachFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "Deep Learning: A Survey", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)

	result, err := f.service.AttachFile(ctx, pub.ID, "upload.txt", strings.NewReader("notes"))
	require.NoError(t, err)
	assert.Equal(t, "publications/2020_Smith_deep-learning-a-survey.txt", result.Publication.File)
	assert.Empty(t, result.DetectedDOI)

	data, err := os.ReadFile(filepath.Join(f.media, "publications", "2020_Smith_deep-learning-a-survey.txt"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))

	// an unreadable PDF is stored anyway, only the DOI scan is skipped
	result, err = f.service.AttachFile(ctx, pub.ID, "paper.pdf", strings.NewReader("not really a pdf"))
	require.NoError(t, err)
	assert.Equal(t, "publications/2020_Smith_deep-learning-a-survey.pdf", result.Publication.File)
	assert.False(t, result.DOIStored)

	_, err = os.Stat(filepath.Join(f.media, "publications", "2020_Smith_deep-learning-a-survey.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestAttachFile_SameNameKeepsOtherPublicationsFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	first, err := f.service.CreatePublication(ctx, Form{Title: "Shared Title", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	second, err := f.service.CreatePublication(ctx, Form{Title: "Shared Title", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)

	a, err := f.service.AttachFile(ctx, first.ID, "a.txt", strings.NewReader("first"))
	require.NoError(t, err)
	b, err := f.service.AttachFile(ctx, second.ID, "b.txt", strings.NewReader("second"))
	require.NoError(t, err)

	assert.Equal(t, "publications/2020_Smith_shared-title.txt", a.Publication.File)
	assert.Equal(t, "publications/2020_Smith_shared-title_2.txt", b.Publication.File)

	// re-attaching replaces only the publication's own file
	again, err := f.service.AttachFile(ctx, first.ID, "a.txt", strings.NewReader("first v2"))
	require.NoError(t, err)
	assert.Equal(t, a.Publication.File, again.Publication.File)
	assert.Equal(t, "first v2", f.read(t, a.Publication.File))
	assert.Equal(t, "second", f.read(t, b.Publication.File))

	require.NoError(t, f.service.DeletePublication(ctx, first.ID))
	assert.False(t, f.exists(a.Publication.File))
	assert.Equal(t, "second", f.read(t, b.Publication.File))
}

func TestDeletePublication_KeepsSharedFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	first, err := f.service.CreatePublication(ctx, Form{Title: "One", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	second, err := f.service.CreatePublication(ctx, Form{Title: "Two", Year: 2021, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)

	result, err := f.service.AttachFile(ctx, first.ID, "a.txt", strings.NewReader("shared"))
	require.NoError(t, err)
	shared := result.Publication.File
	require.NoError(t, f.db.Model(&domain.Publication{}).Where("id = ?", second.ID).Update("file", shared).Error)

	require.NoError(t, f.service.DeletePublication(ctx, first.ID))
	assert.Equal(t, "shared", f.read(t, shared))

	// once nothing else points at it, re-attaching drops the old file
	moved, err := f.service.AttachFile(ctx, second.ID, "b.txt", strings.NewReader("own"))
	require.NoError(t, err)
	assert.NotEqual(t, shared, moved.Publication.File)
	assert.Equal(t, "own", f.read(t, moved.Publication.File))
	assert.False(t, f.exists(shared))

	require.NoError(t, f.service.DeletePublication(ctx, second.ID))
	assert.False(t, f.exists(moved.Publication.File))
}

// failingSetFile is a repository whose SetFile always fails.
type failingSetFile struct {
	Repository
}

func (failingSetFile) SetFile(context.Context, uint64, string, *string) error {
	return assert.AnError
}

func TestAttachFile_FailedRecordKeepsPreviousFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "Deep Learning", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	result, err := f.service.AttachFile(ctx, pub.ID, "notes.txt", strings.NewReader("notes"))
	require.NoError(t, err)
	previous := result.Publication.File

	failing := NewService(failingSetFile{NewRepository(f.db)}, f.resolver, attachment.NewStore(f.media), redis.NewCache(nil))
	_, err = failing.AttachFile(ctx, pub.ID, "paper.pdf", strings.NewReader("not really a pdf"))
	require.Error(t, err)

	assert.Equal(t, "notes", f.read(t, previous))
	assert.False(t, f.exists("publications/2020_Smith_deep-learning.pdf"))

	got, err := f.service.GetPublication(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, previous, got.File)
}

func TestBibLaTeX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sartre := f.author(t, "Jean-Paul", "Sartre")
	short := "Rev. Mét."
	journal := domain.Journal{Name: "Revue de Métaphysique", ShortName: &short}
	require.NoError(t, f.db.Create(&journal).Error)

	pub, err := f.service.CreatePublication(ctx, Form{Title: "L'être", Year: 1943, JournalID: &journal.ID, AuthorIDs: []uint64{sartre.ID}})
	require.NoError(t, err)

	entry, err := f.service.BibLaTeX(ctx, pub.ID, biblatex.Options{ShortFirstNames: true, ShortJournalNames: true})
	require.NoError(t, err)
	assert.Equal(t, "@article{sartre1943,\n  author = {Sartre, J.-P.},\n  title = {L'être},\n  journaltitle = {Rev. Mét.},\n  year = {1943}\n}", entry)
}

func TestRefreshAllKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	smith := f.author(t, "John", "Smith")

	pub, err := f.service.CreatePublication(ctx, Form{Title: "T", Year: 2020, AuthorIDs: []uint64{smith.ID}})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&domain.Publication{}).Where("id = ?", pub.ID).Update("citation_key", "stale").Error)

	changed, err := f.service.RefreshAllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := f.service.GetPublication(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "smith2020", got.CitationKey)
}
