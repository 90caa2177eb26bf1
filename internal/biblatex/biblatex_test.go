package biblatex

import (
	"testing"

	"literature-manager/internal/domain"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func samplePublication() domain.Publication {
	return domain.Publication{
		Title:           "Being and Nothingness",
		Year:            1943,
		PublicationType: domain.PublicationTypeArticle,
		CitationKey:     "sartre1943",
		Volume:          "12",
		Pages:           "1--20",
		DOI:             strPtr("10.1000/xyz"),
		Journal:         &domain.Journal{Name: "Journal of Philosophy", ShortName: strPtr("J. Phil.")},
		Authors: []domain.Author{
			{FirstName: "Jean-Paul", LastName: "Sartre"},
			{FirstName: "Simone", LastName: "de Beauvoir"},
		},
	}
}

func TestFormat_Full(t *testing.T) {
	got := Format(samplePublication(), Options{})

	want := "@article{sartre1943,\n" +
		"  author = {Sartre, Jean-Paul and de Beauvoir, Simone},\n" +
		"  title = {Being and Nothingness},\n" +
		"  journaltitle = {Journal of Philosophy},\n" +
		"  year = {1943},\n" +
		"  volume = {12},\n" +
		"  pages = {1--20},\n" +
		"  doi = {10.1000/xyz},\n" +
		"  url = {https://doi.org/10.1000/xyz}\n" +
		"}"
	assert.Equal(t, want, got)
}

func TestFormat_ShortVariants(t *testing.T) {
	pub := samplePublication()
	pub.Authors = pub.Authors[:1]

	got := Format(pub, Options{ShortFirstNames: true, ShortJournalNames: true})

	assert.Contains(t, got, "  author = {Sartre, J.-P.},\n")
	assert.Contains(t, got, "  journaltitle = {J. Phil.},\n")
}

func TestFormat_ShortJournalFallsBackToName(t *testing.T) {
	pub := samplePublication()
	pub.Journal.ShortName = nil

	assert.Contains(t, Format(pub, Options{ShortJournalNames: true}), "journaltitle = {Journal of Philosophy}")
}

func TestFormat_EntryTypes(t *testing.T) {
	pub := samplePublication()

	pub.PublicationType = domain.PublicationTypeProceedings
	got := Format(pub, Options{})
	assert.Contains(t, got, "@inproceedings{sartre1943,")
	assert.Contains(t, got, "booktitle = {Journal of Philosophy}")

	pub.PublicationType = domain.PublicationTypeBook
	assert.Contains(t, Format(pub, Options{}), "@book{sartre1943,")

	pub.PublicationType = "thesis"
	assert.Contains(t, Format(pub, Options{}), "@article{sartre1943,")
}

func TestFormat_OmitsEmptyFields(t *testing.T) {
	pub := domain.Publication{Title: "Untitled", Year: 2001, CitationKey: "publication2001"}

	got := Format(pub, Options{})

	assert.Equal(t, "@article{publication2001,\n  title = {Untitled},\n  year = {2001}\n}", got)
}

func TestFormat_URLDOI(t *testing.T) {
	pub := samplePublication()
	pub.DOI = strPtr("HTTPS://example.org/paper")

	got := Format(pub, Options{})

	assert.Contains(t, got, "doi = {HTTPS://example.org/paper}")
	assert.Contains(t, got, "url = {HTTPS://example.org/paper}")
}

func TestAbbreviateFirstName(t *testing.T) {
	assert.Equal(t, "J.-P.", AbbreviateFirstName("Jean-Paul"))
	assert.Equal(t, "M. A.", AbbreviateFirstName("Mary Ann"))
	assert.Equal(t, "J.", AbbreviateFirstName("J."))
	assert.Equal(t, "", AbbreviateFirstName(""))
}

func TestFormatAuthors_EmptyFirstName(t *testing.T) {
	authors := []domain.Author{{LastName: "Plato"}, {FirstName: "Ada", LastName: "Lovelace"}}
	assert.Equal(t, "Plato and Lovelace, A.", FormatAuthors(authors, true))
}

func TestFormatAll(t *testing.T) {
	a := domain.Publication{Title: "A", CitationKey: "a"}
	b := domain.Publication{Title: "B", CitationKey: "b"}

	assert.Equal(t, "@article{a,\n  title = {A}\n}\n\n@article{b,\n  title = {B}\n}", FormatAll([]domain.Publication{a, b}, Options{}))
}
