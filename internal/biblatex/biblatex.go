// Package biblatex renders publications as BibLaTeX entries.
package biblatex

import (
	"fmt"
	"strconv"
	"strings"

	"literature-manager/internal/domain"
)

// Options selects the formatting variant.
type Options struct {
	ShortFirstNames   bool
	ShortJournalNames bool
}

// Variants are the four exports offered for a project.
var Variants = map[string]Options{
	"full":                      {},
	"short_names":               {ShortFirstNames: true},
	"short_journal":             {ShortJournalNames: true},
	"short_names_short_journal": {ShortFirstNames: true, ShortJournalNames: true},
}

type field struct {
	name  string
	value string
}

// EntryType maps a publication type to its BibLaTeX entry type.
func EntryType(t domain.PublicationType) string {
	switch t {
	case domain.PublicationTypeProceedings:
		return "inproceedings"
	case domain.PublicationTypeBook:
		return "book"
	default:
		return "article"
	}
}

// Format renders pub, whose Authors must already be in ledger order.
//
//	@article{smith2020,
//	  author = {Smith, Jane and Doe, J.},
//	  title = {...},
//	  ...
//	}
func Format(pub domain.Publication, opts Options) string {
	entryType := EntryType(pub.PublicationType)

	fields := []field{
		{"author", FormatAuthors(pub.Authors, opts.ShortFirstNames)},
		{"title", pub.Title},
	}

	if pub.Journal != nil {
		name := "booktitle"
		if entryType == "article" {
			name = "journaltitle"
		}
		fields = append(fields, field{name, journalName(pub.Journal, opts.ShortJournalNames)})
	}

	if pub.Year > 0 {
		fields = append(fields, field{"year", strconv.FormatUint(uint64(pub.Year), 10)})
	}
	fields = append(fields,
		field{"volume", pub.Volume},
		field{"pages", pub.Pages},
	)

	if doi := strings.TrimSpace(pub.DOIValue()); doi != "" {
		fields = append(fields, field{"doi", doi}, field{"url", DOIURL(doi)})
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s = {%s}", f.name, f.value))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, pub.CitationKey)
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n}")
	return b.String()
}

// FormatAll renders every publication and separates entries with a blank line.
func FormatAll(pubs []domain.Publication, opts Options) string {
	entries := make([]string, 0, len(pubs))
	for _, p := range pubs {
		entries = append(entries, Format(p, opts))
	}
	return strings.Join(entries, "\n\n")
}

// FormatAuthors joins authors as "Last, First and Last, First".
func FormatAuthors(authors []domain.Author, shortFirstNames bool) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		first := strings.TrimSpace(a.FirstName)
		if shortFirstNames {
			first = AbbreviateFirstName(first)
		}
		if first == "" {
			names = append(names, a.LastName)
			continue
		}
		names = append(names, a.LastName+", "+first)
	}
	return strings.Join(names, " and ")
}

// AbbreviateFirstName turns every space or hyphen separated token into its
// initial: "Jean-Paul" becomes "J.-P.", "Mary Ann" becomes "M. A.".
func AbbreviateFirstName(name string) string {
	var b strings.Builder
	atTokenStart := true
	for _, r := range name {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune(r)
			atTokenStart = true
		case atTokenStart:
			b.WriteRune(r)
			b.WriteByte('.')
			atTokenStart = false
		}
	}
	return b.String()
}

// DOIURL resolves a DOI to a link. Values that already look like URLs are kept.
func DOIURL(doi string) string {
	if strings.HasPrefix(strings.ToLower(doi), "http") {
		return doi
	}
	return "https://doi.org/" + doi
}

func journalName(j *domain.Journal, short bool) string {
	if short && j.ShortName != nil && strings.TrimSpace(*j.ShortName) != "" {
		return *j.ShortName
	}
	return j.Name
}
