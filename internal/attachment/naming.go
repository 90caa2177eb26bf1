// Package attachment names and stores the PDF files attached to publications.
package attachment

import (
	"regexp"
	"strconv"

	"literature-manager/internal/citekey"
)

const (
	UnknownYear   = "unknown"
	UnknownAuthor = "UnknownAuthor"
	UntitledSlug  = "publication"

	// Dir is the directory below the media root that holds attachments.
	Dir = "publications"
)

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_.-]`)

func sanitize(component string) string {
	return unsafeChars.ReplaceAllString(component, "")
}

// FileName returns "<year>_<lastName>_<titleSlug><ext>" with every
// component reduced to letters, digits, "_", "." and "-".
func FileName(year uint, firstAuthorLastName, title, ext string) string {
	yearPart := UnknownYear
	if year > 0 {
		yearPart = strconv.FormatUint(uint64(year), 10)
	}

	author := sanitize(firstAuthorLastName)
	if author == "" {
		author = UnknownAuthor
	}

	slug := sanitize(citekey.Slugify(title))
	if slug == "" {
		slug = UntitledSlug
	}

	return sanitize(yearPart) + "_" + author + "_" + slug + sanitize(ext)
}
