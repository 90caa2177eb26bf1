package citekey

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeps     = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowers s to an ASCII slug: accents are folded, anything that is not
// a word character, space or hyphen is dropped and separators collapse to "-".
//
//	Slugify("Müller")       == "muller"
//	Slugify("O'Brien")      == "obrien"
//	Slugify("van der Berg") == "van-der-berg"
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	out := nonSlugChars.ReplaceAllString(strings.ToLower(b.String()), "")
	out = slugSeps.ReplaceAllString(out, "-")
	return strings.Trim(out, "-_")
}
