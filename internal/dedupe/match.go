package dedupe

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Empirical thresholds. Tests pin them.
const (
	LastNameThreshold  = 0.85
	FirstNameThreshold = 0.80
)

// normalizeName lower-cases s and keeps letters only.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ratio is the Ratcliff/Obershelp similarity of a and b in [0, 1]:
// 2 * matching runes / total runes. Two empty strings score 1.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// runes splits s into one element per rune so the matcher compares characters.
func runes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func similarEnough(left, right string, threshold float64) bool {
	l, r := normalizeName(left), normalizeName(right)
	if l == "" || r == "" {
		return false
	}
	if l == r {
		return true
	}
	return Ratio(l, r) >= threshold
}

// abbreviationMatch accepts "R" for "Robert", "Rob" for "Robert" and similar.
func abbreviationMatch(left, right string) bool {
	l, r := normalizeName(left), normalizeName(right)
	if l == "" || r == "" {
		return false
	}
	lr, _ := utf8.DecodeRuneInString(l)
	rr, _ := utf8.DecodeRuneInString(r)
	if lr != rr {
		return false
	}

	short, long := l, r
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	shortLen := utf8.RuneCountInString(short)
	return shortLen <= 1 ||
		strings.HasPrefix(long, short) ||
		(shortLen <= 3 && strings.HasPrefix(long, short))
}

// FirstNameMatch reports whether two first names plausibly name the same person.
func FirstNameMatch(left, right string) bool {
	return abbreviationMatch(left, right) || similarEnough(left, right, FirstNameThreshold)
}

// LastNameMatch reports whether two last names are equal or nearly so.
func LastNameMatch(left, right string) bool {
	return similarEnough(left, right, LastNameThreshold)
}
