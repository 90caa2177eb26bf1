// Package citekey derives unique citation keys such as "smith2020".
package citekey

import (
	"strconv"
)

// Fallback is the key base used when a publication has no usable first author.
const Fallback = "publication"

// Source is the bibliographic identity a key is derived from.
type Source struct {
	// Current is the stored key, empty for new publications.
	Current string
	// FirstAuthorLastName is the last name of the author at the lowest position.
	// Empty when the publication has no authors.
	FirstAuthorLastName string
	Year                uint
}

// Taken reports whether a key is used by another publication.
type Taken func(key string) bool

// Set builds a Taken from a list of keys.
func Set(keys []string) Taken {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return func(key string) bool {
		_, ok := m[key]
		return ok
	}
}

// Generate returns the citation key for src. An existing key is returned as is
// unless force is set. Collisions get "-2", "-3", ... appended.
func Generate(src Source, taken Taken, force bool) string {
	if src.Current != "" && !force {
		return src.Current
	}

	prefix := Base(src)
	candidate := prefix
	if taken == nil {
		return candidate
	}
	for suffix := 2; taken(candidate); suffix++ {
		candidate = prefix + "-" + strconv.Itoa(suffix)
	}
	return candidate
}

// Base returns the unsuffixed candidate Generate starts from. Callers use it
// to narrow the set of keys they load.
func Base(src Source) string {
	base := Slugify(src.FirstAuthorLastName)
	if base == "" {
		base = Fallback
	}
	if src.Year > 0 {
		base += strconv.FormatUint(uint64(src.Year), 10)
	}
	return base
}
