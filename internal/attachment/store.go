package attachment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store writes attachments below a media root.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// maxCandidates bounds the suffixes tried for a free file name.
const maxCandidates = 1000

// Save writes r under Dir and returns the path relative to the media root.
// The file is named after name, with a _2, _3, ... suffix when that name is
// already taken. An existing file is replaced only when its relative path
// equals reuse, so a publication can overwrite its own attachment but never
// another one's.
func (s *Store) Save(name string, r io.Reader, reuse string) (string, error) {
	base := filepath.Base(name)
	dir := s.Path(Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating attachment dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing attachment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i <= maxCandidates; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		rel := filepath.ToSlash(filepath.Join(Dir, candidate))
		dst := s.Path(rel)

		if rel != reuse {
			f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
			if os.IsExist(err) {
				continue
			}
			if err != nil {
				return "", fmt.Errorf("reserving attachment name: %w", err)
			}
			f.Close()
		}

		if err := os.Rename(tmp.Name(), dst); err != nil {
			return "", fmt.Errorf("moving attachment into place: %w", err)
		}
		return rel, nil
	}
	return "", fmt.Errorf("no free attachment name for %s", base)
}

// Path resolves a stored relative path to a filesystem path.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(s.Path(rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
