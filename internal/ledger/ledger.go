// Package ledger keeps the ordered author list of each publication and the
// citation key that depends on it.
//
// Every mutation of a publication's authorship ends by regenerating its
// citation key inside the same transaction. Callers that change the year
// call RefreshCitationKey themselves.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"literature-manager/internal/citekey"
	"literature-manager/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrUnknownAuthor is returned when an author id in a new ordering does not exist.
var ErrUnknownAuthor = errors.New("unknown author")

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to a caller's transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

func orderedAuthorsQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Author{}).
		Joins("JOIN authorships ON authorships.author_id = authors.id").
		Order("authorships.position ASC, authorships.id ASC")
}

// OrderedAuthors returns the authors of a publication by position, ties by row id.
func (l *Ledger) OrderedAuthors(ctx context.Context, publicationID uint64) ([]domain.Author, error) {
	authors := []domain.Author{}
	err := orderedAuthorsQuery(l.db.WithContext(ctx)).
		Select("authors.*").
		Where("authorships.publication_id = ?", publicationID).
		Find(&authors).Error
	return authors, err
}

type authorRow struct {
	domain.Author
	PublicationID uint64
}

// OrderedAuthorsFor loads the ordered authors of several publications in one query.
func (l *Ledger) OrderedAuthorsFor(ctx context.Context, publicationIDs []uint64) (map[uint64][]domain.Author, error) {
	result := make(map[uint64][]domain.Author, len(publicationIDs))
	if len(publicationIDs) == 0 {
		return result, nil
	}

	var rows []authorRow
	err := orderedAuthorsQuery(l.db.WithContext(ctx)).
		Select("authors.*, authorships.publication_id AS publication_id").
		Where("authorships.publication_id IN ?", publicationIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.PublicationID] = append(result[row.PublicationID], row.Author)
	}
	return result, nil
}

// Fill sets Authors on every publication in pubs.
func (l *Ledger) Fill(ctx context.Context, pubs []domain.Publication) error {
	ids := make([]uint64, len(pubs))
	for i := range pubs {
		ids[i] = pubs[i].ID
	}
	byPub, err := l.OrderedAuthorsFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range pubs {
		pubs[i].Authors = byPub[pubs[i].ID]
		if pubs[i].Authors == nil {
			pubs[i].Authors = []domain.Author{}
		}
	}
	return nil
}

// SetAuthorsInOrder replaces the authorship of a publication with authorIDs,
// positions 1..N in input order. Existing rows are deleted and the new ones
// inserted, never updated in place. Repeated ids keep their first occurrence.
// The citation key is regenerated before the transaction commits.
func (l *Ledger) SetAuthorsInOrder(ctx context.Context, publicationID uint64, authorIDs []uint64) ([]domain.Author, error) {
	ids := dedupeIDs(authorIDs)

	var authors []domain.Author
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pub domain.Publication
		if err := tx.Select("id").First(&pub, publicationID).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			var found int64
			if err := tx.Model(&domain.Author{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
				return err
			}
			if found != int64(len(ids)) {
				return ErrUnknownAuthor
			}
		}

		if err := tx.Where("publication_id = ?", publicationID).Delete(&domain.Authorship{}).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			rows := make([]domain.Authorship, len(ids))
			for i, id := range ids {
				rows[i] = domain.Authorship{
					PublicationID: publicationID,
					AuthorID:      id,
					Position:      uint(i + 1),
				}
			}
			if err := tx.Create(&rows).Error; err != nil {
				return invariantViolation("authorship position", publicationID, err)
			}
		}

		inner := l.WithTx(tx)
		if _, err := inner.refreshCitationKey(ctx, publicationID); err != nil {
			return err
		}

		var err error
		authors, err = inner.OrderedAuthors(ctx, publicationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return authors, nil
}

// RefreshCitationKey regenerates and stores the key of a publication from its
// current first author and year.
func (l *Ledger) RefreshCitationKey(ctx context.Context, publicationID uint64) (string, error) {
	var key string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		key, err = l.WithTx(tx).refreshCitationKey(ctx, publicationID)
		return err
	})
	return key, err
}

func (l *Ledger) refreshCitationKey(ctx context.Context, publicationID uint64) (string, error) {
	db := l.db.WithContext(ctx)

	var pub domain.Publication
	if err := db.Select("id", "year", "citation_key").First(&pub, publicationID).Error; err != nil {
		return "", err
	}

	src := citekey.Source{Year: pub.Year}
	var first domain.Author
	err := orderedAuthorsQuery(db).
		Select("authors.*").
		Where("authorships.publication_id = ?", publicationID).
		Limit(1).
		Take(&first).Error
	switch {
	case err == nil:
		src.FirstAuthorLastName = first.LastName
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}

	key, err := l.AvailableKey(ctx, src, publicationID)
	if err != nil {
		return "", err
	}
	if key == pub.CitationKey {
		return key, nil
	}

	err = db.Model(&domain.Publication{}).Where("id = ?", publicationID).Update("citation_key", key).Error
	if err != nil {
		return "", invariantViolation("citation key", publicationID, err)
	}
	return key, nil
}

// AvailableKey computes a fresh key for src that no publication other than
// excludeID holds. Use excludeID 0 for a publication not yet inserted.
func (l *Ledger) AvailableKey(ctx context.Context, src citekey.Source, excludeID uint64) (string, error) {
	var keys []string
	err := l.db.WithContext(ctx).Model(&domain.Publication{}).
		Where("id <> ? AND citation_key LIKE ?", excludeID, citekey.Base(src)+"%").
		Pluck("citation_key", &keys).Error
	if err != nil {
		return "", err
	}
	src.Current = ""
	return citekey.Generate(src, citekey.Set(keys), true), nil
}

func invariantViolation(what string, publicationID uint64, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Error().Err(err).Uint64("publication_id", publicationID).Str("constraint", what).
			Msg("unique constraint violated")
		return fmt.Errorf("%s not unique for publication %d: %w", what, publicationID, err)
	}
	return err
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
