package author

import (
	"context"
	"errors"

	"literature-manager/internal/domain"
	"literature-manager/internal/ledger"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Author, error)
	FindByID(ctx context.Context, id uint64) (*domain.Author, error)
	Create(ctx context.Context, author *domain.Author) error
	Update(ctx context.Context, author *domain.Author) error
	Delete(ctx context.Context, id uint64) error
	Merge(ctx context.Context, plan MergePlan) (*domain.Author, error)
}

type RepositoryImpl struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db, ledger: ledger.New(db)}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]domain.Author, error) {
	authors := []domain.Author{}
	err := r.db.WithContext(ctx).Order("last_name, first_name, id").Find(&authors).Error
	return authors, err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Author, error) {
	var author domain.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, author *domain.Author) error {
	return r.db.WithContext(ctx).Create(author).Error
}

// Update saves the author and regenerates the keys of publications it leads,
// since a last name change moves their key base.
func (r *RepositoryImpl) Update(ctx context.Context, author *domain.Author) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(author).Error; err != nil {
			return err
		}
		pubIDs, err := publicationsOf(tx, author.ID)
		if err != nil {
			return err
		}
		l := r.ledger.WithTx(tx)
		for _, id := range pubIDs {
			if _, err := l.RefreshCitationKey(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the author and renumbers the remaining authors of every
// publication it was credited on.
func (r *RepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author domain.Author
		if err := tx.First(&author, id).Error; err != nil {
			return err
		}
		pubIDs, err := publicationsOf(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&domain.Authorship{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&author).Error; err != nil {
			return err
		}

		l := r.ledger.WithTx(tx)
		for _, pubID := range pubIDs {
			remaining, err := l.OrderedAuthors(ctx, pubID)
			if err != nil {
				return err
			}
			ids := make([]uint64, len(remaining))
			for i, a := range remaining {
				ids[i] = a.ID
			}
			if _, err := l.SetAuthorsInOrder(ctx, pubID, ids); err != nil {
				return err
			}
		}
		return nil
	})
}

// Merge folds one author into another in a single transaction. See
// MergePlan for how the survivor and its fields are chosen.
func (r *RepositoryImpl) Merge(ctx context.Context, plan MergePlan) (*domain.Author, error) {
	var merged domain.Author
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var primary, duplicate domain.Author
		if err := tx.First(&primary, plan.PrimaryID).Error; err != nil {
			return err
		}
		if err := tx.First(&duplicate, plan.DuplicateID).Error; err != nil {
			return err
		}

		survivor, other := primary, duplicate
		if plan.Keep == SideDuplicate {
			survivor, other = duplicate, primary
		}
		merged = plan.resolve(primary, duplicate)
		merged.ID = survivor.ID

		touched, err := moveAuthorships(tx, other.ID, survivor.ID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&domain.Author{}, other.ID).Error; err != nil {
			return err
		}
		if err := tx.Save(&merged).Error; err != nil {
			return err
		}

		// first author or surname may have changed on every linked publication
		pubIDs, err := publicationsOf(tx, survivor.ID)
		if err != nil {
			return err
		}
		l := r.ledger.WithTx(tx)
		for _, id := range union(touched, pubIDs) {
			if _, err := l.RefreshCitationKey(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// moveAuthorships re-points every row of from to to. Where both are
// credited on the same publication the earlier position wins and the other
// row is dropped. Returns the publications that were touched.
func moveAuthorships(tx *gorm.DB, from, to uint64) ([]uint64, error) {
	var rows []domain.Authorship
	if err := tx.Where("author_id = ?", from).Order("publication_id").Find(&rows).Error; err != nil {
		return nil, err
	}

	touched := make([]uint64, 0, len(rows))
	for _, row := range rows {
		touched = append(touched, row.PublicationID)

		var existing domain.Authorship
		err := tx.Where("publication_id = ? AND author_id = ?", row.PublicationID, to).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Model(&row).Update("author_id", to).Error; err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		case row.Position < existing.Position:
			if err := tx.Delete(&row).Error; err != nil {
				return nil, err
			}
			if err := tx.Model(&existing).Update("position", row.Position).Error; err != nil {
				return nil, err
			}
		default:
			if err := tx.Delete(&row).Error; err != nil {
				return nil, err
			}
		}
	}
	return touched, nil
}

func publicationsOf(tx *gorm.DB, authorID uint64) ([]uint64, error) {
	var ids []uint64
	err := tx.Model(&domain.Authorship{}).Where("author_id = ?", authorID).Order("publication_id").Pluck("publication_id", &ids).Error
	return ids, err
}

func union(a, b []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(a)+len(b))
	out := make([]uint64, 0, len(a)+len(b))
	for _, list := range [][]uint64{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
