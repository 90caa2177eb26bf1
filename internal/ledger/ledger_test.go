package ledger

import (
	"context"
	"fmt"
	"testing"

	"literature-manager/internal/citekey"
	"literature-manager/internal/domain"
	"literature-manager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createAuthor(t *testing.T, db *gorm.DB, first, last string) domain.Author {
	t.Helper()
	a := domain.Author{FirstName: first, LastName: last}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func createPublication(t *testing.T, db *gorm.DB, title string, year uint) domain.Publication {
	t.Helper()
	p := domain.Publication{Title: title, Year: year, CitationKey: fmt.Sprintf("tmp-%s-%d", title, year)}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func positions(t *testing.T, db *gorm.DB, pubID uint64) []uint {
	t.Helper()
	var pos []uint
	require.NoError(t, db.Model(&domain.Authorship{}).
		Where("publication_id = ?", pubID).
		Order("position").
		Pluck("position", &pos).Error)
	return pos
}

func authorIDs(authors []domain.Author) []uint64 {
	ids := make([]uint64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	return ids
}

func citationKey(t *testing.T, db *gorm.DB, pubID uint64) string {
	t.Helper()
	var pub domain.Publication
	require.NoError(t, db.First(&pub, pubID).Error)
	return pub.CitationKey
}

func TestSetAuthorsInOrder_EmptyThenThree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	a := createAuthor(t, db, "Ada", "Lovelace")
	b := createAuthor(t, db, "Charles", "Babbage")
	c := createAuthor(t, db, "Alan", "Turing")
	pub := createPublication(t, db, "Engines", 1843)

	got, err := l.SetAuthorsInOrder(ctx, pub.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, positions(t, db, pub.ID))

	for i := 0; i < 2; i++ {
		got, err = l.SetAuthorsInOrder(ctx, pub.ID, []uint64{a.ID, b.ID, c.ID})
		require.NoError(t, err)
		assert.Equal(t, []uint64{a.ID, b.ID, c.ID}, authorIDs(got))
		assert.Equal(t, []uint{1, 2, 3}, positions(t, db, pub.ID))
	}
}

func TestSetAuthorsInOrder_Reorder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	a := createAuthor(t, db, "Ada", "Lovelace")
	b := createAuthor(t, db, "Charles", "Babbage")
	pub := createPublication(t, db, "Engines", 1843)

	_, err := l.SetAuthorsInOrder(ctx, pub.ID, []uint64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, "lovelace1843", citationKey(t, db, pub.ID))

	got, err := l.SetAuthorsInOrder(ctx, pub.ID, []uint64{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID, a.ID}, authorIDs(got))
	assert.Equal(t, []uint{1, 2}, positions(t, db, pub.ID))
	assert.Equal(t, "babbage1843", citationKey(t, db, pub.ID))
}

func TestSetAuthorsInOrder_RepeatedIDsKeepFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)

	a := createAuthor(t, db, "Ada", "Lovelace")
	b := createAuthor(t, db, "Charles", "Babbage")
	pub := createPublication(t, db, "Engines", 1843)

	got, err := l.SetAuthorsInOrder(context.Background(), pub.ID, []uint64{b.ID, a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID, a.ID}, authorIDs(got))
	assert.Equal(t, []uint{1, 2}, positions(t, db, pub.ID))
}

func TestSetAuthorsInOrder_UnknownAuthorRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	a := createAuthor(t, db, "Ada", "Lovelace")
	pub := createPublication(t, db, "Engines", 1843)
	_, err := l.SetAuthorsInOrder(ctx, pub.ID, []uint64{a.ID})
	require.NoError(t, err)

	_, err = l.SetAuthorsInOrder(ctx, pub.ID, []uint64{a.ID, 9999})
	assert.ErrorIs(t, err, ErrUnknownAuthor)

	got, err := l.OrderedAuthors(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID}, authorIDs(got))
}

func TestSetAuthorsInOrder_MissingPublication(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, err := New(db).SetAuthorsInOrder(context.Background(), 42, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderedAuthors_SparsePositions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)

	a := createAuthor(t, db, "Ada", "Lovelace")
	b := createAuthor(t, db, "Charles", "Babbage")
	c := createAuthor(t, db, "Alan", "Turing")
	pub := createPublication(t, db, "Engines", 1843)

	require.NoError(t, db.Create(&domain.Authorship{PublicationID: pub.ID, AuthorID: c.ID, Position: 7}).Error)
	require.NoError(t, db.Create(&domain.Authorship{PublicationID: pub.ID, AuthorID: a.ID, Position: 2}).Error)
	require.NoError(t, db.Create(&domain.Authorship{PublicationID: pub.ID, AuthorID: b.ID, Position: 5}).Error)

	got, err := l.OrderedAuthors(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID, b.ID, c.ID}, authorIDs(got))
}

func TestOrderedAuthorsFor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	a := createAuthor(t, db, "Ada", "Lovelace")
	b := createAuthor(t, db, "Charles", "Babbage")
	p1 := createPublication(t, db, "Engines", 1843)
	p2 := createPublication(t, db, "Notes", 1843)
	p3 := createPublication(t, db, "Anonymous", 1900)

	_, err := l.SetAuthorsInOrder(ctx, p1.ID, []uint64{a.ID, b.ID})
	require.NoError(t, err)
	_, err = l.SetAuthorsInOrder(ctx, p2.ID, []uint64{b.ID})
	require.NoError(t, err)

	pubs := []domain.Publication{p1, p2, p3}
	require.NoError(t, l.Fill(ctx, pubs))

	assert.Equal(t, []uint64{a.ID, b.ID}, authorIDs(pubs[0].Authors))
	assert.Equal(t, []uint64{b.ID}, authorIDs(pubs[1].Authors))
	assert.NotNil(t, pubs[2].Authors)
	assert.Empty(t, pubs[2].Authors)
}

func TestRefreshCitationKey_Collisions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	smith := createAuthor(t, db, "John", "Smith")
	p1 := createPublication(t, db, "First", 2020)
	p2 := createPublication(t, db, "Second", 2020)

	_, err := l.SetAuthorsInOrder(ctx, p1.ID, []uint64{smith.ID})
	require.NoError(t, err)
	_, err = l.SetAuthorsInOrder(ctx, p2.ID, []uint64{smith.ID})
	require.NoError(t, err)

	assert.Equal(t, "smith2020", citationKey(t, db, p1.ID))
	assert.Equal(t, "smith2020-2", citationKey(t, db, p2.ID))

	// refreshing is stable: a publication never collides with itself
	key, err := l.RefreshCitationKey(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, "smith2020-2", key)
}

func TestRefreshCitationKey_NoAuthors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	pub := createPublication(t, db, "Anonymous", 1999)

	key, err := New(db).RefreshCitationKey(context.Background(), pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "publication1999", key)
	assert.Equal(t, "publication1999", citationKey(t, db, pub.ID))
}

func TestAvailableKey_BeforeInsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := New(db)
	ctx := context.Background()

	smith := createAuthor(t, db, "John", "Smith")
	pub := createPublication(t, db, "First", 2020)
	_, err := l.SetAuthorsInOrder(ctx, pub.ID, []uint64{smith.ID})
	require.NoError(t, err)

	key, err := l.AvailableKey(ctx, citekey.Source{FirstAuthorLastName: "Smith", Year: 2020}, 0)
	require.NoError(t, err)
	assert.Equal(t, "smith2020-2", key)
}

func TestWithTx_RollbackDiscardsLedgerWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	a := createAuthor(t, db, "Ada", "Lovelace")
	pub := createPublication(t, db, "Engines", 1843)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := New(db).WithTx(tx).SetAuthorsInOrder(ctx, pub.ID, []uint64{a.ID}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	assert.Empty(t, positions(t, db, pub.ID))
	assert.Equal(t, pub.CitationKey, citationKey(t, db, pub.ID))
}
