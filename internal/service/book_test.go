package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// setupRecordTest creates book and collection services over temporary
// storage. No search index is attached; listing falls back to title scans.
func setupRecordTest(t *testing.T) (*BookService, *CollectionService, *store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewBookService(s, nil, nil), NewCollectionService(s, nil, nil), s
}

const testOwnerID = "user-owner1"

func createTestBook(t *testing.T, svc *BookService, owner, title string) *domain.Book {
	t.Helper()

	book, err := svc.Create(context.Background(), owner, BookRequest{
		Title:      title,
		Categories: []domain.Category{domain.CategoryNovel},
	})
	require.NoError(t, err)
	return book
}

func TestBookService_Create(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	book, err := books.Create(context.Background(), testOwnerID, BookRequest{
		Title:       "The Peloponnesian War",
		Description: "An account of the war between Athens and Sparta.",
		ReleaseYear: 1954,
		PublishYear: 1972,
		ISBN:        "978-0140440393",
		Language:    "en",
		Publisher:   "Penguin Classics",
		Categories:  []domain.Category{domain.CategoryHistory},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, testOwnerID, book.OwnerID)
	assert.True(t, book.Active)
	assert.False(t, book.IsDeleted())
}

func TestBookService_Create_OwnerComesFromCaller(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	// The request type has no owner field at all; whatever identity the
	// handler passes wins.
	book := createTestBook(t, books, "user-caller", "Anabasis")
	assert.Equal(t, "user-caller", book.OwnerID)
}

func TestBookService_Create_MissingTitle(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	_, err := books.Create(context.Background(), testOwnerID, BookRequest{})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
	assert.Contains(t, derr.Fields, "title")
}

func TestBookService_Create_UnknownCategory(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	_, err := books.Create(context.Background(), testOwnerID, BookRequest{
		Title:      "Mystery",
		Categories: []domain.Category{"thriller"},
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "categories")
}

func TestBookService_Create_CollectionMustExist(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	_, err := books.Create(context.Background(), testOwnerID, BookRequest{
		Title:        "Orphan",
		CollectionID: "coll-missing",
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "collection_id")
}

func TestBookService_Create_CollectionMustBelongToCaller(t *testing.T) {
	books, collections, _ := setupRecordTest(t)

	other, err := collections.Create(context.Background(), "user-other", CollectionRequest{Title: "Theirs"})
	require.NoError(t, err)

	_, err = books.Create(context.Background(), testOwnerID, BookRequest{
		Title:        "Intruder",
		CollectionID: other.ID,
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "collection_id")
}

func TestBookService_Create_DeletedCollectionIsInvisible(t *testing.T) {
	books, collections, _ := setupRecordTest(t)

	coll, err := collections.Create(context.Background(), testOwnerID, CollectionRequest{Title: "Gone"})
	require.NoError(t, err)
	require.NoError(t, collections.Delete(context.Background(), coll.ID))

	_, err = books.Create(context.Background(), testOwnerID, BookRequest{
		Title:        "Late",
		CollectionID: coll.ID,
	})

	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Fields, "collection_id")
}

func TestBookService_Update(t *testing.T) {
	books, _, _ := setupRecordTest(t)
	book := createTestBook(t, books, testOwnerID, "Draft Title")

	updated, err := books.Update(context.Background(), testOwnerID, book.ID, BookRequest{
		Title:      "Final Title",
		Publisher:  "Vintage",
		Categories: []domain.Category{domain.CategoryScience},
	})
	require.NoError(t, err)

	assert.Equal(t, "Final Title", updated.Title)
	assert.Equal(t, "Vintage", updated.Publisher)
	assert.Equal(t, []domain.Category{domain.CategoryScience}, updated.Categories)

	got, err := books.Get(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final Title", got.Title)
}

func TestBookService_Update_NotFound(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	_, err := books.Update(context.Background(), testOwnerID, "book-missing", BookRequest{Title: "X"})
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestBookService_ToggleActivation(t *testing.T) {
	books, _, _ := setupRecordTest(t)
	book := createTestBook(t, books, testOwnerID, "Flippable")
	require.True(t, book.Active)

	toggled, err := books.ToggleActivation(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	toggled, err = books.ToggleActivation(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)
}

func TestBookService_Delete_IsSoft(t *testing.T) {
	books, _, s := setupRecordTest(t)
	book := createTestBook(t, books, testOwnerID, "Ephemeral")

	require.NoError(t, books.Delete(context.Background(), book.ID))

	_, err := books.Get(context.Background(), book.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	// Raw row survives with the deletion timestamp set.
	raw, err := s.Books.Get(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, raw.IsDeleted())

	// Deleting again reports not found.
	err = books.Delete(context.Background(), book.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestBookService_List_FiltersAndOrder(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	for i := range 5 {
		createTestBook(t, books, testOwnerID, fmt.Sprintf("Mine %d", i))
	}
	createTestBook(t, books, "user-other", "Not mine")

	result, err := books.List(context.Background(), ListBooksParams{OwnerID: testOwnerID})
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
	for _, b := range result.Items {
		assert.Equal(t, testOwnerID, b.OwnerID)
	}

	// Newest first.
	for i := 1; i < len(result.Items); i++ {
		prev, cur := result.Items[i-1], result.Items[i]
		assert.False(t, prev.CreatedAt.Before(cur.CreatedAt))
	}
}

func TestBookService_List_SearchFallback(t *testing.T) {
	books, _, _ := setupRecordTest(t)
	createTestBook(t, books, testOwnerID, "The Silmarillion")
	createTestBook(t, books, testOwnerID, "The Hobbit")

	result, err := books.List(context.Background(), ListBooksParams{Search: "MARIL"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "The Silmarillion", result.Items[0].Title)
}

func TestBookService_List_ByID(t *testing.T) {
	books, _, _ := setupRecordTest(t)
	book := createTestBook(t, books, testOwnerID, "Needle")
	createTestBook(t, books, testOwnerID, "Haystack")

	result, err := books.List(context.Background(), ListBooksParams{ID: book.ID})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, book.ID, result.Items[0].ID)
}

func TestBookService_List_Pagination(t *testing.T) {
	books, _, _ := setupRecordTest(t)
	for i := range 25 {
		createTestBook(t, books, testOwnerID, fmt.Sprintf("Book %02d", i))
	}

	seen := map[string]bool{}
	params := ListBooksParams{Pagination: store.PaginationParams{Limit: 10}}
	for {
		result, err := books.List(context.Background(), params)
		require.NoError(t, err)
		for _, b := range result.Items {
			assert.False(t, seen[b.ID], "book %s repeated across pages", b.ID)
			seen[b.ID] = true
		}
		if !result.HasMore {
			break
		}
		params.Pagination.Cursor = result.NextCursor
	}
	assert.Len(t, seen, 25)
}

func TestBookService_PrepareForModification(t *testing.T) {
	books, _, _ := setupRecordTest(t)

	blank, err := books.PrepareForModification(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, blank.ID)
	assert.True(t, blank.Active)

	book := createTestBook(t, books, testOwnerID, "Editable")
	existing, err := books.PrepareForModification(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, existing.ID)
}
