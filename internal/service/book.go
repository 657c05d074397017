// Package service provides the business logic layer for accounts, sessions, books and collections.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/id"
	"github.com/thebooksapp/thebooks-server/internal/search"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// BookService manages book records. Reads see live rows only; deletion is a
// soft delete.
type BookService struct {
	store       *store.Store
	searchIndex *search.SearchIndex // optional, nil falls back to title scans
	logger      *slog.Logger
}

// NewBookService creates a new book service. searchIndex may be nil.
func NewBookService(store *store.Store, searchIndex *search.SearchIndex, logger *slog.Logger) *BookService {
	return &BookService{
		store:       store,
		searchIndex: searchIndex,
		logger:      logger,
	}
}

// ListBooksParams filters and paginates a book listing.
type ListBooksParams struct {
	Search     string
	ID         string
	OwnerID    string
	Pagination store.PaginationParams
}

// BookRequest is the payload for creating or updating a book. Ownership is
// never taken from the payload; it is forced to the acting caller.
type BookRequest struct {
	Title        string            `json:"title" validate:"required,max=512"`
	Description  string            `json:"description,omitempty" validate:"max=4096"`
	CollectionID string            `json:"collection_id,omitempty"`
	ReleaseYear  int               `json:"release_year,omitempty" validate:"omitempty,min=0,max=3000"`
	PublishYear  int               `json:"publish_year,omitempty" validate:"omitempty,min=0,max=3000"`
	ISBN         string            `json:"isbn,omitempty" validate:"max=32"`
	Language     string            `json:"language,omitempty" validate:"max=64"`
	Publisher    string            `json:"publisher,omitempty" validate:"max=256"`
	Categories   []domain.Category `json:"categories,omitempty"`
}

// List returns live books matching the filters, newest first.
func (s *BookService) List(ctx context.Context, params ListBooksParams) (store.PaginatedResult[*domain.Book], error) {
	var empty store.PaginatedResult[*domain.Book]
	params.Pagination.Validate()

	matchTitle, err := titleMatcher(ctx, s.searchIndex, params.Search, search.DocTypeBook, params.OwnerID)
	if err != nil {
		return empty, err
	}

	var books []*domain.Book
	for book, err := range s.store.Books.List(ctx) {
		if err != nil {
			return empty, fmt.Errorf("scan books: %w", err)
		}
		if book.IsDeleted() {
			continue
		}
		if params.ID != "" && book.ID != params.ID {
			continue
		}
		if params.OwnerID != "" && book.OwnerID != params.OwnerID {
			continue
		}
		if !matchTitle(book.ID, book.Title) {
			continue
		}
		books = append(books, book)
	}

	sortNewestFirst(books, func(b *domain.Book) (string, int64) {
		return b.ID, b.CreatedAt.UnixNano()
	})

	return store.Paginate(books, params.Pagination, func(b *domain.Book) string { return b.ID })
}

// Get returns a live book by ID.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetLiveBook(ctx, bookID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// PrepareForModification returns the record an editor should start from:
// a blank active book when bookID is empty, otherwise the live row.
func (s *BookService) PrepareForModification(ctx context.Context, bookID string) (*domain.Book, error) {
	if bookID == "" {
		return &domain.Book{Active: true}, nil
	}
	return s.Get(ctx, bookID)
}

// Create adds a new book owned by the caller.
func (s *BookService) Create(ctx context.Context, callerID string, req BookRequest) (*domain.Book, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if err := s.checkBookReferences(ctx, callerID, req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Trackable:    domain.Trackable{ID: bookID},
		OwnerID:      callerID,
		CollectionID: req.CollectionID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ReleaseYear:  req.ReleaseYear,
		PublishYear:  req.PublishYear,
		ISBN:         req.ISBN,
		Language:     req.Language,
		Publisher:    req.Publisher,
		Categories:   req.Categories,
		Active:       true,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Update replaces a book's editable fields. Ownership moves to the caller.
func (s *BookService) Update(ctx context.Context, callerID, bookID string, req BookRequest) (*domain.Book, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if err := s.checkBookReferences(ctx, callerID, req); err != nil {
		return nil, err
	}

	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	book.OwnerID = callerID
	book.CollectionID = req.CollectionID
	book.Title = strings.TrimSpace(req.Title)
	book.Description = req.Description
	book.ReleaseYear = req.ReleaseYear
	book.PublishYear = req.PublishYear
	book.ISBN = req.ISBN
	book.Language = req.Language
	book.Publisher = req.Publisher
	book.Categories = req.Categories
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// ToggleActivation flips a book's active flag.
func (s *BookService) ToggleActivation(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	book.Active = !book.Active
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// Delete soft-deletes a book. The row survives but leaves all default reads.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	book, err := s.Get(ctx, bookID)
	if err != nil {
		return err
	}

	book.MarkDeleted()
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("book deleted", "book_id", bookID)
	}
	return nil
}

// checkBookReferences validates payload fields that point at other records.
// A referenced collection must be live and belong to the caller.
func (s *BookService) checkBookReferences(ctx context.Context, callerID string, req BookRequest) error {
	for _, c := range req.Categories {
		if !domain.ValidCategory(c) {
			return domainerrors.ValidationWithFields("validation failed",
				map[string]string{"categories": fmt.Sprintf("unknown category %q", c)})
		}
	}

	if req.CollectionID == "" {
		return nil
	}
	collection, err := s.store.GetLiveCollection(ctx, req.CollectionID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.ValidationWithFields("validation failed",
				map[string]string{"collection_id": "collection does not exist"})
		}
		return fmt.Errorf("get collection: %w", err)
	}
	if collection.OwnerID != callerID {
		return domainerrors.ValidationWithFields("validation failed",
			map[string]string{"collection_id": "collection belongs to another user"})
	}
	return nil
}

// titleMatcher returns a predicate for the search text. With a search index
// available the match set comes from bleve; otherwise it degrades to a
// case-insensitive substring check against the title.
func titleMatcher(ctx context.Context, idx *search.SearchIndex, searchText string, docType search.DocType, ownerID string) (func(id, title string) bool, error) {
	searchText = strings.TrimSpace(searchText)
	if searchText == "" {
		return func(string, string) bool { return true }, nil
	}

	if idx != nil {
		ids, err := idx.MatchingIDs(ctx, searchText, docType, ownerID)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", searchText, err)
		}
		return func(id, _ string) bool { return ids[id] }, nil
	}

	needle := strings.ToLower(searchText)
	return func(_, title string) bool {
		return strings.Contains(strings.ToLower(title), needle)
	}, nil
}

// sortNewestFirst orders items by creation time descending, breaking ties by
// ID so pagination cursors stay stable.
func sortNewestFirst[T any](items []T, key func(T) (id string, createdNanos int64)) {
	sort.Slice(items, func(i, j int) bool {
		iID, iCreated := key(items[i])
		jID, jCreated := key(items[j])
		if iCreated != jCreated {
			return iCreated > jCreated
		}
		return iID < jID
	})
}
