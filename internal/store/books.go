package store

import (
	"context"
	"log/slog"

	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// initBooks initializes the Books entity on the store.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, "book:")
}

// CreateBook persists a new book and indexes it for search.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		return err
	}

	s.indexBook(book)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("owner_id", book.OwnerID),
		)
	}
	return nil
}

// UpdateBook persists changes to a book and keeps the search index in sync.
// A soft-deleted book is removed from the index instead of re-indexed.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Update(ctx, book.ID, book); err != nil {
		return err
	}

	if book.IsDeleted() {
		s.unindexBook(book.ID)
	} else {
		s.indexBook(book)
	}
	return nil
}

// GetLiveBook fetches a book by ID, treating soft-deleted rows as missing.
func (s *Store) GetLiveBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.Books.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.IsDeleted() {
		return nil, ErrNotFound
	}
	return book, nil
}

// indexBook updates the search index asynchronously so store writes never
// block on search.
func (s *Store) indexBook(book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	b := *book
	go func() {
		if err := s.searchIndexer.IndexBook(context.Background(), &b); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index book for search", "book_id", b.ID, "error", err)
			}
		}
	}()
}

func (s *Store) unindexBook(bookID string) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.DeleteBook(context.Background(), bookID); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
			}
		}
	}()
}
