package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	"github.com/thebooksapp/thebooks-server/internal/search"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// SearchSyncer keeps the bleve index in step with store writes. It implements
// store.SearchIndexer and is registered on the store at startup.
type SearchSyncer struct {
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchSyncer creates the indexer adapter.
func NewSearchSyncer(index *search.SearchIndex, logger *slog.Logger) *SearchSyncer {
	return &SearchSyncer{index: index, logger: logger}
}

// IndexBook adds or updates a book document in the search index.
func (s *SearchSyncer) IndexBook(_ context.Context, book *domain.Book) error {
	if err := s.index.IndexDocument(search.BookToSearchDocument(book)); err != nil {
		return fmt.Errorf("index book %s: %w", book.ID, err)
	}
	return nil
}

// DeleteBook removes a book document from the search index.
func (s *SearchSyncer) DeleteBook(_ context.Context, bookID string) error {
	if err := s.index.DeleteDocument(bookID); err != nil {
		return fmt.Errorf("unindex book %s: %w", bookID, err)
	}
	return nil
}

// IndexCollection adds or updates a collection document in the search index.
func (s *SearchSyncer) IndexCollection(_ context.Context, c *domain.Collection) error {
	if err := s.index.IndexDocument(search.CollectionToSearchDocument(c)); err != nil {
		return fmt.Errorf("index collection %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCollection removes a collection document from the search index.
func (s *SearchSyncer) DeleteCollection(_ context.Context, collectionID string) error {
	if err := s.index.DeleteDocument(collectionID); err != nil {
		return fmt.Errorf("unindex collection %s: %w", collectionID, err)
	}
	return nil
}

// RebuildFromStore repopulates the search index from the live rows in the
// store. Used at startup after a mapping version bump.
func (s *SearchSyncer) RebuildFromStore(ctx context.Context, st *store.Store) error {
	var docs []*search.SearchDocument

	for book, err := range st.Books.List(ctx) {
		if err != nil {
			return fmt.Errorf("scan books: %w", err)
		}
		if !book.IsDeleted() {
			docs = append(docs, search.BookToSearchDocument(book))
		}
	}
	for collection, err := range st.Collections.List(ctx) {
		if err != nil {
			return fmt.Errorf("scan collections: %w", err)
		}
		if !collection.IsDeleted() {
			docs = append(docs, search.CollectionToSearchDocument(collection))
		}
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("reindex %d documents: %w", len(docs), err)
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt", "documents", len(docs))
	}
	return nil
}

// compile-time check that the adapter satisfies the store seam.
var _ store.SearchIndexer = (*SearchSyncer)(nil)
