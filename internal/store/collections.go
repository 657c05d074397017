package store

import (
	"context"
	"log/slog"

	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// initCollections initializes the Collections entity on the store.
// The owner_title index enforces per-owner title uniqueness among live rows;
// soft-deleted collections free their title for reuse.
func (s *Store) initCollections() {
	s.Collections = NewEntity[domain.Collection](s, "coll:").
		WithIndex("owner_title", func(c *domain.Collection) []string {
			if c.IsDeleted() {
				return nil
			}
			return []string{c.OwnerID + ":" + normalizeName(c.Title)}
		})
}

// CreateCollection persists a new collection and indexes it for search.
// Returns an IndexConflictError on the owner_title index when the owner
// already has a live collection with the same title.
func (s *Store) CreateCollection(ctx context.Context, c *domain.Collection) error {
	if err := s.Collections.Create(ctx, c.ID, c); err != nil {
		return err
	}

	s.indexCollection(c)

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "collection created",
			slog.String("id", c.ID),
			slog.String("title", c.Title),
			slog.String("owner_id", c.OwnerID),
		)
	}
	return nil
}

// UpdateCollection persists changes to a collection and keeps the search
// index in sync. A soft-deleted collection is removed from the index.
func (s *Store) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	if err := s.Collections.Update(ctx, c.ID, c); err != nil {
		return err
	}

	if c.IsDeleted() {
		s.unindexCollection(c.ID)
	} else {
		s.indexCollection(c)
	}
	return nil
}

// GetLiveCollection fetches a collection by ID, treating soft-deleted rows
// as missing.
func (s *Store) GetLiveCollection(ctx context.Context, id string) (*domain.Collection, error) {
	c, err := s.Collections.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted() {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *Store) indexCollection(c *domain.Collection) {
	if s.searchIndexer == nil {
		return
	}
	cc := *c
	go func() {
		if err := s.searchIndexer.IndexCollection(context.Background(), &cc); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index collection for search", "collection_id", cc.ID, "error", err)
			}
		}
	}()
}

func (s *Store) unindexCollection(collectionID string) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.DeleteCollection(context.Background(), collectionID); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to remove collection from search index", "collection_id", collectionID, "error", err)
			}
		}
	}()
}
