package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	domainerrors "github.com/thebooksapp/thebooks-server/internal/errors"
	"github.com/thebooksapp/thebooks-server/internal/id"
	"github.com/thebooksapp/thebooks-server/internal/search"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

// CollectionService manages book collections. Titles are unique per owner
// among live rows; a soft-deleted collection frees its title.
type CollectionService struct {
	store       *store.Store
	searchIndex *search.SearchIndex // optional, nil falls back to title scans
	logger      *slog.Logger
}

// NewCollectionService creates a new collection service. searchIndex may be nil.
func NewCollectionService(store *store.Store, searchIndex *search.SearchIndex, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:       store,
		searchIndex: searchIndex,
		logger:      logger,
	}
}

// ListCollectionsParams filters and paginates a collection listing.
type ListCollectionsParams struct {
	Search     string
	ID         string
	OwnerID    string
	Pagination store.PaginationParams
}

// CollectionRequest is the payload for creating or updating a collection.
// Ownership is forced to the acting caller.
type CollectionRequest struct {
	Title       string `json:"title" validate:"required,max=512"`
	Description string `json:"description,omitempty" validate:"max=4096"`
}

// List returns live collections matching the filters, newest first.
func (s *CollectionService) List(ctx context.Context, params ListCollectionsParams) (store.PaginatedResult[*domain.Collection], error) {
	var empty store.PaginatedResult[*domain.Collection]
	params.Pagination.Validate()

	matchTitle, err := titleMatcher(ctx, s.searchIndex, params.Search, search.DocTypeCollection, params.OwnerID)
	if err != nil {
		return empty, err
	}

	var collections []*domain.Collection
	for collection, err := range s.store.Collections.List(ctx) {
		if err != nil {
			return empty, fmt.Errorf("scan collections: %w", err)
		}
		if collection.IsDeleted() {
			continue
		}
		if params.ID != "" && collection.ID != params.ID {
			continue
		}
		if params.OwnerID != "" && collection.OwnerID != params.OwnerID {
			continue
		}
		if !matchTitle(collection.ID, collection.Title) {
			continue
		}
		collections = append(collections, collection)
	}

	sortNewestFirst(collections, func(c *domain.Collection) (string, int64) {
		return c.ID, c.CreatedAt.UnixNano()
	})

	return store.Paginate(collections, params.Pagination, func(c *domain.Collection) string { return c.ID })
}

// Get returns a live collection by ID.
func (s *CollectionService) Get(ctx context.Context, collectionID string) (*domain.Collection, error) {
	collection, err := s.store.GetLiveCollection(ctx, collectionID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("collection not found")
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return collection, nil
}

// PrepareForModification returns the record an editor should start from:
// a blank active collection when collectionID is empty, otherwise the live row.
func (s *CollectionService) PrepareForModification(ctx context.Context, collectionID string) (*domain.Collection, error) {
	if collectionID == "" {
		return &domain.Collection{Active: true}, nil
	}
	return s.Get(ctx, collectionID)
}

// Create adds a new collection owned by the caller. A duplicate title among
// the caller's live collections surfaces as a field validation error.
func (s *CollectionService) Create(ctx context.Context, callerID string, req CollectionRequest) (*domain.Collection, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	collectionID, err := id.Generate(id.PrefixCollection)
	if err != nil {
		return nil, fmt.Errorf("generate collection ID: %w", err)
	}

	collection := &domain.Collection{
		Trackable:   domain.Trackable{ID: collectionID},
		OwnerID:     callerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Active:      true,
	}
	collection.InitTimestamps()

	if err := s.store.CreateCollection(ctx, collection); err != nil {
		return nil, collectionWriteError(err)
	}
	return collection, nil
}

// Update replaces a collection's editable fields. Ownership moves to the caller.
func (s *CollectionService) Update(ctx context.Context, callerID, collectionID string, req CollectionRequest) (*domain.Collection, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	collection, err := s.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	collection.OwnerID = callerID
	collection.Title = strings.TrimSpace(req.Title)
	collection.Description = req.Description
	collection.Touch()

	if err := s.store.UpdateCollection(ctx, collection); err != nil {
		return nil, collectionWriteError(err)
	}
	return collection, nil
}

// ToggleActivation flips a collection's active flag.
func (s *CollectionService) ToggleActivation(ctx context.Context, collectionID string) (*domain.Collection, error) {
	collection, err := s.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	collection.Active = !collection.Active
	collection.Touch()

	if err := s.store.UpdateCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	return collection, nil
}

// Delete soft-deletes a collection. Books keep their collection reference;
// reads that resolve it treat the collection as absent.
func (s *CollectionService) Delete(ctx context.Context, collectionID string) error {
	collection, err := s.Get(ctx, collectionID)
	if err != nil {
		return err
	}

	collection.MarkDeleted()
	if err := s.store.UpdateCollection(ctx, collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("collection deleted", "collection_id", collectionID)
	}
	return nil
}

// collectionWriteError maps a duplicate-title index conflict to a field
// validation error; everything else passes through wrapped.
func collectionWriteError(err error) error {
	if conflict := (*store.IndexConflictError)(nil); domainerrors.As(err, &conflict) {
		return domainerrors.ValidationWithFields("validation failed",
			map[string]string{"title": "title is already used by another collection"})
	}
	return fmt.Errorf("write collection: %w", err)
}
