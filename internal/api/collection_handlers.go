package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/thebooksapp/thebooks-server/internal/domain"
	"github.com/thebooksapp/thebooks-server/internal/service"
	"github.com/thebooksapp/thebooks-server/internal/store"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollectionPages",
		Method:      http.MethodPost,
		Path:        "/api/v1/book-collections/pages",
		Summary:     "List collections (paged)",
		Description: "Returns a cursor page of live collections matching the filters",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollectionPages)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/book-collections",
		Summary:     "List collections",
		Description: "Returns live collections matching the query filters",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID: "prepareCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/book-collections/modify",
		Summary:     "Prepare collection for modification",
		Description: "Returns an existing collection, or a blank template when no ID is given",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePrepareCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/book-collections/{id}",
		Summary:     "Get collection",
		Description: "Returns a live collection by ID",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "createCollection",
		Method:      http.MethodPost,
		Path:        "/api/v1/book-collections",
		Summary:     "Create collection",
		Description: "Creates a collection owned by the caller",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollection",
		Method:      http.MethodPut,
		Path:        "/api/v1/book-collections/{id}",
		Summary:     "Update collection",
		Description: "Replaces a collection's editable fields",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleCollectionActivation",
		Method:      http.MethodPut,
		Path:        "/api/v1/book-collections/{id}/activation",
		Summary:     "Toggle collection activation",
		Description: "Flips a collection's active flag",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleCollectionActivation)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCollection",
		Method:      http.MethodDelete,
		Path:        "/api/v1/book-collections/{id}",
		Summary:     "Delete collection",
		Description: "Soft-deletes a collection",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCollection)
}

// === DTOs ===

// CollectionResponse contains collection data in API responses.
type CollectionResponse struct {
	ID          string    `json:"id" doc:"Collection ID"`
	OwnerID     string    `json:"owner_id" doc:"Owning user ID"`
	Title       string    `json:"title" doc:"Collection title, unique per owner"`
	Description string    `json:"description,omitempty" doc:"Collection description"`
	Active      bool      `json:"active" doc:"Whether the collection is active"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// CollectionPageResponse contains one cursor page of collections.
type CollectionPageResponse struct {
	Items      []CollectionResponse `json:"items" doc:"Collections on this page"`
	NextCursor string               `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                 `json:"has_more" doc:"Whether more pages exist"`
	Total      int                  `json:"total,omitempty" doc:"Total matches before pagination"`
}

// CollectionFilterRequest carries list filters in a request body.
type CollectionFilterRequest struct {
	Search  string `json:"search,omitempty" doc:"Title search text"`
	ID      string `json:"id,omitempty" doc:"Exact collection ID filter"`
	OwnerID string `json:"owner_id,omitempty" doc:"Owner filter"`
	Limit   int    `json:"limit,omitempty" doc:"Page size, max 100"`
	Cursor  string `json:"cursor,omitempty" doc:"Opaque page cursor"`
}

// ListCollectionPagesInput wraps the paged collection list request for Huma.
type ListCollectionPagesInput struct {
	Authorization string `header:"Authorization"`
	Body          CollectionFilterRequest
}

// ListCollectionsInput contains query parameters for listing collections.
type ListCollectionsInput struct {
	Authorization string `header:"Authorization"`
	Search        string `query:"search" doc:"Title search text"`
	ID            string `query:"id" doc:"Exact collection ID filter"`
	OwnerID       string `query:"owner_id" doc:"Owner filter"`
	Limit         int    `query:"limit" doc:"Page size, max 100"`
	Cursor        string `query:"cursor" doc:"Opaque page cursor"`
}

// CollectionPageOutput wraps a collection page for Huma.
type CollectionPageOutput struct {
	Body CollectionPageResponse
}

// GetCollectionInput contains parameters for fetching one collection.
type GetCollectionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Collection ID"`
}

// PrepareCollectionInput contains parameters for the modify form.
type PrepareCollectionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `query:"id" doc:"Collection ID, empty for a blank template"`
}

// CollectionOutput wraps a single collection response for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// CreateCollectionInput wraps the create collection request for Huma.
type CreateCollectionInput struct {
	Authorization string `header:"Authorization"`
	Body          service.CollectionRequest
}

// UpdateCollectionInput wraps the update collection request for Huma.
type UpdateCollectionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Collection ID"`
	Body          service.CollectionRequest
}

// ToggleCollectionActivationInput contains parameters for flipping activation.
type ToggleCollectionActivationInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Collection ID"`
}

// DeleteCollectionInput contains parameters for deleting a collection.
type DeleteCollectionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Collection ID"`
}

func toCollectionResponse(c *domain.Collection) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Title:       c.Title,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCollectionPageResponse(page store.PaginatedResult[*domain.Collection]) CollectionPageResponse {
	items := make([]CollectionResponse, len(page.Items))
	for i, c := range page.Items {
		items[i] = toCollectionResponse(c)
	}

	return CollectionPageResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}
}

// === Handlers ===

func (s *Server) handleListCollectionPages(ctx context.Context, input *ListCollectionPagesInput) (*CollectionPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Collection.List(ctx, service.ListCollectionsParams{
		Search:  input.Body.Search,
		ID:      input.Body.ID,
		OwnerID: input.Body.OwnerID,
		Pagination: store.PaginationParams{
			Limit:  input.Body.Limit,
			Cursor: input.Body.Cursor,
		},
	})
	if err != nil {
		return nil, err
	}

	return &CollectionPageOutput{Body: toCollectionPageResponse(page)}, nil
}

func (s *Server) handleListCollections(ctx context.Context, input *ListCollectionsInput) (*CollectionPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Collection.List(ctx, service.ListCollectionsParams{
		Search:  input.Search,
		ID:      input.ID,
		OwnerID: input.OwnerID,
		Pagination: store.PaginationParams{
			Limit:  input.Limit,
			Cursor: input.Cursor,
		},
	})
	if err != nil {
		return nil, err
	}

	return &CollectionPageOutput{Body: toCollectionPageResponse(page)}, nil
}

func (s *Server) handleGetCollection(ctx context.Context, input *GetCollectionInput) (*CollectionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	collection, err := s.services.Collection.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: toCollectionResponse(collection)}, nil
}

func (s *Server) handlePrepareCollection(ctx context.Context, input *PrepareCollectionInput) (*CollectionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	collection, err := s.services.Collection.PrepareForModification(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: toCollectionResponse(collection)}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	collection, err := s.services.Collection.Create(ctx, claims.UserID, input.Body)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: toCollectionResponse(collection)}, nil
}

func (s *Server) handleUpdateCollection(ctx context.Context, input *UpdateCollectionInput) (*CollectionOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	collection, err := s.services.Collection.Update(ctx, claims.UserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: toCollectionResponse(collection)}, nil
}

func (s *Server) handleToggleCollectionActivation(ctx context.Context, input *ToggleCollectionActivationInput) (*CollectionOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	collection, err := s.services.Collection.ToggleActivation(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &CollectionOutput{Body: toCollectionResponse(collection)}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *DeleteCollectionInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Collection.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "collection deleted"}}, nil
}
