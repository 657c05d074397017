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

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookPages",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/pages",
		Summary:     "List books (paged)",
		Description: "Returns a cursor page of live books matching the filters",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookPages)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns live books matching the query filters",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "prepareBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/modify",
		Summary:     "Prepare book for modification",
		Description: "Returns an existing book, or a blank template when no ID is given",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePrepareBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a live book by ID",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Creates a book owned by the caller",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Replaces a book's editable fields",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleBookActivation",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/activation",
		Summary:     "Toggle book activation",
		Description: "Flips a book's active flag",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleBookActivation)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Soft-deletes a book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID           string            `json:"id" doc:"Book ID"`
	OwnerID      string            `json:"owner_id" doc:"Owning user ID"`
	CollectionID string            `json:"collection_id,omitempty" doc:"Containing collection ID"`
	Title        string            `json:"title" doc:"Book title"`
	Description  string            `json:"description,omitempty" doc:"Book description"`
	ReleaseYear  int               `json:"release_year,omitempty" doc:"Original release year"`
	PublishYear  int               `json:"publish_year,omitempty" doc:"Edition publish year"`
	ISBN         string            `json:"isbn,omitempty" doc:"ISBN"`
	Language     string            `json:"language,omitempty" doc:"Language"`
	Publisher    string            `json:"publisher,omitempty" doc:"Publisher"`
	Categories   []domain.Category `json:"categories,omitempty" doc:"Assigned categories"`
	Active       bool              `json:"active" doc:"Whether the book is active"`
	CreatedAt    time.Time         `json:"created_at" doc:"Creation time"`
	UpdatedAt    time.Time         `json:"updated_at" doc:"Last update time"`
}

// BookPageResponse contains one cursor page of books.
type BookPageResponse struct {
	Items      []BookResponse `json:"items" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
	Total      int            `json:"total,omitempty" doc:"Total matches before pagination"`
}

// BookFilterRequest carries list filters in a request body.
type BookFilterRequest struct {
	Search  string `json:"search,omitempty" doc:"Title search text"`
	ID      string `json:"id,omitempty" doc:"Exact book ID filter"`
	OwnerID string `json:"owner_id,omitempty" doc:"Owner filter"`
	Limit   int    `json:"limit,omitempty" doc:"Page size, max 100"`
	Cursor  string `json:"cursor,omitempty" doc:"Opaque page cursor"`
}

// ListBookPagesInput wraps the paged book list request for Huma.
type ListBookPagesInput struct {
	Authorization string `header:"Authorization"`
	Body          BookFilterRequest
}

// ListBooksInput contains query parameters for listing books.
type ListBooksInput struct {
	Authorization string `header:"Authorization"`
	Search        string `query:"search" doc:"Title search text"`
	ID            string `query:"id" doc:"Exact book ID filter"`
	OwnerID       string `query:"owner_id" doc:"Owner filter"`
	Limit         int    `query:"limit" doc:"Page size, max 100"`
	Cursor        string `query:"cursor" doc:"Opaque page cursor"`
}

// BookPageOutput wraps a book page for Huma.
type BookPageOutput struct {
	Body BookPageResponse
}

// GetBookInput contains parameters for fetching one book.
type GetBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// PrepareBookInput contains parameters for the modify form.
type PrepareBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `query:"id" doc:"Book ID, empty for a blank template"`
}

// BookOutput wraps a single book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Authorization string `header:"Authorization"`
	Body          service.BookRequest
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
	Body          service.BookRequest
}

// ToggleBookActivationInput contains parameters for flipping activation.
type ToggleBookActivationInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:           b.ID,
		OwnerID:      b.OwnerID,
		CollectionID: b.CollectionID,
		Title:        b.Title,
		Description:  b.Description,
		ReleaseYear:  b.ReleaseYear,
		PublishYear:  b.PublishYear,
		ISBN:         b.ISBN,
		Language:     b.Language,
		Publisher:    b.Publisher,
		Categories:   b.Categories,
		Active:       b.Active,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBookPageResponse(page store.PaginatedResult[*domain.Book]) BookPageResponse {
	items := make([]BookResponse, len(page.Items))
	for i, b := range page.Items {
		items[i] = toBookResponse(b)
	}

	return BookPageResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}
}

// === Handlers ===

func (s *Server) handleListBookPages(ctx context.Context, input *ListBookPagesInput) (*BookPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Book.List(ctx, service.ListBooksParams{
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

	return &BookPageOutput{Body: toBookPageResponse(page)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	page, err := s.services.Book.List(ctx, service.ListBooksParams{
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

	return &BookPageOutput{Body: toBookPageResponse(page)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handlePrepareBook(ctx context.Context, input *PrepareBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.PrepareForModification(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Create(ctx, claims.UserID, input.Body)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	claims, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Update(ctx, claims.UserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleToggleBookActivation(ctx context.Context, input *ToggleBookActivationInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.ToggleActivation(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Book.Delete(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "book deleted"}}, nil
}
