package store

import (
	"encoding/base64"
	"fmt"
)

// PaginationParams contains pagination request parameters
type PaginationParams struct {
	Limit  int    // The number of items per page (defaults to 20 with a maximum of 100)
	Cursor string // Opaque cursor for next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"` // Total count before pagination
}

// DefaultPaginationParams returns sensible defaults
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Limit:  20,
		Cursor: "",
	}
}

// Validate checks and corrects pagination parameters
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 20
	}

	if p.Limit > 100 {
		p.Limit = 100
	}
}

// EncodeCursor creates an opaque cursor from a key.
// We use the last item's ID as the cursor.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}

	return string(decoded), nil
}

// Paginate applies cursor pagination to an already-sorted slice.
// The cursor names the ID of the last item on the previous page; items up to
// and including it are skipped. An unknown cursor ID yields an empty page.
func Paginate[T any](items []T, params PaginationParams, idOf func(T) string) (PaginatedResult[T], error) {
	params.Validate()

	result := PaginatedResult[T]{
		Items: []T{},
		Total: len(items),
	}

	start := 0
	if params.Cursor != "" {
		lastID, err := DecodeCursor(params.Cursor)
		if err != nil {
			return result, err
		}
		start = len(items)
		for i, item := range items {
			if idOf(item) == lastID {
				start = i + 1
				break
			}
		}
	}

	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}
	if start < end {
		result.Items = items[start:end]
	}

	result.HasMore = end < len(items)
	if result.HasMore && len(result.Items) > 0 {
		result.NextCursor = EncodeCursor(idOf(result.Items[len(result.Items)-1]))
	}

	return result, nil
}
