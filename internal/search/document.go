// Package search provides full-text title search over books and collections
// using Bleve. The store feeds it through a SearchIndexer seam; list
// endpoints use it to resolve free-text search terms to entity IDs.
package search

import (
	"github.com/thebooksapp/thebooks-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook       DocType = "book"
	DocTypeCollection DocType = "collection"
)

// SearchDocument is the unified document structure for the Bleve index.
// Books and collections are indexed together with type discrimination.
type SearchDocument struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Primary searchable text: the entity title.
	Title string `json:"title"`

	Description string `json:"description,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	OwnerID     string `json:"owner_id"`

	// Category slugs for exact filtering (books only).
	Categories []string `json:"categories,omitempty"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly. The title is
// indexed twice: analyzed for word matching and lowercased whole for
// substring (wildcard) matching.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"type":        string(d.Type),
		"title":       d.Title,
		"title_exact": d.Title,
		"owner_id":    d.OwnerID,
		"created_at":  d.CreatedAt,
		"updated_at":  d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
	}

	return m
}

// BookToSearchDocument converts a domain Book to a SearchDocument.
func BookToSearchDocument(book *domain.Book) *SearchDocument {
	categories := make([]string, 0, len(book.Categories))
	for _, c := range book.Categories {
		categories = append(categories, string(c))
	}

	return &SearchDocument{
		ID:          book.ID,
		Type:        DocTypeBook,
		Title:       book.Title,
		Description: book.Description,
		Publisher:   book.Publisher,
		OwnerID:     book.OwnerID,
		Categories:  categories,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}
}

// CollectionToSearchDocument converts a domain Collection to a SearchDocument.
func CollectionToSearchDocument(c *domain.Collection) *SearchDocument {
	return &SearchDocument{
		ID:          c.ID,
		Type:        DocTypeCollection,
		Title:       c.Title,
		Description: c.Description,
		OwnerID:     c.OwnerID,
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   c.UpdatedAt.UnixMilli(),
	}
}
