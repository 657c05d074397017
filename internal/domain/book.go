// Package domain contains the core business entities and domain logic for the TheBooks API.
package domain

// Category is a coarse subject tag on a book.
type Category string

const (
	CategoryHistory   Category = "history"
	CategoryNovel     Category = "novel"
	CategoryScience   Category = "science"
	CategoryFantasy   Category = "fantasy"
	CategoryBiography Category = "biography"
	CategoryOther     Category = "other"
)

// ValidCategory returns true if c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryHistory, CategoryNovel, CategoryScience, CategoryFantasy, CategoryBiography, CategoryOther:
		return true
	}
	return false
}

// Book represents a book record owned by a user, optionally filed under one
// of the owner's collections.
type Book struct {
	Trackable
	OwnerID      string     `json:"owner_id"`
	CollectionID string     `json:"collection_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ReleaseYear  int        `json:"release_year,omitempty"`
	PublishYear  int        `json:"publish_year,omitempty"`
	ISBN         string     `json:"isbn,omitempty"`
	Language     string     `json:"language,omitempty"`
	Publisher    string     `json:"publisher,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
	Active       bool       `json:"active"`
}
