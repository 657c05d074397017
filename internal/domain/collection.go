package domain

// Collection is a named grouping of a user's books.
// Titles are unique per owner among live collections; two different owners
// may each have a collection with the same title.
type Collection struct {
	Trackable
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}
