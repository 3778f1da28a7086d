package types

import "time"

// Book is a catalog entry saved to a user's personal list.
type Book struct {
	// ID is the unique identifier of the saved book.
	ID int64 `json:"id" db:"id"`

	// OwnerID is the user the book is saved under.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// Title of the book.
	Title string `json:"title" db:"title"`

	// Author credited for the book.
	Author string `json:"author" db:"author"`

	// Description is optional catalog copy.
	Description string `json:"description,omitempty" db:"description"`

	// Image is the cover thumbnail URL as reported by the catalog. Optional.
	Image string `json:"image,omitempty" db:"image"`

	// Link is the catalog's canonical info page for the book.
	Link string `json:"link" db:"link"`

	// CoverKey is the object-storage key of the archived cover image.
	// Empty until the cover worker has processed the book.
	CoverKey string `json:"cover_key,omitempty" db:"cover_key"`

	// CreatedAt is the timestamp when the book was saved.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SearchResult is one hit from the external catalog. It is never persisted;
// saving a result turns it into a Book.
type SearchResult struct {
	// Title of the volume.
	Title string `json:"title"`

	// Authors lists every credited author in catalog order.
	Authors []string `json:"authors"`

	// Description is optional and may be empty.
	Description string `json:"description,omitempty"`

	// Image is the thumbnail URL when the catalog provides one.
	Image string `json:"image,omitempty"`

	// Link is the catalog's info page for the volume.
	Link string `json:"link"`
}
