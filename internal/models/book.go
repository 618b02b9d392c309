package models

// Book represents a book in the catalog
type Book struct {
	ID          int64   `json:"bookId"`
	AuthorID    int64   `json:"-"` // authors.id
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverImage  string  `json:"coverImage"`
	Price       float64 `json:"price"`
	Published   bool    `json:"bookPublished"`
}

// BookDetails is a book joined with its author for API responses
type BookDetails struct {
	ID              int64   `json:"bookId"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	CoverImage      string  `json:"coverImage"`
	Price           float64 `json:"price"`
	Published       bool    `json:"bookPublished"`
	AuthorUserID    int64   `json:"authorId"`
	AuthorName      string  `json:"authorName"`
	AuthorPseudonym string  `json:"authorPseudonym"`
}

// BookRequest is the payload of create and update requests.
// AuthorID carries the user id of the author submitting the request.
// An omitted bookPublished creates an unpublished book and keeps the current flag on update.
type BookRequest struct {
	BookID      int64   `json:"bookId"`
	AuthorID    int64   `json:"authorId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CoverImage  string  `json:"coverImage"`
	Price       float64 `json:"price"`
	Published   *bool   `json:"bookPublished,omitempty"`
}

// BookSearch holds optional search filters; empty filters match everything
type BookSearch struct {
	Title      string
	AuthorName string
}
