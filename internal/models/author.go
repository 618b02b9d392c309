package models

// DefaultPseudonym is used when an author has no pseudonym set
const DefaultPseudonym = "Wookie"

// Author is the author profile attached to a non-admin user
type Author struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	Pseudonym string `json:"pseudonym"`
}
