package models

// Role is the permission level assigned to a user
type Role int

// Role constants, matching the seeded roles table
const (
	RoleAdmin  Role = 1
	RoleAuthor Role = 2
)

// String returns the role name as stored in the roles table
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleAuthor:
		return "Author"
	default:
		return "Unknown"
	}
}
