package services

import "errors"

// Validation errors
var (
	ErrMissingFields      = errors.New("name, username and password are required")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidBook        = errors.New("title is required and price must be greater than zero")
	ErrIDMismatch         = errors.New("route id does not match payload bookId")
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("username does not exist")
	ErrInvalidCredentials = errors.New("username or password is invalid")
	ErrUsernameTaken      = errors.New("username already exists")
)

// Authorization and lookup errors
var (
	ErrNotAllowed     = errors.New("request not allowed")
	ErrBookNotFound   = errors.New("book not found")
	ErrAuthorNotFound = errors.New("author not found")
)

// ErrStoreInconsistency is returned when stored data breaks an expected relation,
// e.g. a user with no role assignment
var ErrStoreInconsistency = errors.New("store inconsistency")
