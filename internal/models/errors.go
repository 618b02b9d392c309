package models

import "errors"

// ErrDuplicateEntry is returned by the store when a unique constraint rejects an insert
var ErrDuplicateEntry = errors.New("duplicate entry")
