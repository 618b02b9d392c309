// Package password hashes and verifies user passwords with bcrypt
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Result is the outcome of a password verification
type Result int

const (
	// Failed means the password does not match the digest
	Failed Result = iota
	// Success means the password matches the digest
	Success
)

// Hasher produces and verifies self-describing bcrypt digests.
// The digest embeds cost and salt, so verification needs no other state.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost, falling back to bcrypt.DefaultCost when out of range
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted digest of plaintext
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify compares plaintext against digest in constant time.
// A malformed digest is reported as Failed.
func (h *Hasher) Verify(digest, plaintext string) Result {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)); err != nil {
		return Failed
	}
	return Success
}
