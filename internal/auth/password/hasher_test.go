package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher(t *testing.T) {
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("123456")
	require.NoError(t, err)

	assert.NotContains(t, digest, "123456")
	assert.True(t, strings.HasPrefix(digest, "$2a$"))

	tests := []struct {
		name     string
		digest   string
		password string
		expected Result
	}{
		{name: "correct password", digest: digest, password: "123456", expected: Success},
		{name: "wrong password", digest: digest, password: "wrong", expected: Failed},
		{name: "empty password", digest: digest, password: "", expected: Failed},
		{name: "malformed digest", digest: "not-a-digest", password: "123456", expected: Failed},
		{name: "empty digest", digest: "", password: "123456", expected: Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, h.Verify(tt.digest, tt.password))
		})
	}
}

func TestHasher_SaltsEachDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, Success, h.Verify(first, "secret"))
	assert.Equal(t, Success, h.Verify(second, "secret"))
}
