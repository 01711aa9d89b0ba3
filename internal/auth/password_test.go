package auth

import (
	"strings"
	"testing"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, pw := range []string{"prempatil", "correct horse battery staple", "ü-unicode-✓"} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, h.Verify(pw, hash), "password %q should verify", pw)
		assert.False(t, h.Verify(pw+"x", hash))
		assert.False(t, h.Verify("", hash))
	}
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestPasswordHasherMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short", strings.Repeat("$", 60)} {
		assert.False(t, h.Verify("whatever", hash))
	}
}

func TestPasswordHasherRejectsBadInput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestNewPasswordHasherCostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
