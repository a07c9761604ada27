package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("Secret123!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", h)

	assert.True(t, CheckPassword(h, "Secret123!"))
	assert.False(t, CheckPassword(h, "secret123!"))
	assert.False(t, CheckPassword("not-a-hash", "Secret123!"))
}

func TestHashPassword_TooLong(t *testing.T) {
	t.Parallel()

	_, err := HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	require.Error(t, err)
}
