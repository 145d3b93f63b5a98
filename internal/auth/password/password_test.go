package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("secret1")
	require.NoError(t, err)
	b, err := Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	cost, err := bcrypt.Cost([]byte(a))
	require.NoError(t, err)
	assert.Equal(t, Cost, cost)

	assert.NoError(t, Check(a, "secret1"))
	err = Check(a, "wrong")
	assert.True(t, IsMismatch(err))
}

func TestHashRejectsLongInput(t *testing.T) {
	_, err := Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestCheckMalformedHashIsNotMismatch(t *testing.T) {
	err := Check("not-a-hash", "secret1")
	require.Error(t, err)
	assert.False(t, IsMismatch(err))
}
