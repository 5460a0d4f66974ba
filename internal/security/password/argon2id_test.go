package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// parámetros baratos para que los tests no tarden
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}

func TestHashIsDeterministicForSalt(t *testing.T) {
	salt, err := CreateSalt(fast)
	require.NoError(t, err)
	require.Len(t, salt, 16)

	a, err := Hash(fast, "s3cret", salt)
	require.NoError(t, err)
	b, err := Hash(fast, "s3cret", salt)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=1024,t=1,p=1$"))

	other, err := CreateSalt(fast)
	require.NoError(t, err)
	c, err := Hash(fast, "s3cret", other)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestVerify(t *testing.T) {
	phc, err := New(fast, "s3cret")
	require.NoError(t, err)

	require.True(t, Verify("s3cret", phc))
	require.False(t, Verify("s3cret!", phc))
	require.False(t, Verify("", phc))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$***$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	} {
		require.False(t, Verify("x", phc), phc)
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := New(fast, "")
	require.ErrorIs(t, err, ErrEmptySecret)
}
