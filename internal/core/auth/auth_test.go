package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	tok, err := Static("abc123").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	_, err = Static("").Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("RELAY_TEST_TOKEN", "from-env")
	tok, err := Env("RELAY_TEST_TOKEN").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)

	t.Setenv("RELAY_TEST_TOKEN", "  ")
	_, err = Env("RELAY_TEST_TOKEN").Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	_, err := File(path).Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	tok, err := File(path).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-file", tok)

	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
	_, err = File(path).Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}
