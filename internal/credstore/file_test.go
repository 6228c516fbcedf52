package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "api_key")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	ok, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, " key with spaces\n"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	secret, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, " key with spaces\n", secret, "stored verbatim")

	ok, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx), ErrNotFound)
}

func TestFileStore_EmptySecretRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "api_key"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, ""))

	secret, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, secret)

	ok, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "an empty secret is still a stored secret")
}

func TestFileStore_RejectsInsecurePermissions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("XYZ"), 0644))
	require.NoError(t, os.Chmod(path, 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")

	ok, err := store.Exists(ctx)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNewFileStore_RejectsEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
