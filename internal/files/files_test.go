package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	data     map[string][]byte
	readErr  error
	writeErr error
	perm     os.FileMode
}

func (f *fakeFS) ReadFile(name string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.data[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return data, nil
}

func (f *fakeFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[name] = data
	f.perm = perm
	return nil
}

func TestService_CreateThenOpenIsEmpty(t *testing.T) {
	ctx := context.Background()
	svc := New(nil)
	path := filepath.Join(t.TempDir(), "a.txt")

	require.NoError(t, svc.Save(ctx, path, "previous content"))
	require.NoError(t, svc.Create(ctx, path))

	content, err := svc.Open(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, content, "create truncates existing files")
}

func TestService_SaveThenOpen(t *testing.T) {
	ctx := context.Background()
	svc := New(OSFS{})
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "plain", content: "hello"},
		{name: "empty", content: ""},
		{name: "multiline markdown", content: "# Title\n\n- item\r\n- item 2\n"},
		{name: "unicode", content: "naïve café ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".md")

			for range 2 {
				require.NoError(t, svc.Save(ctx, path, tt.content))

				content, err := svc.Open(ctx, path)
				require.NoError(t, err)
				assert.Equal(t, tt.content, content)
			}
		})
	}
}

func TestService_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file surfaces the os error", func(t *testing.T) {
		svc := New(nil)
		_, err := svc.Open(ctx, filepath.Join(t.TempDir(), "missing.md"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid utf-8 is rejected", func(t *testing.T) {
		fsys := &fakeFS{data: map[string][]byte{"bin": {0xff, 0xfe, 0xfd}}}
		_, err := New(fsys).Open(ctx, "bin")
		assert.ErrorIs(t, err, ErrInvalidUTF8)
	})

	t.Run("read failures pass through", func(t *testing.T) {
		readErr := errors.New("permission denied")
		_, err := New(&fakeFS{readErr: readErr}).Open(ctx, "x")
		assert.ErrorIs(t, err, readErr)
	})
}

func TestService_SaveUsesDefaultPermissionsAndSurfacesErrors(t *testing.T) {
	ctx := context.Background()

	fsys := &fakeFS{}
	require.NoError(t, New(fsys).Save(ctx, "note.md", "body"))
	assert.Equal(t, os.FileMode(0666), fsys.perm)
	assert.Equal(t, []byte("body"), fsys.data["note.md"])

	writeErr := errors.New("disk full")
	err := New(&fakeFS{writeErr: writeErr}).Create(ctx, "note.md")
	assert.ErrorIs(t, err, writeErr)
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fsys := &fakeFS{}
	svc := New(fsys)

	_, err := svc.Open(ctx, "note.md")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, svc.Save(ctx, "note.md", "x"), context.Canceled)
	assert.Empty(t, fsys.data, "nothing written after cancellation")
}
