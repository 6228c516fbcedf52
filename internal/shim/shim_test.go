package shim

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/florianilch/scribe/internal/credstore"
	"github.com/florianilch/scribe/internal/files"
)

type failingStore struct {
	err error
}

func (f failingStore) Save(context.Context, string) error   { return f.err }
func (f failingStore) Load(context.Context) (string, error) { return "", f.err }
func (f failingStore) Delete(context.Context) error         { return f.err }
func (f failingStore) Exists(context.Context) (bool, error) { return false, f.err }

type recordingObserver struct {
	watched []string
	written []string
}

func (r *recordingObserver) Watch(path string) error { r.watched = append(r.watched, path); return nil }
func (r *recordingObserver) MarkWritten(path string) { r.written = append(r.written, path) }

func newDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	keyring.MockInit()

	store, err := credstore.NewKeyringStore("scribe-test", "api_key")
	require.NoError(t, err)

	d, err := New(files.New(nil), store, opts...)
	require.NoError(t, err)
	return d
}

func args(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func invoke(t *testing.T, d *Dispatcher, name string, a any) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if a != nil {
		raw = args(t, a)
	}
	return d.Invoke(context.Background(), name, raw)
}

func TestDispatcher_EndToEndScenario(t *testing.T) {
	d := newDispatcher(t)
	path := filepath.Join(t.TempDir(), "a.txt")

	_, err := invoke(t, d, CommandCreateFile, map[string]string{"path": path})
	require.NoError(t, err)

	content, err := invoke(t, d, CommandOpenFile, map[string]string{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "", content)

	_, err = invoke(t, d, CommandSaveFile, map[string]string{"path": path, "content": "hello"})
	require.NoError(t, err)

	content, err = invoke(t, d, CommandOpenFile, map[string]string{"path": path})
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	has, err := invoke(t, d, CommandHasAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, false, has, "no key before any save")

	_, err = invoke(t, d, CommandSaveAPIKey, map[string]string{"apiKey": "XYZ"})
	require.NoError(t, err)

	has, err = invoke(t, d, CommandHasAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, true, has)

	key, err := invoke(t, d, CommandLoadAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", key)

	_, err = invoke(t, d, CommandDeleteAPIKey, nil)
	require.NoError(t, err)

	has, err = invoke(t, d, CommandHasAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, false, has)

	_, err = invoke(t, d, CommandLoadAPIKey, nil)
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	_, err = invoke(t, d, CommandDeleteAPIKey, nil)
	assert.ErrorIs(t, err, credstore.ErrNotFound, "deleting an absent key errors")
}

func TestDispatcher_Arguments(t *testing.T) {
	d := newDispatcher(t)
	path := filepath.Join(t.TempDir(), "note.md")

	tests := []struct {
		name    string
		command string
		raw     string
		wantErr string
	}{
		{name: "missing path", command: CommandOpenFile, raw: `{}`, wantErr: "missing required key path"},
		{name: "no body at all", command: CommandCreateFile, raw: ``, wantErr: "missing required key path"},
		{name: "missing content", command: CommandSaveFile, raw: `{"path":"x"}`, wantErr: "missing required key content"},
		{name: "missing api key", command: CommandSaveAPIKey, raw: `{"api_key":"XYZ"}`, wantErr: "missing required key apiKey"},
		{name: "wrong type", command: CommandOpenFile, raw: `{"path":42}`, wantErr: "invalid args"},
		{name: "malformed json", command: CommandSaveFile, raw: `{"path":`, wantErr: "invalid args"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Invoke(context.Background(), tt.command, json.RawMessage(tt.raw))
			require.ErrorIs(t, err, ErrInvalidArgs)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("empty strings are valid values", func(t *testing.T) {
		_, err := d.Invoke(context.Background(), CommandSaveFile, json.RawMessage(`{"path":"`+filepath.ToSlash(path)+`","content":""}`))
		require.NoError(t, err)

		_, err = d.Invoke(context.Background(), CommandSaveAPIKey, json.RawMessage(`{"apiKey":""}`))
		require.NoError(t, err)
	})
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := newDispatcher(t)

	_, err := invoke(t, d, "greet", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDispatcher_Commands(t *testing.T) {
	d := newDispatcher(t)

	assert.Equal(t, []string{
		CommandCreateFile,
		CommandDeleteAPIKey,
		CommandHasAPIKey,
		CommandLoadAPIKey,
		CommandOpenFile,
		CommandSaveAPIKey,
		CommandSaveFile,
	}, d.Commands())
}

func TestDispatcher_FileErrorsSurfaceAsMessages(t *testing.T) {
	d := newDispatcher(t)
	missing := filepath.Join(t.TempDir(), "missing", "note.md")

	_, err := invoke(t, d, CommandOpenFile, map[string]string{"path": missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)

	_, err = invoke(t, d, CommandSaveFile, map[string]string{"path": missing, "content": "x"})
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestDispatcher_HasAPIKeyCollapsesBackendFailures(t *testing.T) {
	backendErr := errors.New("secret service unavailable")
	d, err := New(files.New(nil), failingStore{err: backendErr})
	require.NoError(t, err)

	has, err := invoke(t, d, CommandHasAPIKey, nil)
	require.NoError(t, err)
	assert.Equal(t, false, has)

	_, err = invoke(t, d, CommandLoadAPIKey, nil)
	assert.ErrorIs(t, err, backendErr, "load still surfaces the backend failure")

	_, err = invoke(t, d, CommandSaveAPIKey, map[string]string{"apiKey": "XYZ"})
	assert.ErrorIs(t, err, backendErr)
}

func TestDispatcher_ReportsTouchedFilesToObserver(t *testing.T) {
	observer := &recordingObserver{}
	d := newDispatcher(t, WithObserver(observer))
	path := filepath.Join(t.TempDir(), "note.md")

	_, err := invoke(t, d, CommandCreateFile, map[string]string{"path": path})
	require.NoError(t, err)
	_, err = invoke(t, d, CommandSaveFile, map[string]string{"path": path, "content": "body"})
	require.NoError(t, err)
	_, err = invoke(t, d, CommandOpenFile, map[string]string{"path": path})
	require.NoError(t, err)

	assert.Equal(t, []string{path, path}, observer.written)
	assert.Equal(t, []string{path}, observer.watched)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, failingStore{})
	assert.Error(t, err)

	_, err = New(files.New(nil), nil)
	assert.Error(t, err)
}
