package shim

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/florianilch/scribe/internal/credstore"
)

// Pointer fields distinguish a missing key from an empty string.
type pathArgs struct {
	Path *string `json:"path" validate:"required"`
}

type saveFileArgs struct {
	Path    *string `json:"path" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

type apiKeyArgs struct {
	APIKey *string `json:"apiKey" validate:"required"`
}

func (d *Dispatcher) openFile(ctx context.Context, raw json.RawMessage) (any, error) {
	var args pathArgs
	if err := d.decode(CommandOpenFile, raw, &args); err != nil {
		return nil, err
	}

	content, err := d.files.Open(ctx, *args.Path)
	if err != nil {
		return nil, err
	}
	d.observe(ctx, *args.Path)
	return content, nil
}

func (d *Dispatcher) saveFile(ctx context.Context, raw json.RawMessage) (any, error) {
	var args saveFileArgs
	if err := d.decode(CommandSaveFile, raw, &args); err != nil {
		return nil, err
	}

	d.markWritten(*args.Path)
	return nil, d.files.Save(ctx, *args.Path, *args.Content)
}

func (d *Dispatcher) createFile(ctx context.Context, raw json.RawMessage) (any, error) {
	var args pathArgs
	if err := d.decode(CommandCreateFile, raw, &args); err != nil {
		return nil, err
	}

	d.markWritten(*args.Path)
	return nil, d.files.Create(ctx, *args.Path)
}

func (d *Dispatcher) saveAPIKey(ctx context.Context, raw json.RawMessage) (any, error) {
	var args apiKeyArgs
	if err := d.decode(CommandSaveAPIKey, raw, &args); err != nil {
		return nil, err
	}

	return nil, d.creds.Save(ctx, *args.APIKey)
}

func (d *Dispatcher) loadAPIKey(ctx context.Context, _ json.RawMessage) (any, error) {
	return d.creds.Load(ctx)
}

func (d *Dispatcher) deleteAPIKey(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, d.creds.Delete(ctx)
}

// hasAPIKey never fails: backend errors read as "no key" for the UI, but are
// logged so they stay visible to operators.
func (d *Dispatcher) hasAPIKey(ctx context.Context, _ json.RawMessage) (any, error) {
	ok, err := d.creds.Exists(ctx)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			slog.WarnContext(ctx, "credential store probe failed, reporting no api key", "error", err)
		}
		return false, nil
	}
	return ok, nil
}
