// Package shim implements the commands the UI layer invokes by name.
//
// Each command decodes its JSON arguments, delegates to the file or credential
// shim and returns a JSON-serializable result. Errors carry no structure beyond
// their message; transports surface err.Error() verbatim.
package shim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/scribe/internal/credstore"
	"github.com/florianilch/scribe/internal/files"
)

// Command names exposed to the UI layer.
const (
	CommandOpenFile     = "open_file"
	CommandSaveFile     = "save_file"
	CommandCreateFile   = "create_file"
	CommandSaveAPIKey   = "save_api_key"
	CommandLoadAPIKey   = "load_api_key"
	CommandDeleteAPIKey = "delete_api_key"
	CommandHasAPIKey    = "has_api_key"
)

var (
	// ErrUnknownCommand is returned when no command is registered under a name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArgs is returned when command arguments cannot be decoded.
	ErrInvalidArgs = errors.New("invalid args")
)

// FileObserver is notified about files the commands touch.
// The watch package's Watcher satisfies it.
type FileObserver interface {
	Watch(path string) error
	MarkWritten(path string)
}

// Handler executes one command.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher routes command invocations to handlers.
type Dispatcher struct {
	files    *files.Service
	creds    credstore.Store
	observer FileObserver
	validate *validator.Validate
	handlers map[string]Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver reports opened and written files to o.
func WithObserver(o FileObserver) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// New creates a Dispatcher with all commands registered.
func New(fileService *files.Service, creds credstore.Store, opts ...Option) (*Dispatcher, error) {
	if fileService == nil {
		return nil, fmt.Errorf("missing file service")
	}
	if creds == nil {
		return nil, fmt.Errorf("missing credential store")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	d := &Dispatcher{
		files:    fileService,
		creds:    creds,
		validate: validate,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[string]Handler{
		CommandOpenFile:     d.openFile,
		CommandSaveFile:     d.saveFile,
		CommandCreateFile:   d.createFile,
		CommandSaveAPIKey:   d.saveAPIKey,
		CommandLoadAPIKey:   d.loadAPIKey,
		CommandDeleteAPIKey: d.deleteAPIKey,
		CommandHasAPIKey:    d.hasAPIKey,
	}

	return d, nil
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command with raw JSON arguments.
// Empty args are treated as an empty object.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// decode unmarshals args into dst and checks required keys.
func (d *Dispatcher) decode(command string, args json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}

	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("%w for command %s: %v", ErrInvalidArgs, command, err)
	}

	if err := d.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return fmt.Errorf("%w for command %s: missing required key %s", ErrInvalidArgs, command, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w for command %s: %v", ErrInvalidArgs, command, err)
	}
	return nil
}

// jsonFieldName reports validation failures by their JSON key.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func (d *Dispatcher) observe(ctx context.Context, path string) {
	if d.observer == nil {
		return
	}
	if err := d.observer.Watch(path); err != nil {
		slog.WarnContext(ctx, "failed to watch file", "path", path, "error", err)
	}
}

func (d *Dispatcher) markWritten(path string) {
	if d.observer != nil {
		d.observer.MarkWritten(path)
	}
}
