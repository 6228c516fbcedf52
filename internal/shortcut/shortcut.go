// Package shortcut registers the application's global save shortcut and
// forwards its activations to the UI layer as events.
//
// Registration failure is never fatal: the registrar logs the failure and the
// rest of the application keeps running without the shortcut.
package shortcut

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/hotkey"

	"github.com/florianilch/scribe/internal/events"
)

// Hotkey is the subset of *hotkey.Hotkey used by Registrar.
type Hotkey interface {
	Register() error
	Unregister() error
	Keydown() <-chan hotkey.Event
}

// Compile-time check to ensure *hotkey.Hotkey implements Hotkey
var _ Hotkey = (*hotkey.Hotkey)(nil)

// Factory builds a Hotkey for a parsed accelerator.
type Factory func(mods []hotkey.Modifier, key hotkey.Key) Hotkey

// systemHotkey creates an OS-level global hotkey.
func systemHotkey(mods []hotkey.Modifier, key hotkey.Key) Hotkey {
	return hotkey.New(mods, key)
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithFactory replaces the OS hotkey factory, mainly for tests.
func WithFactory(f Factory) Option {
	return func(r *Registrar) {
		r.factory = f
	}
}

// WithEventName overrides the event emitted on activation.
func WithEventName(name string) Option {
	return func(r *Registrar) {
		r.eventName = name
	}
}

// Registrar binds one accelerator to one event.
type Registrar struct {
	accelerator string
	emitter     events.Emitter
	factory     Factory
	eventName   string

	mu     sync.Mutex
	hk     Hotkey
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Registrar that emits events.SaveTriggered when accelerator fires.
func New(accelerator string, emitter events.Emitter, opts ...Option) (*Registrar, error) {
	if emitter == nil {
		return nil, fmt.Errorf("missing event emitter")
	}
	if accelerator == "" {
		accelerator = DefaultAccelerator
	}

	r := &Registrar{
		accelerator: accelerator,
		emitter:     emitter,
		factory:     systemHotkey,
		eventName:   events.SaveTriggered,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start registers the hotkey and listens for activations in the background.
// Failures are logged and reported through the return value, but callers are
// expected to continue without the shortcut.
func (r *Registrar) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hk != nil {
		return fmt.Errorf("shortcut %s already registered", r.accelerator)
	}

	acc, err := ParseAccelerator(r.accelerator)
	if err != nil {
		slog.WarnContext(ctx, "failed to register global shortcut", "accelerator", r.accelerator, "error", err)
		return err
	}

	hk := r.factory(acc.Modifiers, acc.Key)
	if err := hk.Register(); err != nil {
		slog.WarnContext(ctx, "failed to register global shortcut", "accelerator", r.accelerator, "error", err)
		return fmt.Errorf("registering %s: %w", r.accelerator, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	r.hk = hk
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.listen(listenCtx, hk.Keydown(), r.done)

	slog.InfoContext(ctx, "global shortcut registered", "accelerator", r.accelerator, "event", r.eventName)
	return nil
}

func (r *Registrar) listen(ctx context.Context, keydown <-chan hotkey.Event, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			r.emitter.Emit(ctx, r.eventName, nil)
		}
	}
}

// Shutdown stops listening and unregisters the hotkey. Safe to call when
// Start failed or was never called.
func (r *Registrar) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hk == nil {
		return nil
	}

	r.cancel()
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	err := r.hk.Unregister()
	r.hk = nil
	if err != nil {
		return fmt.Errorf("unregistering %s: %w", r.accelerator, err)
	}
	return nil
}
