package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/scribe/internal/bridge"
	"github.com/florianilch/scribe/internal/credstore"
	"github.com/florianilch/scribe/internal/events"
	"github.com/florianilch/scribe/internal/files"
	"github.com/florianilch/scribe/internal/shim"
	"github.com/florianilch/scribe/internal/shortcut"
	"github.com/florianilch/scribe/internal/watch"
)

// Option customizes App construction.
type Option func(*options)

type options struct {
	store           credstore.Store
	fs              files.FS
	shortcutFactory shortcut.Factory
}

// WithCredentialStore overrides the store built from the credentials configuration.
func WithCredentialStore(s credstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithFS overrides the file system used by the file commands.
func WithFS(fsys files.FS) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithShortcutFactory overrides how the global hotkey is created.
func WithShortcutFactory(f shortcut.Factory) Option {
	return func(o *options) {
		o.shortcutFactory = f
	}
}

// App orchestrates the lifecycle of the bridge server and related services.
type App struct {
	cfg      *Config
	bus      *events.Bus
	bridge   *bridge.Bridge
	shortcut *shortcut.Registrar
	watcher  *watch.Watcher
}

// New creates a new App instance.
func New(cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = cfg.Credentials.NewStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create credential store: %w", err)
		}
	}

	bus := events.NewBus(events.DefaultBufferSize)

	a := &App{
		cfg: cfg,
		bus: bus,
	}

	var shimOpts []shim.Option
	if cfg.Watch.Enabled {
		watcher, err := watch.New(bus, cfg.Watch.SuppressWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		a.watcher = watcher
		shimOpts = append(shimOpts, shim.WithObserver(watcher))
	}

	dispatcher, err := shim.New(files.New(o.fs), store, shimOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create command dispatcher: %w", err)
	}

	a.bridge, err = bridge.New(dispatcher, bus,
		bridge.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		bridge.WithHeartbeat(cfg.Server.Heartbeat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}

	if !cfg.Shortcut.Disabled {
		var scOpts []shortcut.Option
		if o.shortcutFactory != nil {
			scOpts = append(scOpts, shortcut.WithFactory(o.shortcutFactory))
		}
		a.shortcut, err = shortcut.New(cfg.Shortcut.Accelerator, bus, scOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create shortcut registrar: %w", err)
		}
	}

	return a, nil
}

// Address returns the host:port the bridge listens on.
func (a *App) Address() string {
	return net.JoinHostPort(a.cfg.Server.Host, strconv.FormatUint(uint64(a.cfg.Server.Port), 10))
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.Address()
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting bridge server", "address", address)
	bridgeErrCh, err := a.bridge.Start(gCtx, address)
	if err != nil {
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		return fmt.Errorf("bridge startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.bridge.Shutdown)

	// Shortcut failures are not fatal, the app runs without it
	if a.shortcut != nil {
		if err := a.shortcut.Start(gCtx); err != nil {
			slog.WarnContext(gCtx, "continuing without global shortcut", "error", err)
		} else {
			shutdownFuncs = append(shutdownFuncs, a.shortcut.Shutdown)
		}
	}

	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(gCtx)
		})
		shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
			return a.watcher.Close()
		})
	}

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-bridgeErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "bridge runtime error", "error", err)
				return fmt.Errorf("bridge: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
