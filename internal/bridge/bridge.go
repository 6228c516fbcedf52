// Package bridge exposes the shim commands and UI events over a loopback HTTP server.
//
// Commands are invoked with POST /commands/{name} and a JSON argument object.
// Events are streamed from GET /events as Server-Sent Events.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/scribe/internal/events"
)

// Default server tuning values.
const (
	DefaultMaxBodyBytes = 32 << 20
	DefaultHeartbeat    = 15 * time.Second
)

// Dispatcher runs commands by name.
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Subscriber provides event subscriptions.
type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// Option configures a Bridge.
type Option func(*config)

type config struct {
	maxBodyBytes int64
	heartbeat    time.Duration
	logger       *slog.Logger
}

// WithMaxBodyBytes limits the size of command request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		c.maxBodyBytes = n
	}
}

// WithHeartbeat sets the interval between SSE keep-alive comments.
func WithHeartbeat(d time.Duration) Option {
	return func(c *config) {
		c.heartbeat = d
	}
}

// WithLogger sets the logger used for access logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Bridge represents the command and event server.
type Bridge struct {
	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Bridge implements http.Handler
var _ http.Handler = (*Bridge)(nil)

// New creates a Bridge serving dispatcher's commands and subscriber's events.
func New(dispatcher Dispatcher, subscriber Subscriber, opts ...Option) (*Bridge, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("missing command dispatcher")
	}
	if subscriber == nil {
		return nil, fmt.Errorf("missing event subscriber")
	}

	cfg := &config{
		maxBodyBytes: DefaultMaxBodyBytes,
		heartbeat:    DefaultHeartbeat,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	middlewares := []func(http.Handler) http.Handler{
		TraceContext,
		Logging(cfg.logger),
		Recovery,
	}

	mux := http.NewServeMux()

	mux.Handle("POST /commands/{name}", applyMiddlewares(&CommandHandler{
		Dispatcher:   dispatcher,
		MaxBodyBytes: cfg.maxBodyBytes,
	}, middlewares...))

	mux.Handle("GET /events", applyMiddlewares(&EventsHandler{
		Subscriber: subscriber,
		Heartbeat:  cfg.heartbeat,
	}, middlewares...))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	return &Bridge{mux: mux}, nil
}

// ServeHTTP implements http.Handler interface
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (b *Bridge) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	b.server = &http.Server{
		Handler:     b,
		ReadTimeout: 30 * time.Second, // Inbound: Read entire client request
		// No WriteTimeout: the event stream stays open for the lifetime of the UI
		IdleTimeout: 90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := b.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if b.server == nil {
		return nil
	}

	if err := b.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = b.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
