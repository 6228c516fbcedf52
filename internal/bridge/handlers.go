package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/florianilch/scribe/internal/shim"
)

// CommandHandler invokes a command named by the {name} path segment.
type CommandHandler struct {
	Dispatcher   Dispatcher
	MaxBodyBytes int64
}

// Compile-time check to ensure CommandHandler implements http.Handler
var _ http.Handler = (*CommandHandler)(nil)

// ServeHTTP implements http.Handler interface.
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")

	body := r.Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}
	args, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(ctx, w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.ErrorContext(ctx, "failed to read request body", "command", name, "error", err)
		writeJSONError(ctx, w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.Dispatcher.Invoke(ctx, name, json.RawMessage(args))
	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, shim.ErrUnknownCommand):
			status = http.StatusNotFound
		case errors.Is(err, shim.ErrInvalidArgs):
			status = http.StatusBadRequest
		}
		slog.DebugContext(ctx, "command failed", "command", name, "error", err)
		writeJSONError(ctx, w, err.Error(), status)
		return
	}

	writeResult(ctx, w, result)
}

// EventsHandler streams bus events to one UI subscriber.
type EventsHandler struct {
	Subscriber Subscriber
	Heartbeat  time.Duration
}

// Compile-time check to ensure EventsHandler implements http.Handler
var _ http.Handler = (*EventsHandler)(nil)

// ServeHTTP implements http.Handler interface.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sse, err := NewSSEWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", "error", err)
		writeJSONError(ctx, w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ch, cancel := h.Subscriber.Subscribe()
	defer cancel()

	w.WriteHeader(http.StatusOK)
	// Announce the stream so clients know the subscription is live
	if err := sse.WriteComment("connected"); err != nil {
		return
	}

	var heartbeat <-chan time.Time
	if h.Heartbeat > 0 {
		ticker := time.NewTicker(h.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "event subscriber disconnected")
			return
		case <-heartbeat:
			if err := sse.WriteComment("heartbeat"); err != nil {
				slog.DebugContext(ctx, "failed to write heartbeat", "error", err)
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.WriteEvent(ev.ID, ev.Name, ev); err != nil {
				slog.ErrorContext(ctx, "failed to write event", "event", ev.Name, "error", err)
				return
			}
		}
	}
}
