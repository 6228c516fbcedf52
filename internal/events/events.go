// Package events fans out named notifications to the UI layer.
//
// Emitting never blocks: every subscriber owns a bounded buffer, and events
// that do not fit are dropped for that subscriber only.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event names delivered to the UI layer.
const (
	// SaveTriggered is emitted when the global save shortcut fires. It has no payload.
	SaveTriggered = "save-triggered"

	// FileChanged is emitted when a watched file is modified outside the application.
	FileChanged = "file-changed"
)

// DefaultBufferSize is the per-subscriber buffer used when none is configured.
const DefaultBufferSize = 16

// Event is a single notification.
type Event struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// Emitter publishes events.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any)
}

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	mu         sync.RWMutex
	subs       map[chan Event]struct{}
	bufferSize int
}

// Compile-time check to ensure Bus implements Emitter
var _ Emitter = (*Bus)(nil)

// NewBus creates a Bus whose subscribers buffer up to bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		bufferSize: bufferSize,
	}
}

// Emit delivers an event to every current subscriber without blocking.
func (b *Bus) Emit(ctx context.Context, name string, payload any) {
	ev := Event{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.DebugContext(ctx, "dropping event for slow subscriber", "event", name, "id", ev.ID)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel; calling it more than once is safe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.bufferSize)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
