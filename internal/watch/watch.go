// Package watch reports external modifications to files the UI has opened.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/florianilch/scribe/internal/events"
)

// DefaultSuppressWindow is how long events are ignored after the application
// writes a file itself.
const DefaultSuppressWindow = 500 * time.Millisecond

// Change is the payload of an events.FileChanged event.
type Change struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// Watcher tracks opened files and emits events.FileChanged for outside edits.
//
// Parent directories are watched instead of files so that editors replacing a
// file by rename keep being observed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	emitter  events.Emitter
	suppress time.Duration
	now      func() time.Time

	mu      sync.Mutex
	files   map[string]struct{}
	dirs    map[string]int
	written map[string]time.Time
}

// New creates a Watcher. Call Run to start delivering events and Close to release it.
func New(emitter events.Emitter, suppress time.Duration) (*Watcher, error) {
	if emitter == nil {
		return nil, fmt.Errorf("missing event emitter")
	}
	if suppress <= 0 {
		suppress = DefaultSuppressWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsw:      fsw,
		emitter:  emitter,
		suppress: suppress,
		now:      time.Now,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]int),
		written:  make(map[string]time.Time),
	}, nil
}

// Watch starts reporting changes to path. Watching the same path twice is a no-op.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; ok {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = struct{}{}
	return nil
}

// Unwatch stops reporting changes to path.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; !ok {
		return nil
	}
	delete(w.files, abs)
	delete(w.written, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

// MarkWritten records that the application itself is about to write path,
// so the resulting notifications are not echoed back to the UI.
func (w *Watcher) MarkWritten(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.written[abs] = w.now()
}

// Run delivers events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	_, watched := w.files[path]
	at, marked := w.written[path]
	w.mu.Unlock()

	if !watched {
		return
	}
	if marked && w.now().Sub(at) < w.suppress {
		slog.DebugContext(ctx, "ignoring self-inflicted file change", "path", path, "op", ev.Op.String())
		return
	}

	w.emitter.Emit(ctx, events.FileChanged, Change{Path: path, Op: opName(ev.Op)})
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Create):
		return "create"
	default:
		return "write"
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
