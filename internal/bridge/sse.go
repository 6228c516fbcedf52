package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// fieldReplacer strips line breaks from single-line SSE fields (id, event).
var fieldReplacer = strings.NewReplacer("\n", "", "\r", "")

// commentReplacer continues multi-line comments with a ":" prefix per line.
var commentReplacer = strings.NewReplacer("\n", "\n: ", "\r", "\\r")

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// SSEWriter writes Server-Sent Events to a streaming response.
// Each event is assembled in memory and written with a single Write, so a
// marshaling failure never leaves a partial event on the wire.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers. The ResponseWriter must
// implement http.Flusher.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("ResponseWriter doesn't implement http.Flusher")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream;charset=utf-8")
	h.Set("Connection", "keep-alive")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-cache")
	}

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent writes one event with v encoded as JSON data. Empty id or name
// omit the corresponding field.
func (s *SSEWriter) WriteEvent(id, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	if id != "" {
		buf.WriteString("id: ")
		_, _ = fieldReplacer.WriteString(buf, id)
		buf.WriteByte('\n')
	}
	if name != "" {
		buf.WriteString("event: ")
		_, _ = fieldReplacer.WriteString(buf, name)
		buf.WriteByte('\n')
	}
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	return s.flush(buf.Bytes())
}

// WriteComment writes a comment line. Clients ignore comments; they keep
// idle connections alive.
func (s *SSEWriter) WriteComment(comment string) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	buf.WriteString(": ")
	_, _ = commentReplacer.WriteString(buf, comment)
	buf.WriteString("\n\n")

	return s.flush(buf.Bytes())
}

func (s *SSEWriter) flush(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
