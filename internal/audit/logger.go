// Package audit records operator blocklist actions as JSON lines.
package audit

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one operator action and how it settled. Each entry is written
// as a single JSON object with snake_case keys; empty optional fields are
// omitted.
type Entry struct {
	Timestamp  time.Time
	Action     string // "block" or "unblock"
	MAC        string
	Source     string // "argument" or "field"
	Result     string
	Message    string
	Error      string
	StatusCode int
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("timestamp", e.Timestamp.Format(time.RFC3339Nano)).
		Str("action", e.Action).
		Str("mac", e.MAC).
		Str("source", e.Source).
		Str("result", e.Result)
	if e.Message != "" {
		ev.Str("message", e.Message)
	}
	if e.Error != "" {
		ev.Str("error", e.Error)
	}
	if e.StatusCode != 0 {
		ev.Int("status_code", e.StatusCode)
	}
}

// Logger appends audit entries, one JSON object per line.
type Logger struct {
	mu     sync.Mutex
	out    zerolog.Logger
	closer io.Closer
}

// NewLogger writes entries to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{out: zerolog.New(w)}
}

// NewFileLogger appends to the file at path, creating it if needed.
// Close releases the file.
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewLogger(f)
	l.closer = f
	return l, nil
}

// NewStderrLogger writes entries to stderr.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr)
}

// NopLogger discards all entries.
func NopLogger() *Logger {
	return &Logger{out: zerolog.Nop()}
}

// Log writes a single entry. A nil Logger discards it.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Log().EmbedObject(entry).Send()
}

// Close releases the underlying file, if the logger owns one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
