// Package telemetry writes per-session JSONL events for local observation.
// Events carry sizes, names and outcomes; raw arguments and payloads are never written.
package telemetry

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultDir is where events.jsonl is written when no directory is configured.
const DefaultDir = ".agent"

// Event names.
const (
	EventSessionStarted  = "session_started"
	EventLocalFeatures   = "local_features"
	EventWindowPrepared  = "window_prepared"
	EventActionExec      = "action_exec"
	EventSessionFinished = "session_finished"
)

// Sink appends events to <dir>/events.jsonl. A nil or disabled Sink drops events.
type Sink struct {
	dir     string
	enabled bool
	now     func() time.Time

	mu sync.Mutex
}

// NewSink returns a sink writing under dir (DefaultDir when empty).
func NewSink(dir string, enabled bool) *Sink {
	if dir == "" {
		dir = DefaultDir
	}
	return &Sink{dir: dir, enabled: enabled, now: time.Now}
}

// Enabled reports whether events are written.
func (s *Sink) Enabled() bool { return s != nil && s.enabled }

// Path is the events file location.
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}
	return filepath.Join(s.dir, "events.jsonl")
}

// Emit writes a single JSON line. It augments fields with RFC3339Nano time
// and the event name. Failures are logged and never returned.
func (s *Sink) Emit(name string, fields map[string]any) {
	if !s.Enabled() {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = s.now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		slog.Warn("telemetry: marshal", "event", name, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("telemetry: mkdir", "dir", s.dir, "err", err)
		return
	}
	path := s.Path()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("telemetry: open", "path", path, "err", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		slog.Warn("telemetry: write", "path", path, "err", err)
	}
}
