// Package logging builds the leveled operational logger and the JSONL trace of
// engine events written during a run.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"researchsim/internal/tech"
)

// LevelTrace sits below Debug and adds per-event output.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug" or "trace" to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// EventTrace appends engine events to a JSONL file, one event per line, tagged
// with the run id. A nil EventTrace is valid and drops everything.
type EventTrace struct {
	mu    sync.Mutex
	w     io.Writer
	file  *os.File
	runID string
}

// OpenEventTrace creates dir/events.jsonl for appending. It returns nil when
// the file cannot be opened.
func OpenEventTrace(dir, runID string) *EventTrace {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil
	}
	return &EventTrace{w: f, file: f, runID: runID}
}

func NewEventTrace(w io.Writer, runID string) *EventTrace {
	return &EventTrace{w: w, runID: runID}
}

func (t *EventTrace) Write(report tech.DayReport) {
	if t == nil || t.w == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range report.Events {
		t.line(map[string]any{"run": t.runID, "event": e})
	}
	for _, f := range report.Faults {
		t.line(map[string]any{"run": t.runID, "fault": f})
	}
}

func (t *EventTrace) line(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = t.w.Write(data)
}

func (t *EventTrace) Close() {
	if t == nil || t.file == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.file.Close()
	t.file = nil
	t.w = nil
}
