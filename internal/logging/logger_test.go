package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"researchsim/internal/tech"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"trace", LevelTrace},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerLabelsTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "event", "kind", "spontaneous_discovery")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Fatalf("expected TRACE label, got %q", buf.String())
	}

	buf.Reset()
	NewLogger("info", &buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug suppressed at info, got %q", buf.String())
	}
}

func TestEventTrace(t *testing.T) {
	var buf bytes.Buffer
	trace := NewEventTrace(&buf, "run-1")
	trace.Write(tech.DayReport{
		Day: 4,
		Events: []tech.Event{
			{Kind: tech.EventSpontaneousDiscovery, Day: 4, Technology: "fire_making", Actor: "Ayla"},
			{Kind: tech.EventKnowledgeTransfer, Day: 4, Technology: "fire_making", Actor: "Ayla", Subject: "Brun"},
		},
		Faults: []tech.StageFault{{Stage: "discovery", Day: 4, Err: "boom"}},
	})

	scanner := bufio.NewScanner(&buf)
	var lines []map[string]any
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0]["run"] != "run-1" {
		t.Fatalf("expected run id, got %v", lines[0]["run"])
	}
	if _, ok := lines[2]["fault"]; !ok {
		t.Fatalf("expected fault line, got %v", lines[2])
	}
}

func TestNilEventTrace(t *testing.T) {
	var trace *EventTrace
	trace.Write(tech.DayReport{Events: []tech.Event{{Kind: tech.EventGoalSet}}})
	trace.Close()
}

func TestOpenEventTrace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trace")
	trace := OpenEventTrace(dir, "run-2")
	if trace == nil {
		t.Fatalf("expected trace")
	}
	trace.Write(tech.DayReport{Events: []tech.Event{{Kind: tech.EventGoalSet, Day: 1}}})
	trace.Close()
	trace.Write(tech.DayReport{Events: []tech.Event{{Kind: tech.EventGoalSet, Day: 2}}})

	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("reading trace: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 1 {
		t.Fatalf("expected one line after close, got %d", n)
	}
}
