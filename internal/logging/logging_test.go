package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relist.log")

	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", String("component", "test"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if entry["msg"] != "hello" || entry["level"] != "info" || entry["component"] != "test" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("entry missing ts field")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConsoleFormatRendersSingleLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	logger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("item published", String("listing_id", "EXT-1"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimRight(string(data), "\n")
	if strings.Contains(line, "\n") {
		t.Errorf("console entry spans multiple lines: %q", line)
	}
	if !strings.Contains(line, "item published") || !strings.Contains(line, "EXT-1") {
		t.Errorf("console entry = %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.log")

	logger, err := New(Options{Level: "warn", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("invisible")
	logger.Info("also invisible")
	logger.Warn("visible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Count(strings.TrimRight(string(data), "\n"), "\n") + 1
	if len(data) == 0 {
		t.Fatal("no output at warn level")
	}
	if lines != 1 {
		t.Errorf("got %d lines, want 1", lines)
	}
}

func TestContextFields(t *testing.T) {
	ctx := WithItemID(context.Background(), 7)
	ctx = WithStage(ctx, "pricing")
	ctx = WithUserID(ctx, 3)

	fields := ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("got %d fields, want 3", len(fields))
	}
	keys := map[string]bool{}
	for _, field := range fields {
		keys[field.Key] = true
	}
	for _, want := range []string{FieldItemID, FieldStage, FieldUserID} {
		if !keys[want] {
			t.Errorf("missing field %s", want)
		}
	}

	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Errorf("empty context produced fields: %v", fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), 0) {
		t.Error("nop logger reports enabled")
	}
	// Must not panic.
	logger.Info("discarded", Error(nil))
}
