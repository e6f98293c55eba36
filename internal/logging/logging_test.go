package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"
)

var lineFormat = regexp.MustCompile(`^\[(DEBUG|INFO|WARN|ERROR)\] \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `)

func TestHandlerFormat(t *testing.T) {
	var out strings.Builder
	logger := slog.New(NewHandler(&out, slog.LevelInfo))

	logger.Info("user signed up", "username", "test1", "uid", "abc")
	line := out.String()

	if !lineFormat.MatchString(line) {
		t.Errorf("line %q does not match the log format", line)
	}
	if !strings.Contains(line, "user signed up") {
		t.Errorf("line %q missing message", line)
	}
	if !strings.Contains(line, "username=test1") || !strings.Contains(line, "uid=abc") {
		t.Errorf("line %q missing attrs", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("line not newline-terminated")
	}
}

func TestHandlerLevels(t *testing.T) {
	var out strings.Builder
	logger := slog.New(NewHandler(&out, slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(out.String(), "hidden") {
		t.Error("info line emitted at warn level")
	}
	if !strings.Contains(out.String(), "[WARN] ") {
		t.Errorf("output = %q, want a WARN line", out.String())
	}
}

func TestHandlerWithAttrsAndGroups(t *testing.T) {
	var out strings.Builder
	h := NewHandler(&out, slog.LevelInfo)
	logger := slog.New(h).With("component", "hub").WithGroup("conn")

	logger.Info("client connected", "addr", "1.2.3.4:5678")
	line := out.String()

	if !strings.Contains(line, "component=hub") {
		t.Errorf("line %q missing preset attr", line)
	}
	if !strings.Contains(line, "conn.addr=1.2.3.4:5678") {
		t.Errorf("line %q missing grouped attr", line)
	}
}

func TestHandlerTimestamp(t *testing.T) {
	var out strings.Builder
	h := NewHandler(&out, slog.LevelInfo)

	record := slog.NewRecord(
		time.Date(2022, 5, 1, 13, 37, 42, 0, time.UTC), slog.LevelInfo, "fixed time", 0)
	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.HasPrefix(out.String(), "[INFO] 2022-05-01 13:37:42 fixed time") {
		t.Errorf("line = %q", out.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"LOUD":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
