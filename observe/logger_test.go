package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", lines[0]["level"], lines[1]["level"])
	}
	if lines[0]["msg"] != "warn" {
		t.Errorf("msg = %v, want warn", lines[0]["msg"])
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "hello", Field{Key: "shard", Value: 3}, Field{Key: "backend", Value: "redis-0"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["shard"] != float64(3) {
		t.Errorf("shard = %v, want 3", lines[0]["shard"])
	}
	if lines[0]["backend"] != "redis-0" {
		t.Errorf("backend = %v, want redis-0", lines[0]["backend"])
	}
	if _, ok := lines[0]["time"]; !ok {
		t.Error("expected time field")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "write",
		Field{Key: "value", Value: "user payload"},
		Field{Key: "token", Value: "abc"},
		Field{Key: "ttl", Value: "1m"},
	)

	line := decodeLines(t, &buf)[0]
	if line["value"] != "[REDACTED]" {
		t.Errorf("value = %v, want [REDACTED]", line["value"])
	}
	if line["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", line["token"])
	}
	if line["ttl"] != "1m" {
		t.Errorf("ttl = %v, want 1m", line["ttl"])
	}
	if strings.Contains(buf.String(), "user payload") {
		t.Error("redacted value leaked into output")
	}
}

func TestLogger_WithOp(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithOp(OpMeta{Op: OpGet, Key: "static:home", Classified: true})

	logger.Info(context.Background(), "served")

	line := decodeLines(t, &buf)[0]
	if line["cache.op"] != "get" {
		t.Errorf("cache.op = %v", line["cache.op"])
	}
	if line["cache.key"] != "static:home" {
		t.Errorf("cache.key = %v", line["cache.key"])
	}
	if line["cache.classified"] != true {
		t.Errorf("cache.classified = %v", line["cache.classified"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if LevelWarn.String() != "warn" {
		t.Errorf("LevelWarn.String() = %q", LevelWarn.String())
	}
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	ctx := context.Background()
	l.Info(ctx, "x")
	l.Warn(ctx, "x")
	l.Error(ctx, "x")
	l.Debug(ctx, "x")
	if l.WithOp(OpMeta{Op: OpGet}) == nil {
		t.Error("WithOp should return a logger")
	}
}
