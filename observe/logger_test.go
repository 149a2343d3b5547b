package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("no log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v\nline: %s", err, line)
	}
	return entry
}

func TestLogger_IncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).WithComponent("ratelimit")

	logger.Info(context.Background(), "window reset")

	entry := decodeLine(t, &buf)
	if entry["component"] != "ratelimit" {
		t.Errorf("component = %v, want ratelimit", entry["component"])
	}
	if entry["msg"] != "window reset" {
		t.Errorf("msg = %v, want 'window reset'", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestLogger_FieldsIncluded(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Warn(context.Background(), "fail open",
		Field{Key: "identity_hash", Value: "ab12"},
		Field{Key: "remaining", Value: -1},
	)

	entry := decodeLine(t, &buf)
	if entry["identity_hash"] != "ab12" {
		t.Errorf("identity_hash = %v, want ab12", entry["identity_hash"])
	}
	if entry["remaining"] != float64(-1) {
		t.Errorf("remaining = %v, want -1", entry["remaining"])
	}
}

func TestLogger_TokenRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "check",
		Field{Key: "token", Value: "eyJhbGciOi..."},
	)

	entry := decodeLine(t, &buf)
	if entry["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", entry["token"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Errorf("debug/info should be filtered at warn level, got: %s", buf.String())
	}

	logger.Error(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Error("error should pass at warn level")
	}
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	if got := ParseLogLevel("verbose"); got != LevelInfo {
		t.Errorf("ParseLogLevel(verbose) = %v, want LevelInfo", got)
	}
}

func TestNopLogger_DoesNothing(t *testing.T) {
	logger := NopLogger()

	// Must not panic, and WithComponent must still chain.
	logger.WithComponent("cache").Info(context.Background(), "ignored")
	logger.Warn(context.Background(), "ignored")
	logger.Error(context.Background(), "ignored")
	logger.Debug(context.Background(), "ignored")
}
