package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qnkhuat/chesslan/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"chatty":  zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	l, closeFn, err := build(config.Log{Level: "info", Format: "json", Console: true}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden")
	l.Info("moved", zap.String("move", "e2e4"))
	closeFn()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["msg"] != "moved" || entry["move"] != "e2e4" || entry["level"] != "info" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "game.log")
	l, closeFn, err := New(config.Log{Level: "debug", Format: "legacy", File: path})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("listening", zap.Int("port", 8080))
	closeFn()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "DEBUG | ") || !strings.Contains(string(raw), "listening") {
		t.Errorf("log file content = %q", raw)
	}
}

func TestNoOutputsIsNop(t *testing.T) {
	l, closeFn, err := New(config.Log{})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger")
	}
}
