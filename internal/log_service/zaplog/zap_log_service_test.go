package zaplog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/AnishMulay/devcore/internal/log_service"
)

func TestZapLogService_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	ls := NewZapLogServiceWithWriter("node-1", "DEBUG", &buf)

	ls.Error(log_service.LogEvent{
		Message:  "ramdisk: tried to read too far",
		Metadata: map[string]any{"disk": 2, "offset": 4096},
	})

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}

	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["msg"] != "ramdisk: tried to read too far" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["node"] != "node-1" {
		t.Errorf("node = %v, want node-1", entry["node"])
	}
	if entry["disk"] != float64(2) {
		t.Errorf("disk = %v, want 2", entry["disk"])
	}
}

func TestZapLogService_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	ls := NewZapLogServiceWithWriter("node-1", "WARN", &buf)

	ls.Info(log_service.LogEvent{Message: "dropped"})
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}

	ls.SetMinLogLevel("DEBUG")
	ls.Debug(log_service.LogEvent{Message: "kept"})
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected debug after lowering level, got %q", buf.String())
	}
}
