package localdisc

import (
	"os"
	"strings"
	"testing"

	"github.com/AnishMulay/devcore/internal/log_service"
)

func TestLocalDiscLogService_Filtering(t *testing.T) {
	tests := []struct {
		name     string
		minLevel string
		logFn    func(ls *LocalDiscLogService)
		want     string
		wantLog  bool
	}{
		{
			name:     "error passes info filter",
			minLevel: "INFO",
			logFn: func(ls *LocalDiscLogService) {
				ls.Error(log_service.LogEvent{Message: "ramdisk read out of range"})
			},
			want:    "ERROR: ramdisk read out of range",
			wantLog: true,
		},
		{
			name:     "debug dropped by info filter",
			minLevel: "info",
			logFn: func(ls *LocalDiscLogService) {
				ls.Debug(log_service.LogEvent{Message: "page allocated"})
			},
			wantLog: false,
		},
		{
			name:     "metadata is written sorted",
			minLevel: "DEBUG",
			logFn: func(ls *LocalDiscLogService) {
				ls.Debug(log_service.LogEvent{
					Message:  "page allocated",
					Metadata: map[string]any{"page": 3, "disk": 1},
				})
			},
			want:    "page allocated disk=1 page=3",
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, err := NewLocalDiscLogService(t.TempDir(), "node-test", tt.minLevel)
			if err != nil {
				t.Fatalf("NewLocalDiscLogService() error = %v", err)
			}
			defer ls.Close()

			tt.logFn(ls)

			data, err := os.ReadFile(ls.Path())
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			content := string(data)

			if !tt.wantLog {
				if content != "" {
					t.Errorf("expected empty log, got %q", content)
				}
				return
			}

			if !strings.Contains(content, tt.want) {
				t.Errorf("log = %q, want substring %q", content, tt.want)
			}
			if !strings.Contains(content, "[node-test]") {
				t.Errorf("log = %q, missing node id", content)
			}
		})
	}
}

func TestLocalDiscLogService_DisableFiltering(t *testing.T) {
	ls, err := NewLocalDiscLogService(t.TempDir(), "node-test", "ERROR")
	if err != nil {
		t.Fatalf("NewLocalDiscLogService() error = %v", err)
	}
	defer ls.Close()

	ls.DisableFiltering()
	ls.Debug(log_service.LogEvent{Message: "now visible"})

	data, err := os.ReadFile(ls.Path())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "DEBUG: now visible") {
		t.Errorf("log = %q, want debug line", string(data))
	}
}
