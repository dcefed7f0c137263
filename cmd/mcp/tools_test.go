package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnishMulay/devcore/internal/log_service/memlog"
	"github.com/AnishMulay/devcore/servers/devd"
	"github.com/mark3labs/mcp-go/mcp"
)

func startRegistry(t *testing.T) *ServerRegistry {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
node_id: mcp-test
listen_addr: 127.0.0.1:0
transport: grpc
log:
  dir: %s
  sink: file
ramdisks:
  max_disks: 2
  disks:
    - name: ram0
      size: 8192
terminals:
  count: 2
  buffer_size: 64
`, filepath.Join(dir, "logs"))
	path := filepath.Join(dir, "devd.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	node, err := devd.Build(devd.Options{ConfigPath: path, Console: &strings.Builder{}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := node.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = node.Stop() })

	mcpCfg := &MCPConfig{DefaultServer: "local", Servers: []ServerEntry{{ID: "local", Address: node.Address()}}}
	registry, err := newRegistry(mcpCfg, memlog.NewRecordingLogService())
	if err != nil {
		t.Fatalf("newRegistry() error = %v", err)
	}
	t.Cleanup(func() { _ = registry.Communicator.Stop() })
	return registry
}

func call(t *testing.T, registry *ServerRegistry, fn toolHandler, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	res, err := registry.handle(fn)(context.Background(), req)
	if err != nil {
		t.Fatalf("tool handler error = %v", err)
	}
	if len(res.Content) == 0 {
		return "", res.IsError
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content = %T, want text", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestTools(t *testing.T) {
	registry := startRegistry(t)

	tests := []struct {
		name      string
		fn        toolHandler
		args      map[string]any
		want      string
		wantError bool
	}{
		{name: "blk_size", fn: handleBlkSize, args: map[string]any{"device": "ram0"}, want: "8192"},
		{name: "blk_size missing device", fn: handleBlkSize, args: map[string]any{}, wantError: true},
		{name: "blk_size unknown server", fn: handleBlkSize, args: map[string]any{"device": "ram0", "server": "nope"}, wantError: true},
		{name: "blk_write", fn: handleBlkWrite, args: map[string]any{"device": "ram0", "offset": float64(10), "content": "data"}, want: "Wrote 4 bytes to ram0 at offset 10"},
		{name: "blk_read text", fn: handleBlkRead, args: map[string]any{"device": "ram0", "offset": float64(10), "length": float64(4)}, want: "data"},
		{name: "blk_read base64", fn: handleBlkRead, args: map[string]any{"device": "ram0", "offset": float64(9), "length": float64(2), "encoding": "base64"}, want: "AGQ="},
		{name: "blk_write base64", fn: handleBlkWrite, args: map[string]any{"device": "ram0", "offset": float64(0), "content": "aGk=", "encoding": "base64"}, want: "Wrote 2 bytes to ram0 at offset 0"},
		{name: "blk_read past end", fn: handleBlkRead, args: map[string]any{"device": "ram0", "offset": float64(8190), "length": float64(4)}, wantError: true},
		{name: "blk_read negative", fn: handleBlkRead, args: map[string]any{"device": "ram0", "offset": float64(-1), "length": float64(4)}, wantError: true},
		{name: "tty_type", fn: handleTTYType, args: map[string]any{"text": "pwd\n"}, want: "Typed 4 characters"},
		{name: "tty_read", fn: handleTTYRead, args: map[string]any{"device": "tty0", "timeout_ms": float64(2000)}, want: "pwd\n"},
		{name: "tty_read idle", fn: handleTTYRead, args: map[string]any{"device": "tty1", "timeout_ms": float64(10)}, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isErr := call(t, registry, tt.fn, tt.args)
			if isErr != tt.wantError {
				t.Fatalf("isError = %v, wantError %v (%s)", isErr, tt.wantError, got)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}

	got, _ := call(t, registry, handleListDevices, map[string]any{})
	for _, name := range []string{"ram0", "tty0", "tty1"} {
		if !strings.Contains(got, name) {
			t.Errorf("list_devices output %q is missing %s", got, name)
		}
	}

	if out := listServers(registry); !strings.Contains(out.Content[0].(mcp.TextContent).Text, "local") {
		t.Errorf("list_servers output = %v", out.Content)
	}
}

func TestLoadConfig_WritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultServer != "devd" || len(cfg.Servers) != 1 {
		t.Errorf("LoadConfig() = %+v", cfg)
	}

	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("second LoadConfig() error = %v", err)
	}
	if again.Servers[0].Address != "localhost:8080" || again.Communicator.Type != "grpc" {
		t.Errorf("reloaded config = %+v", again)
	}
}

func TestNewRegistry_UnknownDefault(t *testing.T) {
	cfg := &MCPConfig{DefaultServer: "missing"}
	if _, err := newRegistry(cfg, memlog.NewRecordingLogService()); err == nil {
		t.Errorf("newRegistry() error = nil, want error")
	}
}
