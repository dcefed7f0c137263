package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_WritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "devd.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transport != TransportGRPC || cfg.Terminals.Count != 2 {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.ListenAddr != cfg.ListenAddr || len(again.Ramdisks.Disks) != 1 {
		t.Errorf("reloaded config = %+v", again)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devd.yaml")
	data := `
node_id: bench
listen_addr: 127.0.0.1:9000
transport: http
log:
  sink: zap
  level: DEBUG
page_pool:
  page_limit: 64
ramdisks:
  max_disks: 2
  max_size: 65536
  disks:
    - name: boot
      size: 4096
    - name: swap
      size: 8192
terminals:
  count: 3
  buffer_size: 128
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.NodeID != "bench" || cfg.ListenAddr != "127.0.0.1:9000" || cfg.Transport != TransportHTTP {
		t.Errorf("top level fields = %+v", cfg)
	}
	if cfg.Log.Sink != LogSinkZap || cfg.Log.Level != "DEBUG" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Log.Dir != Default().Log.Dir {
		t.Errorf("unset log dir = %q, want default", cfg.Log.Dir)
	}
	if cfg.PagePool.PageLimit != 64 {
		t.Errorf("page limit = %d", cfg.PagePool.PageLimit)
	}
	if cfg.Ramdisks.MaxSize != 65536 {
		t.Errorf("max size = %d", cfg.Ramdisks.MaxSize)
	}
	if len(cfg.Ramdisks.Disks) != 2 || cfg.Ramdisks.Disks[1].Name != "swap" || cfg.Ramdisks.Disks[1].Size != 8192 {
		t.Errorf("disks = %+v", cfg.Ramdisks.Disks)
	}
	if cfg.Terminals.Count != 3 || cfg.Terminals.BufferSize != 128 {
		t.Errorf("terminals = %+v", cfg.Terminals)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devd.yaml")
	if err := os.WriteFile(path, []byte("node_id: [unterminated"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load() error = nil, want a parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty node id", mutate: func(c *Config) { c.NodeID = "" }, wantErr: true},
		{name: "empty listen address", mutate: func(c *Config) { c.ListenAddr = "" }, wantErr: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "udp" }, wantErr: true},
		{name: "unknown log sink", mutate: func(c *Config) { c.Log.Sink = "syslog" }, wantErr: true},
		{name: "zero terminals", mutate: func(c *Config) { c.Terminals.Count = 0 }, wantErr: true},
		{name: "zero buffer", mutate: func(c *Config) { c.Terminals.BufferSize = 0 }, wantErr: true},
		{name: "empty disk name", mutate: func(c *Config) { c.Ramdisks.Disks[0].Name = "" }, wantErr: true},
		{
			name: "duplicate disk names",
			mutate: func(c *Config) {
				c.Ramdisks.Disks = append(c.Ramdisks.Disks, DiskConfig{Name: "ram0", Size: 1})
			},
			wantErr: true,
		},
		{
			name: "more disks than slots",
			mutate: func(c *Config) {
				c.Ramdisks.MaxDisks = 1
				c.Ramdisks.Disks = append(c.Ramdisks.Disks, DiskConfig{Name: "ram1", Size: 1})
			},
			wantErr: true,
		},
		{name: "zero max size", mutate: func(c *Config) { c.Ramdisks.MaxSize = 0 }, wantErr: true},
		{
			name: "disk larger than max size",
			mutate: func(c *Config) {
				c.Ramdisks.MaxSize = 4096
				c.Ramdisks.Disks[0].Size = 4097
			},
			wantErr: true,
		},
		{
			name: "disk at max size",
			mutate: func(c *Config) {
				c.Ramdisks.MaxSize = 4096
				c.Ramdisks.Disks[0].Size = 4096
			},
		},
		{name: "http transport", mutate: func(c *Config) { c.Transport = TransportHTTP }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}
