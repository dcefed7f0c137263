// Package config loads the device daemon configuration from yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnishMulay/devcore/internal/log_service"
	"github.com/AnishMulay/devcore/internal/ramdisk"
	"github.com/AnishMulay/devcore/internal/terminal"
	"gopkg.in/yaml.v3"
)

const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"

	LogSinkFile = "file"
	LogSinkZap  = "zap"
)

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
	Sink  string `yaml:"sink"`
}

type PagePoolConfig struct {
	// PageLimit caps the pages handed out to all disks; 0 means no cap.
	PageLimit uint64 `yaml:"page_limit"`
}

type DiskConfig struct {
	Name string `yaml:"name"`
	Size uint64 `yaml:"size"`
}

type RamdiskConfig struct {
	MaxDisks int          `yaml:"max_disks"`
	MaxSize  uint64       `yaml:"max_size"` // largest disk in bytes
	Disks    []DiskConfig `yaml:"disks"`
}

type TerminalConfig struct {
	Count      int `yaml:"count"`
	BufferSize int `yaml:"buffer_size"`
}

type Config struct {
	NodeID     string         `yaml:"node_id"`
	ListenAddr string         `yaml:"listen_addr"`
	Transport  string         `yaml:"transport"`
	Log        LogConfig      `yaml:"log"`
	PagePool   PagePoolConfig `yaml:"page_pool"`
	Ramdisks   RamdiskConfig  `yaml:"ramdisks"`
	Terminals  TerminalConfig `yaml:"terminals"`
}

func Default() *Config {
	return &Config{
		NodeID:     "devd",
		ListenAddr: "localhost:8080",
		Transport:  TransportGRPC,
		Log: LogConfig{
			Dir:   "./data/logs",
			Level: log_service.InfoLevel,
			Sink:  LogSinkFile,
		},
		Ramdisks: RamdiskConfig{
			MaxDisks: ramdisk.MaxRamdisk,
			MaxSize:  ramdisk.DefaultMaxDiskSize,
			Disks: []DiskConfig{
				{Name: "ram0", Size: 1 << 20},
			},
		},
		Terminals: TerminalConfig{
			Count:      terminal.MaxTerminals,
			BufferSize: terminal.DefaultBufferSize,
		},
	}
}

// Load reads the config at path. A missing file is created with the
// default configuration, which is then returned.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}

		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("%w: node_id is empty", ErrInvalidConfig)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalidConfig)
	}

	switch c.Transport {
	case TransportGRPC, TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}

	switch c.Log.Sink {
	case LogSinkFile, LogSinkZap:
	default:
		return fmt.Errorf("%w: unknown log sink %q", ErrInvalidConfig, c.Log.Sink)
	}

	if c.Terminals.Count <= 0 {
		return fmt.Errorf("%w: at least one terminal is required", ErrInvalidConfig)
	}
	if c.Terminals.BufferSize <= 0 {
		return fmt.Errorf("%w: terminal buffer_size must be positive", ErrInvalidConfig)
	}

	if c.Ramdisks.MaxDisks <= 0 {
		return fmt.Errorf("%w: ramdisks.max_disks must be positive", ErrInvalidConfig)
	}
	if c.Ramdisks.MaxSize == 0 {
		return fmt.Errorf("%w: ramdisks.max_size must be positive", ErrInvalidConfig)
	}
	if len(c.Ramdisks.Disks) > c.Ramdisks.MaxDisks {
		return fmt.Errorf("%w: %d disks configured, pool holds %d", ErrInvalidConfig, len(c.Ramdisks.Disks), c.Ramdisks.MaxDisks)
	}

	seen := make(map[string]bool, len(c.Ramdisks.Disks))
	for _, d := range c.Ramdisks.Disks {
		if d.Name == "" {
			return fmt.Errorf("%w: disk name is empty", ErrInvalidConfig)
		}
		if d.Size > c.Ramdisks.MaxSize {
			return fmt.Errorf("%w: disk %q is larger than max_size %d", ErrInvalidConfig, d.Name, c.Ramdisks.MaxSize)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate disk %q", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = true
	}

	return nil
}
