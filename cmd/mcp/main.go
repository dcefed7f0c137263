package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	devlib "github.com/AnishMulay/devcore/clients/library"
	"github.com/AnishMulay/devcore/internal/communication"
	grpccomm "github.com/AnishMulay/devcore/internal/communication/grpc"
	httpcomm "github.com/AnishMulay/devcore/internal/communication/http"
	"github.com/AnishMulay/devcore/internal/log_service"
	locallog "github.com/AnishMulay/devcore/internal/log_service/localdisc"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

type ServerEntry struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

type MCPConfig struct {
	Communicator struct {
		Type string `yaml:"type"`
	} `yaml:"communicator"`
	LogDir        string        `yaml:"log_dir"`
	Servers       []ServerEntry `yaml:"servers"`
	DefaultServer string        `yaml:"default_server"`
}

func LoadConfig(path string) (*MCPConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaultConfig := &MCPConfig{}
		defaultConfig.Communicator.Type = "grpc"
		defaultConfig.LogDir = "./data/logs"
		defaultConfig.DefaultServer = "devd"
		defaultConfig.Servers = []ServerEntry{
			{ID: "devd", Address: "localhost:8080"},
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}

		return defaultConfig, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := MCPConfig{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func newRegistry(cfg *MCPConfig, ls log_service.LogService) (*ServerRegistry, error) {
	var comm communication.Communicator
	switch cfg.Communicator.Type {
	case "", "grpc":
		comm = grpccomm.NewGRPCCommunicator("localhost:0", ls)
	case "http":
		comm = httpcomm.NewHTTPCommunicator("localhost:0", ls)
	default:
		return nil, fmt.Errorf("unknown communicator type %q", cfg.Communicator.Type)
	}

	registry := &ServerRegistry{
		Clients:       make(map[string]*devlib.DevClient, len(cfg.Servers)),
		DefaultServer: cfg.DefaultServer,
		Communicator:  comm,
	}
	for _, s := range cfg.Servers {
		client := devlib.NewDevClient(s.Address, comm)
		client.From = "mcp-server"
		registry.Clients[s.ID] = client
	}
	if _, ok := registry.Clients[registry.DefaultServer]; !ok {
		return nil, fmt.Errorf("default server %q is not configured", registry.DefaultServer)
	}
	return registry, nil
}

func main() {
	configPath := flag.String("config", "./config/mcp.yaml", "MCP config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to disk
	ls, err := locallog.NewLocalDiscLogService(cfg.LogDir, "mcp-server", log_service.InfoLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log service error: %v\n", err)
		os.Exit(1)
	}
	defer ls.Close()

	registry, err := newRegistry(cfg, ls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	defer registry.Communicator.Stop()

	s := server.NewMCPServer(
		"devcore",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	addTools(s, registry)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
	}
}
