package devd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AnishMulay/devcore/internal/communication"
	grpccomm "github.com/AnishMulay/devcore/internal/communication/grpc"
	httpcomm "github.com/AnishMulay/devcore/internal/communication/http"
	"github.com/AnishMulay/devcore/internal/config"
	"github.com/AnishMulay/devcore/internal/device_registry"
	"github.com/AnishMulay/devcore/internal/log_service"
	locallog "github.com/AnishMulay/devcore/internal/log_service/localdisc"
	"github.com/AnishMulay/devcore/internal/log_service/zaplog"
	"github.com/AnishMulay/devcore/internal/page_pool/inmemory"
	"github.com/AnishMulay/devcore/internal/ramdisk"
	deviceserver "github.com/AnishMulay/devcore/internal/server/device"
	"github.com/AnishMulay/devcore/internal/terminal"
)

type Options struct {
	ConfigPath string
	// NodeID and ListenAddr override the config file when set.
	NodeID     string
	ListenAddr string
	// Console receives terminal output. Defaults to stdout.
	Console io.Writer
}

type Node struct {
	server  *deviceserver.DeviceServer
	ls      log_service.LogService
	closers []func() error
}

func (n *Node) Start() error {
	return n.server.Start()
}

func (n *Node) Stop() error {
	err := n.server.Stop()
	n.close()
	return err
}

// close releases what Build opened, newest first.
func (n *Node) close() {
	for i := len(n.closers) - 1; i >= 0; i-- {
		_ = n.closers[i]()
	}
	n.closers = nil
}

func (n *Node) Address() string {
	return n.server.Address()
}

func (n *Node) Run() error {
	if err := n.Start(); err != nil {
		return err
	}

	// Wait for termination signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	return n.Stop()
}

func Build(opts Options) (*Node, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.NodeID != "" {
		cfg.NodeID = opts.NodeID
	}
	if opts.ListenAddr != "" {
		cfg.ListenAddr = opts.ListenAddr
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	node := &Node{}

	// 1. Logging
	var ls log_service.LogService
	switch cfg.Log.Sink {
	case config.LogSinkZap:
		zl, err := zaplog.NewZapLogService(cfg.NodeID, cfg.Log.Level, false)
		if err != nil {
			return nil, fmt.Errorf("failed to build zap logger: %w", err)
		}
		node.closers = append(node.closers, zl.Sync)
		ls = zl
	default:
		ll, err := locallog.NewLocalDiscLogService(cfg.Log.Dir, cfg.NodeID, cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		node.closers = append(node.closers, ll.Close)
		ls = ll
	}
	node.ls = ls

	// 2. Block devices
	pages := inmemory.NewInMemoryPagePool(cfg.PagePool.PageLimit, ls)
	disks := ramdisk.NewPool(cfg.Ramdisks.MaxDisks, pages, ls)
	disks.SetMaxDiskSize(cfg.Ramdisks.MaxSize)
	registry := device_registry.NewInMemoryDeviceRegistry(ls)

	// 3. Terminals
	terminals := terminal.NewPool(terminal.Options{
		Count:      cfg.Terminals.Count,
		BufferSize: cfg.Terminals.BufferSize,
		Console:    opts.Console,
	}, ls)

	// 4. Communication
	var comm communication.Communicator
	switch cfg.Transport {
	case config.TransportHTTP:
		comm = httpcomm.NewHTTPCommunicator(cfg.ListenAddr, ls)
	default:
		comm = grpccomm.NewGRPCCommunicator(cfg.ListenAddr, ls)
	}

	// 5. Server
	node.server = deviceserver.NewDeviceServer(comm, disks, registry, terminals, ls)

	for _, d := range cfg.Ramdisks.Disks {
		if _, err := node.server.MakeDisk(d.Name, d.Size); err != nil {
			ls.Error(log_service.LogEvent{
				Message:  "Failed to create configured disk",
				Metadata: map[string]any{"disk": d.Name, "size": d.Size, "error": err.Error()},
			})
			node.close()
			return nil, fmt.Errorf("failed to create disk %s: %w", d.Name, err)
		}
	}

	ls.Info(log_service.LogEvent{
		Message: "Device node built",
		Metadata: map[string]any{
			"node":      cfg.NodeID,
			"address":   cfg.ListenAddr,
			"transport": cfg.Transport,
			"disks":     len(cfg.Ramdisks.Disks),
			"terminals": cfg.Terminals.Count,
		},
	})

	return node, nil
}
