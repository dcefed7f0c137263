package main

import (
	"flag"
	"log"

	"github.com/AnishMulay/devcore/servers/devd"
)

func main() {
	var (
		configPath = flag.String("config", "./config/devd.yaml", "Config file, created with defaults when missing")
		nodeID     = flag.String("node-id", "", "Node ID, overrides the config file")
		listen     = flag.String("listen", "", "Listen address, overrides the config file")
	)
	flag.Parse()

	node, err := devd.Build(devd.Options{
		ConfigPath: *configPath,
		NodeID:     *nodeID,
		ListenAddr: *listen,
	})
	if err != nil {
		log.Fatalf("Failed to build device node: %v", err)
	}

	if err := node.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
