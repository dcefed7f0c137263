package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	devlib "github.com/AnishMulay/devcore/clients/library"
	"github.com/AnishMulay/devcore/internal/communication"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type ServerRegistry struct {
	Clients       map[string]*devlib.DevClient
	DefaultServer string
	Communicator  communication.Communicator
}

func (r *ServerRegistry) client(request mcp.CallToolRequest) (*devlib.DevClient, error) {
	serverID := request.GetString("server", "")
	if serverID == "" {
		serverID = r.DefaultServer
	}
	client, ok := r.Clients[serverID]
	if !ok {
		return nil, fmt.Errorf("server %s not found", serverID)
	}
	return client, nil
}

type toolHandler func(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func (r *ServerRegistry) handle(fn toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, err := r.client(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return fn(ctx, client, request)
	}
}

func serverArg() mcp.ToolOption {
	return mcp.WithString("server", mcp.Description("Server ID, defaults to the configured default server"))
}

func addTools(s *server.MCPServer, registry *ServerRegistry) {
	s.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List the configured device servers"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return listServers(registry), nil
	})

	s.AddTool(mcp.NewTool("list_devices",
		mcp.WithDescription("List the block and character devices of a server"),
		serverArg(),
	), registry.handle(handleListDevices))

	s.AddTool(mcp.NewTool("blk_size",
		mcp.WithDescription("Return the size in bytes of a block device"),
		mcp.WithString("device", mcp.Required(), mcp.Description("Device name, e.g. ram0")),
		serverArg(),
	), registry.handle(handleBlkSize))

	s.AddTool(mcp.NewTool("blk_read",
		mcp.WithDescription("Read bytes from a block device"),
		mcp.WithString("device", mcp.Required(), mcp.Description("Device name, e.g. ram0")),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Byte offset")),
		mcp.WithNumber("length", mcp.Required(), mcp.Description("Number of bytes")),
		mcp.WithString("encoding", mcp.Description("text (default) or base64")),
		serverArg(),
	), registry.handle(handleBlkRead))

	s.AddTool(mcp.NewTool("blk_write",
		mcp.WithDescription("Write bytes to a block device"),
		mcp.WithString("device", mcp.Required(), mcp.Description("Device name, e.g. ram0")),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Byte offset")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Data to write")),
		mcp.WithString("encoding", mcp.Description("text (default) or base64")),
		serverArg(),
	), registry.handle(handleBlkWrite))

	s.AddTool(mcp.NewTool("tty_type",
		mcp.WithDescription("Type text on the active terminal"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to type; end with \\n to complete a line")),
		serverArg(),
	), registry.handle(handleTTYType))

	s.AddTool(mcp.NewTool("tty_read",
		mcp.WithDescription("Read a line of input from a terminal"),
		mcp.WithString("device", mcp.Required(), mcp.Description("Terminal name, e.g. tty0")),
		mcp.WithNumber("max", mcp.Description("Maximum characters, default 256")),
		mcp.WithNumber("timeout_ms", mcp.Description("Wait limit in milliseconds, default 1000")),
		serverArg(),
	), registry.handle(handleTTYRead))
}

func listServers(registry *ServerRegistry) *mcp.CallToolResult {
	ids := make([]string, 0, len(registry.Clients))
	for id := range registry.Clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Available servers:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s: %s\n", id, registry.Clients[id].ServerAddr)
	}
	fmt.Fprintf(&b, "Default server: %s\n", registry.DefaultServer)
	return mcp.NewToolResultText(b.String())
}

func handleListDevices(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := client.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list devices: %v", err)), nil
	}

	var b strings.Builder
	for _, d := range devices {
		switch d.Kind {
		case "block":
			fmt.Fprintf(&b, "%s\tblock\t%d bytes\t%s\n", d.Name, d.Size, d.Serial)
		default:
			fmt.Fprintf(&b, "%s\t%s\n", d.Name, d.Kind)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleBlkSize(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	device, err := request.RequireString("device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	size, err := client.BlkSize(ctx, device)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get size: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d", size)), nil
}

func handleBlkRead(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	device, err := request.RequireString("device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset, err := request.RequireInt("offset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	length, err := request.RequireInt("length")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if offset < 0 || length < 0 {
		return mcp.NewToolResultError("offset and length must not be negative"), nil
	}

	data, err := client.BlkRead(ctx, device, uint64(offset), length)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read: %v", err)), nil
	}

	if request.GetString("encoding", "text") == "base64" {
		return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleBlkWrite(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	device, err := request.RequireString("device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset, err := request.RequireInt("offset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}

	data := []byte(content)
	if request.GetString("encoding", "text") == "base64" {
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid base64 content: %v", err)), nil
		}
	}

	n, err := client.BlkWrite(ctx, device, uint64(offset), data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %d bytes to %s at offset %d", n, device, offset)), nil
}

func handleTTYType(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.Type(ctx, text); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to type: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Typed %d characters", len(text))), nil
}

func handleTTYRead(ctx context.Context, client *devlib.DevClient, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	device, err := request.RequireString("device")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	max := request.GetInt("max", 256)
	timeout := request.GetInt("timeout_ms", 1000)

	line, err := client.ReadTTY(ctx, device, max, timeout)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read terminal: %v", err)), nil
	}
	return mcp.NewToolResultText(line), nil
}
