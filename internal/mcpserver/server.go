// Package mcpserver exposes the agent tools over the Model Context Protocol
// so other assistants can read and search the project through sarathi.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abhishek9sharma/sarathi/internal/tools"
)

// Version is reported to MCP clients; set at build time via ldflags.
var Version = "dev"

const instructions = "Sarathi project tools. Paths are relative to the directory the server was started in. " +
	"Sensitive files such as .env and private keys cannot be read."

// Options controls which tools are served
type Options struct {
	// AllowSensitive also serves tools that write files or run commands
	AllowSensitive bool
}

// New builds an MCP server for every tool in registry. Sensitive tools are
// left out unless opts.AllowSensitive is set.
func New(registry *tools.Registry, opts Options) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"sarathi",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	for _, name := range registry.Names() {
		tool, _ := registry.Get(name)
		if tool.Sensitive && !opts.AllowSensitive {
			continue
		}
		def, err := definition(tool)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, handler(tool))
	}
	return s, nil
}

func definition(tool *tools.Tool) (mcp.Tool, error) {
	schema, err := json.Marshal(tool.Parameters)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode schema of %s: %w", tool.Name, err)
	}
	return mcp.NewToolWithRawSchema(tool.Name, tool.Description, schema), nil
}

func handler(tool *tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		out, err := tool.Handler(ctx, raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// Serve runs the server over stdin and stdout until the client disconnects
func Serve(registry *tools.Registry, opts Options) error {
	s, err := New(registry, opts)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}
