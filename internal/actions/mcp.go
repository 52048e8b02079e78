package actions

import (
	"github.com/abhishek9sharma/sarathi/internal/mcpserver"
	"github.com/abhishek9sharma/sarathi/internal/runtime"
)

// MCPAction serves the project tools over MCP on stdin and stdout. Log
// output must go elsewhere, so callers build ctx with Out set to stderr.
func MCPAction(ctx *runtime.Context, allowSensitive bool) error {
	registry := ctx.Registry()
	if allowSensitive {
		ctx.Splog.Warn("Serving tools that write files and run commands.")
	}
	ctx.Splog.Debug("Serving %d tools over MCP from %s", len(registry.Names()), ctx.WorkDir)
	return mcpserver.Serve(registry, mcpserver.Options{AllowSensitive: allowSensitive})
}
