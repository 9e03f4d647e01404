// Package mcpserver is the tool-calling protocol front-end: one named MCP
// tool per registered operation, served over stdio or streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/app"
	"github.com/guillaumegay13/fieldflow/internal/tooling"
)

// DefaultInstructions describes the generated tool set to MCP clients.
const DefaultInstructions = "Tools in this server are generated dynamically from the supplied OpenAPI " +
	"specification. Provide the required parameters and include a `fields` list " +
	"whenever you only need part of the response."

// New registers every compiled tool on a fresh MCP server.
func New(a *app.App, name, version, instructions string) (*server.MCPServer, error) {
	if name == "" {
		name = "fieldflow-mcp"
	}
	if instructions == "" {
		instructions = DefaultInstructions
	}

	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
	)

	for _, tool := range a.Tools {
		schema, err := json.Marshal(tool.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("mcpserver: encoding schema for %s: %w", tool.Operation.Name, err)
		}
		s.AddTool(
			mcp.NewToolWithRawSchema(tool.Operation.Name, tool.Operation.DisplaySummary(), schema),
			handler(a, tool),
		)
	}
	return s, nil
}

// handler binds one tool to the proxy pipeline. Pipeline errors come back
// as tool errors so a bad call never tears down the session.
func handler(a *app.App, tool *tooling.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call, err := tool.BindArguments(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := a.Executor.Execute(ctx, tool.Operation, call)
		if err != nil {
			a.Logger.Warn("tool call failed",
				zap.String("tool", tool.Operation.Name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encoding tool result: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// RunStdio serves the MCP server over stdin/stdout until EOF.
func RunStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// RunStreamableHTTP serves the MCP server over streamable HTTP on addr.
func RunStreamableHTTP(s *server.MCPServer, addr string) error {
	return server.NewStreamableHTTPServer(s).Start(addr)
}
