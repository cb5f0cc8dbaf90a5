// Package mcp exposes a built index to assistant tooling over the Model
// Context Protocol, so documentation helpers can consume the
// package→library→module map without rescanning the switch.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/camldex/camldex/internal/index"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	state     *index.State
}

// NewServer wraps a built index in an MCP server. The index is read-only;
// serving never mutates it.
func NewServer(state *index.State) *Server {
	s := &Server{state: state}

	mcpServer := server.NewMCPServer(
		"camldex",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("lookup_module",
			mcp.WithDescription("Find which installed package and library own a module. Lookup is by exact module name; all owners are returned when the name is ambiguous."),
			mcp.WithString("name",
				mcp.Description("Module name, e.g. \"Fmt\""),
				mcp.Required(),
			),
		),
		s.handleLookupModule,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_packages",
			mcp.WithDescription("List the installed packages of the indexed switch with their versions and declared libraries."),
		),
		s.handleListPackages,
	)
}

func (s *Server) handleLookupModule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}

	mods, err := s.state.Find(name)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no installed module named %q", name)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(mods, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListPackages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type pkgEntry struct {
		Name      string   `json:"name"`
		Version   string   `json:"version,omitempty"`
		Libraries []string `json:"libraries,omitempty"`
	}

	var entries []pkgEntry
	for _, name := range s.state.PackageNames() {
		p := s.state.Packages[name]
		entries = append(entries, pkgEntry{Name: p.Name, Version: p.Version, Libraries: p.Libraries})
	}

	resultJSON, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// Run serves the index over stdio until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
