// Package mcp exposes Blueprint validation, planning, preparation and the
// checkpoint ring as MCP tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/module-builder/internal/pipeline"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var documentArgs = []mcp.ToolOption{
	mcp.WithString("path", mcp.Description("Path to a Blueprint file (.json, .yaml or .yml)")),
	mcp.WithString("document", mcp.Description("Inline Blueprint document, used when path is empty")),
	mcp.WithString("format", mcp.Description("Format of the inline document"), mcp.Enum("json", "yaml")),
}

func blueprintTool(name, description string) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(description)}, documentArgs...)
	return mcp.NewTool(name, opts...)
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"blueprint_validate": {
		def:     blueprintTool("blueprint_validate", "Validate a Blueprint and report errors and warnings"),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleValidate },
	},
	"blueprint_plan": {
		def:     blueprintTool("blueprint_plan", "Validate a Blueprint and return its ordered execution plan"),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlan },
	},
	"blueprint_prepare": {
		def: blueprintTool("blueprint_prepare",
			"Run the preparation layers against the configured project and return the run report. Nothing is written into the project."),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrepare },
	},
	"checkpoint_list": {
		def: mcp.NewTool("checkpoint_list",
			mcp.WithDescription("List the checkpoints of the configured project, newest first"),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListCheckpoints },
	},
}

// ToolNames returns the registered tool names.
func ToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with every tool registered. base carries
// the project settings preparation runs use.
func NewServer(base pipeline.Options, version string) (*server.MCPServer, error) {
	h, err := NewHandlers(base)
	if err != nil {
		return nil, err
	}
	s := server.NewMCPServer(
		"module-builder",
		version,
		server.WithToolCapabilities(true),
	)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s, nil
}

// Run starts the MCP server using stdio transport.
func Run(base pipeline.Options, version string) error {
	s, err := NewServer(base, version)
	if err != nil {
		return err
	}
	return server.ServeStdio(s)
}
