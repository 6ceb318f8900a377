// Package mcp exposes the sandboxed tool registry over the Model Context
// Protocol. Every call goes through the same Executor as the conversation
// loop, so the root is fixed by the server and never taken from the client.
package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mfateev/sandbox-agent/internal/models"
	"github.com/mfateev/sandbox-agent/internal/tools"
	"github.com/mfateev/sandbox-agent/internal/version"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "sandbox-agent"

// ServerOptions configures a Server.
type ServerOptions struct {
	Filter ToolFilter
	Logger *slog.Logger
}

// Server serves an Executor's tools to one MCP client.
type Server struct {
	executor *tools.Executor
	server   *gomcp.Server
	logger   *slog.Logger
	exposed  []string
}

// NewServer registers every tool of executor allowed by opts.Filter.
func NewServer(executor *tools.Executor, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		executor: executor,
		server: gomcp.NewServer(&gomcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		}, nil),
		logger: logger,
	}

	for _, spec := range executor.Specs() {
		if !opts.Filter.Allows(spec.Name) {
			continue
		}
		s.server.AddTool(&gomcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.JSONSchema(),
			Annotations: annotations(executor.IsMutating(spec.Name)),
		}, s.handler(spec.Name))
		s.exposed = append(s.exposed, spec.Name)
	}

	return s
}

// annotations marks read-only tools as such and mutating tools as
// destructive. No tool reaches outside the root.
func annotations(mutating bool) *gomcp.ToolAnnotations {
	openWorld := false
	a := &gomcp.ToolAnnotations{
		ReadOnlyHint:  !mutating,
		OpenWorldHint: &openWorld,
	}
	if mutating {
		destructive := true
		a.DestructiveHint = &destructive
	}
	return a
}

// ToolNames returns the exposed tool names in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.exposed...)
}

// Run serves on transport until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport gomcp.Transport) error {
	s.logger.Info("mcp server starting", "root", s.executor.Root().Path(), "tools", s.exposed)
	return s.server.Run(ctx, transport)
}

// RunStdio serves over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &gomcp.StdioTransport{})
}

// handler adapts one tool to the MCP handler signature. Tool failures are
// reported in-band with IsError set, never as protocol errors.
func (s *Server) handler(name string) gomcp.ToolHandler {
	return func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		call := models.ToolCall{
			ID:   "mcp_" + uuid.NewString(),
			Name: name,
		}
		if req != nil && req.Params != nil {
			call.Arguments = string(req.Params.Arguments)
		}

		result := s.executor.Execute(ctx, call)
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: result.Outcome.Text()}},
			IsError: !result.Outcome.IsSuccess(),
		}, nil
	}
}
