// Package mcp exposes the canon engine to AI assistants as MCP tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"canon/internal/baseline"
	"canon/internal/query"
	"canon/internal/slogutil"
	"canon/internal/version"
)

// ErrMissingEngine is returned when no engine is provided.
var ErrMissingEngine = errors.New("mcp: engine is required")

// Engine is the subset of *query.Engine the tools call.
type Engine interface {
	Search(ctx context.Context, q string, canon *baseline.RepoRef) (*query.SearchResult, error)
	FetchFile(ctx context.Context, path string, canon *baseline.RepoRef) (*baseline.FileResult, error)
	InvalidateCache(ctx context.Context, canon *baseline.RepoRef) error
}

// Server is the canon MCP server.
type Server struct {
	engine Engine
	server *mcp.Server
	logger *slog.Logger
}

// NewServer creates a server and registers its tools.
func NewServer(engine Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, ErrMissingEngine
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	impl := &mcp.Implementation{
		Name:    "canon",
		Version: version.Version,
	}

	s := &Server{
		engine: engine,
		server: mcp.NewServer(impl, nil),
		logger: logger,
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting", "version", version.Version)
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("MCP server stopped", "error", err)
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
