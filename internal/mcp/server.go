// ABOUTME: MCP server initialization and configuration for ctlmatch.
// ABOUTME: Exposes catalog matching and flattening tools to AI agents over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ctlmatch/internal/embeddings"
	"github.com/2389-research/ctlmatch/internal/logging"
	"github.com/2389-research/ctlmatch/internal/pipeline"
)

// Server wraps the MCP server with the embedding provider shared by all tool calls.
type Server struct {
	mcp      *gomcp.Server
	embedder embeddings.Embedder
	defaults pipeline.Options
	logger   *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithLogger sets the logger used for matching runs.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults sets the threshold and top-k used when a call omits them.
func WithDefaults(opts pipeline.Options) ServerOption {
	return func(s *Server) {
		s.defaults = opts
	}
}

// NewServer creates an MCP server backed by embedder. The embedder stays owned by the caller.
func NewServer(embedder embeddings.Embedder, opts ...ServerOption) (*Server, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "ctlmatch",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		embedder: embedder,
		defaults: pipeline.DefaultOptions(),
		logger:   logging.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerMatchTools()
	s.registerCatalogTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
