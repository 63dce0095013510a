package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/scorecache/internal/bundle"
	"github.com/dshills/scorecache/internal/indexer"
)

const (
	// ServerName is the MCP server name
	ServerName = "scorecache"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Options configures a Server
type Options struct {
	CorpusRoot string // Default root for rebuilds without explicit paths
	Parallel   bool   // Default rebuild strategy
	Logger     *slog.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	registry *bundle.Registry
	opts     Options
	logger   *slog.Logger

	rebuilding indexer.RebuildLock
	// mu guards bundle mutation (incremental rebuilds, validation)
	// against concurrent searches
	mu sync.RWMutex
}

// NewServer creates a new MCP server over registry
func NewServer(registry *bundle.Registry, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "mcp")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(rebuildBundleTool(), s.handleRebuildBundle)
	s.mcp.AddTool(searchBundleTool(), s.handleSearchBundle)
	s.mcp.AddTool(bundleStatusTool(), s.handleBundleStatus)
	s.mcp.AddTool(validateBundleTool(), s.handleValidateBundle)
	s.mcp.AddTool(listSearchFieldsTool(), s.handleListSearchFields)
}
