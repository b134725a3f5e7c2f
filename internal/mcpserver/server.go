// Package mcpserver implements the long-running MCP server surface: the
// three query classes spec.md names (exact symbol lookup, structural graph
// queries, semantic search) plus index status, exposed as MCP tools over
// github.com/modelcontextprotocol/go-sdk. Binds the Hybrid Search Engine
// (H), the Indexing Pipeline's relationship graph (J), and the Document
// Store (K) behind one tool table, grounded on the teacher's
// internal/mcp/server.go.
package mcpserver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/docstore"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/pipeline"
	"github.com/codanna-go/codanna/internal/search"
	"github.com/codanna-go/codanna/pkg/version"
)

// EmbedderStatus reports capability info about the active embedding
// generator, letting an MCP client adjust its own search strategy instead
// of discovering degraded semantic search only after empty results.
type EmbedderStatus interface {
	Available(ctx context.Context) bool
}

// Server is the MCP server binding the code search engine, the
// relationship graph, and the document store behind one tool table.
type Server struct {
	mcp *mcp.Server

	codeEngine *search.Engine
	codeIndex  *fulltext.Index
	graph      *pipeline.RelationshipGraph
	docs       *docstore.Store
	embedder   EmbedderStatus
	cfg        *config.Config
	rootPath   string
	logger     *slog.Logger

	mu sync.RWMutex
}

// New builds a Server. codeEngine/codeIndex serve symbol_lookup and
// search_code, graph serves the structural queries, docs (may be nil if
// document collections are disabled) serves search_docs, embedder (may be
// nil) is reported by index_status for capability signaling.
func New(codeEngine *search.Engine, codeIndex *fulltext.Index, graph *pipeline.RelationshipGraph, docs *docstore.Store, embedder EmbedderStatus, cfg *config.Config, rootPath string) (*Server, error) {
	if codeEngine == nil {
		return nil, errNilDependency("code search engine")
	}
	if codeIndex == nil {
		return nil, errNilDependency("code full-text index")
	}
	if graph == nil {
		return nil, errNilDependency("relationship graph")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		codeEngine: codeEngine,
		codeIndex:  codeIndex,
		graph:      graph,
		docs:       docs,
		embedder:   embedder,
		cfg:        cfg,
		rootPath:   rootPath,
		logger:     slog.Default(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "codanna",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server until ctx is canceled. Only the stdio transport is
// implemented; spec.md's Non-goals exclude the HTTP/OAuth surface, and
// stdio is what every MCP client (Claude Code, Cursor) actually speaks to
// a locally-spawned server.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped")
		return nil
	default:
		return errUnsupportedTransport(transport)
	}
}

// Close releases server resources. The SDK server itself has no handle to
// release; it stops when Serve's context is canceled.
func (s *Server) Close() error {
	return nil
}
