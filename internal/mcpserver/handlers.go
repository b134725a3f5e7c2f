package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/search"
)

// registerTools wires every MCP tool this server exposes: one per
// spec.md query class (exact lookup, structural graph, semantic search)
// plus index_status.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "symbol_lookup",
		Description: "Exact symbol lookup by name. Use when you already know the symbol's name and want its file, signature, and doc comment without a fuzzy search.",
	}, s.handleSymbolLookup)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_callers",
		Description: "Structural query: every symbol that calls, extends, implements, or uses the given symbol. Use to understand what depends on a symbol before changing it.",
	}, s.handleFindCallers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_callees",
		Description: "Structural query: every symbol the given symbol calls, extends, implements, or uses. Use to understand what a symbol depends on.",
	}, s.handleFindCallees)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_implementations",
		Description: "Structural query: every concrete type implementing the given interface or trait.",
	}, s.handleFindImplementations)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_impact",
		Description: "Structural query: the transitive closure of callers up to a given depth. Use to estimate blast radius before changing a symbol.",
	}, s.handleFindImpact)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over indexed code symbols. Use for fuzzy, meaning-based queries rather than exact names.",
	}, s.handleSearchCode)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_docs",
		Description: "Semantic search over one document collection. Use for architecture notes, guides, and other free-text documentation.",
	}, s.handleSearchDocs)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report current index size, generation, and whether semantic search is available.",
	}, s.handleIndexStatus)

	s.logger.Info("MCP tools registered", slog.Int("count", 8))
}

func (s *Server) handleSymbolLookup(_ context.Context, _ *mcp.CallToolRequest, input SymbolLookupInput) (
	*mcp.CallToolResult, SymbolLookupOutput, error,
) {
	if input.Name == "" {
		return nil, SymbolLookupOutput{}, newInvalidParamsError("name parameter is required")
	}

	docs, err := s.codeIndex.FindSymbolByName(input.Name)
	if err != nil {
		return nil, SymbolLookupOutput{}, mapError("symbol_lookup", err)
	}

	out := SymbolLookupOutput{Symbols: make([]SymbolInfo, 0, len(docs))}
	for _, doc := range docs {
		out.Symbols = append(out.Symbols, SymbolInfo{
			ID:         doc.SymbolID,
			Name:       doc.Name,
			Kind:       doc.Kind,
			FilePath:   doc.FilePath,
			ModulePath: doc.ModulePath,
			Signature:  doc.Signature,
			DocComment: doc.DocComment,
			StartLine:  doc.StartLine,
		})
	}
	return nil, out, nil
}

func (s *Server) handleFindCallers(_ context.Context, _ *mcp.CallToolRequest, input GraphQueryInput) (
	*mcp.CallToolResult, GraphQueryOutput, error,
) {
	id, err := core.NewSymbolId(uint32(input.SymbolID))
	if err != nil {
		return nil, GraphQueryOutput{}, newInvalidParamsError("symbol_id must be non-zero")
	}
	return nil, GraphQueryOutput{Related: s.callers(id)}, nil
}

func (s *Server) handleFindCallees(_ context.Context, _ *mcp.CallToolRequest, input GraphQueryInput) (
	*mcp.CallToolResult, GraphQueryOutput, error,
) {
	id, err := core.NewSymbolId(uint32(input.SymbolID))
	if err != nil {
		return nil, GraphQueryOutput{}, newInvalidParamsError("symbol_id must be non-zero")
	}
	return nil, GraphQueryOutput{Related: s.callees(id)}, nil
}

func (s *Server) handleFindImplementations(_ context.Context, _ *mcp.CallToolRequest, input GraphQueryInput) (
	*mcp.CallToolResult, GraphQueryOutput, error,
) {
	id, err := core.NewSymbolId(uint32(input.SymbolID))
	if err != nil {
		return nil, GraphQueryOutput{}, newInvalidParamsError("symbol_id must be non-zero")
	}
	return nil, GraphQueryOutput{Related: s.implementations(id)}, nil
}

func (s *Server) handleFindImpact(_ context.Context, _ *mcp.CallToolRequest, input ImpactInput) (
	*mcp.CallToolResult, ImpactOutput, error,
) {
	id, err := core.NewSymbolId(uint32(input.SymbolID))
	if err != nil {
		return nil, ImpactOutput{}, newInvalidParamsError("symbol_id must be non-zero")
	}
	impacted, truncated := s.impact(id, input.Depth)
	return nil, ImpactOutput{Impacted: impacted, Truncated: truncated}, nil
}

func (s *Server) handleSearchCode(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (
	*mcp.CallToolResult, SearchCodeOutput, error,
) {
	if input.Query == "" {
		return nil, SearchCodeOutput{}, newInvalidParamsError("query parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	results, err := s.codeEngine.Search(ctx, search.Query{
		Text:    input.Query,
		DocType: fulltext.DocTypeSymbol,
		Limit:   limit,
		Preview: search.DefaultPreviewConfig(),
	})
	if err != nil {
		return nil, SearchCodeOutput{}, mapError("search_code", err)
	}

	out := SearchCodeOutput{Results: make([]SearchResult, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, toSearchResult(s.codeIndex, r))
	}
	return nil, out, nil
}

func (s *Server) handleSearchDocs(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocsInput) (
	*mcp.CallToolResult, SearchDocsOutput, error,
) {
	if s.docs == nil {
		return nil, SearchDocsOutput{}, mapError("search_docs", errNilDependency("document store"))
	}
	if input.Query == "" {
		return nil, SearchDocsOutput{}, newInvalidParamsError("query parameter is required")
	}
	if input.Collection == "" {
		return nil, SearchDocsOutput{}, newInvalidParamsError("collection parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	reader, err := s.docs.VectorReader(input.Collection)
	if err != nil {
		return nil, SearchDocsOutput{}, mapError("search_docs", err)
	}

	engine := search.New(s.docs.FullText, reader, search.WithEmbedder(s.docs.Generator))
	results, err := engine.Search(ctx, search.Query{
		Text:       input.Query,
		DocType:    fulltext.DocTypeChunk,
		Collection: input.Collection,
		Limit:      limit,
		Preview:    search.DefaultPreviewConfig(),
	})
	if err != nil {
		return nil, SearchDocsOutput{}, mapError("search_docs", err)
	}

	out := SearchDocsOutput{Results: make([]SearchResult, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, SearchResult{Score: r.Score, Preview: r.Preview})
	}
	return nil, out, nil
}

func (s *Server) handleIndexStatus(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult, IndexStatusOutput, error,
) {
	stats := s.codeIndex.Stats()
	available := false
	if s.embedder != nil {
		available = s.embedder.Available(ctx)
	}
	return nil, IndexStatusOutput{
		RootPath:          s.rootPath,
		SymbolCount:       stats.DocumentCount,
		Generation:        stats.Generation,
		SemanticAvailable: available,
	}, nil
}

// toSearchResult renders a hybrid-search hit with the symbol metadata a
// code-search caller needs (name/file/signature), falling back to a bare
// preview when the underlying document can't be refetched.
func toSearchResult(idx *fulltext.Index, r search.Result) SearchResult {
	result := SearchResult{Score: r.Score, Preview: r.Preview}
	doc, ok, err := idx.Get(r.Address)
	if err != nil || !ok {
		return result
	}
	result.Name = doc.Name
	result.FilePath = doc.FilePath
	result.Signature = doc.Signature
	return result
}
