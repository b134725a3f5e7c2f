package mcpserver

// SymbolLookupInput is the input schema for the symbol_lookup tool: exact
// symbol lookup by name, spec.md's first query class.
type SymbolLookupInput struct {
	Name string `json:"name" jsonschema:"exact symbol name to look up"`
}

// SymbolInfo describes one resolved symbol.
type SymbolInfo struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	FilePath   string `json:"file_path"`
	ModulePath string `json:"module_path,omitempty"`
	Signature  string `json:"signature,omitempty"`
	DocComment string `json:"doc_comment,omitempty"`
	StartLine  uint64 `json:"start_line,omitempty"`
}

// SymbolLookupOutput is the output schema for symbol_lookup.
type SymbolLookupOutput struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// GraphQueryInput is the input schema shared by the structural graph
// query tools (find_callers, find_callees, find_implementations).
type GraphQueryInput struct {
	SymbolID uint64 `json:"symbol_id" jsonschema:"id of the symbol returned by symbol_lookup"`
}

// RelatedSymbol is one edge of a structural graph query, resolved to its
// target symbol's metadata.
type RelatedSymbol struct {
	Relation string     `json:"relation" jsonschema:"calls, extends, implements, uses, or defines"`
	Symbol   SymbolInfo `json:"symbol"`
}

// GraphQueryOutput is the output schema for find_callers/find_callees/
// find_implementations.
type GraphQueryOutput struct {
	Related []RelatedSymbol `json:"related"`
}

// ImpactInput is the input schema for find_impact: the transitive closure
// of callers up to Depth hops (default 3).
type ImpactInput struct {
	SymbolID uint64 `json:"symbol_id" jsonschema:"id of the symbol returned by symbol_lookup"`
	Depth    int    `json:"depth,omitempty" jsonschema:"maximum number of caller hops to traverse, default 3"`
}

// ImpactedSymbol is one symbol reachable from the queried symbol by
// following callers, annotated with how many hops away it is.
type ImpactedSymbol struct {
	Symbol SymbolInfo `json:"symbol"`
	Depth  int        `json:"depth"`
}

// ImpactOutput is the output schema for find_impact.
type ImpactOutput struct {
	Impacted  []ImpactedSymbol `json:"impacted"`
	Truncated bool             `json:"truncated,omitempty" jsonschema:"true if traversal stopped at the depth limit with more callers remaining"`
}

// SearchCodeInput is the input schema for search_code, spec.md's semantic
// search query class scoped to code symbols.
type SearchCodeInput struct {
	Query string `json:"query" jsonschema:"the code search query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchResult is one ranked hybrid-search hit.
type SearchResult struct {
	Score     float64 `json:"score" jsonschema:"relevance score, 0 to 1"`
	Preview   string  `json:"preview"`
	Name      string  `json:"name,omitempty"`
	FilePath  string  `json:"file_path,omitempty"`
	Signature string  `json:"signature,omitempty"`
}

// SearchCodeOutput is the output schema for search_code.
type SearchCodeOutput struct {
	Results []SearchResult `json:"results"`
}

// SearchDocsInput is the input schema for search_docs, semantic search
// scoped to one document collection.
type SearchDocsInput struct {
	Collection string `json:"collection" jsonschema:"name of the document collection to search"`
	Query      string `json:"query" jsonschema:"the documentation search query to execute"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// SearchDocsOutput is the output schema for search_docs.
type SearchDocsOutput struct {
	Results []SearchResult `json:"results"`
}

// IndexStatusInput is the input schema for index_status (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput reports the current state of the code index and, when
// an embedder is wired, its capability status.
type IndexStatusOutput struct {
	RootPath          string `json:"root_path"`
	SymbolCount       uint64 `json:"symbol_count"`
	Generation        uint64 `json:"generation"`
	SemanticAvailable bool   `json:"semantic_available"`
}
