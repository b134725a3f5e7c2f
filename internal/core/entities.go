package core

// SymbolKind enumerates the kinds of symbol the parser front-end can emit.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindTypeAlias SymbolKind = "type_alias"
	KindVariable  SymbolKind = "variable"
	KindConstant  SymbolKind = "constant"
	KindModule    SymbolKind = "module"
	KindMacro     SymbolKind = "macro"
	KindInterface SymbolKind = "interface"
	KindClass     SymbolKind = "class"
	KindField     SymbolKind = "field"
	KindParameter SymbolKind = "parameter"
)

// Visibility enumerates how widely a symbol is exposed.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityCrate   Visibility = "crate"  // module-internal
	VisibilityModule  Visibility = "module" // package-internal
	VisibilityPrivate Visibility = "private"
)

// Range is a half-open span of 0-based line/column positions covering a
// full declaration.
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Contains reports whether r fully contains o — used to validate that a
// relationship's FromRange lies within the ranges emitted for a file.
func (r Range) Contains(o Range) bool {
	if o.StartLine < r.StartLine || o.EndLine > r.EndLine {
		return false
	}
	if o.StartLine == r.StartLine && o.StartCol < r.StartCol {
		return false
	}
	if o.EndLine == r.EndLine && o.EndCol > r.EndCol {
		return false
	}
	return true
}

// Symbol is the immutable-within-a-commit record produced by COLLECT from
// a RawSymbol once an id has been assigned.
type Symbol struct {
	ID          SymbolId
	Name        string
	Kind        SymbolKind
	File        FileId
	Range       Range
	Visibility  Visibility
	ModulePath  string // empty means "not resolved"
	Signature   string
	DocComment  string
}

// RelationshipKind enumerates the edges the parser and the resolver can
// establish between two symbols.
type RelationshipKind string

const (
	RelCalls      RelationshipKind = "calls"
	RelExtends    RelationshipKind = "extends"
	RelImplements RelationshipKind = "implements"
	RelUses       RelationshipKind = "uses"
	RelDefines    RelationshipKind = "defines"
)

// Relationship is an edge between two resolved symbols. FromRange is
// mandatory: it is what distinguishes two call sites of the same
// overloaded or repeated name.
type Relationship struct {
	From      SymbolId
	To        SymbolId
	Kind      RelationshipKind
	FromRange Range
}

// RawSymbol is what a LanguageParser emits for one declaration, before any
// id has been assigned. Parsing must stay ID-free so COLLECT is the only
// stage that needs cross-file coordination.
type RawSymbol struct {
	Name       string
	Kind       SymbolKind
	Range      Range
	Visibility Visibility
	Signature  string
	DocComment string
}

// RawRelationship names symbols by string until COLLECT resolves them to
// ids via the per-file symbol table (and, for cross-file references, the
// resolver + import list).
type RawRelationship struct {
	FromName  string
	ToName    string
	Kind      RelationshipKind
	FromRange Range
}

// RawImport is one import/use statement extracted by the parser front-end.
type RawImport struct {
	Path    string
	Alias   string
	IsGlob  bool
}

// FileState tracks what a file currently owns in the index, so a
// re-ingest knows exactly what to tombstone before emitting new ids.
type FileState struct {
	Path              string
	CollectionOrLang  string
	ContentHash       string // SHA-256 hex
	OwnedSymbolIDs    []SymbolId
	OwnedChunkIDs     []ChunkId
	LastIndexed       uint64 // unix seconds
	Mtime             uint64 // unix seconds
	Size              int64
}

// Chunk is a retrievable slice of a document collection's source text.
type Chunk struct {
	ID              ChunkId
	Collection      CollectionId
	SourcePath      string
	ByteStart       int
	ByteEnd         int
	HeadingContext  []string
	Content         string
	CharCount       int
}

// RawChunk is what the chunker emits for one slice of a document, before
// any id has been assigned. Stays ID-free for the same reason RawSymbol
// does: chunking runs per-file, id allocation is the pipeline's job.
type RawChunk struct {
	ByteStart      int
	ByteEnd        int
	HeadingContext []string
	Content        string
}

// Cluster is one k-means centroid plus the vectors currently assigned to
// it (the assignment itself lives in the clustering package's index, not
// here, since it changes on every rebuild).
type Cluster struct {
	ID       ClusterId
	Centroid []float32
}

// ResolutionRules is what one provider derives from a single build-config
// file (tsconfig.json, go.mod, pyproject.toml, ...).
type ResolutionRules struct {
	BaseURL string            // optional; "" means unset
	Paths   map[string][]string // sourceRootDir -> [prefix,...]
}

// ResolutionIndex is the full per-language cache persisted to
// .codanna/index/resolvers/<lang>_resolution.json.
type ResolutionIndex struct {
	// Mappings maps a glob pattern ("<dir>/**/*.<ext>") to the config path
	// that governs files under it.
	Mappings map[string]string
	// Rules maps a config path to the rules parsed from it.
	Rules map[string]ResolutionRules
	// Hashes maps a config path to the SHA-256 hex of its last-seen content.
	Hashes map[string]string
}

// NewResolutionIndex returns an empty, ready-to-populate index.
func NewResolutionIndex() *ResolutionIndex {
	return &ResolutionIndex{
		Mappings: make(map[string]string),
		Rules:    make(map[string]ResolutionRules),
		Hashes:   make(map[string]string),
	}
}
