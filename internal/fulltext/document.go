package fulltext

import "strconv"

// DocType distinguishes the two document shapes the index holds, per the
// doc_type facet every document carries.
type DocType string

const (
	DocTypeSymbol DocType = "symbol"
	DocTypeChunk  DocType = "chunk"
)

// DocAddress identifies one indexed document. It is the bleve document ID:
// "symbol:<id>" or "chunk:<id>", so a search hit can be mapped straight back
// to a core.SymbolId/core.ChunkId without a side lookup.
type DocAddress string

// SymbolAddress builds the address for a symbol document.
func SymbolAddress(id uint64) DocAddress {
	return DocAddress("symbol:" + strconv.FormatUint(id, 10))
}

// ChunkAddress builds the address for a chunk document.
func ChunkAddress(id uint64) DocAddress {
	return DocAddress("chunk:" + strconv.FormatUint(id, 10))
}

// Document is the full-text schema: the union of the symbol-doc and
// chunk-doc fields. A given document populates only the fields relevant to
// its DocType; the rest are left zero and omitted on index via `omitempty`.
type Document struct {
	DocType DocType `json:"doc_type"`

	// Symbol-doc fields.
	SymbolID   uint64 `json:"symbol_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Kind       string `json:"kind,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	ModulePath string `json:"module_path,omitempty"`
	Signature  string `json:"signature,omitempty"`
	DocComment string `json:"doc_comment,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	StartLine  uint64 `json:"start_line,omitempty"`

	// Chunk-doc fields, additional to the symbol-doc fields above.
	ChunkID        uint64   `json:"chunk_id,omitempty"`
	CollectionName string   `json:"collection_name,omitempty"`
	SourcePath     string   `json:"source_path,omitempty"`
	HeadingContext []string `json:"heading_context,omitempty"`
	Content        string   `json:"content,omitempty"`
	ContentPreview string   `json:"content_preview,omitempty"`
	ByteStart      uint64   `json:"byte_start,omitempty"`
	ByteEnd        uint64   `json:"byte_end,omitempty"`
	CharCount      uint64   `json:"char_count,omitempty"`
	IndexedAt      uint64   `json:"indexed_at,omitempty"`
}

// storedDoc is what actually gets indexed: the document's searchable
// fields plus an opaque JSON copy of itself in an unindexed "source"
// field. Bleve has no built-in "give me the original struct back"
// operation, only per-field stored values, so Get reconstructs Document
// from this one stored blob instead of recomposing it field by field.
type storedDoc struct {
	Document
	Source string `json:"source"`
}
