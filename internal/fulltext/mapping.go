package fulltext

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/codanna-go/codanna/internal/errors"
)

// buildIndexMapping constructs the field schema shared by symbol and chunk
// documents: searched text fields use the identifier-aware analyzer, fields
// only ever used for boolean-AND filtering or delete_by_term (doc_type,
// kind, visibility, collection_name, source_path, file_path) are mapped as
// unanalyzed keywords so a term lookup matches the stored value exactly,
// and numeric fields stay sortable/range-queryable.
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()
	if err := registerIdentifierAnalyzer(indexMapping); err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	indexMapping.DefaultAnalyzer = identifierAnalyzerName

	doc := bleve.NewDocumentMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.IncludeInAll = false

	text := bleve.NewTextFieldMapping()
	text.Analyzer = identifierAnalyzerName
	text.Store = true

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true
	stored.IncludeInAll = false

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true
	numeric.IncludeInAll = false

	doc.AddFieldMappingsAt("doc_type", keyword)
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("visibility", keyword)
	doc.AddFieldMappingsAt("collection_name", keyword)
	doc.AddFieldMappingsAt("source_path", keyword)
	doc.AddFieldMappingsAt("file_path", keyword)

	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("module_path", text)
	doc.AddFieldMappingsAt("signature", text)
	doc.AddFieldMappingsAt("doc_comment", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("content_preview", text)

	doc.AddFieldMappingsAt("heading_context", stored)
	doc.AddFieldMappingsAt("source", stored)

	doc.AddFieldMappingsAt("symbol_id", numeric)
	doc.AddFieldMappingsAt("chunk_id", numeric)
	doc.AddFieldMappingsAt("start_line", numeric)
	doc.AddFieldMappingsAt("byte_start", numeric)
	doc.AddFieldMappingsAt("byte_end", numeric)
	doc.AddFieldMappingsAt("char_count", numeric)
	doc.AddFieldMappingsAt("indexed_at", numeric)

	indexMapping.DefaultMapping = doc
	return indexMapping, nil
}
