package fulltext

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/codanna-go/codanna/internal/errors"
)

// candidateLimit bounds how many candidate IDs a boolean-AND filter or a
// delete_by_term sweep fetches in one pass.
const candidateLimit = 10000

// Search runs a free-text query across every IncludeInAll text field
// (name, module_path, signature, doc_comment, content, content_preview),
// returning hits ranked by bleve's BM25-derived score.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	result, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}

	out := make([]Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		out = append(out, Result{Score: hit.Score, Address: DocAddress(hit.ID)})
	}
	return out, nil
}

// FilterCriteria is one boolean-AND candidate filter: doc_type is always
// required, CollectionName and SourcePath are applied only when non-empty.
type FilterCriteria struct {
	DocType        DocType
	CollectionName string
	SourcePath     string
	Limit          int
}

// Filter returns every document address matching criteria, the candidate
// set the hybrid search engine rescores against vectors. doc_type is
// mandatory; CollectionName/SourcePath narrow it further when set.
func (idx *Index) Filter(ctx context.Context, criteria FilterCriteria) ([]DocAddress, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}

	limit := criteria.Limit
	if limit <= 0 || limit > candidateLimit {
		limit = candidateLimit
	}

	queries := []bleve.Query{termQuery("doc_type", string(criteria.DocType))}
	if criteria.CollectionName != "" {
		queries = append(queries, termQuery("collection_name", criteria.CollectionName))
	}
	if criteria.SourcePath != "" {
		queries = append(queries, termQuery("source_path", criteria.SourcePath))
	}

	conjunction := bleve.NewConjunctionQuery(queries...)
	req := bleve.NewSearchRequest(conjunction)
	req.Size = limit
	result, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}

	addresses := make([]DocAddress, 0, len(result.Hits))
	for _, hit := range result.Hits {
		addresses = append(addresses, DocAddress(hit.ID))
	}
	return addresses, nil
}

// Get retrieves the full Document stored at address, reconstructed from
// its "source" JSON field. ok is false if no document is stored there.
func (idx *Index) Get(address DocAddress) (Document, bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return Document{}, false, errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}

	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{string(address)}))
	req.Fields = []string{"source"}
	req.Size = 1
	result, err := idx.index.Search(req)
	if err != nil {
		return Document{}, false, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	if len(result.Hits) == 0 {
		return Document{}, false, nil
	}

	raw, ok := result.Hits[0].Fields["source"].(string)
	if !ok {
		return Document{}, false, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, false, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	return doc, true, nil
}

// FindSymbolByName returns every symbol document whose name exactly
// matches name, the candidate set for an exact symbol lookup (as opposed
// to Search's ranked free-text match).
func (idx *Index) FindSymbolByName(name string) ([]Document, error) {
	idx.mu.Lock()
	if idx.closed {
		idx.mu.Unlock()
		return nil, errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}
	// name is an analyzed field, so match on its tokens and keep only the
	// documents whose stored name equals name exactly.
	q := bleve.NewMatchQuery(name)
	q.SetField("name")
	req := bleve.NewSearchRequest(q)
	req.Size = candidateLimit
	result, err := idx.index.Search(req)
	idx.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}

	docs := make([]Document, 0, len(result.Hits))
	for _, hit := range result.Hits {
		doc, ok, err := idx.Get(DocAddress(hit.ID))
		if err != nil {
			return nil, err
		}
		if ok && doc.Name == name {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// AllIDs returns every document address in the index, for consistency
// checks against the vector store and document store.
func (idx *Index) AllIDs() ([]DocAddress, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}

	count, _ := idx.index.DocCount()
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{}

	result, err := idx.index.Search(req)
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}

	addresses := make([]DocAddress, len(result.Hits))
	for i, hit := range result.Hits {
		addresses[i] = DocAddress(hit.ID)
	}
	return addresses, nil
}

// termMatchesLocked fetches up to limit document addresses whose field
// exactly equals value. Caller must hold idx.mu.
func (idx *Index) termMatchesLocked(field, value string, limit int) ([]DocAddress, error) {
	req := bleve.NewSearchRequest(termQuery(field, value))
	req.Size = limit
	result, err := idx.index.Search(req)
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	addresses := make([]DocAddress, len(result.Hits))
	for i, hit := range result.Hits {
		addresses[i] = DocAddress(hit.ID)
	}
	return addresses, nil
}

func termQuery(field, value string) bleve.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

// ParseAddress splits a DocAddress back into its doc type prefix and
// numeric id, for callers that need the underlying SymbolId/ChunkId out of
// a search hit.
func ParseAddress(address DocAddress) (docType DocType, id uint64, ok bool) {
	prefix, numeric, found := strings.Cut(string(address), ":")
	if !found {
		return "", 0, false
	}
	parsed, err := strconv.ParseUint(numeric, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return DocType(prefix), parsed, true
}
