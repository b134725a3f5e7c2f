// Package search implements the hybrid search engine (component §4.7): a
// boolean-AND full-text candidate filter rescored by cosine similarity
// against the vector store, with a cluster-narrowed variant for
// collection-wide semantic search.
package search

import (
	"context"
	"math"
	"sort"

	"github.com/codanna-go/codanna/internal/cluster"
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
	"github.com/codanna-go/codanna/internal/fulltext"
)

// candidateLimit caps how many full-text hits feed a single rescoring pass.
const candidateLimit = 10000

// defaultTopClusters is how many nearest clusters SemanticSearchDocs probes;
// a full scan is used only when there are no cluster centroids.
const defaultTopClusters = 10

// EmbeddingGenerator produces embeddings for query text. Implemented by
// internal/embedstage.
type EmbeddingGenerator interface {
	GenerateEmbeddings(texts []string) ([][]float32, error)
}

// VectorReader resolves a vector id to its stored embedding. Satisfied by
// *internal/vectorstore.Segment.
type VectorReader interface {
	ReadVector(id core.VectorId) ([]float32, bool, error)
}

// Engine runs hybrid search queries against one full-text index and one
// vector reader.
type Engine struct {
	fulltext    *fulltext.Index
	vectors     VectorReader
	embedder    EmbeddingGenerator
	clusters    cluster.Result
	topClusters int
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithEmbedder enables semantic rescoring; without it, Search falls back to
// text-order candidates with a zero score.
func WithEmbedder(g EmbeddingGenerator) Option {
	return func(e *Engine) { e.embedder = g }
}

// WithClusters supplies the clustering pass's output for SemanticSearchDocs
// to narrow its scan to the nearest clusters.
func WithClusters(c cluster.Result) Option {
	return func(e *Engine) { e.clusters = c }
}

// WithTopClusters overrides how many nearest clusters SemanticSearchDocs
// probes (default 10).
func WithTopClusters(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topClusters = n
		}
	}
}

// New builds an Engine over index and vectors, applying opts.
func New(index *fulltext.Index, vectors VectorReader, opts ...Option) *Engine {
	e := &Engine{fulltext: index, vectors: vectors, topClusters: defaultTopClusters}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query is one hybrid-search request.
type Query struct {
	Text       string
	DocType    fulltext.DocType
	Collection string
	SourcePath string
	Limit      int
	Preview    PreviewConfig
}

// Result is one ranked hit with its rendered preview.
type Result struct {
	Address fulltext.DocAddress
	Score   float64
	Content string
	Preview string
}

type scoredAddress struct {
	address fulltext.DocAddress
	score   float64
}

// Search implements the documented algorithm: build a boolean-AND of
// doc_type/collection/source_path on the full-text index to fetch
// candidates, then, if an embedder is configured, embed the query once and
// rescore every candidate by cosine similarity against its stored vector;
// otherwise return candidates in the full-text engine's own order with
// score 0.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	addresses, err := e.fulltext.Filter(ctx, fulltext.FilterCriteria{
		DocType:        q.DocType,
		CollectionName: q.Collection,
		SourcePath:     q.SourcePath,
		Limit:          candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	if e.embedder == nil {
		ranked := make([]scoredAddress, len(addresses))
		for i, address := range addresses {
			ranked[i] = scoredAddress{address: address}
		}
		return e.buildResults(ranked, q, limit)
	}

	queryVector, err := e.embedQuery(q.Text)
	if err != nil {
		return nil, err
	}

	ranked := e.rescore(addresses, queryVector)
	return e.buildResults(ranked, q, limit)
}

// SemanticSearchDocs embeds queryText and rescores against the nearest
// clusters' member vectors, merging and truncating to limit. If no
// clustering pass has run yet (Engine has no centroids), it falls back to
// a full scan over every candidate of docType.
func (e *Engine) SemanticSearchDocs(ctx context.Context, docType fulltext.DocType, queryText string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	if e.embedder == nil {
		return nil, errors.New("search", errors.CodeFullTextEngine, "semantic search requires an embedding generator", nil)
	}

	queryVector, err := e.embedQuery(queryText)
	if err != nil {
		return nil, err
	}

	addresses, err := e.fulltext.Filter(ctx, fulltext.FilterCriteria{DocType: docType, Limit: candidateLimit})
	if err != nil {
		return nil, err
	}

	if len(e.clusters.Centroids) == 0 {
		ranked := e.rescore(addresses, queryVector)
		return e.buildResults(ranked, Query{Text: queryText, Preview: DefaultPreviewConfig()}, limit)
	}

	wanted := e.nearestClusters(queryVector)
	narrowed := make([]fulltext.DocAddress, 0, len(addresses))
	for _, address := range addresses {
		_, rawID, ok := fulltext.ParseAddress(address)
		if !ok {
			continue
		}
		vectorID, err := core.NewVectorId(uint32(rawID))
		if err != nil {
			continue
		}
		clusterID, known := e.clusters.Assignments[vectorID]
		if known && wanted[clusterID] {
			narrowed = append(narrowed, address)
		}
	}

	ranked := e.rescore(narrowed, queryVector)
	return e.buildResults(ranked, Query{Text: queryText, Preview: DefaultPreviewConfig()}, limit)
}

func (e *Engine) embedQuery(text string) ([]float32, error) {
	vectors, err := e.embedder.GenerateEmbeddings([]string{text})
	if err != nil {
		return nil, errors.Wrap("search", errors.CodeFullTextEngine, err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("search", errors.CodeFullTextEngine, "embedder returned no vectors", nil)
	}
	query := append([]float32(nil), vectors[0]...)
	normalize(query)
	return query, nil
}

// nearestClusters picks the topClusters centroids closest to queryVector.
func (e *Engine) nearestClusters(queryVector []float32) map[core.ClusterId]bool {
	type candidate struct {
		id    int
		score float32
	}
	candidates := make([]candidate, len(e.clusters.Centroids))
	for i, centroid := range e.clusters.Centroids {
		candidates[i] = candidate{id: i, score: cosineSimilarity(queryVector, centroid)}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	top := e.topClusters
	if top > len(candidates) {
		top = len(candidates)
	}

	wanted := make(map[core.ClusterId]bool, top)
	for _, c := range candidates[:top] {
		if clusterID, err := core.NewClusterId(uint32(c.id + 1)); err == nil {
			wanted[clusterID] = true
		}
	}
	return wanted
}

// rescore reads each candidate's vector and scores it by cosine similarity
// against queryVector, descending, dropping candidates with no vector.
func (e *Engine) rescore(addresses []fulltext.DocAddress, queryVector []float32) []scoredAddress {
	scored := make([]scoredAddress, 0, len(addresses))
	for _, address := range addresses {
		_, rawID, ok := fulltext.ParseAddress(address)
		if !ok {
			continue
		}
		vectorID, err := core.NewVectorId(uint32(rawID))
		if err != nil {
			continue
		}
		vec, found, err := e.vectors.ReadVector(vectorID)
		if err != nil || !found {
			continue
		}
		scored = append(scored, scoredAddress{address: address, score: float64(cosineSimilarity(queryVector, vec))})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

// buildResults fetches each ranked candidate's stored document and renders
// its preview, truncating to limit.
func (e *Engine) buildResults(ranked []scoredAddress, q Query, limit int) ([]Result, error) {
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]Result, 0, len(ranked))
	for _, r := range ranked {
		doc, ok, err := e.fulltext.Get(r.address)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		content := doc.Content
		if content == "" {
			content = doc.Signature
		}
		results = append(results, Result{
			Address: r.address,
			Score:   r.score,
			Content: content,
			Preview: generatePreview(content, q.Text, q.Preview),
		})
	}
	return results, nil
}

// cosineSimilarity assumes both vectors are already L2-normalized (the
// vector store's write contract), reducing similarity to a plain dot
// product.
func cosineSimilarity(a, b []float32) float32 {
	var dot float32
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
