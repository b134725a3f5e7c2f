package search

import "context"

// Reranker rescanners a result set with a cross-encoder model that jointly
// encodes query/document pairs for sharper relevance than the cosine
// rescoring Engine.Search already does. No Engine method calls a Reranker;
// it is an extension point for a future post-rescoring pass, not part of
// the documented search algorithm.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error)
	Available(ctx context.Context) bool
	Close() error
}

// RerankResult is one reranked document, indexed back to its position in
// the slice passed to Rerank.
type RerankResult struct {
	Index    int
	Score    float64
	Document string
}
