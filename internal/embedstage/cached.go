package embedstage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds a CachedGenerator's in-memory entry count. At 768
// dimensions * 4 bytes * 4096 entries, that's roughly 12MB resident.
const DefaultCacheSize = 4096

// CachedGenerator wraps an EmbeddingGenerator with an LRU cache keyed by a
// hash of (modelKey, text), so re-indexing an unchanged symbol or re-running
// the same search query never re-embeds text it has already seen this
// process's lifetime.
type CachedGenerator struct {
	inner    EmbeddingGenerator
	modelKey string
	cache    *lru.Cache[string, []float32]
}

// NewCachedGenerator wraps inner. modelKey namespaces the cache so switching
// embedding models never returns a stale vector computed by a different one.
func NewCachedGenerator(inner EmbeddingGenerator, modelKey string, cacheSize int) *CachedGenerator {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedGenerator{inner: inner, modelKey: modelKey, cache: cache}
}

func (c *CachedGenerator) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.modelKey + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// GenerateEmbeddings implements EmbeddingGenerator, serving cached vectors
// and batching only the texts that missed.
func (c *CachedGenerator) GenerateEmbeddings(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.GenerateEmbeddings(missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		out[idx] = vectors[j]
		c.cache.Add(c.cacheKey(missTexts[j]), vectors[j])
	}
	return out, nil
}

// availabilityReporter is satisfied by both StaticGenerator and
// OllamaGenerator; Available passes through to it when present, and
// reports true otherwise (matching StaticGenerator's always-ready contract).
type availabilityReporter interface {
	Available(ctx context.Context) bool
}

// Available passes through to the wrapped generator when it reports
// availability itself.
func (c *CachedGenerator) Available(ctx context.Context) bool {
	if r, ok := c.inner.(availabilityReporter); ok {
		return r.Available(ctx)
	}
	return true
}

// Close releases the wrapped generator's resources, if it has any to
// release.
func (c *CachedGenerator) Close() error {
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
