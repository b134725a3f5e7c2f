// Package fulltext implements the full-text inverted index (component G):
// add_document/delete_by_term/commit/reload/search over symbol and chunk
// documents, backed by github.com/blevesearch/bleve/v2.
package fulltext

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/codanna-go/codanna/internal/errors"
)

// Result is one search hit: a relevance score and the document it matched.
type Result struct {
	Score   float64
	Address DocAddress
}

// Stats summarizes index contents for consistency checks against the
// pipeline's own bookkeeping.
type Stats struct {
	DocumentCount uint64
	Generation    uint64
}

// Index wraps one bleve index with the two-phase commit/reload contract:
// AddDocument and DeleteByTerm stage changes into a pending batch, Commit
// applies the batch, and Reload is the point at which the generation
// counter advances — so a caller that commits but never reloads never
// observes the bump, matching "readers see the new generation only after
// commit and reload."
type Index struct {
	mu         sync.Mutex
	index      bleve.Index
	path       string
	closed     bool
	generation uint64
	pending    *bleve.Batch
}

// Open creates or opens a full-text index at path. An empty path creates an
// in-memory index, used for tests and ephemeral collections.
func Open(path string) (*Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}

	var bleveIndex bleve.Index
	if path == "" {
		bleveIndex, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, errors.Wrap("fulltext", errors.CodeFullTextDir, mkErr)
		}
		bleveIndex, err = openOrRecover(path, indexMapping)
	}
	if err != nil {
		return nil, errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}

	idx := &Index{index: bleveIndex, path: path}
	idx.pending = idx.index.NewBatch()
	return idx, nil
}

// openOrRecover opens an existing index, creates a fresh one if none exists
// yet, and rebuilds from scratch if the on-disk index is corrupt (a stale
// bolt/scorch store left behind by a killed process) rather than failing
// every subsequent startup on the same corrupt directory.
func openOrRecover(path string, indexMapping *mapping.IndexMappingImpl) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	switch {
	case err == nil:
		return idx, nil
	case err == bleve.ErrorIndexPathDoesNotExist:
		return bleve.New(path, indexMapping)
	case isCorruptionError(err):
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, removeErr
		}
		return bleve.New(path, indexMapping)
	default:
		return nil, err
	}
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// AddDocument stages doc under address, replacing any existing document at
// the same address. Not visible to search until Commit.
func (idx *Index) AddDocument(address DocAddress, doc Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}

	source, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	if err := idx.pending.Index(string(address), storedDoc{Document: doc, Source: string(source)}); err != nil {
		return errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	return nil
}

// DeleteByTerm stages deletion of every document whose field exactly
// matches value (an unanalyzed keyword field such as source_path or
// collection_name). Not applied until Commit.
func (idx *Index) DeleteByTerm(field, value string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}

	addresses, err := idx.termMatchesLocked(field, value, candidateLimit)
	if err != nil {
		return err
	}
	for _, address := range addresses {
		idx.pending.Delete(string(address))
	}
	return nil
}

// Commit applies every staged AddDocument/DeleteByTerm call to the index.
// It does not by itself advance the generation counter; call Reload after
// a successful Commit to do that.
func (idx *Index) Commit() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("fulltext", errors.CodeFullTextEngine, "index is closed", nil)
	}
	if idx.pending.Size() == 0 {
		return nil
	}
	if err := idx.index.Batch(idx.pending); err != nil {
		return errors.Wrap("fulltext", errors.CodeFullTextEngine, err)
	}
	idx.pending = idx.index.NewBatch()
	return nil
}

// Reload advances the generation counter, marking the point at which a
// prior Commit's writes are guaranteed visible to readers that check
// Generation() — the boundary the cache-warming step watches for.
func (idx *Index) Reload() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.generation++
	return idx.generation
}

// Generation returns the current generation counter without mutating it.
func (idx *Index) Generation() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.generation
}

// Stats reports current document count and generation.
func (idx *Index) Stats() Stats {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	count, _ := idx.index.DocCount()
	return Stats{DocumentCount: count, Generation: idx.generation}
}

// Close releases the underlying bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.index.Close()
}
