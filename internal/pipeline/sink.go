package pipeline

import (
	"sync"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/fulltext"
)

// RelationshipGraph holds the resolved Relationship edges emitted by
// COLLECT, indexed for the structural graph queries (callers / callees /
// implementors / impact) the overview names. Nothing in the component
// table names a dedicated graph-storage module, so this in-memory
// adjacency index is the pipeline's own minimal answer: every edge is
// cheap to hold in memory (a few machine words). The graph is not
// persisted and symbol docs carry no edges, so it is repopulated only by
// running the pipeline again.
type RelationshipGraph struct {
	mu       sync.RWMutex
	outgoing map[core.SymbolId][]core.Relationship
	incoming map[core.SymbolId][]core.Relationship
}

// NewRelationshipGraph returns an empty graph.
func NewRelationshipGraph() *RelationshipGraph {
	return &RelationshipGraph{
		outgoing: make(map[core.SymbolId][]core.Relationship),
		incoming: make(map[core.SymbolId][]core.Relationship),
	}
}

// Add indexes rels by both endpoints.
func (g *RelationshipGraph) Add(rels []core.Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range rels {
		g.outgoing[r.From] = append(g.outgoing[r.From], r)
		g.incoming[r.To] = append(g.incoming[r.To], r)
	}
}

// Callees returns the edges originating at id (what id calls/extends/...).
func (g *RelationshipGraph) Callees(id core.SymbolId) []core.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]core.Relationship(nil), g.outgoing[id]...)
}

// Callers returns the edges terminating at id (what calls/extends/... id).
func (g *RelationshipGraph) Callers(id core.SymbolId) []core.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]core.Relationship(nil), g.incoming[id]...)
}

// Store is the INDEX/EMBED stage's write target: a full-text index for
// symbol metadata, an embedding generator plus vector writer for the
// Embed Stage, and the relationship graph. Commit batches both the
// full-text and vector stores together, matching the documented
// "commits both stores: text commit+reload; vector sync" step.
type Store struct {
	FullText  *fulltext.Index
	Generator embedstage.EmbeddingGenerator
	Vectors   embedstage.VectorWriter
	Graph     *RelationshipGraph
}

// indexBatch writes one IndexBatch's symbol docs into the full-text index
// (staged, not yet committed) and its relationships into the graph, then
// embeds and writes its embed texts into the vector store.
func (s *Store) indexBatch(batch *IndexBatch) (embedstage.EmbedStats, error) {
	for _, sym := range batch.Symbols {
		doc := fulltext.Document{
			DocType:    fulltext.DocTypeSymbol,
			SymbolID:   uint64(sym.ID),
			Name:       sym.Name,
			Kind:       string(sym.Kind),
			FilePath:   batch.FilePaths[sym.File],
			ModulePath: sym.ModulePath,
			Signature:  sym.Signature,
			DocComment: sym.DocComment,
			Visibility: string(sym.Visibility),
			StartLine:  uint64(sym.Range.StartLine),
		}
		if err := s.FullText.AddDocument(fulltext.SymbolAddress(uint64(sym.ID)), doc); err != nil {
			return embedstage.EmbedStats{}, err
		}
	}

	s.Graph.Add(batch.Relationships)

	return embedstage.EmbedAndStore(batch.EmbedTexts, s.Generator, s.Vectors, embedstage.SymbolBatchSize)
}

// commit applies the full-text index's staged batch and reloads its
// generation counter. Vector writes are already durable the moment
// WriteBatch returns (the vector store has no separate commit phase), so
// "vector sync" per the documented step is a no-op here.
func (s *Store) commit() error {
	if err := s.FullText.Commit(); err != nil {
		return err
	}
	s.FullText.Reload()
	return nil
}
