// Package embedstage batches text through an EmbeddingGenerator and writes
// the resulting vectors into a vector store segment, the Embed Stage
// (component §4.8).
package embedstage

import (
	"fmt"
	"strings"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
	"github.com/codanna-go/codanna/internal/vectorstore"
)

// SymbolBatchSize and DocumentBatchSize are the batch sizes embed_and_store
// uses for symbols and documents respectively.
const (
	SymbolBatchSize   = 256
	DocumentBatchSize = 64
)

// EmbeddingGenerator produces embeddings for a batch of texts. Satisfied by
// StaticGenerator and OllamaGenerator.
type EmbeddingGenerator interface {
	GenerateEmbeddings(texts []string) ([][]float32, error)
}

// VectorWriter writes embedded vectors into a vector store. Satisfied by
// *vectorstore.Segment.
type VectorWriter interface {
	WriteBatch(entries []vectorstore.Entry) error
}

// EmbedStats summarizes one embed_and_store call.
type EmbedStats struct {
	Requested int
	Embedded  int
	Dropped   int
}

// EmbedAndStore embeds each (id, text) pair in batches of batchSize, drops
// any pair whose id is zero (VectorId.New rejects zero), and writes the
// surviving pairs through writer.
func EmbedAndStore(pairs []Pair, generator EmbeddingGenerator, writer VectorWriter, batchSize int) (EmbedStats, error) {
	if batchSize <= 0 {
		batchSize = SymbolBatchSize
	}

	stats := EmbedStats{Requested: len(pairs)}

	for start := 0; start < len(pairs); start += batchSize {
		end := start + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := generator.GenerateEmbeddings(texts)
		if err != nil {
			return stats, errors.Wrap("embedstage", errors.CodeEmbedGenerate, err)
		}
		if len(vectors) != len(batch) {
			return stats, errors.New("embedstage", errors.CodeEmbedGenerate,
				fmt.Sprintf("generator returned %d vectors for %d texts", len(vectors), len(batch)), nil)
		}

		entries := make([]vectorstore.Entry, 0, len(batch))
		for i, p := range batch {
			vectorID, err := core.NewVectorId(p.RawID)
			if err != nil {
				stats.Dropped++
				continue
			}
			entries = append(entries, vectorstore.Entry{ID: vectorID, Vector: vectors[i]})
		}

		if len(entries) > 0 {
			if err := writer.WriteBatch(entries); err != nil {
				return stats, err
			}
		}
		stats.Embedded += len(entries)
	}

	return stats, nil
}

// Pair is one (id, text) pair queued for embedding. RawID is the numeric
// value of the owning SymbolId or ChunkId; it is validated against
// core.NewVectorId inside EmbedAndStore, matching the documented "drop IDs
// for which VectorId::new fails" rule.
type Pair struct {
	RawID uint32
	Text  string
}

// SymbolEmbedText renders the fixed embedding-text template for a symbol:
// "{kind_lower} {name}[ {signature}][ {doc_comment}]".
func SymbolEmbedText(kind core.SymbolKind, name, signature, docComment string) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte(' ')
	b.WriteString(name)
	if signature != "" {
		b.WriteByte(' ')
		b.WriteString(signature)
	}
	if docComment != "" {
		b.WriteByte(' ')
		b.WriteString(docComment)
	}
	return b.String()
}
