package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/cluster"
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/vectorstore"
)

// stubEmbedder returns a fixed vector for every text, regardless of input,
// so tests can control exactly which stored vector ends up "closest".
type stubEmbedder struct {
	vector []float32
}

func (s stubEmbedder) GenerateEmbeddings(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = append([]float32(nil), s.vector...)
	}
	return out, nil
}

func mustVec(t *testing.T, v uint32) core.VectorId {
	t.Helper()
	id, err := core.NewVectorId(v)
	require.NoError(t, err)
	return id
}

func newTestEngine(t *testing.T) (*Engine, *fulltext.Index, *vectorstore.Segment) {
	t.Helper()
	idx, err := fulltext.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	seg, err := vectorstore.Open(t.TempDir(), 1, 2)
	require.NoError(t, err)
	t.Cleanup(func() { seg.Close() })

	return New(idx, seg), idx, seg
}

func index(t *testing.T, idx *fulltext.Index, seg *vectorstore.Segment, id uint64, content string, vec []float32) {
	t.Helper()
	require.NoError(t, idx.AddDocument(fulltext.ChunkAddress(id), fulltext.Document{
		DocType: fulltext.DocTypeChunk, ChunkID: id, Content: content, SourcePath: "doc.md",
	}))
	require.NoError(t, idx.Commit())
	require.NoError(t, seg.WriteBatch([]vectorstore.Entry{{ID: mustVec(t, uint32(id)), Vector: vec}}))
}

func TestSearch_NoEmbedder_ReturnsCandidatesInTextOrderWithZeroScore(t *testing.T) {
	engine, idx, seg := newTestEngine(t)
	index(t, idx, seg, 1, "the quick fox", []float32{1, 0})

	results, err := engine.Search(context.Background(), Query{DocType: fulltext.DocTypeChunk, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, float64(0), results[0].Score)
}

func TestSearch_WithEmbedder_RescoresByCosineSimilarity(t *testing.T) {
	engine, idx, seg := newTestEngine(t)
	index(t, idx, seg, 1, "aligned with query", []float32{1, 0})
	index(t, idx, seg, 2, "orthogonal to query", []float32{0, 1})

	engine.embedder = stubEmbedder{vector: []float32{1, 0}}

	results, err := engine.Search(context.Background(), Query{
		Text: "query", DocType: fulltext.DocTypeChunk, Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, fulltext.ChunkAddress(1), results[0].Address, "the aligned vector must rank first")
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_FiltersBySourcePath(t *testing.T) {
	engine, idx, seg := newTestEngine(t)
	require.NoError(t, idx.AddDocument(fulltext.ChunkAddress(1), fulltext.Document{
		DocType: fulltext.DocTypeChunk, ChunkID: 1, Content: "a", SourcePath: "keep.md",
	}))
	require.NoError(t, idx.AddDocument(fulltext.ChunkAddress(2), fulltext.Document{
		DocType: fulltext.DocTypeChunk, ChunkID: 2, Content: "b", SourcePath: "skip.md",
	}))
	require.NoError(t, idx.Commit())
	require.NoError(t, seg.WriteBatch([]vectorstore.Entry{
		{ID: mustVec(t, 1), Vector: []float32{1, 0}},
		{ID: mustVec(t, 2), Vector: []float32{1, 0}},
	}))

	results, err := engine.Search(context.Background(), Query{
		DocType: fulltext.DocTypeChunk, SourcePath: "keep.md", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fulltext.ChunkAddress(1), results[0].Address)
}

func TestSemanticSearchDocs_WithoutEmbedder_Errors(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.SemanticSearchDocs(context.Background(), fulltext.DocTypeChunk, "query", 10)
	assert.Error(t, err)
}

func TestSemanticSearchDocs_FallsBackToFullScanWithoutClusters(t *testing.T) {
	engine, idx, seg := newTestEngine(t)
	index(t, idx, seg, 1, "matches", []float32{1, 0})
	engine.embedder = stubEmbedder{vector: []float32{1, 0}}

	results, err := engine.SemanticSearchDocs(context.Background(), fulltext.DocTypeChunk, "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSemanticSearchDocs_NarrowsToNearestCluster(t *testing.T) {
	engine, idx, seg := newTestEngine(t)
	index(t, idx, seg, 1, "in cluster one", []float32{1, 0})
	index(t, idx, seg, 2, "in cluster two", []float32{0, 1})
	engine.embedder = stubEmbedder{vector: []float32{1, 0}}

	clusterOne, err := core.NewClusterId(1)
	require.NoError(t, err)
	clusterTwo, err := core.NewClusterId(2)
	require.NoError(t, err)

	engine.clusters = cluster.Result{
		Centroids: [][]float32{{1, 0}, {0, 1}},
		Assignments: map[core.VectorId]core.ClusterId{
			mustVec(t, 1): clusterOne,
			mustVec(t, 2): clusterTwo,
		},
	}
	engine.topClusters = 1

	results, err := engine.SemanticSearchDocs(context.Background(), fulltext.DocTypeChunk, "query", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fulltext.ChunkAddress(1), results[0].Address)
}
