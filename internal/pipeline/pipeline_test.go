package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/gitignore"
	"github.com/codanna-go/codanna/internal/parsing"
	"github.com/codanna-go/codanna/internal/resolver"
	"github.com/codanna-go/codanna/internal/vectorstore"
)

type fakeVectorWriter struct {
	entries []vectorstore.Entry
}

func (w *fakeVectorWriter) WriteBatch(entries []vectorstore.Entry) error {
	w.entries = append(w.entries, entries...)
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeVectorWriter) {
	t.Helper()
	idx, err := fulltext.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	writer := &fakeVectorWriter{}
	return &Store{
		FullText:  idx,
		Generator: embedstage.NewStaticGenerator(),
		Vectors:   writer,
		Graph:     NewRelationshipGraph(),
	}, writer
}

func newTestPipeline(t *testing.T, root string) (*Pipeline, *Store, *fakeVectorWriter) {
	t.Helper()
	reg := parsing.NewRegistry()
	reg.Register(parsing.NewGoParser())

	resolverReg := resolver.NewDefaultRegistry(t.TempDir())
	_, err := resolverReg.RebuildAll(config.NewConfig(), root)
	require.NoError(t, err)
	ignore := gitignore.New()

	store, writer := newTestStore(t)
	cfg := Config{
		DiscoverWorkers:  2,
		ReadWorkers:      2,
		ParseWorkers:     2,
		CollectWorkers:   1,
		IndexWorkers:     1,
		PathCapacity:     16,
		ContentCapacity:  16,
		ParsedCapacity:   16,
		BatchCapacity:    4,
		CollectBatchSize: 2,
		BatchesPerCommit: 1,
	}
	return New(cfg, reg, ignore, resolverReg, store), store, writer
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func TestRun_IndexesSymbolsAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "helper.go", `package sample

// Helper does a thing.
func Helper() int {
	return 1
}
`)
	writeFile(t, root, "main.go", `package sample

func Main() int {
	return Helper()
}
`)

	p, store, writer := newTestPipeline(t, root)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, embedStats, err := p.Run(ctx, []string{root})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, stats.Discover.Items, uint64(2))
	assert.GreaterOrEqual(t, stats.Parse.Items, uint64(2))
	assert.Equal(t, uint64(2), store.FullText.Stats().DocumentCount)
	assert.Equal(t, 2, embedStats.Embedded)
	assert.Len(t, writer.entries, 2)
}

func TestRun_ResolvesCrossFileRelationship(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/sample\n\ngo 1.22\n")
	writeFile(t, root, "helper.go", `package sample

func Helper() int {
	return 1
}
`)
	writeFile(t, root, "main.go", `package sample

func Main() int {
	return Helper()
}
`)

	p, store, _ := newTestPipeline(t, root)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := p.Run(ctx, []string{root})
	require.NoError(t, err)

	found := false
	for id := uint32(1); id <= 8 && !found; id++ {
		symID, err := core.NewSymbolId(id)
		if err != nil {
			continue
		}
		if len(store.Graph.Callers(symID)) > 0 {
			found = true
		}
	}
	assert.True(t, found, "expected at least one resolved caller edge across files")
}

func TestRun_DropsUnsupportedFileWithoutFailingRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", `package sample

func OK() int { return 1 }
`)
	writeFile(t, root, "broken.txt", "not source code")

	p, store, _ := newTestPipeline(t, root)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _, err := p.Run(ctx, []string{root})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), store.FullText.Stats().DocumentCount)
}

func TestRun_CancelledContextStopsWithoutPanicking(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.go", `package sample

func OK() int { return 1 }
`)

	p, _, _ := newTestPipeline(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Run(ctx, []string{root})
	_ = err
}
