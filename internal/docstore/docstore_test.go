package docstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/embedstage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(dir, 8, embedstage.NewStaticGenerator())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func collectionConfig(t *testing.T, docsDir string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Documents.Collections = map[string]config.CollectionConfig{
		"notes": {Paths: []string{docsDir}, Patterns: []string{"**/*.md"}},
	}
	return cfg
}

func TestIndexCollectionWithProgress_FirstIngest(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "a.md"), []byte("# Alpha\n\nAlpha is the first letter of the Greek alphabet, used widely in mathematics and physics to denote angles and coefficients.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "b.md"), []byte("# Beta\n\nBeta follows alpha and is commonly used to denote a secondary coefficient or an early release of software.\n"), 0o644))

	store := newTestStore(t)
	cfg := collectionConfig(t, docsDir)

	var phases []ProgressPhase
	stats, err := store.IndexCollectionWithProgress("notes", cfg, func(e ProgressEvent) {
		phases = append(phases, e.Phase)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 2, stats.FilesChanged)
	assert.Greater(t, stats.ChunksAdded, 0)
	assert.Equal(t, stats.ChunksAdded, stats.Embedded)
	assert.Contains(t, phases, PhaseEnumerate)
	assert.Contains(t, phases, PhaseChunk)
	assert.Contains(t, phases, PhaseEmbed)
	assert.Contains(t, phases, PhaseCluster)

	assert.Equal(t, uint64(stats.ChunksAdded), store.FullText.Stats().DocumentCount)
}

func TestIndexCollectionWithProgress_SkipsUnchangedFiles(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "a.md"), []byte("# Alpha\n\nAlpha content that is long enough to produce at least one chunk of meaningful size for testing.\n"), 0o644))

	store := newTestStore(t)
	cfg := collectionConfig(t, docsDir)

	first, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	require.Greater(t, first.ChunksAdded, 0)

	second, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesChanged)
	assert.Equal(t, 0, second.ChunksAdded)
}

func TestIndexCollectionWithProgress_ReindexesChangedFile(t *testing.T) {
	docsDir := t.TempDir()
	path := filepath.Join(docsDir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# Alpha\n\nOriginal content long enough to chunk for the first indexing pass of this test.\n"), 0o644))

	store := newTestStore(t)
	cfg := collectionConfig(t, docsDir)

	first, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	require.Greater(t, first.ChunksAdded, 0)

	require.NoError(t, os.WriteFile(path, []byte("# Alpha\n\nRevised content that is different from the original and should trigger reindexing on the next pass.\n"), 0o644))
	// Force the mtime forward so the stat-based diff observes a change
	// even when the filesystem clock resolution is coarse.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	second, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.FilesChanged)
	assert.Greater(t, second.ChunksAdded, 0)
}

func TestRemoveFile_DeletesChunksAndState(t *testing.T) {
	docsDir := t.TempDir()
	path := filepath.Join(docsDir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# Alpha\n\nContent long enough to produce a chunk for the removal test case.\n"), 0o644))

	store := newTestStore(t)
	cfg := collectionConfig(t, docsDir)

	stats, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	require.Greater(t, stats.ChunksAdded, 0)

	require.NoError(t, store.RemoveFile(path))
	_, tracked := store.state.Files[path]
	assert.False(t, tracked)
	assert.Equal(t, uint64(0), store.FullText.Stats().DocumentCount)
}

func TestDeleteCollection_TombstonesAllChunks(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "a.md"), []byte("# Alpha\n\nContent long enough to produce a chunk for the delete-collection test case.\n"), 0o644))

	store := newTestStore(t)
	cfg := collectionConfig(t, docsDir)

	stats, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	require.Greater(t, stats.ChunksAdded, 0)

	require.NoError(t, store.DeleteCollection("notes"))
	assert.Equal(t, uint64(0), store.FullText.Stats().DocumentCount)
	assert.Empty(t, store.state.Files)
}

func TestStateRoundTrip_SaveAndLoad(t *testing.T) {
	docsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "a.md"), []byte("# Alpha\n\nContent long enough to produce a chunk for the state round-trip test case.\n"), 0o644))

	dir := t.TempDir()
	store, err := Open(dir, 8, embedstage.NewStaticGenerator())
	require.NoError(t, err)
	cfg := collectionConfig(t, docsDir)

	stats, err := store.IndexCollectionWithProgress("notes", cfg, nil)
	require.NoError(t, err)
	require.Greater(t, stats.ChunksAdded, 0)
	require.NoError(t, store.Close())

	reopened, err := Open(dir, 8, embedstage.NewStaticGenerator())
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	assert.Equal(t, store.state.NextChunkID, reopened.state.NextChunkID)
	assert.Len(t, reopened.state.Files, 1)
}
