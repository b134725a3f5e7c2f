package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/docstore"
	"github.com/codanna-go/codanna/internal/embedstage"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/gitignore"
	"github.com/codanna-go/codanna/internal/lock"
	"github.com/codanna-go/codanna/internal/parsing"
	"github.com/codanna-go/codanna/internal/pipeline"
	"github.com/codanna-go/codanna/internal/resolver"
	"github.com/codanna-go/codanna/internal/vectorstore"
)

// codannaDir is root's data directory: full-text index, vector segments,
// resolver cache, and document collections all live underneath it.
func codannaDir(root string) string {
	return filepath.Join(root, ".codanna")
}

// projectRoot resolves the workspace root containing path, defaulting to
// path itself when no .git or settings.toml is found above it.
func projectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	root, err := config.FindProjectRoot(abs)
	if err != nil {
		return abs, nil
	}
	return root, nil
}

// newLanguageRegistry registers every parser front-end whose language is
// enabled in cfg, so DISCOVER/PARSE only ever see the languages the
// workspace opted into.
func newLanguageRegistry(cfg *config.Config) *parsing.Registry {
	reg := parsing.NewRegistry()
	type entry struct {
		lang   string
		parser parsing.LanguageParser
	}
	for _, e := range []entry{
		{"go", parsing.NewGoParser()},
		{"typescript", parsing.NewTypeScriptParser()},
		{"javascript", parsing.NewJavaScriptParser()},
		{"python", parsing.NewPythonParser()},
	} {
		if lc, ok := cfg.Languages[e.lang]; ok && !lc.Enabled {
			continue
		}
		reg.Register(e.parser)
	}
	return reg
}

// newIgnoreMatcher builds a gitignore.Matcher seeded with cfg's configured
// ignore patterns plus root's own .gitignore, if present.
func newIgnoreMatcher(cfg *config.Config, root string) *gitignore.Matcher {
	m := gitignore.New()
	for _, p := range cfg.Indexing.IgnorePatterns {
		m.AddPattern(p)
	}
	_ = m.AddFromFile(filepath.Join(root, ".gitignore"), root)
	return m
}

// generator is the embedder type every workspace carries: both
// StaticGenerator and OllamaGenerator implement it, giving cmd access to
// GenerateEmbeddings (for search.WithEmbedder) and Available (for
// mcpserver's EmbedderStatus capability check) through one value.
type generator interface {
	embedstage.EmbeddingGenerator
	Available(ctx context.Context) bool
}

// resolveEmbedder returns the embedding generator and its output
// dimension for the given workspace. offline, or a disabled
// cfg.SemanticSearch, selects the zero-dependency StaticGenerator.
// Otherwise it tries Ollama with cfg.SemanticSearch.Model and falls back
// to StaticGenerator when the server is unreachable or a probe embedding
// fails; a reachable Ollama is wrapped in a CachedGenerator.
func resolveEmbedder(ctx context.Context, cfg *config.Config, offline bool) (generator, int, error) {
	if offline || !cfg.SemanticSearch.Enabled {
		return embedstage.NewStaticGenerator(), embedstage.StaticDimensions, nil
	}

	gen := embedstage.NewOllamaGenerator(embedstage.OllamaConfig{Model: cfg.SemanticSearch.Model})
	if !gen.Available(ctx) {
		return embedstage.NewStaticGenerator(), embedstage.StaticDimensions, nil
	}
	probe, err := gen.GenerateEmbeddings([]string{"codanna embedding dimension probe"})
	if err != nil || len(probe) == 0 {
		return embedstage.NewStaticGenerator(), embedstage.StaticDimensions, nil
	}
	// Ollama is a network round trip per call; cache by model so re-indexing
	// unchanged symbols and re-running repeated search queries never pay for
	// it twice in the same process.
	cached := embedstage.NewCachedGenerator(gen, cfg.SemanticSearch.Model, embedstage.DefaultCacheSize)
	return cached, len(probe[0]), nil
}

// workspace bundles the live stores one indexing or serving run needs:
// the code full-text index and relationship graph, the document store,
// and the resolver cache behind them. Close releases every file handle.
type workspace struct {
	cfg      *config.Config
	root     string
	code     *fulltext.Index
	vectors  *vectorstore.Store
	graph    *pipeline.RelationshipGraph
	docs     *docstore.Store
	resolver *resolver.Registry
	embedder generator
	lock     *lock.WorkspaceLock
}

// openWorkspace loads root's configuration and opens its persisted stores,
// creating them on first use. It does not run the indexing pipeline —
// callers that need a fresh scan call reindexCode separately.
func openWorkspace(ctx context.Context, root string, offline bool) (*workspace, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dataDir := codannaDir(root)

	embedder, dim, err := resolveEmbedder(ctx, cfg, offline)
	if err != nil {
		return nil, err
	}

	code, err := fulltext.Open(filepath.Join(dataDir, "fulltext"))
	if err != nil {
		return nil, fmt.Errorf("failed to open code index: %w", err)
	}

	vectors := vectorstore.NewStore(filepath.Join(dataDir, "vectors"), dim)

	resolverReg := resolver.NewDefaultRegistry(dataDir)

	var docs *docstore.Store
	if cfg.Documents.Enabled {
		docs, err = docstore.Open(filepath.Join(dataDir, "documents"), dim, embedder)
		if err != nil {
			code.Close()
			vectors.Close()
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
	}

	return &workspace{
		cfg:      cfg,
		root:     root,
		code:     code,
		vectors:  vectors,
		graph:    pipeline.NewRelationshipGraph(),
		docs:     docs,
		resolver: resolverReg,
		embedder: embedder,
		lock:     lock.New(dataDir),
	}, nil
}

// AcquireLock takes an exclusive, non-blocking, cross-process lock on the
// workspace's data directory. Every command that mutates the code index,
// vector store, or resolver cache (index, watch, serve) calls this before
// reindexing; read-only commands (search, status, resolve) don't need to.
func (w *workspace) AcquireLock() error {
	ok, err := w.lock.TryAcquire()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("workspace %s is already locked by another codanna process (remove %s if that's stale)", w.root, w.lock.Path())
	}
	return nil
}

// Close releases every store's file handles and the workspace lock, if
// held.
func (w *workspace) Close() error {
	_ = w.lock.Release()
	var firstErr error
	if w.docs != nil {
		if err := w.docs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := w.vectors.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.code.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// reindexCode runs the full DISCOVER→READ→PARSE→COLLECT→INDEX/EMBED
// pipeline over w.root, populating (or refreshing) the code full-text
// index, vector segment, and in-memory relationship graph in place. The
// relationship graph has no persisted form (component §4.9's sink is the
// only place it's built), so any process that needs it — serve, resolve,
// a fresh search — rebuilds it by re-running the pipeline rather than
// reading it off disk.
func (w *workspace) reindexCode(ctx context.Context) (pipeline.Stats, embedstage.EmbedStats, error) {
	return w.reindexCodeWithProgress(ctx, nil)
}

// reindexCodeWithProgress is reindexCode with an optional live progress
// callback, polled off Pipeline.Snapshot every tick while Run executes
// in the background — onProgress may be nil.
func (w *workspace) reindexCodeWithProgress(ctx context.Context, onProgress func(pipeline.Stats)) (pipeline.Stats, embedstage.EmbedStats, error) {
	if _, err := w.resolver.RebuildAll(w.cfg, w.root); err != nil {
		return pipeline.Stats{}, embedstage.EmbedStats{}, fmt.Errorf("failed to rebuild module resolution: %w", err)
	}

	p, err := w.buildPipeline()
	if err != nil {
		return pipeline.Stats{}, embedstage.EmbedStats{}, err
	}

	if onProgress == nil {
		stats, embedStats, err := p.Run(ctx, w.indexedRoots())
		if err != nil {
			return stats, embedStats, err
		}
		w.code.Reload()
		return stats, embedStats, nil
	}

	type result struct {
		stats      pipeline.Stats
		embedStats embedstage.EmbedStats
		err        error
	}
	done := make(chan result, 1)
	go func() {
		stats, embedStats, err := p.Run(ctx, w.indexedRoots())
		done <- result{stats, embedStats, err}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r := <-done:
			onProgress(p.Snapshot())
			if r.err != nil {
				return r.stats, r.embedStats, r.err
			}
			w.code.Reload()
			return r.stats, r.embedStats, nil
		case <-ticker.C:
			onProgress(p.Snapshot())
		}
	}
}

// indexedRoots resolves cfg.Indexing.IndexedPaths (default ".") against
// root into absolute paths.
func (w *workspace) indexedRoots() []string {
	roots := w.cfg.Indexing.IndexedPaths
	if len(roots) == 0 {
		roots = []string{"."}
	}
	absRoots := make([]string, len(roots))
	for i, r := range roots {
		absRoots[i] = filepath.Join(w.root, r)
	}
	return absRoots
}

// buildPipeline wires a Pipeline against the workspace's stores. index
// builds a fresh one per run; watch keeps a single instance alive across
// the whole watch loop, re-running it per changed file.
func (w *workspace) buildPipeline() (*pipeline.Pipeline, error) {
	segment, err := w.vectors.Segment(0)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector segment: %w", err)
	}

	store := &pipeline.Store{
		FullText:  w.code,
		Generator: w.embedder,
		Vectors:   segment,
		Graph:     w.graph,
	}

	reg := newLanguageRegistry(w.cfg)
	ignore := newIgnoreMatcher(w.cfg, w.root)

	pcfg := pipeline.Config{
		DiscoverWorkers:  w.cfg.Indexing.DiscoverThreads,
		ReadWorkers:      w.cfg.Indexing.ReadThreads,
		ParseWorkers:     w.cfg.Indexing.ParallelThreads,
		CollectBatchSize: w.cfg.Indexing.BatchSize,
		BatchesPerCommit: w.cfg.Indexing.BatchesPerCommit,
	}

	return pipeline.New(pcfg, reg, ignore, w.resolver, store), nil
}

// reindexDocuments runs every configured document collection through the
// document store, matching component §4.10's scan→chunk→embed→cluster
// cycle.
func (w *workspace) reindexDocuments() (map[string]docstore.Stats, error) {
	if w.docs == nil {
		return nil, nil
	}
	results := make(map[string]docstore.Stats, len(w.cfg.Documents.Collections))
	for name := range w.cfg.Documents.Collections {
		stats, err := w.docs.IndexCollectionWithProgress(name, w.cfg, nil)
		if err != nil {
			return results, fmt.Errorf("failed to index collection %q: %w", name, err)
		}
		results[name] = stats
	}
	return results, nil
}
