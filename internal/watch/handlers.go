package watch

import (
	"context"
	"log/slog"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/docstore"
	"github.com/codanna-go/codanna/internal/pipeline"
)

// Handler reacts to one debounced FileEvent.
type Handler interface {
	Handle(ctx context.Context, event FileEvent) error
}

// CodeFileHandler re-runs the single-file branch of the indexing
// pipeline (§4.9) for a changed source file. It reuses Pipeline.Run with
// a one-element root list rather than a dedicated single-file code path,
// since DISCOVER's filepath.WalkDir already accepts a file as its root.
type CodeFileHandler struct {
	Pipeline *pipeline.Pipeline
}

func (h *CodeFileHandler) Handle(ctx context.Context, event FileEvent) error {
	if event.Operation == OpDelete {
		slog.Info("watch: code file deleted, skipping re-index", slog.String("path", event.Path))
		return nil
	}
	_, _, err := h.Pipeline.Run(ctx, []string{event.Path})
	return err
}

// DocumentFileHandler routes a changed document file to
// DocumentStore.ReindexFile/RemoveFile.
type DocumentFileHandler struct {
	Store  *docstore.Store
	Config *config.Config
}

func (h *DocumentFileHandler) Handle(ctx context.Context, event FileEvent) error {
	if event.Operation == OpDelete {
		return h.Store.RemoveFile(event.Path)
	}
	return h.Store.ReindexFile(event.Path, h.Config)
}

// ReloadConfig describes a settings.toml change: directories added to or
// removed from indexed_paths since the last load.
type ReloadConfig struct {
	Added   []string
	Removed []string
}

// ConfigFileHandler reads the settings file on modify, diffs
// indexed_paths against the previously loaded configuration, and
// forwards the result to OnReload so the caller can register newly
// added directories and tombstone files under removed ones.
type ConfigFileHandler struct {
	ProjectDir string
	OnReload   func(ReloadConfig)

	last *config.Config
}

func (h *ConfigFileHandler) Handle(ctx context.Context, event FileEvent) error {
	if event.Operation == OpDelete {
		return nil
	}

	next, err := config.Load(h.ProjectDir)
	if err != nil {
		return err
	}

	added, removed := diffIndexedPaths(h.last, next)
	h.last = next

	if h.OnReload != nil && (len(added) > 0 || len(removed) > 0) {
		h.OnReload(ReloadConfig{Added: added, Removed: removed})
	}
	return nil
}

func diffIndexedPaths(prev, next *config.Config) (added, removed []string) {
	prevSet := map[string]bool{}
	if prev != nil {
		for _, p := range prev.Indexing.IndexedPaths {
			prevSet[p] = true
		}
	}
	nextSet := map[string]bool{}
	for _, p := range next.Indexing.IndexedPaths {
		nextSet[p] = true
	}

	for p := range nextSet {
		if !prevSet[p] {
			added = append(added, p)
		}
	}
	for p := range prevSet {
		if !nextSet[p] {
			removed = append(removed, p)
		}
	}
	return added, removed
}
