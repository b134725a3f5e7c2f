package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the project and re-index files as they change",
		Long: `Watch indexes the project once, then keeps the code index,
document collections, and relationship graph current as files change:
a changed source file re-runs the pipeline for that file alone, a
changed document re-chunks and re-embeds it, and editing
.codanna/settings.toml starts watching newly added indexed_paths
(removed paths are reported but stay watched until the watcher restarts).

Falls back to polling when the platform's native file system
notifications are unavailable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings, skipping Ollama")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, offline bool) error {
	root, err := projectRoot(".")
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, root, offline)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.AcquireLock(); err != nil {
		return err
	}

	slog.Info("watch: indexing before watching", slog.String("root", root))
	if _, _, err := ws.reindexCode(ctx); err != nil {
		return fmt.Errorf("failed to index before watching: %w", err)
	}
	if _, err := ws.reindexDocuments(); err != nil {
		return fmt.Errorf("failed to index documents before watching: %w", err)
	}

	codePipeline, err := ws.buildPipeline()
	if err != nil {
		return err
	}
	ignore := newIgnoreMatcher(ws.cfg, ws.root)
	extensions := newLanguageRegistry(ws.cfg).SupportedExtensions()
	docPaths := documentPaths(ws.cfg, ws.root)
	settingsPath := config.SettingsPath(ws.root)

	classify := func(path string) watch.Role {
		if path == settingsPath {
			return watch.RoleConfig
		}
		if _, ok := docPaths[path]; ok {
			return watch.RoleDocument
		}
		return watch.RoleCode
	}

	var reactor *watch.Reactor
	handlers := map[watch.Role]watch.Handler{
		watch.RoleCode:     &watch.CodeFileHandler{Pipeline: codePipeline},
		watch.RoleDocument: &watch.DocumentFileHandler{Store: ws.docs, Config: ws.cfg},
		watch.RoleConfig: &watch.ConfigFileHandler{
			ProjectDir: ws.root,
			OnReload: func(change watch.ReloadConfig) {
				handleSettingsReload(cmd, ws, reactor, extensions, ignore, change)
			},
		},
	}
	if ws.docs == nil {
		delete(handlers, watch.RoleDocument)
	}

	reactor, err = watch.NewReactor(classify, handlers, watch.Options{})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if err := watchSourceFiles(reactor, ws.indexedRoots(), extensions, ignore); err != nil {
		return err
	}
	for path := range docPaths {
		if err := reactor.Watch(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}
	if err := reactor.Watch(settingsPath); err != nil {
		return fmt.Errorf("failed to watch %s: %w", settingsPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%s)\n", root, reactor.WatcherType())
	go func() {
		for err := range reactor.Errors() {
			slog.Warn("watch: non-fatal watcher error", slog.String("error", err.Error()))
		}
	}()

	err = reactor.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// ignoreMatcher is the subset of gitignore.Matcher watchSourceFiles needs.
type ignoreMatcher interface {
	Match(path string, isDir bool) bool
}

// watchSourceFiles walks roots and registers every file with a
// supported extension that newIgnoreMatcher doesn't filter out.
func watchSourceFiles(reactor *watch.Reactor, roots []string, extensions []string, ignore ignoreMatcher) error {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ignore.Match(path, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !extSet[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			return reactor.Watch(path)
		})
		if err != nil {
			return fmt.Errorf("failed to scan %s for watching: %w", root, err)
		}
	}
	return nil
}

// documentPaths enumerates every file under every configured document
// collection's paths, joined against root.
func documentPaths(cfg *config.Config, root string) map[string]struct{} {
	paths := make(map[string]struct{})
	if !cfg.Documents.Enabled {
		return paths
	}
	for _, coll := range cfg.Documents.Collections {
		for _, p := range coll.Paths {
			abs := filepath.Join(root, p)
			_ = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				paths[path] = struct{}{}
				return nil
			})
		}
	}
	return paths
}

// handleSettingsReload logs indexed_paths added or removed from
// settings.toml and starts watching any newly added directories.
// Removed directories keep their already-registered files watched until
// the process restarts, since the Path Registry has no bulk
// unregister-by-directory operation.
func handleSettingsReload(cmd *cobra.Command, ws *workspace, reactor *watch.Reactor, extensions []string, ignore ignoreMatcher, change watch.ReloadConfig) {
	if len(change.Added) == 0 && len(change.Removed) == 0 {
		return
	}
	slog.Info("watch: settings.toml changed",
		slog.Any("added", change.Added), slog.Any("removed", change.Removed))
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration reloaded: %d path(s) added, %d removed\n",
		len(change.Added), len(change.Removed))

	absAdded := make([]string, len(change.Added))
	for i, p := range change.Added {
		absAdded[i] = filepath.Join(ws.root, p)
	}
	if err := watchSourceFiles(reactor, absAdded, extensions, ignore); err != nil {
		slog.Warn("watch: failed to watch newly added path", slog.String("error", err.Error()))
	}
}
