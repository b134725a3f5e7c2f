package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/docstore"
	"github.com/codanna-go/codanna/internal/envelope"
	"github.com/codanna-go/codanna/internal/pipeline"
	"github.com/codanna-go/codanna/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		offline bool
		asJSON  bool
		noTUI   bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory for searching",
		Long: `Index a directory to enable hybrid search over its code and
documents.

Runs the DISCOVER -> READ -> PARSE -> COLLECT -> INDEX/EMBED pipeline over
the code tree, then chunks and embeds every configured document
collection. Safe to re-run: already-indexed files are diffed by content
hash and only changed ones are re-processed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(ctx, cmd, path, offline, asJSON, noTUI)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings, skipping Ollama")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON result envelope instead of text")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Force line-oriented progress output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string, offline, asJSON, noTUI bool) error {
	root, err := projectRoot(path)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, root, offline)
	if err != nil {
		return emitIndexError(cmd, asJSON, err)
	}
	defer ws.Close()

	if err := ws.AcquireLock(); err != nil {
		return emitIndexError(cmd, asJSON, err)
	}

	progressOut := cmd.OutOrStdout()
	if asJSON {
		progressOut = io.Discard
	}
	renderer := ui.NewRenderer(ui.Config{Output: progressOut, ForcePlain: asJSON || noTUI})
	if err := renderer.Start(); err != nil {
		return emitIndexError(cmd, asJSON, err)
	}

	stats, embedStats, err := ws.reindexCodeWithProgress(ctx, func(s pipeline.Stats) {
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageIndex,
			Current: int(s.Index.Items),
			Message: fmt.Sprintf("%d files discovered, %d symbols parsed", s.Discover.Items, s.Parse.Items),
		})
	})
	if err != nil {
		_ = renderer.Stop()
		return emitIndexError(cmd, asJSON, err)
	}

	docStats := make(map[string]docstore.Stats, len(ws.cfg.Documents.Collections))
	for name := range ws.cfg.Documents.Collections {
		if ws.docs == nil {
			break
		}
		s, err := ws.docs.IndexCollectionWithProgress(name, ws.cfg, func(e docstore.ProgressEvent) {
			renderer.UpdateProgress(ui.ProgressEvent{
				Stage:   ui.StageDocuments,
				Current: e.Current,
				Total:   e.Total,
				Message: name,
			})
		})
		if err != nil {
			_ = renderer.Stop()
			return emitIndexError(cmd, asJSON, fmt.Errorf("failed to index collection %q: %w", name, err))
		}
		docStats[name] = s
	}

	renderer.Complete(ui.CompletionStats{
		FilesDiscovered: int(stats.Discover.Items),
		SymbolsIndexed:  int(stats.Parse.Items),
		SymbolsEmbedded: embedStats.Embedded,
		Collections:     len(docStats),
	})
	if err := renderer.Stop(); err != nil {
		return err
	}

	if asJSON {
		meta := envelope.NewMeta()
		meta.EntityType = "index"
		env := envelope.Ok("index", "indexing complete", map[string]any{
			"root":      root,
			"code":      stats,
			"embed":     embedStats,
			"documents": docStats,
		}, meta)
		return envelope.Write(cmd.OutOrStdout(), env)
	}
	return nil
}

func emitIndexError(cmd *cobra.Command, asJSON bool, err error) error {
	if !asJSON {
		return err
	}
	env := envelope.FromError("index", err, envelope.NewMeta())
	if writeErr := envelope.Write(cmd.OutOrStdout(), env); writeErr != nil {
		return writeErr
	}
	return err
}
