package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/mcpserver"
	"github.com/codanna-go/codanna/internal/search"
)

func newServeCmd() *cobra.Command {
	var (
		offline   bool
		transport string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the code index over MCP",
		Long: `Serve starts an MCP server exposing symbol_lookup, the
structural graph queries (find_callers/find_callees/find_implementations/
find_impact), search_code, search_docs, and index_status to an MCP client
over stdio.

BUG-034 applies here too: stdout carries nothing but JSON-RPC frames once
the server starts, so every diagnostic goes to the debug log file
instead (--debug to enable it).

The relationship graph the structural queries need is never persisted —
serve always runs the indexing pipeline once at startup (fast if nothing
changed since the last index, since COLLECT diffs by content hash) to
rebuild it in memory before accepting connections.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, offline, transport)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use static embeddings, skipping Ollama")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport (stdio is the only one supported)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, offline bool, transport string) error {
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

	slog.Info("serve: indexing before accepting connections", slog.String("root", root))
	if _, _, err := ws.reindexCode(ctx); err != nil {
		return fmt.Errorf("failed to index before serving: %w", err)
	}

	segment, err := ws.vectors.Segment(0)
	if err != nil {
		return fmt.Errorf("failed to open vector segment: %w", err)
	}
	engine := search.New(ws.code, segment, search.WithEmbedder(ws.embedder))

	srv, err := mcpserver.New(engine, ws.code, ws.graph, ws.docs, ws.embedder, ws.cfg, root)
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	slog.Info("serve: ready", slog.String("transport", transport))
	return srv.Serve(ctx, transport)
}
