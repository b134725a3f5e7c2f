package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// statusInfo is the CLI equivalent of the MCP server's index_status tool,
// extended with storage sizes and document collection names.
type statusInfo struct {
	Root              string   `json:"root"`
	Symbols           uint64   `json:"symbols"`
	Generation        uint64   `json:"generation"`
	VectorsWritten    int      `json:"vectors_written"`
	VectorsTombstoned int      `json:"vectors_tombstoned"`
	SemanticSearch    bool     `json:"semantic_search_enabled"`
	EmbedderAvailable bool     `json:"embedder_available"`
	Collections       []string `json:"document_collections,omitempty"`
	DataDirSize       int64    `json:"data_dir_bytes"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		Long: `Status reports the code index's symbol count and generation,
the vector store's occupancy, semantic search availability, and
configured document collections, without re-indexing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	root, err := projectRoot(".")
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(codannaDir(root)); statErr != nil {
		return fmt.Errorf("no index found in %s, run 'codanna index' to create one", root)
	}

	ws, err := openWorkspace(ctx, root, true)
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer ws.Close()

	segment, err := ws.vectors.Segment(0)
	if err != nil {
		return fmt.Errorf("failed to open vector segment: %w", err)
	}

	info := statusInfo{
		Root:              root,
		Symbols:           ws.code.Stats().DocumentCount,
		Generation:        ws.code.Stats().Generation,
		VectorsWritten:    segment.Stats().Count,
		VectorsTombstoned: segment.Stats().Tombstoned,
		SemanticSearch:    ws.cfg.SemanticSearch.Enabled,
		EmbedderAvailable: ws.embedder.Available(ctx),
		DataDirSize:       dirSize(codannaDir(root)),
	}
	for name := range ws.cfg.Documents.Collections {
		info.Collections = append(info.Collections, name)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Root:            %s\n", info.Root)
	fmt.Fprintf(cmd.OutOrStdout(), "Symbols:         %d (generation %d)\n", info.Symbols, info.Generation)
	fmt.Fprintf(cmd.OutOrStdout(), "Vectors:         %d written, %d tombstoned\n", info.VectorsWritten, info.VectorsTombstoned)
	fmt.Fprintf(cmd.OutOrStdout(), "Semantic search: enabled=%t embedder_available=%t\n", info.SemanticSearch, info.EmbedderAvailable)
	fmt.Fprintf(cmd.OutOrStdout(), "Collections:     %v\n", info.Collections)
	fmt.Fprintf(cmd.OutOrStdout(), "Data dir size:   %d bytes\n", info.DataDirSize)
	return nil
}

// dirSize totals the size of every regular file under path.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil || fi == nil {
			return nil
		}
		if !fi.IsDir() {
			size += fi.Size()
		}
		return nil
	})
	return size
}
