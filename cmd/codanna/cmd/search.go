package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/envelope"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/search"
)

type searchOptions struct {
	limit      int
	collection string
	asJSON     bool
	offline    bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase or a document collection",
		Long: `Search runs the hybrid (BM25 + semantic) search engine against
the code index by default, or against a named document collection with
--collection.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.collection, "collection", "c", "", "Search a document collection instead of code")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print a JSON result envelope instead of text")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use static embeddings, skipping Ollama")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	root, err := projectRoot(".")
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, root, opts.offline)
	if err != nil {
		return emitSearchError(cmd, opts.asJSON, err)
	}
	defer ws.Close()

	var results []search.Result
	if opts.collection != "" {
		results, err = searchDocuments(ctx, ws, opts.collection, query, opts.limit)
	} else {
		results, err = searchCode(ctx, ws, query, opts.limit)
	}
	if err != nil {
		return emitSearchError(cmd, opts.asJSON, err)
	}

	if opts.asJSON {
		meta := envelope.NewMeta()
		meta.Query = query
		count := len(results)
		meta.Count = &count
		env := envelope.Ok("search", fmt.Sprintf("%d results for %q", count, query), results, meta)
		return envelope.Write(cmd.OutOrStdout(), env)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", query)
		return err
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d. (score: %.3f) %s\n", i+1, r.Score, r.Preview); err != nil {
			return err
		}
	}
	return nil
}

func searchCode(ctx context.Context, ws *workspace, query string, limit int) ([]search.Result, error) {
	segment, err := ws.vectors.Segment(0)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector segment: %w", err)
	}
	engine := search.New(ws.code, segment, search.WithEmbedder(ws.embedder))
	return engine.Search(ctx, search.Query{
		Text:    query,
		DocType: fulltext.DocTypeSymbol,
		Limit:   limit,
		Preview: search.DefaultPreviewConfig(),
	})
}

func searchDocuments(ctx context.Context, ws *workspace, collection, query string, limit int) ([]search.Result, error) {
	if ws.docs == nil {
		return nil, fmt.Errorf("documents are disabled for this workspace")
	}
	reader, err := ws.docs.VectorReader(collection)
	if err != nil {
		return nil, err
	}
	engine := search.New(ws.docs.FullText, reader, search.WithEmbedder(ws.docs.Generator))
	return engine.Search(ctx, search.Query{
		Text:       query,
		DocType:    fulltext.DocTypeChunk,
		Collection: collection,
		Limit:      limit,
		Preview:    search.DefaultPreviewConfig(),
	})
}

func emitSearchError(cmd *cobra.Command, asJSON bool, err error) error {
	if !asJSON {
		return err
	}
	env := envelope.FromError("search", err, envelope.NewMeta())
	if writeErr := envelope.Write(cmd.OutOrStdout(), env); writeErr != nil {
		return writeErr
	}
	return err
}
