package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/envelope"
	"github.com/codanna-go/codanna/internal/fulltext"
	"github.com/codanna-go/codanna/internal/pipeline"
)

// relatedSymbol pairs a resolved symbol with the relationship kind that
// connects it to the query symbol, the same shape the MCP server's
// structural tools report.
type relatedSymbol struct {
	Relation string            `json:"relation"`
	Symbol   fulltext.Document `json:"symbol"`
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Query the relationship graph directly from the CLI",
		Long: `Resolve runs the same structural queries the MCP server exposes
(find_callers, find_callees, find_implementations, find_impact) without
an MCP client, always re-indexing first so the in-memory relationship
graph is current.`,
	}

	cmd.AddCommand(newResolveCallersCmd())
	cmd.AddCommand(newResolveCalleesCmd())
	cmd.AddCommand(newResolveImplementationsCmd())
	cmd.AddCommand(newResolveImpactCmd())

	return cmd
}

func newResolveCallersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "callers <symbol>",
		Short: "Symbols that call, extend, implement, or use the given symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResolvedSymbol(cmd, args[0], asJSON, func(ws *workspace, id core.SymbolId) any {
				return relatedSymbols(ws, ws.graph.Callers(id), func(r core.Relationship) core.SymbolId { return r.From }, "")
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON result envelope instead of text")
	return cmd
}

func newResolveCalleesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "callees <symbol>",
		Short: "Symbols the given symbol calls, extends, implements, or uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResolvedSymbol(cmd, args[0], asJSON, func(ws *workspace, id core.SymbolId) any {
				return relatedSymbols(ws, ws.graph.Callees(id), func(r core.Relationship) core.SymbolId { return r.To }, "")
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON result envelope instead of text")
	return cmd
}

func newResolveImplementationsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "implementations <symbol>",
		Short: "Concrete types implementing the given interface or trait",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResolvedSymbol(cmd, args[0], asJSON, func(ws *workspace, id core.SymbolId) any {
				return relatedSymbols(ws, ws.graph.Callers(id), func(r core.Relationship) core.SymbolId { return r.From }, core.RelImplements)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON result envelope instead of text")
	return cmd
}

func newResolveImpactCmd() *cobra.Command {
	var (
		depth  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "impact <symbol>",
		Short: "Transitive closure of callers up to depth hops (blast radius)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withResolvedSymbol(cmd, args[0], asJSON, func(ws *workspace, id core.SymbolId) any {
				impacted, truncated := impactOf(ws.graph, ws.code, id, depth)
				return map[string]any{"impacted": impacted, "truncated": truncated}
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 3, "Maximum number of hops")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON result envelope instead of text")
	return cmd
}

// withResolvedSymbol opens the workspace, re-indexes so the relationship
// graph is current, resolves symbol to its id, and runs query against it.
func withResolvedSymbol(cmd *cobra.Command, symbol string, asJSON bool, query func(*workspace, core.SymbolId) any) error {
	ctx := cmd.Context()
	root, err := projectRoot(".")
	if err != nil {
		return err
	}
	ws, err := openWorkspace(ctx, root, true)
	if err != nil {
		return emitResolveError(cmd, asJSON, err)
	}
	defer ws.Close()
	if _, _, err := ws.reindexCode(ctx); err != nil {
		return emitResolveError(cmd, asJSON, err)
	}

	id, err := resolveSymbolID(ws.code, symbol)
	if err != nil {
		return emitResolveError(cmd, asJSON, err)
	}

	return writeResolveResult(cmd, asJSON, query(ws, id))
}

// relatedSymbols resolves each relationship's endpoint (picked by end) to
// its symbol document, keeping only matches of kind when kind is set.
func relatedSymbols(ws *workspace, rels []core.Relationship, end func(core.Relationship) core.SymbolId, kind core.RelationshipKind) []relatedSymbol {
	out := make([]relatedSymbol, 0, len(rels))
	for _, r := range rels {
		if kind != "" && r.Kind != kind {
			continue
		}
		if doc, ok := resolveSymbolDoc(ws.code, end(r)); ok {
			out = append(out, relatedSymbol{Relation: string(r.Kind), Symbol: doc})
		}
	}
	return out
}

// resolveSymbolID finds the unique symbol named name, failing if there
// is no match or more than one (the caller should disambiguate by file).
func resolveSymbolID(idx *fulltext.Index, name string) (core.SymbolId, error) {
	docs, err := idx.FindSymbolByName(name)
	if err != nil {
		return core.SymbolId(0), err
	}
	if len(docs) == 0 {
		return core.SymbolId(0), fmt.Errorf("no symbol named %q", name)
	}
	if len(docs) > 1 {
		return core.SymbolId(0), fmt.Errorf("%d symbols named %q, disambiguate by file path", len(docs), name)
	}
	return core.NewSymbolId(uint32(docs[0].SymbolID))
}

func resolveSymbolDoc(idx *fulltext.Index, id core.SymbolId) (fulltext.Document, bool) {
	doc, ok, err := idx.Get(fulltext.SymbolAddress(uint64(id.Value())))
	if err != nil || !ok {
		return fulltext.Document{}, false
	}
	return doc, true
}

// impactOf performs the same breadth-first traversal the MCP server's
// find_impact tool runs, reimplemented here since the relationship graph
// itself (unlike the server's unexported helpers) needs no server wiring.
func impactOf(graph *pipeline.RelationshipGraph, idx *fulltext.Index, id core.SymbolId, maxDepth int) (impacted []map[string]any, truncated bool) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	seen := map[core.SymbolId]bool{id: true}
	frontier := []core.SymbolId{id}

	for depth := 1; depth <= maxDepth; depth++ {
		var next []core.SymbolId
		for _, symID := range frontier {
			for _, r := range graph.Callers(symID) {
				if seen[r.From] {
					continue
				}
				seen[r.From] = true
				next = append(next, r.From)
				if doc, ok := resolveSymbolDoc(idx, r.From); ok {
					impacted = append(impacted, map[string]any{"symbol": doc, "depth": depth})
				}
			}
		}
		if len(next) == 0 {
			return impacted, false
		}
		frontier = next
		if depth == maxDepth {
			truncated = true
		}
	}
	return impacted, truncated
}

func writeResolveResult(cmd *cobra.Command, asJSON bool, data any) error {
	if asJSON {
		env := envelope.Ok("resolve", "resolved", data, envelope.NewMeta())
		return envelope.Write(cmd.OutOrStdout(), env)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", data)
	return err
}

func emitResolveError(cmd *cobra.Command, asJSON bool, err error) error {
	if !asJSON {
		return err
	}
	env := envelope.FromError("resolve", err, envelope.NewMeta())
	if writeErr := envelope.Write(cmd.OutOrStdout(), env); writeErr != nil {
		return writeErr
	}
	return err
}
