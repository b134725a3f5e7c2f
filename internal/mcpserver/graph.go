package mcpserver

import (
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/fulltext"
)

const defaultImpactDepth = 3

// symbolInfo resolves id to its SymbolInfo via the code full-text index.
// ok is false if no symbol document is stored at that id.
func (s *Server) symbolInfo(id core.SymbolId) (SymbolInfo, bool) {
	doc, ok, err := s.codeIndex.Get(fulltext.SymbolAddress(uint64(id.Value())))
	if err != nil || !ok {
		return SymbolInfo{}, false
	}
	return SymbolInfo{
		ID:         doc.SymbolID,
		Name:       doc.Name,
		Kind:       doc.Kind,
		FilePath:   doc.FilePath,
		ModulePath: doc.ModulePath,
		Signature:  doc.Signature,
		DocComment: doc.DocComment,
		StartLine:  doc.StartLine,
	}, true
}

// callers returns every symbol with an edge into id, annotated with the
// relationship kind, resolved from the relationship graph's incoming index.
func (s *Server) callers(id core.SymbolId) []RelatedSymbol {
	rels := s.graph.Callers(id)
	out := make([]RelatedSymbol, 0, len(rels))
	for _, r := range rels {
		if info, ok := s.symbolInfo(r.From); ok {
			out = append(out, RelatedSymbol{Relation: string(r.Kind), Symbol: info})
		}
	}
	return out
}

// callees returns every symbol with an edge from id, the outgoing half of
// callers.
func (s *Server) callees(id core.SymbolId) []RelatedSymbol {
	rels := s.graph.Callees(id)
	out := make([]RelatedSymbol, 0, len(rels))
	for _, r := range rels {
		if info, ok := s.symbolInfo(r.To); ok {
			out = append(out, RelatedSymbol{Relation: string(r.Kind), Symbol: info})
		}
	}
	return out
}

// implementations returns every symbol whose "implements" edge points at
// id — the types implementing the interface/trait id names.
func (s *Server) implementations(id core.SymbolId) []RelatedSymbol {
	rels := s.graph.Callers(id)
	out := make([]RelatedSymbol, 0, len(rels))
	for _, r := range rels {
		if r.Kind != core.RelImplements {
			continue
		}
		if info, ok := s.symbolInfo(r.From); ok {
			out = append(out, RelatedSymbol{Relation: string(r.Kind), Symbol: info})
		}
	}
	return out
}

// impact performs a breadth-first traversal of callers starting at id, up
// to maxDepth hops, so a caller can ask "what breaks if I change this" and
// get the transitive closure rather than only direct callers. Returns
// truncated=true if the BFS frontier was still non-empty when maxDepth was
// reached (more callers exist beyond the requested depth).
func (s *Server) impact(id core.SymbolId, maxDepth int) (impacted []ImpactedSymbol, truncated bool) {
	if maxDepth <= 0 {
		maxDepth = defaultImpactDepth
	}

	seen := map[core.SymbolId]bool{id: true}
	frontier := []core.SymbolId{id}

	for depth := 1; depth <= maxDepth; depth++ {
		var next []core.SymbolId
		for _, symID := range frontier {
			for _, r := range s.graph.Callers(symID) {
				if seen[r.From] {
					continue
				}
				seen[r.From] = true
				next = append(next, r.From)
				if info, ok := s.symbolInfo(r.From); ok {
					impacted = append(impacted, ImpactedSymbol{Symbol: info, Depth: depth})
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
