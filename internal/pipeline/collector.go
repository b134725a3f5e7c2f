package pipeline

import (
	"sort"

	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/embedstage"
)

// moduleResolver looks up the module path a file belongs to. Satisfied by
// *resolver.Registry.
type moduleResolver interface {
	ModulePathForFile(languageID, filePath string) (string, bool)
}

// pendingEdge is a RawRelationship whose ToName could not be resolved
// within its own file, queued for the second resolution pass run after
// every file has been collected.
type pendingEdge struct {
	fromID   core.SymbolId
	toName   string
	kind     core.RelationshipKind
	fromRng  core.Range
}

// collector is COLLECT's single-threaded state: the next SymbolId/FileId
// to assign, a cross-file name index for resolving relationships that
// escape their own file, and the pending edges deferred to the second
// pass.
type collector struct {
	resolver moduleResolver

	nextSymbolID uint32
	nextFileID   uint32

	// globalNames indexes every symbol collected so far by a best-effort
	// cross-file lookup key (modulePath + "." + name), resolving the
	// "module_path_for_file plus imports guide lookups into the running
	// symbol table" rule without needing per-import alias tracking.
	globalNames map[string]core.SymbolId

	pending []pendingEdge

	batch IndexBatch
}

func newCollector(res moduleResolver) *collector {
	return &collector{resolver: res, globalNames: make(map[string]core.SymbolId)}
}

func symbolSortKey(s core.RawSymbol) (int, int, string, string) {
	return s.Range.StartLine, s.Range.StartCol, string(s.Kind), s.Name
}

// collectFile assigns IDs for one parsed file's symbols, resolves
// intra-file relationships immediately, and queues the rest as pending
// edges. Returns the batch accumulated so far once it reaches batchSize,
// or nil if not yet full.
func (c *collector) collectFile(item parsedItem, batchSize int) *IndexBatch {
	c.nextFileID++
	fileID, _ := core.NewFileId(c.nextFileID)
	if c.batch.FilePaths == nil {
		c.batch.FilePaths = make(map[core.FileId]string)
	}
	c.batch.FilePaths[fileID] = item.content.Path

	symbols := append([]core.RawSymbol(nil), item.parsed.RawSymbols...)
	sort.Slice(symbols, func(i, j int) bool {
		li, ci, ki, ni := symbolSortKey(symbols[i])
		lj, cj, kj, nj := symbolSortKey(symbols[j])
		if li != lj {
			return li < lj
		}
		if ci != cj {
			return ci < cj
		}
		if ki != kj {
			return ki < kj
		}
		return ni < nj
	})

	modulePath, _ := c.resolver.ModulePathForFile(item.languageID, item.content.Path)

	localTable := make(map[string]core.SymbolId, len(symbols))
	for _, raw := range symbols {
		c.nextSymbolID++
		id, _ := core.NewSymbolId(c.nextSymbolID)

		sym := core.Symbol{
			ID:         id,
			Name:       raw.Name,
			Kind:       raw.Kind,
			File:       fileID,
			Range:      raw.Range,
			Visibility: raw.Visibility,
			ModulePath: modulePath,
			Signature:  raw.Signature,
			DocComment: raw.DocComment,
		}
		c.batch.Symbols = append(c.batch.Symbols, sym)
		localTable[raw.Name] = id
		if modulePath != "" {
			c.globalNames[modulePath+"."+raw.Name] = id
		}

		c.batch.EmbedTexts = append(c.batch.EmbedTexts, embedstage.Pair{
			RawID: uint32(id),
			Text:  embedstage.SymbolEmbedText(raw.Kind, raw.Name, raw.Signature, raw.DocComment),
		})
	}

	for _, rel := range item.parsed.RawRelationships {
		fromID, ok := localTable[rel.FromName]
		if !ok {
			continue
		}
		if toID, ok := localTable[rel.ToName]; ok {
			c.batch.Relationships = append(c.batch.Relationships, core.Relationship{
				From: fromID, To: toID, Kind: rel.Kind, FromRange: rel.FromRange,
			})
			continue
		}
		c.pending = append(c.pending, pendingEdge{
			fromID: fromID, toName: rel.ToName, kind: rel.Kind, fromRng: rel.FromRange,
		})
	}

	ownedIDs := make([]core.SymbolId, 0, len(symbols))
	for _, s := range c.batch.Symbols[len(c.batch.Symbols)-len(symbols):] {
		ownedIDs = append(ownedIDs, s.ID)
	}
	c.batch.Files = append(c.batch.Files, core.FileState{
		Path:             item.content.Path,
		CollectionOrLang: item.languageID,
		ContentHash:      item.content.ContentHash,
		OwnedSymbolIDs:   ownedIDs,
	})

	if len(c.batch.Symbols) >= batchSize {
		return c.flush()
	}
	return nil
}

// flush returns the accumulated batch and resets it for the next one.
func (c *collector) flush() *IndexBatch {
	if len(c.batch.Symbols) == 0 && len(c.batch.Relationships) == 0 && len(c.batch.Files) == 0 {
		return nil
	}
	out := c.batch
	c.batch = IndexBatch{}
	return &out
}

// resolvePending runs the second resolution pass after every file has been
// parsed: every pending edge is looked up by its bare name across every
// file's local table (held in globalNames by unqualified name as a
// same-module fallback), and dropped if it still can't be resolved.
func (c *collector) resolvePending() []core.Relationship {
	byName := make(map[string]core.SymbolId, len(c.globalNames))
	for key, id := range c.globalNames {
		if idx := lastDot(key); idx >= 0 {
			byName[key[idx+1:]] = id
		}
	}

	resolved := make([]core.Relationship, 0, len(c.pending))
	for _, edge := range c.pending {
		toID, ok := byName[edge.toName]
		if !ok {
			continue
		}
		resolved = append(resolved, core.Relationship{
			From: edge.fromID, To: toID, Kind: edge.kind, FromRange: edge.fromRng,
		})
	}
	return resolved
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
