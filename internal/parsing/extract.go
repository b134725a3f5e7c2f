package parsing

import (
	"strings"

	"github.com/codanna-go/codanna/internal/core"
)

// langSpec is the table-driven description of what node types count as
// which kind of declaration for one language, plus the hooks needed to
// pull a name/signature/doc-comment out of a matched node.
type langSpec struct {
	id         string
	extensions []string

	functionTypes []string
	methodTypes   []string
	classTypes    []string
	interfaceTypes []string
	typeDefTypes  []string
	constantTypes []string
	variableTypes []string

	nameOf      func(n *Node, source []byte) string
	visOf       func(n *Node, source []byte) core.Visibility
	docLinePrefix string // "//" for C-family, "" to disable (python uses docstrings)
}

func nodeRange(n *Node) core.Range {
	return core.Range{
		StartLine: int(n.StartPoint.Row),
		StartCol:  int(n.StartPoint.Column),
		EndLine:   int(n.EndPoint.Row),
		EndCol:    int(n.EndPoint.Column),
	}
}

// kindForType maps a matched node's type to a SymbolKind given the spec's
// type-name tables, in function/method/class/interface/typedef/const/var
// priority order — the same precedence the teacher's extractor walks in.
func (s *langSpec) kindForType(nodeType string) (core.SymbolKind, bool) {
	switch {
	case containsStr(s.functionTypes, nodeType):
		return core.KindFunction, true
	case containsStr(s.methodTypes, nodeType):
		return core.KindMethod, true
	case containsStr(s.classTypes, nodeType):
		return core.KindClass, true
	case containsStr(s.interfaceTypes, nodeType):
		return core.KindInterface, true
	case containsStr(s.typeDefTypes, nodeType):
		return core.KindTypeAlias, true
	case containsStr(s.constantTypes, nodeType):
		return core.KindConstant, true
	case containsStr(s.variableTypes, nodeType):
		return core.KindVariable, true
	}
	return "", false
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// extractSymbols walks tree in depth-first order and emits one RawSymbol
// per node matching spec's type tables. Matching recurses into a matched
// node's own subtree, so a function nested inside another (a closure) is
// still reported as its own symbol.
func extractSymbols(tree *Tree, spec *langSpec) []core.RawSymbol {
	var out []core.RawSymbol
	if tree.Root == nil {
		return out
	}

	tree.Root.Walk(func(n *Node) bool {
		kind, ok := spec.kindForType(n.Type)
		if !ok {
			return true
		}
		name := spec.nameOf(n, tree.Source)
		if name == "" {
			return true
		}

		sym := core.RawSymbol{
			Name:       name,
			Kind:       kind,
			Range:      nodeRange(n),
			Visibility: spec.visOf(n, tree.Source),
			Signature:  extractSignature(n, tree.Source),
			DocComment: extractDocComment(n, tree.Source, spec.docLinePrefix),
		}
		out = append(out, sym)
		return true
	})

	return out
}

// extractSignature returns the declaration's header: everything up to
// (not including) the first '{', or the full first line if none appears
// before the node ends (python's "def ...:" case).
func extractSignature(n *Node, source []byte) string {
	text := n.Content(source)
	if idx := strings.IndexByte(text, '{'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return strings.TrimSpace(text)
}

// extractDocComment looks at the raw source line immediately preceding a
// node's start line for a comment with the given line prefix. An empty
// prefix disables detection (languages that use docstrings instead).
func extractDocComment(n *Node, source []byte, prefix string) string {
	if prefix == "" || n.StartPoint.Row == 0 {
		return ""
	}
	line := strings.TrimSpace(lineAt(source, n.StartPoint.Row-1))
	if !strings.HasPrefix(line, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}

// nameInsideDeclarator digs past a wrapping declarator node (e.g.
// variable_declarator) to find the identifier it binds. Used when a
// declaration's name sits one level below the node that carries the
// symbol's own range.
func nameInsideDeclarator(n *Node, source []byte, declaratorType string) string {
	declarator := n.FindChildByType(declaratorType)
	if declarator == nil {
		return ""
	}
	if id := declarator.FindChildByType("identifier"); id != nil {
		return id.Content(source)
	}
	return ""
}
