// Package parsing adapts tree-sitter grammars into the parser front-end
// contract: a pure, re-entrant ParseFile that turns a file buffer into
// RawSymbol/RawRelationship/RawImport records with no ids assigned.
package parsing

import (
	"github.com/codanna-go/codanna/internal/core"
	"github.com/codanna-go/codanna/internal/errors"
)

// FileContent is what the READ pipeline stage hands to ParseFile.
type FileContent struct {
	Path        string
	Bytes       []byte
	ContentHash string
}

// ParsedFile is the output of one ParseFile call. Every field is
// id-free: COLLECT is the only stage allowed to assign SymbolIds.
type ParsedFile struct {
	RawSymbols       []core.RawSymbol
	RawRelationships []core.RawRelationship
	RawImports       []core.RawImport
	DocComments      []string
}

// LanguageParser is the thin adapter every language front-end implements.
// Implementations must be pure (no I/O beyond fc.Bytes) and safe to call
// concurrently from multiple PARSE workers.
type LanguageParser interface {
	LanguageID() string
	Extensions() []string
	ParseFile(fc FileContent) (ParsedFile, error)
}

// Point is a 0-based line/column position.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is our language-agnostic AST node, converted once from a
// tree-sitter node so the extractor logic never touches the C bindings
// directly.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	HasError   bool
	Children   []*Node
}

// Content returns the source slice this node covers.
func (n *Node) Content(source []byte) string {
	if n == nil || n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// FindChildrenByType returns all direct children with the given type.
func (n *Node) FindChildrenByType(nodeType string) []*Node {
	var out []*Node
	for _, child := range n.Children {
		if child.Type == nodeType {
			out = append(out, child)
		}
	}
	return out
}

// FindAllByType recursively collects every node (self included) with the
// given type.
func (n *Node) FindAllByType(nodeType string) []*Node {
	var out []*Node
	if n.Type == nodeType {
		out = append(out, n)
	}
	for _, child := range n.Children {
		out = append(out, child.FindAllByType(nodeType)...)
	}
	return out
}

// Walk traverses the tree depth-first, calling fn on every node until fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Tree is the converted AST for one parsed file.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// ErrUnsupportedFileType is returned by Registry.ParserFor when no
// LanguageParser is registered for a file's extension.
func ErrUnsupportedFileType(ext string) error {
	return errors.New("parsing", errors.CodeUnsupportedFileType,
		"no parser registered for file extension "+ext, nil).
		WithSuggestion("register a LanguageParser for this extension or exclude the path via indexing.ignore_patterns")
}
