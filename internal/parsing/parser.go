package parsing

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseWithGrammar parses source with its own *sitter.Parser. A new instance is
// created per call rather than pooled: sitter.Parser is not safe to share
// across goroutines and PARSE workers call in concurrently.
func parseWithGrammar(lang *sitter.Language, languageID string, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tsTree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tsTree.Close()

	root := convertNode(tsTree.RootNode(), source)
	return &Tree{Root: root, Source: source, Language: languageID}, nil
}

// convertNode recursively converts a tree-sitter node into our own Node
// type, so extraction logic never touches the cgo-backed sitter API.
func convertNode(tsNode *sitter.Node, source []byte) *Node {
	if tsNode == nil {
		return nil
	}

	n := &Node{
		Type:      tsNode.Type(),
		StartByte: tsNode.StartByte(),
		EndByte:   tsNode.EndByte(),
		StartPoint: Point{
			Row:    tsNode.StartPoint().Row,
			Column: tsNode.StartPoint().Column,
		},
		EndPoint: Point{
			Row:    tsNode.EndPoint().Row,
			Column: tsNode.EndPoint().Column,
		},
		HasError: tsNode.HasError(),
	}

	childCount := int(tsNode.ChildCount())
	if childCount == 0 {
		return n
	}

	n.Children = make([]*Node, 0, childCount)
	for i := 0; i < childCount; i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		n.Children = append(n.Children, convertNode(child, source))
	}
	return n
}

// lineAt returns the raw source line (without its terminator) at the
// 0-based row, used to sniff a preceding doc-comment line.
func lineAt(source []byte, row uint32) string {
	start := 0
	var cur uint32
	for i, b := range source {
		if cur == row {
			start = i
			break
		}
		if b == '\n' {
			cur++
		}
	}
	end := start
	for end < len(source) && source[end] != '\n' {
		end++
	}
	if start > len(source) {
		return ""
	}
	return string(source[start:end])
}
