package parsing

import (
	"strings"

	"github.com/smacker/go-tree-sitter/python"

	"github.com/codanna-go/codanna/internal/core"
)

var pythonSpec = &langSpec{
	id:            "python",
	extensions:    []string{".py"},
	functionTypes: []string{"function_definition"},
	classTypes:    []string{"class_definition"},
	variableTypes: []string{"assignment"},
	nameOf:        pythonName,
	visOf:         pythonVisibility,
	docLinePrefix: "", // python uses docstrings inside the body, not a preceding comment
}

func pythonName(n *Node, source []byte) string {
	if n.Type == "assignment" {
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
		return ""
	}
	if id := n.FindChildByType("identifier"); id != nil {
		return id.Content(source)
	}
	return ""
}

// pythonVisibility follows the leading-underscore convention: a single
// leading underscore means module-private, dunder names are still public.
func pythonVisibility(n *Node, source []byte) core.Visibility {
	name := pythonName(n, source)
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__") {
		return core.VisibilityModule
	}
	return core.VisibilityPublic
}

// PythonParser is the LanguageParser front-end for .py source files.
type PythonParser struct{}

func NewPythonParser() *PythonParser { return &PythonParser{} }

func (p *PythonParser) LanguageID() string   { return pythonSpec.id }
func (p *PythonParser) Extensions() []string { return pythonSpec.extensions }

func (p *PythonParser) ParseFile(fc FileContent) (ParsedFile, error) {
	tree, err := parseWithGrammar(python.GetLanguage(), pythonSpec.id, fc.Bytes)
	if err != nil {
		return ParsedFile{}, err
	}
	symbols := extractSymbols(tree, pythonSpec)
	return ParsedFile{
		RawSymbols:       symbols,
		RawRelationships: extractPythonCalls(tree, symbols),
		RawImports:       extractPythonImports(tree),
		DocComments:      docCommentsOf(symbols),
	}, nil
}

func extractPythonImports(tree *Tree) []core.RawImport {
	var out []core.RawImport
	if tree.Root == nil {
		return out
	}
	for _, stmt := range tree.Root.FindAllByType("import_statement") {
		for _, name := range stmt.FindChildrenByType("dotted_name") {
			out = append(out, core.RawImport{Path: name.Content(tree.Source)})
		}
		for _, alias := range stmt.FindChildrenByType("aliased_import") {
			dotted := alias.FindChildByType("dotted_name")
			id := alias.FindChildByType("identifier")
			if dotted == nil || id == nil {
				continue
			}
			out = append(out, core.RawImport{Path: dotted.Content(tree.Source), Alias: id.Content(tree.Source)})
		}
	}
	for _, stmt := range tree.Root.FindAllByType("import_from_statement") {
		dotted := stmt.FindChildByType("dotted_name")
		if dotted == nil {
			continue
		}
		path := dotted.Content(tree.Source)
		if stmt.FindChildByType("wildcard_import") != nil {
			out = append(out, core.RawImport{Path: path, IsGlob: true})
			continue
		}
		out = append(out, core.RawImport{Path: path})
	}
	return out
}

func extractPythonCalls(tree *Tree, symbols []core.RawSymbol) []core.RawRelationship {
	var out []core.RawRelationship
	if tree.Root == nil {
		return out
	}
	for _, call := range tree.Root.FindAllByType("call") {
		if len(call.Children) == 0 {
			continue
		}
		target := call.Children[0]
		var calleeName string
		switch target.Type {
		case "identifier":
			calleeName = target.Content(tree.Source)
		case "attribute":
			if attr := target.FindChildByType("identifier"); attr != nil {
				calleeName = attr.Content(tree.Source)
			}
		}
		if calleeName == "" {
			continue
		}
		callRange := nodeRange(call)
		enclosing := enclosingSymbol(symbols, callRange)
		if enclosing == "" {
			continue
		}
		out = append(out, core.RawRelationship{
			FromName:  enclosing,
			ToName:    calleeName,
			Kind:      core.RelCalls,
			FromRange: callRange,
		})
	}
	return out
}
