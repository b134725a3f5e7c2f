package parsing

import (
	"strings"

	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/codanna-go/codanna/internal/core"
)

var javascriptSpec = &langSpec{
	id:             "javascript",
	extensions:     []string{".js", ".mjs", ".jsx"},
	functionTypes:  []string{"function_declaration", "function"},
	methodTypes:    []string{"method_definition"},
	classTypes:     []string{"class_declaration"},
	constantTypes:  []string{"lexical_declaration"},
	variableTypes:  []string{"variable_declaration"},
	nameOf:         tsName, // identical shape to the TS-family extraction
	visOf:          jsFamilyVisibility,
	docLinePrefix:  "//",
}

// JavaScriptParser is the LanguageParser front-end for .js/.mjs/.jsx files.
// JSX shares the plain JavaScript grammar in go-tree-sitter.
type JavaScriptParser struct{}

func NewJavaScriptParser() *JavaScriptParser { return &JavaScriptParser{} }

func (p *JavaScriptParser) LanguageID() string   { return javascriptSpec.id }
func (p *JavaScriptParser) Extensions() []string { return javascriptSpec.extensions }

func (p *JavaScriptParser) ParseFile(fc FileContent) (ParsedFile, error) {
	tree, err := parseWithGrammar(javascript.GetLanguage(), javascriptSpec.id, fc.Bytes)
	if err != nil {
		return ParsedFile{}, err
	}
	symbols := extractSymbols(tree, javascriptSpec)
	return ParsedFile{
		RawSymbols:       symbols,
		RawRelationships: extractJSFamilyCalls(tree, symbols),
		RawImports:       extractJSFamilyImports(tree),
		DocComments:      docCommentsOf(symbols),
	}, nil
}

// extractJSFamilyImports covers ES module import statements, shared by the
// JavaScript, TypeScript, and TSX front-ends (all three grammars name the
// relevant nodes identically).
func extractJSFamilyImports(tree *Tree) []core.RawImport {
	var out []core.RawImport
	if tree.Root == nil {
		return out
	}
	for _, stmt := range tree.Root.FindAllByType("import_statement") {
		src := stmt.FindChildByType("string")
		if src == nil {
			continue
		}
		path := strings.Trim(src.Content(tree.Source), `"'`)
		imp := core.RawImport{Path: path}

		if clause := stmt.FindChildByType("import_clause"); clause != nil {
			if ns := clause.FindChildByType("namespace_import"); ns != nil {
				imp.IsGlob = true
				if id := ns.FindChildByType("identifier"); id != nil {
					imp.Alias = id.Content(tree.Source)
				}
			} else if id := clause.FindChildByType("identifier"); id != nil {
				imp.Alias = id.Content(tree.Source)
			}
		}
		out = append(out, imp)
	}
	return out
}

// extractJSFamilyCalls finds call_expression nodes and attributes them to
// the innermost enclosing function/method symbol by range containment.
func extractJSFamilyCalls(tree *Tree, symbols []core.RawSymbol) []core.RawRelationship {
	var out []core.RawRelationship
	if tree.Root == nil {
		return out
	}
	for _, call := range tree.Root.FindAllByType("call_expression") {
		calleeName := jsCalleeName(call, tree.Source)
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

func jsCalleeName(call *Node, source []byte) string {
	if len(call.Children) == 0 {
		return ""
	}
	target := call.Children[0]
	switch target.Type {
	case "identifier":
		return target.Content(source)
	case "member_expression":
		if prop := target.FindChildByType("property_identifier"); prop != nil {
			return prop.Content(source)
		}
	}
	return ""
}
