package parsing

import (
	"strings"

	"github.com/smacker/go-tree-sitter/golang"

	"github.com/codanna-go/codanna/internal/core"
)

var goSpec = &langSpec{
	id:             "go",
	extensions:     []string{".go"},
	functionTypes:  []string{"function_declaration"},
	methodTypes:    []string{"method_declaration"},
	typeDefTypes:   []string{"type_declaration"},
	constantTypes:  []string{"const_declaration"},
	variableTypes:  []string{"var_declaration"},
	nameOf:         goName,
	visOf:          goVisibility,
	docLinePrefix:  "//",
}

func goName(n *Node, source []byte) string {
	switch n.Type {
	case "function_declaration":
		if id := n.FindChildByType("identifier"); id != nil {
			return id.Content(source)
		}
	case "method_declaration":
		if id := n.FindChildByType("field_identifier"); id != nil {
			return id.Content(source)
		}
	case "type_declaration":
		if spec := n.FindChildByType("type_spec"); spec != nil {
			if id := spec.FindChildByType("type_identifier"); id != nil {
				return id.Content(source)
			}
		}
		if spec := n.FindChildByType("type_alias"); spec != nil {
			if id := spec.FindChildByType("type_identifier"); id != nil {
				return id.Content(source)
			}
		}
	case "const_declaration":
		if spec := n.FindChildByType("const_spec"); spec != nil {
			if id := spec.FindChildByType("identifier"); id != nil {
				return id.Content(source)
			}
		}
	case "var_declaration":
		if spec := n.FindChildByType("var_spec"); spec != nil {
			if id := spec.FindChildByType("identifier"); id != nil {
				return id.Content(source)
			}
		}
	}
	return ""
}

func goVisibility(n *Node, source []byte) core.Visibility {
	name := goName(n, source)
	if name == "" {
		return core.VisibilityModule
	}
	first := rune(name[0])
	if first >= 'A' && first <= 'Z' {
		return core.VisibilityPublic
	}
	return core.VisibilityModule
}

// GoParser is the LanguageParser front-end for .go source files.
type GoParser struct{}

// NewGoParser returns a ready-to-use Go LanguageParser.
func NewGoParser() *GoParser { return &GoParser{} }

func (p *GoParser) LanguageID() string   { return goSpec.id }
func (p *GoParser) Extensions() []string { return goSpec.extensions }

func (p *GoParser) ParseFile(fc FileContent) (ParsedFile, error) {
	tree, err := parseWithGrammar(golang.GetLanguage(), goSpec.id, fc.Bytes)
	if err != nil {
		return ParsedFile{}, err
	}

	symbols := extractSymbols(tree, goSpec)
	imports := extractGoImports(tree)
	rels := extractGoCalls(tree, symbols)

	return ParsedFile{
		RawSymbols:       symbols,
		RawRelationships: rels,
		RawImports:       imports,
		DocComments:      docCommentsOf(symbols),
	}, nil
}

func extractGoImports(tree *Tree) []core.RawImport {
	var out []core.RawImport
	if tree.Root == nil {
		return out
	}
	for _, spec := range tree.Root.FindAllByType("import_spec") {
		pathNode := spec.FindChildByType("interpreted_string_literal")
		if pathNode == nil {
			continue
		}
		path := strings.Trim(pathNode.Content(tree.Source), `"`)
		imp := core.RawImport{Path: path}
		for _, child := range spec.Children {
			switch child.Type {
			case "blank_identifier":
				imp.Alias = "_"
			case "dot":
				imp.IsGlob = true
			case "package_identifier":
				imp.Alias = child.Content(tree.Source)
			}
		}
		out = append(out, imp)
	}
	return out
}

// extractGoCalls finds call_expression nodes and attributes them to the
// innermost enclosing function/method symbol by range containment.
func extractGoCalls(tree *Tree, symbols []core.RawSymbol) []core.RawRelationship {
	var out []core.RawRelationship
	if tree.Root == nil {
		return out
	}

	for _, call := range tree.Root.FindAllByType("call_expression") {
		fn := call.FindChildByType("identifier")
		calleeName := ""
		if fn != nil {
			calleeName = fn.Content(tree.Source)
		} else if sel := call.FindChildByType("selector_expression"); sel != nil {
			if field := sel.FindChildByType("field_identifier"); field != nil {
				calleeName = field.Content(tree.Source)
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

func enclosingSymbol(symbols []core.RawSymbol, r core.Range) string {
	var best *core.RawSymbol
	for i := range symbols {
		s := &symbols[i]
		if s.Kind != core.KindFunction && s.Kind != core.KindMethod {
			continue
		}
		if !s.Range.Contains(r) {
			continue
		}
		if best == nil || (s.Range.EndLine-s.Range.StartLine) < (best.Range.EndLine-best.Range.StartLine) {
			best = s
		}
	}
	if best == nil {
		return ""
	}
	return best.Name
}

func docCommentsOf(symbols []core.RawSymbol) []string {
	var out []string
	for _, s := range symbols {
		if s.DocComment != "" {
			out = append(out, s.DocComment)
		}
	}
	return out
}
