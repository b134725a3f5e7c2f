package parsing

import (
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codanna-go/codanna/internal/core"
)

var typescriptSpec = &langSpec{
	id:             "typescript",
	extensions:     []string{".ts"},
	functionTypes:  []string{"function_declaration"},
	methodTypes:    []string{"method_definition"},
	classTypes:     []string{"class_declaration"},
	interfaceTypes: []string{"interface_declaration"},
	typeDefTypes:   []string{"type_alias_declaration"},
	constantTypes:  []string{"lexical_declaration"},
	variableTypes:  []string{"variable_declaration"},
	nameOf:         tsName,
	visOf:          jsFamilyVisibility,
	docLinePrefix:  "//",
}

var tsxSpec = &langSpec{
	id:             "tsx",
	extensions:     []string{".tsx"},
	functionTypes:  typescriptSpec.functionTypes,
	methodTypes:    typescriptSpec.methodTypes,
	classTypes:     typescriptSpec.classTypes,
	interfaceTypes: typescriptSpec.interfaceTypes,
	typeDefTypes:   typescriptSpec.typeDefTypes,
	constantTypes:  typescriptSpec.constantTypes,
	variableTypes:  typescriptSpec.variableTypes,
	nameOf:         tsName,
	visOf:          jsFamilyVisibility,
	docLinePrefix:  "//",
}

func tsName(n *Node, source []byte) string {
	if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
		return nameInsideDeclarator(n, source, "variable_declarator")
	}
	if id := n.FindChildByType("identifier"); id != nil {
		return id.Content(source)
	}
	if id := n.FindChildByType("type_identifier"); id != nil {
		return id.Content(source)
	}
	return ""
}

// jsFamilyVisibility has no export keyword reflected in the grammar's
// declaration node itself (it lives on the wrapping export_statement), so
// every JS/TS-family symbol is reported module-visible. The resolver layer
// determines importability from the import graph, not from this flag.
func jsFamilyVisibility(n *Node, source []byte) core.Visibility {
	return core.VisibilityModule
}

// TypeScriptParser is the LanguageParser front-end for .ts source files.
type TypeScriptParser struct{}

func NewTypeScriptParser() *TypeScriptParser { return &TypeScriptParser{} }

func (p *TypeScriptParser) LanguageID() string   { return typescriptSpec.id }
func (p *TypeScriptParser) Extensions() []string { return typescriptSpec.extensions }

func (p *TypeScriptParser) ParseFile(fc FileContent) (ParsedFile, error) {
	tree, err := parseWithGrammar(typescript.GetLanguage(), typescriptSpec.id, fc.Bytes)
	if err != nil {
		return ParsedFile{}, err
	}
	symbols := extractSymbols(tree, typescriptSpec)
	return ParsedFile{
		RawSymbols:       symbols,
		RawRelationships: extractJSFamilyCalls(tree, symbols),
		RawImports:       extractJSFamilyImports(tree),
		DocComments:      docCommentsOf(symbols),
	}, nil
}

// TSXParser is the LanguageParser front-end for .tsx source files.
type TSXParser struct{}

func NewTSXParser() *TSXParser { return &TSXParser{} }

func (p *TSXParser) LanguageID() string   { return tsxSpec.id }
func (p *TSXParser) Extensions() []string { return tsxSpec.extensions }

func (p *TSXParser) ParseFile(fc FileContent) (ParsedFile, error) {
	tree, err := parseWithGrammar(tsx.GetLanguage(), tsxSpec.id, fc.Bytes)
	if err != nil {
		return ParsedFile{}, err
	}
	symbols := extractSymbols(tree, tsxSpec)
	return ParsedFile{
		RawSymbols:       symbols,
		RawRelationships: extractJSFamilyCalls(tree, symbols),
		RawImports:       extractJSFamilyImports(tree),
		DocComments:      docCommentsOf(symbols),
	}, nil
}
