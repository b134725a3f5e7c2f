package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/core"
)

func symbolNames(symbols []core.RawSymbol) []string {
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.Name
	}
	return names
}

func TestGoParser_ParseFile_ExtractsFunctionsAndMethods(t *testing.T) {
	// Given: Go source with a function, a method, and a type.
	source := []byte(`package sample

type Greeter struct {
	Name string
}

func (g *Greeter) Greet() string {
	return hello(g.Name)
}

func hello(name string) string {
	return "hello " + name
}
`)

	// When: parsed with the Go front-end.
	p := NewGoParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.go", Bytes: source})

	// Then: function, method, and type symbols are all present.
	require.NoError(t, err)
	names := symbolNames(parsed.RawSymbols)
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "Greet")
	assert.Contains(t, names, "hello")

	var greetMethod *core.RawSymbol
	for i := range parsed.RawSymbols {
		if parsed.RawSymbols[i].Name == "Greet" {
			greetMethod = &parsed.RawSymbols[i]
		}
	}
	require.NotNil(t, greetMethod)
	assert.Equal(t, core.KindMethod, greetMethod.Kind)
	assert.Equal(t, core.VisibilityPublic, greetMethod.Visibility)
}

func TestGoParser_ParseFile_RecordsCallRelationship(t *testing.T) {
	source := []byte(`package sample

func outer() {
	inner()
}

func inner() {}
`)

	p := NewGoParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.go", Bytes: source})
	require.NoError(t, err)

	var found bool
	for _, rel := range parsed.RawRelationships {
		if rel.FromName == "outer" && rel.ToName == "inner" && rel.Kind == core.RelCalls {
			found = true
		}
	}
	assert.True(t, found, "expected a calls relationship from outer to inner")
}

func TestGoParser_ParseFile_ExtractsImports(t *testing.T) {
	source := []byte(`package sample

import (
	"fmt"
	str "strings"
)

func main() {
	fmt.Println(str.ToUpper("hi"))
}
`)

	p := NewGoParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.go", Bytes: source})
	require.NoError(t, err)

	require.Len(t, parsed.RawImports, 2)
	assert.Equal(t, "fmt", parsed.RawImports[0].Path)
	assert.Equal(t, "strings", parsed.RawImports[1].Path)
	assert.Equal(t, "str", parsed.RawImports[1].Alias)
}

func TestGoParser_ParseFile_DocCommentPrecedesDeclaration(t *testing.T) {
	source := []byte(`package sample

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}
`)

	p := NewGoParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.go", Bytes: source})
	require.NoError(t, err)

	require.Len(t, parsed.RawSymbols, 1)
	assert.Equal(t, "Add returns the sum of a and b.", parsed.RawSymbols[0].DocComment)
}

func TestTypeScriptParser_ParseFile_ExtractsInterfaceAndFunction(t *testing.T) {
	source := []byte(`interface User {
	name: string;
}

function greet(user: User): string {
	return "hi " + user.name;
}

const add = (a: number, b: number): number => a + b;
`)

	p := NewTypeScriptParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.ts", Bytes: source})
	require.NoError(t, err)

	names := symbolNames(parsed.RawSymbols)
	assert.Contains(t, names, "User")
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "add")
}

func TestJavaScriptParser_ParseFile_ExtractsClassAndMethod(t *testing.T) {
	source := []byte(`class Widget {
	render() {
		return build();
	}
}

function build() {
	return "<div/>";
}
`)

	p := NewJavaScriptParser()
	parsed, err := p.ParseFile(FileContent{Path: "widget.js", Bytes: source})
	require.NoError(t, err)

	names := symbolNames(parsed.RawSymbols)
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "build")
}

func TestPythonParser_ParseFile_ExtractsFunctionAndClass(t *testing.T) {
	source := []byte(`import os
from collections import OrderedDict

class Greeter:
	def greet(self, name):
		return hello(name)

def hello(name):
	return "hi " + name
`)

	p := NewPythonParser()
	parsed, err := p.ParseFile(FileContent{Path: "sample.py", Bytes: source})
	require.NoError(t, err)

	names := symbolNames(parsed.RawSymbols)
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "hello")

	var importPaths []string
	for _, imp := range parsed.RawImports {
		importPaths = append(importPaths, imp.Path)
	}
	assert.Contains(t, importPaths, "os")
	assert.Contains(t, importPaths, "collections")
}

func TestRegistry_ParserFor_UnsupportedExtension_ReturnsError(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.ParserFor("vendor/lib.rb")

	require.Error(t, err)
}

func TestRegistry_ParserFor_DispatchesByExtension(t *testing.T) {
	reg := DefaultRegistry()

	p, err := reg.ParserFor("main.go")

	require.NoError(t, err)
	assert.Equal(t, "go", p.LanguageID())
}

func TestParseFile_RangesAreWithinFileBounds(t *testing.T) {
	source := []byte(`package sample

func first() {}

func second() {}
`)
	reg := DefaultRegistry()

	parsed, err := ParseFile(reg, FileContent{Path: "sample.go", Bytes: source, ContentHash: "irrelevant"})
	require.NoError(t, err)

	lineCount := 0
	for _, b := range source {
		if b == '\n' {
			lineCount++
		}
	}
	for _, sym := range parsed.RawSymbols {
		assert.LessOrEqual(t, sym.Range.StartLine, lineCount)
		assert.LessOrEqual(t, sym.Range.EndLine, lineCount)
		assert.GreaterOrEqual(t, sym.Range.StartLine, 0)
	}
}
