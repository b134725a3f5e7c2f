package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// tsconfigCompilerOptions is the subset of tsconfig.json/jsconfig.json this
// module cares about: path-alias remapping.
type tsconfigCompilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

type tsconfigFile struct {
	Extends         string                  `json:"extends"`
	CompilerOptions tsconfigCompilerOptions `json:"compilerOptions"`
}

// TypeScriptProvider resolves import specifiers using tsconfig.json's
// compilerOptions.baseUrl/paths, following one level of "extends".
type TypeScriptProvider struct{ languageID string }

// NewTypeScriptProvider returns a provider reading tsconfig.json-style
// config for the "typescript" language id.
func NewTypeScriptProvider() *TypeScriptProvider {
	return &TypeScriptProvider{languageID: "typescript"}
}

// NewJavaScriptProvider returns a provider reading jsconfig.json-style
// config for the "javascript" language id — jsconfig.json uses the same
// compilerOptions.baseUrl/paths shape as tsconfig.json.
func NewJavaScriptProvider() *TypeScriptProvider {
	return &TypeScriptProvider{languageID: "javascript"}
}

func (p *TypeScriptProvider) LanguageID() string { return p.languageID }

func (p *TypeScriptProvider) ConfigPaths(cfg *config.Config, root string) []string {
	return configPathsFor(cfg, root, p.languageID)
}

func (p *TypeScriptProvider) BuildRules(configPath string) (core.ResolutionRules, error) {
	merged, err := resolveExtendsChain(configPath, make(map[string]bool))
	if err != nil {
		return core.ResolutionRules{}, err
	}

	root := parentDir(configPath)
	baseURL := merged.CompilerOptions.BaseURL
	if baseURL == "" {
		baseURL = "."
	}
	baseURL = filepath.Join(root, baseURL)

	aliases := make([]string, 0, len(merged.CompilerOptions.Paths))
	for alias := range merged.CompilerOptions.Paths {
		aliases = append(aliases, strings.TrimSuffix(alias, "/*"))
	}

	return core.ResolutionRules{
		BaseURL: baseURL,
		Paths:   map[string][]string{root: aliases},
	}, nil
}

// resolveExtendsChain merges a tsconfig.json with the config it extends
// (one level of recursion guarded against cycles), child options winning.
func resolveExtendsChain(configPath string, visited map[string]bool) (tsconfigFile, error) {
	if visited[configPath] {
		return tsconfigFile{}, nil
	}
	visited[configPath] = true

	var cfg tsconfigFile
	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
		return cfg, err
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentPath := cfg.Extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(parentDir(configPath), parentPath)
	}
	parent, err := resolveExtendsChain(parentPath, visited)
	if err != nil {
		return cfg, nil // fall back to child-only config if the parent can't be read
	}

	if cfg.CompilerOptions.BaseURL == "" {
		cfg.CompilerOptions.BaseURL = parent.CompilerOptions.BaseURL
	}
	if cfg.CompilerOptions.Paths == nil {
		cfg.CompilerOptions.Paths = parent.CompilerOptions.Paths
	}
	return cfg, nil
}

// stripJSONComments removes // line comments so tsconfig.json's common
// JSONC style parses with encoding/json. It does not attempt to handle
// comment markers inside string literals with escaped quotes.
func stripJSONComments(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		inString := false
		for j := 0; j < len(line)-1; j++ {
			switch line[j] {
			case '"':
				if j == 0 || line[j-1] != '\\' {
					inString = !inString
				}
			case '/':
				if !inString && line[j+1] == '/' {
					lines[i] = line[:j]
					j = len(line)
				}
			}
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

// ModulePathForFile joins the tsconfig's baseUrl with the file's directory
// relative to the tsconfig's directory, using "/". Path aliases from
// compilerOptions.paths are not applied.
func (p *TypeScriptProvider) ModulePathForFile(index *core.ResolutionIndex, filePath string) (string, bool) {
	return moduleForFileGeneric(index, filePath, "/")
}
