package resolver

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// PythonProvider resolves dotted module paths from the directory
// containing pyproject.toml/setup.py/requirements.txt: a file's module
// path is its directory relative to the project root, dot-joined and
// prefixed with the package name when pyproject.toml declares one.
type PythonProvider struct{}

// NewPythonProvider returns a ready-to-use Python resolution provider.
func NewPythonProvider() *PythonProvider { return &PythonProvider{} }

func (p *PythonProvider) LanguageID() string { return "python" }

func (p *PythonProvider) ConfigPaths(cfg *config.Config, root string) []string {
	return configPathsFor(cfg, root, "python")
}

func (p *PythonProvider) BuildRules(configPath string) (core.ResolutionRules, error) {
	root := parentDir(configPath)
	name := packageNameFromPyproject(configPath)
	return core.ResolutionRules{
		BaseURL: name,
		Paths:   map[string][]string{root: nil},
	}, nil
}

// ModulePathForFile joins the file's relative directory with ".".
func (p *PythonProvider) ModulePathForFile(index *core.ResolutionIndex, filePath string) (string, bool) {
	return moduleForFileGeneric(index, filePath, ".")
}

// packageNameFromPyproject reads name = "..." out of a pyproject.toml's
// [project] or [tool.poetry] table. Returns "" (no base_url) if absent —
// module paths then stay relative-to-root, which is the common case for
// application code that is never `pip install`-ed under a package name.
func packageNameFromPyproject(configPath string) string {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	inRelevantTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inRelevantTable = line == "[project]" || line == "[tool.poetry]"
			continue
		}
		if !inRelevantTable {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "name"); ok {
			rest = strings.TrimSpace(rest)
			if val, ok := strings.CutPrefix(rest, "="); ok {
				return strings.Trim(strings.TrimSpace(val), `"'`)
			}
		}
	}
	return ""
}
