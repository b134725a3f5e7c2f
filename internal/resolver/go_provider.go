package resolver

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// GoProvider resolves Go import paths from go.mod's module directive:
// module github.com/user/repo + pkg/auth/login.go -> github.com/user/repo/pkg/auth.
type GoProvider struct{}

// NewGoProvider returns a ready-to-use Go resolution provider.
func NewGoProvider() *GoProvider { return &GoProvider{} }

func (p *GoProvider) LanguageID() string { return "go" }

func (p *GoProvider) ConfigPaths(cfg *config.Config, root string) []string {
	return configPathsFor(cfg, root, "go")
}

func (p *GoProvider) BuildRules(configPath string) (core.ResolutionRules, error) {
	moduleName, err := parseGoModModule(configPath)
	if err != nil {
		return core.ResolutionRules{}, err
	}

	root := parentDir(configPath)
	return core.ResolutionRules{
		BaseURL: moduleName,
		Paths:   map[string][]string{root: nil},
	}, nil
}

// parseGoModModule extracts the module directive's value from a go.mod
// file's raw bytes, ignoring comments and the go/require/toolchain lines.
func parseGoModModule(configPath string) (string, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return "", err
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("no module directive found in %s", configPath)
}
