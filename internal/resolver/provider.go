// Package resolver builds and caches per-language import/module resolution
// rules (the Project Resolver Cache): given a source file, it answers
// "what is this file's module path", using each language's own build
// config (go.mod, tsconfig.json, pyproject.toml, ...) rather than
// re-deriving the answer from scratch on every lookup.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// Provider is the per-language adapter. One Provider owns one on-disk
// cache file (.codanna/index/resolvers/<LanguageID>_resolution.json).
type Provider interface {
	LanguageID() string

	// ConfigPaths returns every build-config file this language's settings
	// name, from both config_files and projects[].config_file.
	ConfigPaths(cfg *config.Config, root string) []string

	// BuildRules parses one config file into resolution rules.
	BuildRules(configPath string) (core.ResolutionRules, error)
}

// configPathsFor implements the shared config_files + projects[].config_file
// extraction every provider uses, mirroring extract_language_config_paths.
func configPathsFor(cfg *config.Config, root, languageID string) []string {
	lang, ok := cfg.Languages[languageID]
	if !ok {
		return nil
	}

	seen := make(map[string]bool, len(lang.ConfigFiles)+len(lang.Projects))
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(root, abs)
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		out = append(out, abs)
	}

	for _, p := range lang.ConfigFiles {
		add(p)
	}
	for _, proj := range lang.Projects {
		add(proj.ConfigFile)
	}
	return out
}

// isEnabled mirrors is_language_enabled: absent from settings means
// enabled, only an explicit enabled=false turns a language off.
func isEnabled(cfg *config.Config, languageID string) bool {
	lang, ok := cfg.Languages[languageID]
	if !ok {
		return true
	}
	return lang.Enabled
}

// moduleForFileGeneric is the shared "join base_url with the file's
// directory relative to a resolution rule's root" logic every provider
// uses. With an empty base_url the relative directory alone is the module
// path, so a file directly in the root has none.
func moduleForFileGeneric(index *core.ResolutionIndex, filePath, separator string) (string, bool) {
	configPath, ok := configForFile(index, filePath)
	if !ok {
		return "", false
	}
	rules, ok := index.Rules[configPath]
	if !ok {
		return "", false
	}

	for root := range rules.Paths {
		rel, err := filepath.Rel(root, filePath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		dir := filepath.ToSlash(filepath.Dir(rel))
		segments := ""
		if dir != "." {
			segments = strings.ReplaceAll(dir, "/", separator)
		}
		if rules.BaseURL == "" {
			return segments, segments != ""
		}
		if segments == "" {
			return rules.BaseURL, true
		}
		return rules.BaseURL + separator + segments, true
	}
	return "", false
}

// configForFile finds the mapping entry whose glob matches filePath,
// picking the longest (most specific) matching pattern's directory.
func configForFile(index *core.ResolutionIndex, filePath string) (string, bool) {
	var bestConfig string
	bestLen := -1

	for pattern, configPath := range index.Mappings {
		dir := pattern
		if idx := strings.Index(pattern, "/**"); idx >= 0 {
			dir = pattern[:idx]
		}
		rel, err := filepath.Rel(dir, filePath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if len(dir) > bestLen {
			bestLen = len(dir)
			bestConfig = configPath
		}
	}
	if bestConfig == "" {
		return "", false
	}
	return bestConfig, true
}
