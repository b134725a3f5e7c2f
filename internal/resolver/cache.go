package resolver

import (
	"fmt"
	"os"

	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// Cache owns one Provider's on-disk resolution index and knows how to
// rebuild it when a config file's content hash no longer matches what was
// last indexed.
type Cache struct {
	provider   Provider
	codannaDir string
}

// NewCache binds a Provider to the .codanna directory its cache lives
// under (normally ".codanna" at the project root).
func NewCache(provider Provider, codannaDir string) *Cache {
	return &Cache{provider: provider, codannaDir: codannaDir}
}

// Rebuild recomputes resolution rules for every config file named in cfg,
// skipping files whose content hash already matches the cached entry.
// Returns the number of config files actually (re)parsed.
func (c *Cache) Rebuild(cfg *config.Config, root string) (int, error) {
	if !isEnabled(cfg, c.provider.LanguageID()) {
		return 0, nil
	}

	configPaths := c.provider.ConfigPaths(cfg, root)
	if len(configPaths) == 0 {
		return 0, nil
	}

	index, err := loadIndex(c.codannaDir, c.provider.LanguageID())
	if err != nil {
		return 0, err
	}

	rebuilt := 0
	for _, configPath := range configPaths {
		content, err := os.ReadFile(configPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return rebuilt, fmt.Errorf("read config %s: %w", configPath, err)
		}

		hash := core.ContentHash(content)
		if index.Hashes[configPath] == hash {
			continue
		}

		rules, err := c.provider.BuildRules(configPath)
		if err != nil {
			return rebuilt, fmt.Errorf("build resolution rules for %s: %w", configPath, err)
		}

		pattern := globPatternFor(configPath, c.provider.LanguageID())
		index.Mappings[pattern] = configPath
		index.Rules[configPath] = rules
		index.Hashes[configPath] = hash
		rebuilt++
	}

	if rebuilt == 0 {
		return 0, nil
	}
	if err := saveIndex(c.codannaDir, c.provider.LanguageID(), index); err != nil {
		return rebuilt, err
	}
	return rebuilt, nil
}

// ModulePathForFile resolves a source file's module path using the
// currently cached index, loading it fresh from disk on every call since
// the pipeline's COLLECT stage runs concurrently with rebuilds and the cache may
// be rebuilt by another goroutine between calls.
func (c *Cache) ModulePathForFile(filePath string) (string, bool) {
	index, err := loadIndex(c.codannaDir, c.provider.LanguageID())
	if err != nil {
		return "", false
	}
	resolver, ok := c.provider.(fileResolver)
	if !ok {
		return moduleForFileGeneric(index, filePath, "/")
	}
	return resolver.ModulePathForFile(index, filePath)
}

// fileResolver is an optional extension a Provider implements to choose
// its own module-path derivation (e.g. Python's "." separator); providers
// without it get the generic base_url+relative-dir join with "/".
type fileResolver interface {
	ModulePathForFile(index *core.ResolutionIndex, filePath string) (string, bool)
}

var extOfLanguage = map[string]string{
	"go":         "go",
	"typescript": "ts",
	"javascript": "js",
	"python":     "py",
	"java":       "java",
	"kotlin":     "kt",
	"swift":      "swift",
	"csharp":     "cs",
	"php":        "php",
}

func globPatternFor(configPath, languageID string) string {
	ext := extOfLanguage[languageID]
	dir := parentDir(configPath)
	if ext == "" {
		return dir + "/**"
	}
	return dir + "/**/*." + ext
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
