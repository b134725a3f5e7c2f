package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codanna-go/codanna/internal/core"
)

// cacheDir is where every language's resolution index lives, relative to
// the project's .codanna directory.
const cacheDir = "index/resolvers"

// cachePath returns the on-disk path for a language's resolution index.
func cachePath(codannaDir, languageID string) string {
	return filepath.Join(codannaDir, cacheDir, languageID+"_resolution.json")
}

// loadIndex reads a language's cached resolution index, returning a fresh
// empty index (not an error) if the cache file does not exist yet.
func loadIndex(codannaDir, languageID string) (*core.ResolutionIndex, error) {
	path := cachePath(codannaDir, languageID)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return core.NewResolutionIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resolution cache %s: %w", path, err)
	}

	var index core.ResolutionIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse resolution cache %s: %w", path, err)
	}
	if index.Mappings == nil {
		index.Mappings = make(map[string]string)
	}
	if index.Rules == nil {
		index.Rules = make(map[string]core.ResolutionRules)
	}
	if index.Hashes == nil {
		index.Hashes = make(map[string]string)
	}
	return &index, nil
}

// saveIndex writes a language's resolution index atomically: encode to a
// temp file in the same directory, then rename over the final path.
func saveIndex(codannaDir, languageID string, index *core.ResolutionIndex) error {
	path := cachePath(codannaDir, languageID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create resolver cache dir: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resolution cache: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp resolution cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename resolution cache: %w", err)
	}
	return nil
}
