// Package config loads and validates codanna's settings.toml: the
// workspace-level file that governs indexing concurrency, per-language
// parsing, the MCP server, semantic search, document collections, the
// file watcher, and per-module log levels.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SourceLayout enumerates the JVM source-root conventions the Java/Kotlin
// resolver providers need to locate a project's source files.
type SourceLayout string

const (
	SourceLayoutJVM          SourceLayout = "Jvm"
	SourceLayoutStandardKMP  SourceLayout = "StandardKmp"
	SourceLayoutFlatKMP      SourceLayout = "FlatKmp"
)

// Config is the root of settings.toml.
type Config struct {
	Version       int    `toml:"version"`
	IndexPath     string `toml:"index_path"`
	WorkspaceRoot string `toml:"workspace_root"`
	Debug         bool   `toml:"debug"`

	Indexing       IndexingConfig          `toml:"indexing"`
	Languages      map[string]LanguageConfig `toml:"languages"`
	MCP            MCPConfig               `toml:"mcp"`
	SemanticSearch SemanticSearchConfig    `toml:"semantic_search"`
	Documents      DocumentsConfig         `toml:"documents"`
	FileWatch      FileWatchConfig         `toml:"file_watch"`
	Logging        LoggingConfig           `toml:"logging"`
}

// IndexingConfig configures the DISCOVER/READ/PARSE/COLLECT pipeline.
type IndexingConfig struct {
	ParallelThreads   int      `toml:"parallel_threads"`
	ReadThreads       int      `toml:"read_threads"`
	DiscoverThreads   int      `toml:"discover_threads"`
	BatchSize         int      `toml:"batch_size"`
	BatchesPerCommit  int      `toml:"batches_per_commit"`
	PipelineTracing   bool     `toml:"pipeline_tracing"`
	IgnorePatterns    []string `toml:"ignore_patterns"`
	IndexedPaths      []string `toml:"indexed_paths"`
}

// ProjectConfig names one source root the Java/Kotlin resolver providers
// should treat as belonging to a particular layout.
type ProjectConfig struct {
	ConfigFile   string       `toml:"config_file"`
	SourceLayout SourceLayout `toml:"source_layout"`
}

// LanguageConfig enables or disables a parser front-end/resolver provider
// pair and names the config files its resolver should watch.
type LanguageConfig struct {
	Enabled     bool            `toml:"enabled"`
	Extensions  []string        `toml:"extensions"`
	ConfigFiles []string        `toml:"config_files"`
	Projects    []ProjectConfig `toml:"projects"`
}

// MCPConfig configures the MCP server surface.
type MCPConfig struct {
	Port           int  `toml:"port"`
	MaxContextSize int  `toml:"max_context_size"`
	Debug          bool `toml:"debug"`
}

// SemanticSearchConfig configures the vector half of hybrid search.
type SemanticSearchConfig struct {
	Enabled   bool    `toml:"enabled"`
	Model     string  `toml:"model"`
	Threshold float64 `toml:"threshold"`
}

// DocumentDefaults are the chunking parameters a collection inherits
// unless it overrides them.
type DocumentDefaults struct {
	Strategy      string `toml:"strategy"`
	MinChunkChars int    `toml:"min_chunk_chars"`
	MaxChunkChars int    `toml:"max_chunk_chars"`
	OverlapChars  int    `toml:"overlap_chars"`
}

// DocumentSearchConfig configures document search preview rendering.
type DocumentSearchConfig struct {
	PreviewMode  string `toml:"preview_mode"` // "full" or "kwic"
	PreviewChars int    `toml:"preview_chars"`
	Highlight    bool   `toml:"highlight"`
}

// CollectionConfig names one document collection's source paths and,
// optionally, its own chunking overrides layered on DocumentDefaults.
type CollectionConfig struct {
	Paths    []string `toml:"paths"`
	Patterns []string `toml:"patterns"`

	MinChunkChars *int `toml:"min_chunk_chars,omitempty"`
	MaxChunkChars *int `toml:"max_chunk_chars,omitempty"`
	OverlapChars  *int `toml:"overlap_chars,omitempty"`
}

// DocumentsConfig configures the document store and its collections.
type DocumentsConfig struct {
	Enabled     bool                         `toml:"enabled"`
	Defaults    DocumentDefaults             `toml:"defaults"`
	Search      DocumentSearchConfig         `toml:"search"`
	Collections map[string]CollectionConfig  `toml:"collections"`
}

// FileWatchConfig configures the unified watcher.
type FileWatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// LoggingConfig configures slog's default level and per-package overrides.
type LoggingConfig struct {
	Default string            `toml:"default"`
	Modules map[string]string `toml:"modules"`
}

// defaultIgnorePatterns are always excluded from DISCOVER, on top of
// whatever .gitignore contributes.
var defaultIgnorePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/go.sum",
}

// NewConfig returns a Config populated with sensible defaults, the
// starting point for Load before any settings.toml is merged in.
func NewConfig() *Config {
	return &Config{
		Version:       1,
		IndexPath:     ".codanna/index",
		WorkspaceRoot: ".",
		Debug:         false,
		Indexing: IndexingConfig{
			ParallelThreads:  runtime.NumCPU(),
			ReadThreads:      4,
			DiscoverThreads:  2,
			BatchSize:        256,
			BatchesPerCommit: 4,
			PipelineTracing:  false,
			IgnorePatterns:   defaultIgnorePatterns,
			IndexedPaths:     []string{"."},
		},
		Languages: map[string]LanguageConfig{
			"go":         {Enabled: true, Extensions: []string{".go"}, ConfigFiles: []string{"go.mod"}},
			"typescript": {Enabled: true, Extensions: []string{".ts", ".tsx"}, ConfigFiles: []string{"tsconfig.json"}},
			"javascript": {Enabled: true, Extensions: []string{".js", ".jsx", ".mjs"}, ConfigFiles: []string{"package.json", "jsconfig.json"}},
			"python":     {Enabled: true, Extensions: []string{".py"}, ConfigFiles: []string{"pyproject.toml", "setup.cfg"}},
			"java":       {Enabled: false, Extensions: []string{".java"}, ConfigFiles: []string{"pom.xml", "build.gradle"}},
			"kotlin":     {Enabled: false, Extensions: []string{".kt", ".kts"}, ConfigFiles: []string{"build.gradle.kts"}},
			"swift":      {Enabled: false, Extensions: []string{".swift"}, ConfigFiles: []string{"Package.swift"}},
			"csharp":     {Enabled: false, Extensions: []string{".cs"}, ConfigFiles: []string{"*.csproj"}},
			"php":        {Enabled: false, Extensions: []string{".php"}, ConfigFiles: []string{"composer.json"}},
		},
		MCP: MCPConfig{
			Port:           8765,
			MaxContextSize: 16000,
			Debug:          false,
		},
		SemanticSearch: SemanticSearchConfig{
			Enabled:   true,
			Model:     "qwen3-embedding:8b",
			Threshold: 0.35,
		},
		Documents: DocumentsConfig{
			Enabled: true,
			Defaults: DocumentDefaults{
				Strategy:      "hybrid",
				MinChunkChars: 200,
				MaxChunkChars: 1500,
				OverlapChars:  100,
			},
			Search: DocumentSearchConfig{
				PreviewMode:  "kwic",
				PreviewChars: 200,
				Highlight:    true,
			},
			Collections: map[string]CollectionConfig{},
		},
		FileWatch: FileWatchConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		Logging: LoggingConfig{
			Default: "info",
			Modules: map[string]string{},
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration
// file, following the XDG Base Directory specification.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codanna", "settings.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "codanna", "settings.toml")
	}
	return filepath.Join(home, ".config", "codanna", "settings.toml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadTOML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration for the workspace rooted at dir, applying, in
// order of increasing precedence:
//  1. hardcoded defaults
//  2. the user/global settings.toml
//  3. the workspace's .codanna/settings.toml
//  4. CODANNA_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SettingsPath returns the workspace settings file path for dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, ".codanna", "settings.toml")
}

func (c *Config) loadFromFile(dir string) error {
	path := SettingsPath(dir)
	if _, err := os.Stat(path); err == nil {
		return c.loadTOML(path)
	}
	return nil
}

func (c *Config) loadTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.IndexPath != "" {
		c.IndexPath = other.IndexPath
	}
	if other.WorkspaceRoot != "" {
		c.WorkspaceRoot = other.WorkspaceRoot
	}
	if other.Debug {
		c.Debug = other.Debug
	}

	if other.Indexing.ParallelThreads != 0 {
		c.Indexing.ParallelThreads = other.Indexing.ParallelThreads
	}
	if other.Indexing.ReadThreads != 0 {
		c.Indexing.ReadThreads = other.Indexing.ReadThreads
	}
	if other.Indexing.DiscoverThreads != 0 {
		c.Indexing.DiscoverThreads = other.Indexing.DiscoverThreads
	}
	if other.Indexing.BatchSize != 0 {
		c.Indexing.BatchSize = other.Indexing.BatchSize
	}
	if other.Indexing.BatchesPerCommit != 0 {
		c.Indexing.BatchesPerCommit = other.Indexing.BatchesPerCommit
	}
	if other.Indexing.PipelineTracing {
		c.Indexing.PipelineTracing = other.Indexing.PipelineTracing
	}
	if len(other.Indexing.IgnorePatterns) > 0 {
		c.Indexing.IgnorePatterns = append(c.Indexing.IgnorePatterns, other.Indexing.IgnorePatterns...)
	}
	if len(other.Indexing.IndexedPaths) > 0 {
		c.Indexing.IndexedPaths = other.Indexing.IndexedPaths
	}

	for lang, langCfg := range other.Languages {
		c.Languages[lang] = langCfg
	}

	if other.MCP.Port != 0 {
		c.MCP.Port = other.MCP.Port
	}
	if other.MCP.MaxContextSize != 0 {
		c.MCP.MaxContextSize = other.MCP.MaxContextSize
	}
	if other.MCP.Debug {
		c.MCP.Debug = other.MCP.Debug
	}

	if other.SemanticSearch.Model != "" {
		c.SemanticSearch.Model = other.SemanticSearch.Model
	}
	if other.SemanticSearch.Threshold != 0 {
		c.SemanticSearch.Threshold = other.SemanticSearch.Threshold
	}

	if other.Documents.Defaults.Strategy != "" {
		c.Documents.Defaults = other.Documents.Defaults
	}
	if other.Documents.Search.PreviewMode != "" {
		c.Documents.Search = other.Documents.Search
	}
	for name, collCfg := range other.Documents.Collections {
		c.Documents.Collections[name] = collCfg
	}

	if other.FileWatch.DebounceMs != 0 {
		c.FileWatch.DebounceMs = other.FileWatch.DebounceMs
	}

	if other.Logging.Default != "" {
		c.Logging.Default = other.Logging.Default
	}
	for module, level := range other.Logging.Modules {
		c.Logging.Modules[module] = level
	}
}

// applyEnvOverrides applies CODANNA_* environment variable overrides,
// the highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODANNA_MCP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.MCP.Port = p
		}
	}
	if v := os.Getenv("CODANNA_SEMANTIC_MODEL"); v != "" {
		c.SemanticSearch.Model = v
	}
	if v := os.Getenv("CODANNA_SEMANTIC_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t >= 0 && t <= 1 {
			c.SemanticSearch.Threshold = t
		}
	}
	if v := os.Getenv("CODANNA_DEBUG"); v != "" {
		c.Debug = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CODANNA_LOG_LEVEL"); v != "" {
		c.Logging.Default = v
	}
	if v := os.Getenv("CODANNA_INDEX_PATH"); v != "" {
		c.IndexPath = v
	}
	if v := os.Getenv("CODANNA_WATCH_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.FileWatch.DebounceMs = ms
		}
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	if c.SemanticSearch.Threshold < 0 || c.SemanticSearch.Threshold > 1 {
		return fmt.Errorf("semantic_search.threshold must be between 0 and 1, got %f", c.SemanticSearch.Threshold)
	}

	if c.Documents.Defaults.MinChunkChars <= 0 {
		return fmt.Errorf("documents.defaults.min_chunk_chars must be positive, got %d", c.Documents.Defaults.MinChunkChars)
	}
	if c.Documents.Defaults.MaxChunkChars <= c.Documents.Defaults.MinChunkChars {
		return fmt.Errorf("documents.defaults.max_chunk_chars (%d) must exceed min_chunk_chars (%d)",
			c.Documents.Defaults.MaxChunkChars, c.Documents.Defaults.MinChunkChars)
	}
	if c.Documents.Defaults.OverlapChars < 0 || c.Documents.Defaults.OverlapChars >= c.Documents.Defaults.MinChunkChars {
		return fmt.Errorf("documents.defaults.overlap_chars must be in [0, min_chunk_chars), got %d", c.Documents.Defaults.OverlapChars)
	}

	if c.Documents.Search.PreviewMode != "" && c.Documents.Search.PreviewMode != "full" && c.Documents.Search.PreviewMode != "kwic" {
		return fmt.Errorf("documents.search.preview_mode must be 'full' or 'kwic', got %s", c.Documents.Search.PreviewMode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Default != "" && !validLevels[strings.ToLower(c.Logging.Default)] {
		return fmt.Errorf("logging.default must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Default)
	}
	for module, level := range c.Logging.Modules {
		if !validLevels[strings.ToLower(level)] {
			return fmt.Errorf("logging.modules.%s must be 'debug', 'info', 'warn', or 'error', got %s", module, level)
		}
	}

	for name, coll := range c.Documents.Collections {
		if len(coll.Paths) == 0 {
			return fmt.Errorf("documents.collections.%s must specify at least one path", name)
		}
	}

	return nil
}

// WriteTOML writes the configuration to path as settings.toml.
func (c *Config) WriteTOML(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, or returns a nil
// config and nil error if it doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// EffectiveLogLevel returns the log level for a named module, falling
// back to the default level when no per-module override is configured.
func (c *Config) EffectiveLogLevel(module string) string {
	if lvl, ok := c.Logging.Modules[module]; ok {
		return lvl
	}
	return c.Logging.Default
}

// ChunkBoundsFor returns the effective min/max/overlap chunking bounds
// for a named collection, applying its overrides atop Documents.Defaults.
func (c *Config) ChunkBoundsFor(collection string) (min, max, overlap int) {
	min, max, overlap = c.Documents.Defaults.MinChunkChars, c.Documents.Defaults.MaxChunkChars, c.Documents.Defaults.OverlapChars

	coll, ok := c.Documents.Collections[collection]
	if !ok {
		return
	}
	if coll.MinChunkChars != nil {
		min = *coll.MinChunkChars
	}
	if coll.MaxChunkChars != nil {
		max = *coll.MaxChunkChars
	}
	if coll.OverlapChars != nil {
		overlap = *coll.OverlapChars
	}
	return
}

// FindProjectRoot walks up from startDir looking for a .git directory or
// a .codanna/settings.toml file, returning startDir itself if neither is
// found before reaching the filesystem root.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(SettingsPath(currentDir)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ProjectType identifies the dominant ecosystem of a workspace, used to
// pick sensible defaults for language enablement and discovery.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// String returns the string form of the project type.
func (p ProjectType) String() string {
	return string(p)
}

// IsKnown reports whether the project type was successfully detected.
func (p ProjectType) IsKnown() bool {
	return p != ProjectTypeUnknown
}

// DetectProjectType inspects dir for marker files and returns the
// dominant ecosystem. Go takes priority over Node, which takes priority
// over Python, matching the order a polyglot monorepo's root tooling
// is usually keyed on.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) || fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	return ProjectTypeUnknown
}

func isNextJS(dir string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), `"next"`)
}

// commonSourceDirs are directory names DiscoverSourceDirs checks for
// regardless of detected project type.
var commonSourceDirs = []string{"src", "lib", "internal", "cmd", "pkg"}

// DiscoverSourceDirs returns the subdirectories of dir that look like
// source roots, adding framework-specific roots (e.g. Next.js's app/
// and pages/) when detected.
func DiscoverSourceDirs(dir string) []string {
	var found []string
	for _, name := range commonSourceDirs {
		if dirExists(filepath.Join(dir, name)) {
			found = append(found, name)
		}
	}
	if isNextJS(dir) {
		for _, name := range []string{"app", "pages"} {
			if dirExists(filepath.Join(dir, name)) {
				found = append(found, name)
			}
		}
	}
	return found
}

// DiscoverDocsDirs returns the documentation directories and top-level
// README files found under dir, candidates for a "docs" document
// collection.
func DiscoverDocsDirs(dir string) []string {
	var found []string
	for _, name := range []string{"docs", "doc"} {
		if dirExists(filepath.Join(dir, name)) {
			found = append(found, name)
		}
	}
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if strings.HasPrefix(strings.ToUpper(name), "README") {
				found = append(found, name)
			}
		}
	}
	return found
}

// clampWeight is kept for callers that need to sanity-check a fraction
// read from config before using it as a search-relevance weight.
func clampWeight(w float64) float64 {
	return math.Max(0, math.Min(1, w))
}
