package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codanna-go/codanna/internal/config"
)

func TestGoProvider_BuildRules_ReadsModuleDirective(t *testing.T) {
	// Given: a go.mod naming a module.
	dir := t.TempDir()
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("module github.com/user/repo\n\ngo 1.22\n"), 0o644))

	// When: building rules for it.
	p := NewGoProvider()
	rules, err := p.BuildRules(goMod)

	// Then: base_url is the module name, rooted at go.mod's directory.
	require.NoError(t, err)
	assert.Equal(t, "github.com/user/repo", rules.BaseURL)
	_, ok := rules.Paths[dir]
	assert.True(t, ok)
}

func TestCache_Rebuild_SkipsUnchangedConfig(t *testing.T) {
	dir := t.TempDir()
	codannaDir := filepath.Join(dir, ".codanna")
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("module example.com/app\n"), 0o644))

	cfg := config.NewConfig()
	cfg.Languages["go"] = config.LanguageConfig{Enabled: true, ConfigFiles: []string{"go.mod"}}

	cache := NewCache(NewGoProvider(), codannaDir)

	n1, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n1)

	n2, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, n2, "unchanged go.mod should not be reparsed")
}

func TestCache_Rebuild_ReparsesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	codannaDir := filepath.Join(dir, ".codanna")
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("module example.com/app\n"), 0o644))

	cfg := config.NewConfig()
	cfg.Languages["go"] = config.LanguageConfig{Enabled: true, ConfigFiles: []string{"go.mod"}}

	cache := NewCache(NewGoProvider(), codannaDir)
	_, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goMod, []byte("module example.com/renamed\n"), 0o644))
	n, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCache_ModulePathForFile_ResolvesSubpackage(t *testing.T) {
	dir := t.TempDir()
	codannaDir := filepath.Join(dir, ".codanna")
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("module github.com/user/repo\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg", "auth"), 0o755))

	cfg := config.NewConfig()
	cfg.Languages["go"] = config.LanguageConfig{Enabled: true, ConfigFiles: []string{"go.mod"}}

	cache := NewCache(NewGoProvider(), codannaDir)
	_, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)

	modPath, ok := cache.ModulePathForFile(filepath.Join(dir, "pkg", "auth", "login.go"))
	require.True(t, ok)
	assert.Equal(t, "github.com/user/repo/pkg/auth", modPath)
}

func TestCache_Rebuild_DisabledLanguage_SkipsEntirely(t *testing.T) {
	dir := t.TempDir()
	codannaDir := filepath.Join(dir, ".codanna")
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("module example.com/app\n"), 0o644))

	cfg := config.NewConfig()
	cfg.Languages["go"] = config.LanguageConfig{Enabled: false, ConfigFiles: []string{"go.mod"}}

	cache := NewCache(NewGoProvider(), codannaDir)
	n, err := cache.Rebuild(cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPythonProvider_BuildRules_ReadsProjectName(t *testing.T) {
	dir := t.TempDir()
	pyproject := filepath.Join(dir, "pyproject.toml")
	content := "[project]\nname = \"myapp\"\nversion = \"0.1.0\"\n"
	require.NoError(t, os.WriteFile(pyproject, []byte(content), 0o644))

	p := NewPythonProvider()
	rules, err := p.BuildRules(pyproject)

	require.NoError(t, err)
	assert.Equal(t, "myapp", rules.BaseURL)
}

func TestTypeScriptProvider_BuildRules_ReadsBaseURLAndPaths(t *testing.T) {
	dir := t.TempDir()
	tsconfig := filepath.Join(dir, "tsconfig.json")
	content := `{
  "compilerOptions": {
    "baseUrl": "./src",
    "paths": { "@app/*": ["app/*"] }
  }
}`
	require.NoError(t, os.WriteFile(tsconfig, []byte(content), 0o644))

	p := NewTypeScriptProvider()
	rules, err := p.BuildRules(tsconfig)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), rules.BaseURL)
	aliases, ok := rules.Paths[dir]
	require.True(t, ok)
	assert.Contains(t, aliases, "@app")
}

func TestRegistry_RebuildAll_CoversEveryRegisteredLanguage(t *testing.T) {
	dir := t.TempDir()
	codannaDir := filepath.Join(dir, ".codanna")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n"), 0o644))

	cfg := config.NewConfig()
	reg := NewDefaultRegistry(codannaDir)

	n, err := reg.RebuildAll(cfg, dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestGenericProvider_LanguageIDs(t *testing.T) {
	assert.Equal(t, "java", NewJavaProvider().LanguageID())
	assert.Equal(t, "kotlin", NewKotlinProvider().LanguageID())
	assert.Equal(t, "swift", NewSwiftProvider().LanguageID())
	assert.Equal(t, "csharp", NewCSharpProvider().LanguageID())
	assert.Equal(t, "php", NewPHPProvider().LanguageID())
}
