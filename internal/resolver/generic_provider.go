package resolver

import (
	"github.com/codanna-go/codanna/internal/config"
	"github.com/codanna-go/codanna/internal/core"
)

// genericSeparatorProvider is the thinner adapter used for languages whose
// build-config format this module does not parse in depth (Java, Kotlin,
// Swift, C#, PHP): it only tracks which config files exist and maps every
// source file under a config's directory to a module path built from its
// relative directory, joined with the language's own separator — no
// language-specific package/namespace declaration parsing.
type genericSeparatorProvider struct {
	languageID string
	separator  string
}

// NewJavaProvider, NewKotlinProvider, NewSwiftProvider, NewCSharpProvider,
// and NewPHPProvider return the thin generic provider for each respective
// language, differing only in their module path separator convention.
func NewJavaProvider() Provider   { return &genericSeparatorProvider{"java", "."} }
func NewKotlinProvider() Provider { return &genericSeparatorProvider{"kotlin", "."} }
func NewSwiftProvider() Provider  { return &genericSeparatorProvider{"swift", "."} }
func NewCSharpProvider() Provider { return &genericSeparatorProvider{"csharp", "."} }
func NewPHPProvider() Provider    { return &genericSeparatorProvider{"php", "\\"} }

func (p *genericSeparatorProvider) LanguageID() string { return p.languageID }

func (p *genericSeparatorProvider) ConfigPaths(cfg *config.Config, root string) []string {
	return configPathsFor(cfg, root, p.languageID)
}

// BuildRules has no package/namespace declaration to read for these
// languages, so base_url stays empty: module paths fall back to the
// relative-directory-as-path-segments shape, without a leading namespace.
func (p *genericSeparatorProvider) BuildRules(configPath string) (core.ResolutionRules, error) {
	root := parentDir(configPath)
	return core.ResolutionRules{
		BaseURL: "",
		Paths:   map[string][]string{root: nil},
	}, nil
}

// ModulePathForFile joins the relative directory with this language's own
// module-path separator. With the empty base_url from BuildRules a file
// directly in the config's directory reports unresolved.
func (p *genericSeparatorProvider) ModulePathForFile(index *core.ResolutionIndex, filePath string) (string, bool) {
	return moduleForFileGeneric(index, filePath, p.separator)
}
