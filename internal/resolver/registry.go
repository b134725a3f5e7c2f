package resolver

import (
	"github.com/codanna-go/codanna/internal/config"
)

// Registry holds one Cache per language, wired up at startup from a
// Config so the pipeline's COLLECT stage can resolve module paths without
// knowing which languages are active.
type Registry struct {
	caches map[string]*Cache
}

// NewDefaultRegistry builds a Registry with every supported language's
// provider registered: Go, TypeScript, JavaScript, and Python get
// full build-config parsing; Java, Kotlin, Swift, C#, and PHP get the
// thinner generic provider.
func NewDefaultRegistry(codannaDir string) *Registry {
	providers := []Provider{
		NewGoProvider(),
		NewTypeScriptProvider(),
		NewJavaScriptProvider(),
		NewPythonProvider(),
		NewJavaProvider(),
		NewKotlinProvider(),
		NewSwiftProvider(),
		NewCSharpProvider(),
		NewPHPProvider(),
	}

	r := &Registry{caches: make(map[string]*Cache, len(providers))}
	for _, p := range providers {
		r.caches[p.LanguageID()] = NewCache(p, codannaDir)
	}
	return r
}

// RebuildAll rebuilds every language's cache against cfg, returning the
// total number of config files (re)parsed across all languages.
func (r *Registry) RebuildAll(cfg *config.Config, root string) (int, error) {
	total := 0
	for _, cache := range r.caches {
		n, err := cache.Rebuild(cfg, root)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// ModulePathForFile resolves filePath's module path using the given
// language's cache. Returns ("", false) if the language is unregistered
// or no rule covers the file.
func (r *Registry) ModulePathForFile(languageID, filePath string) (string, bool) {
	cache, ok := r.caches[languageID]
	if !ok {
		return "", false
	}
	return cache.ModulePathForFile(filePath)
}
