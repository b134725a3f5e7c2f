package parsing

import (
	"strings"
	"sync"
)

// Registry maps file extensions to the LanguageParser that owns them.
// Safe for concurrent use: PARSE workers share one Registry read-only
// after startup registration.
type Registry struct {
	mu        sync.RWMutex
	parsers   map[string]LanguageParser
	extToLang map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[string]LanguageParser),
		extToLang: make(map[string]string),
	}
}

// Register adds a LanguageParser, indexing it by every extension it claims.
func (r *Registry) Register(p LanguageParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.LanguageID()] = p
	for _, ext := range p.Extensions() {
		r.extToLang[normalizeExt(ext)] = p.LanguageID()
	}
}

// ParserFor returns the LanguageParser registered for a file path's
// extension, or ErrUnsupportedFileType if none is registered.
func (r *Registry) ParserFor(path string) (LanguageParser, error) {
	ext := normalizeExt(extOf(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, ErrUnsupportedFileType(ext)
	}
	return r.parsers[lang], nil
}

// SupportedExtensions returns every extension with a registered parser.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return path[idx:]
}

// DefaultRegistry returns a Registry with the Go, TypeScript, TSX,
// JavaScript, and Python front-ends registered — the five tree-sitter
// grammars available to this module.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGoParser())
	r.Register(NewTypeScriptParser())
	r.Register(NewTSXParser())
	r.Register(NewJavaScriptParser())
	r.Register(NewPythonParser())
	return r
}
