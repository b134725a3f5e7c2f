// Package watch implements the Path Registry (component A) and the
// Unified Watcher (component L): a debounced, handler-dispatch reactor
// that incrementally re-indexes code, documents, and configuration
// changes on a running server.
package watch

import (
	"path/filepath"
	"sync"
)

// Registry interns tracked file paths and computes the minimal set of
// directories that must be watched to observe changes to them. Watching
// is non-recursive: only a tracked file's immediate parent directory is
// registered, and registrations are reference-counted so the directory
// stops being watched once its last tracked file is unregistered.
type Registry struct {
	mu      sync.Mutex
	dirRefs map[string]int
	fileDir map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		dirRefs: make(map[string]int),
		fileDir: make(map[string]string),
	}
}

// Register interns path. It returns the path's parent directory if that
// directory just became watched (its reference count rose from 0 to 1),
// or "" if the directory was already watched or path was already tracked.
func (r *Registry) Register(path string) (newlyWatchedDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, already := r.fileDir[path]; already {
		return ""
	}
	dir := filepath.Dir(path)
	r.fileDir[path] = dir
	r.dirRefs[dir]++
	if r.dirRefs[dir] == 1 {
		return dir
	}
	return ""
}

// Unregister forgets path. It returns the directory if that was the last
// tracked file in it (reference count dropped to 0), or "" otherwise.
func (r *Registry) Unregister(path string) (staleDir string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir, ok := r.fileDir[path]
	if !ok {
		return ""
	}
	delete(r.fileDir, path)
	r.dirRefs[dir]--
	if r.dirRefs[dir] <= 0 {
		delete(r.dirRefs, dir)
		return dir
	}
	return ""
}

// Dirs returns every directory currently watched by at least one tracked
// file.
func (r *Registry) Dirs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	dirs := make([]string, 0, len(r.dirRefs))
	for dir := range r.dirRefs {
		dirs = append(dirs, dir)
	}
	return dirs
}

// Tracks reports whether path is currently interned.
func (r *Registry) Tracks(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.fileDir[path]
	return ok
}

// Len returns the number of currently tracked paths.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fileDir)
}
