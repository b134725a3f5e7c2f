package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches a set of directories for changes by periodically
// re-listing them, one level deep (matching the Path Registry's
// non-recursive contract). Used as a fallback when fsnotify fails to
// initialize.
type PollingWatcher struct {
	interval time.Duration
	dirs     map[string]bool
	state    map[string]fileSnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a PollingWatcher that re-scans every interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		dirs:     make(map[string]bool),
		state:    make(map[string]fileSnapshot),
		events:   make(chan FileEvent, 256),
		errors:   make(chan error, 16),
		stopCh:   make(chan struct{}),
	}
}

// AddDir adds dir to the set of directories scanned each interval.
func (p *PollingWatcher) AddDir(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs[dir] = true
	return nil
}

// RemoveDir stops scanning dir and forgets any file state recorded for
// entries directly inside it.
func (p *PollingWatcher) RemoveDir(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dirs, dir)
	for path := range p.state {
		if filepath.Dir(path) == dir {
			delete(p.state, path)
		}
	}
}

// Run scans the registered directories every interval until ctx is
// cancelled or Stop is called.
func (p *PollingWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

// detectChanges re-lists every registered directory one level deep and
// emits CREATE/MODIFY/DELETE events for entries whose mtime/size changed
// since the previous scan.
func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	dirs := make([]string, 0, len(p.dirs))
	for dir := range p.dirs {
		dirs = append(dirs, dir)
	}
	p.mu.Unlock()

	current := make(map[string]fileSnapshot)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			p.emitError(err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			current[path] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for path, snap := range current {
		prev, existed := p.state[path]
		switch {
		case !existed:
			p.emitEvent(FileEvent{Path: path, Operation: OpCreate, Timestamp: time.Now()})
		case prev.modTime != snap.modTime || prev.size != snap.size:
			p.emitEvent(FileEvent{Path: path, Operation: OpModify, Timestamp: time.Now()})
		}
	}
	for path := range p.state {
		if _, still := current[path]; !still {
			p.emitEvent(FileEvent{Path: path, Operation: OpDelete, Timestamp: time.Now()})
		}
	}
	p.state = current
}

// emitEvent sends an event to the events channel. Must be called with
// p.mu held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
	}
}

func (p *PollingWatcher) emitError(err error) {
	select {
	case p.errors <- err:
	default:
	}
}

// Events returns the channel of raw (un-debounced) file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of scan errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// Stop stops the polling loop and closes its channels. Safe to call
// multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}
