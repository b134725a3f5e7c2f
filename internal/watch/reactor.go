package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Role classifies a tracked path for handler dispatch.
type Role int

const (
	RoleCode Role = iota
	RoleDocument
	RoleConfig
)

// Reactor is the Unified Watcher (component L): a debounced, per-path FS
// event reactor that interns paths via Registry, watches their parent
// directories non-recursively through fsnotify, and dispatches coalesced
// events to the handler matching each path's Role.
//
// Falls back to PollingWatcher when fsnotify.NewWatcher fails to
// initialize (e.g. inotify instance limits reached), matching the
// teacher's hybrid fsnotify/polling behavior.
type Reactor struct {
	registry  *Registry
	debouncer *Debouncer
	classify  func(path string) Role
	handlers  map[Role]Handler
	opts      Options

	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	errors  chan error
}

// NewReactor builds a Reactor. classify assigns a Role to every path
// handed to Watch/Unwatch; handlers maps each Role to the handler that
// processes its debounced events.
func NewReactor(classify func(path string) Role, handlers map[Role]Handler, opts Options) (*Reactor, error) {
	opts = opts.WithDefaults()
	r := &Reactor{
		registry:  NewRegistry(),
		debouncer: NewDebouncer(opts.DebounceWindow),
		classify:  classify,
		handlers:  handlers,
		opts:      opts,
		stopCh:    make(chan struct{}),
		errors:    make(chan error, 16),
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		r.fsWatcher = fsw
		r.useFsnotify = true
	} else {
		r.useFsnotify = false
		r.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}
	return r, nil
}

// Watch registers path with the Path Registry and, if this is the first
// tracked file in its directory, starts watching that directory.
func (r *Reactor) Watch(path string) error {
	dir := r.registry.Register(path)
	if dir == "" {
		return nil
	}
	if r.useFsnotify {
		return r.fsWatcher.Add(dir)
	}
	return r.pollWatcher.AddDir(dir)
}

// Unwatch forgets path and, if it was the last tracked file in its
// directory, stops watching that directory.
func (r *Reactor) Unwatch(path string) error {
	dir := r.registry.Unregister(path)
	if dir == "" {
		return nil
	}
	if r.useFsnotify {
		return r.fsWatcher.Remove(dir)
	}
	r.pollWatcher.RemoveDir(dir)
	return nil
}

// Run drives the reactor until ctx is cancelled or Stop is called:
// receiving raw FS events, debouncing them per path, and dispatching
// each coalesced event to its Role's handler.
func (r *Reactor) Run(ctx context.Context) error {
	go r.forwardDispatched(ctx)

	if r.useFsnotify {
		return r.runFsnotify(ctx)
	}
	return r.runPolling(ctx)
}

func (r *Reactor) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = r.Stop()
			return ctx.Err()
		case <-r.stopCh:
			return nil
		case event, ok := <-r.fsWatcher.Events:
			if !ok {
				return nil
			}
			r.handleFsnotifyEvent(event)
		case err, ok := <-r.fsWatcher.Errors:
			if !ok {
				return nil
			}
			r.emitError(err)
		}
	}
}

func (r *Reactor) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopCh:
				return
			case event, ok := <-r.pollWatcher.Events():
				if !ok {
					return
				}
				if r.registry.Tracks(event.Path) {
					r.debouncer.Add(event)
				}
			case err, ok := <-r.pollWatcher.Errors():
				if !ok {
					return
				}
				r.emitError(err)
			}
		}
	}()
	return r.pollWatcher.Run(ctx)
}

// handleFsnotifyEvent converts an fsnotify.Event into a FileEvent and
// feeds it to the debouncer, but only for paths the Path Registry
// actually tracks — an untracked file changing in a shared watched
// directory is not this reactor's concern.
func (r *Reactor) handleFsnotifyEvent(event fsnotify.Event) {
	path := event.Name
	if !r.registry.Tracks(path) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	case event.Op&fsnotify.Chmod != 0:
		return
	default:
		return
	}

	r.debouncer.Add(FileEvent{Path: path, Operation: op})
}

// forwardDispatched drains the debouncer's output and invokes the
// handler matching each event's classified Role.
func (r *Reactor) forwardDispatched(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case event, ok := <-r.debouncer.Output():
			if !ok {
				return
			}
			role := r.classify(event.Path)
			handler, ok := r.handlers[role]
			if !ok {
				continue
			}
			if err := handler.Handle(ctx, event); err != nil {
				slog.Error("watch: handler failed",
					slog.String("path", event.Path),
					slog.String("op", event.Operation.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (r *Reactor) emitError(err error) {
	select {
	case r.errors <- err:
	default:
	}
}

// Errors returns the channel of non-fatal watcher errors.
func (r *Reactor) Errors() <-chan error {
	return r.errors
}

// Stop stops the reactor and releases its resources. Safe to call
// multiple times.
func (r *Reactor) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	close(r.stopCh)
	r.debouncer.Stop()
	if r.useFsnotify {
		return r.fsWatcher.Close()
	}
	return r.pollWatcher.Stop()
}

// WatcherType reports which underlying mechanism is active ("fsnotify"
// or "polling").
func (r *Reactor) WatcherType() string {
	if r.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}
