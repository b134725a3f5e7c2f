package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid file events per path to prevent index
// thrashing. Events for the same path within the debounce window are
// merged according to these rules:
//   - CREATE + MODIFY = CREATE (file is still new)
//   - CREATE + DELETE = nothing (file never really existed)
//   - MODIFY + DELETE = DELETE (file is gone)
//
// Delete events bypass the window entirely: a DELETE for a path not
// already pending flushes immediately, so a CREATE that follows it starts
// a new pending event rather than merging with the DELETE.
type Debouncer struct {
	window  time.Duration
	pending map[string]*pendingEvent
	mu      sync.Mutex
	output  chan FileEvent
	timers  map[string]*time.Timer
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Operation
}

// NewDebouncer creates a Debouncer that coalesces events within window
// before emitting them.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		output:  make(chan FileEvent, 256),
		timers:  make(map[string]*time.Timer),
	}
}

// Add adds an event to be debounced. Events for the same path are
// coalesced according to the coalescing rules.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if event.Operation == OpDelete {
		if _, pending := d.pending[event.Path]; !pending {
			d.cancelTimer(event.Path)
			d.emit(event)
			return
		}
	}

	path := event.Path
	if existing, ok := d.pending[path]; ok {
		coalesced := coalesce(existing, event)
		if coalesced == nil {
			delete(d.pending, path)
			d.cancelTimer(path)
			return
		}
		existing.event = *coalesced
	} else {
		d.pending[path] = &pendingEvent{event: event, firstOp: event.Operation}
	}

	d.scheduleFlush(path)
}

// coalesce merges two events for the same path according to the
// coalescing rules. Returns nil if the events cancel each other out.
func coalesce(existing *pendingEvent, next FileEvent) *FileEvent {
	switch existing.firstOp {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			return &existing.event
		case OpDelete:
			return nil
		default:
			return &next
		}
	case OpModify:
		return &next
	case OpDelete:
		if next.Operation == OpCreate {
			result := next
			result.Operation = OpModify
			return &result
		}
		return &next
	default:
		return &next
	}
}

// scheduleFlush (re)starts path's debounce timer.
func (d *Debouncer) scheduleFlush(path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.timers[path] = time.AfterFunc(d.window, func() {
		d.flush(path)
	})
}

func (d *Debouncer) cancelTimer(path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
		delete(d.timers, path)
	}
}

// flush emits path's pending event, if any.
func (d *Debouncer) flush(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	pe, ok := d.pending[path]
	if !ok {
		return
	}
	delete(d.pending, path)
	delete(d.timers, path)
	d.emit(pe.event)
}

// emit sends an event to the output channel, must be called with d.mu held.
func (d *Debouncer) emit(event FileEvent) {
	select {
	case d.output <- event:
	default:
		slog.Warn("watch: debouncer output full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan FileEvent {
	return d.output
}

// Stop stops the debouncer and closes the output channel. Safe to call
// multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
	close(d.output)
}
