package pipeline

import (
	"sync/atomic"
	"time"
)

// StageTracker records one stage's input-wait/output-wait time plus item
// and secondary-metric counts (bytes for READ, symbols for PARSE, batches
// for COLLECT and INDEX/EMBED). Every method is safe for
// concurrent use by a stage's worker pool.
type StageTracker struct {
	inputWaitNanos  int64
	outputWaitNanos int64
	items           uint64
	secondary       uint64
}

// RecordInputWait adds d to the stage's cumulative time blocked waiting to
// receive from its input channel.
func (t *StageTracker) RecordInputWait(d time.Duration) {
	atomic.AddInt64(&t.inputWaitNanos, int64(d))
}

// RecordOutputWait adds d to the stage's cumulative time blocked waiting
// to send to its output channel.
func (t *StageTracker) RecordOutputWait(d time.Duration) {
	atomic.AddInt64(&t.outputWaitNanos, int64(d))
}

// RecordItem increments the stage's item count by one and its secondary
// metric by secondary (bytes, symbols, batches, or commits, depending on
// the stage).
func (t *StageTracker) RecordItem(secondary uint64) {
	atomic.AddUint64(&t.items, 1)
	atomic.AddUint64(&t.secondary, secondary)
}

// StageStats is a point-in-time snapshot of a StageTracker.
type StageStats struct {
	InputWait  time.Duration
	OutputWait time.Duration
	Items      uint64
	Secondary  uint64
}

// Snapshot reads the tracker's current counters.
func (t *StageTracker) Snapshot() StageStats {
	return StageStats{
		InputWait:  time.Duration(atomic.LoadInt64(&t.inputWaitNanos)),
		OutputWait: time.Duration(atomic.LoadInt64(&t.outputWaitNanos)),
		Items:      atomic.LoadUint64(&t.items),
		Secondary:  atomic.LoadUint64(&t.secondary),
	}
}

// Stats reports every stage's StageStats after a Run.
type Stats struct {
	Discover StageStats
	Read     StageStats
	Parse    StageStats
	Collect  StageStats
	Index    StageStats
}
