package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "a.go", Operation: OpCreate, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		assert.Equal(t, "a.go", event.Path)
		assert.Equal(t, OpCreate, event.Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}
}

func TestDebouncer_RapidModifies_CoalesceToOne(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "a.go", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case event := <-d.Output():
		assert.Equal(t, "a.go", event.Path)
		assert.Equal(t, OpModify, event.Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for debounced event")
	}

	select {
	case extra := <-d.Output():
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_CreateThenDelete_CancelsOut(t *testing.T) {
	d := NewDebouncer(200 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "temp.go", Operation: OpCreate, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "temp.go", Operation: OpDelete, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		t.Fatalf("expected no event, got %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_DeleteBypassesWindow(t *testing.T) {
	d := NewDebouncer(5 * time.Second)
	defer d.Stop()

	start := time.Now()
	d.Add(FileEvent{Path: "gone.go", Operation: OpDelete, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		assert.Equal(t, OpDelete, event.Operation)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("delete event should bypass the debounce window")
	}
}

func TestDebouncer_ModifyThenDelete_CoalescesToDelete(t *testing.T) {
	d := NewDebouncer(150 * time.Millisecond)
	defer d.Stop()

	// A MODIFY keeps the path pending so a DELETE arriving within the
	// same window coalesces into it instead of bypassing, matching the
	// teacher's MODIFY+DELETE=DELETE rule.
	d.Add(FileEvent{Path: "a.go", Operation: OpModify, Timestamp: time.Now()})
	d.Add(FileEvent{Path: "a.go", Operation: OpDelete, Timestamp: time.Now()})

	select {
	case event := <-d.Output():
		require.Equal(t, "a.go", event.Path)
		assert.Equal(t, OpDelete, event.Operation)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for the coalesced delete event")
	}
}
