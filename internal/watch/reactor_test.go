package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []FileEvent
}

func (h *recordingHandler) Handle(ctx context.Context, event FileEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) snapshot() []FileEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]FileEvent, len(h.events))
	copy(out, h.events)
	return out
}

func TestReactor_WatchedFileModify_DispatchesToCodeHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	handler := &recordingHandler{}
	reactor, err := NewReactor(
		func(string) Role { return RoleCode },
		map[Role]Handler{RoleCode: handler},
		Options{DebounceWindow: 20 * time.Millisecond},
	)
	require.NoError(t, err)
	require.NoError(t, reactor.Watch(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reactor.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o644))

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	events := handler.snapshot()
	require.NotEmpty(t, events)
	require.Equal(t, path, events[0].Path)

	require.NoError(t, reactor.Stop())
}

func TestReactor_UntrackedFileInWatchedDir_NoDispatch(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(tracked, []byte("package main\n"), 0o644))

	handler := &recordingHandler{}
	reactor, err := NewReactor(
		func(string) Role { return RoleCode },
		map[Role]Handler{RoleCode: handler},
		Options{DebounceWindow: 20 * time.Millisecond},
	)
	require.NoError(t, err)
	require.NoError(t, reactor.Watch(tracked))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reactor.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	other := filepath.Join(dir, "untracked.go")
	require.NoError(t, os.WriteFile(other, []byte("package main\n"), 0o644))

	time.Sleep(200 * time.Millisecond)
	require.Empty(t, handler.snapshot())

	require.NoError(t, reactor.Stop())
}
