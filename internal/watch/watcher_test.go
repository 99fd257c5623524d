package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) add(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher")
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{}, func(context.Context, string) error { return nil })
	require.Error(t, err)
	_, err = New(Config{Dir: t.TempDir()}, nil)
	require.Error(t, err)
}

func TestTriggersDuringRunCoalesce(t *testing.T) {
	rec := &recorder{}
	release := make(chan struct{})
	started := make(chan struct{}, 8)

	w, err := New(Config{Dir: t.TempDir()}, func(_ context.Context, reason string) error {
		rec.add(reason)
		started <- struct{}{}
		if reason == "first" {
			<-release
		}
		return nil
	})
	require.NoError(t, err)
	startWatcher(t, w)

	w.Trigger("first")
	<-started

	for range 5 {
		w.Trigger("during")
	}
	close(release)

	<-started
	// Give a spurious extra run a chance to show up.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"first", "during"}, rec.snapshot())
	assert.Equal(t, 2, w.Runs())
}

func TestFailedRunsKeepWatching(t *testing.T) {
	rec := &recorder{}
	w, err := New(Config{Dir: t.TempDir(), InitialRun: true}, func(_ context.Context, reason string) error {
		rec.add(reason)
		return errors.New("build failed")
	})
	require.NoError(t, err)
	startWatcher(t, w)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	w.Trigger("again")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"initial", "again"}, rec.snapshot())
}

func TestFileChangesTriggerDebouncedRun(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(Config{
		Dir:      dir,
		Files:    []string{"loader.s", "link.ld"},
		Debounce: 30 * time.Millisecond,
	}, func(_ context.Context, reason string) error {
		rec.add(reason)
		return nil
	})
	require.NoError(t, err)
	startWatcher(t, w)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "loader.s"), []byte{byte('a' + i)}, 0o600))
	}

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"loader.s"}, rec.snapshot())
}
