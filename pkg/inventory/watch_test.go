package inventory

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("archives: []\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	fired := make(chan struct{}, 10)
	w := NewWatcher([]string{path}, 100*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			reloads.Add(1)
			fired <- struct{}{}
			return nil
		})
	}()

	// Give the watcher time to register its directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("archives: []\n# edit\n"), 0o644))
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered")
	}

	// No further reloads for the same burst.
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, int32(1), reloads.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "gone", "inventory.yaml")}, 0, nil)
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	require.Error(t, err)
}
