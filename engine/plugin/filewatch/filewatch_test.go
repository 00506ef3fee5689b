package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 50 * time.Millisecond

func fileEdits(q *event.Queue, into *[]string) func() bool {
	return func() bool {
		for _, e := range q.Drain() {
			if fe, ok := e.(event.FileEdit); ok {
				*into = append(*into, fe.Path)
			}
		}
		return len(*into) > 0
	}
}

func startWatcher(t *testing.T, root string) (Watcher, *event.Queue) {
	t.Helper()
	q := event.NewQueue()
	w := NewWatcher([]string{root}, WithDebounce(debounce))
	require.NoError(t, w.Start(context.Background(), q))
	t.Cleanup(func() { assert.NoError(t, w.Shutdown()) })
	return w, q
}

func TestWatcherWatchesTreeRecursively(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	w, _ := startWatcher(t, root)
	assert.Equal(t, []string{root, filepath.Join(root, "a"), filepath.Join(root, "a", "b")}, w.Dirs())
	assert.Equal(t, "file watcher", w.Name())
}

func TestWatcherDebouncesWrites(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "shader.wgsl")
	_, q := startWatcher(t, root)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
	}

	var got []string
	require.Eventually(t, fileEdits(q, &got), 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * debounce)
	fileEdits(q, &got)()
	assert.Equal(t, []string{path}, got)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	w, q := startWatcher(t, root)

	sub := filepath.Join(root, "shaders")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return len(w.Dirs()) == 2 }, 2*time.Second, 10*time.Millisecond)

	path := filepath.Join(sub, "new.wgsl")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	var got []string
	require.Eventually(t, fileEdits(q, &got), 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, got, path)
}

func TestWatcherStartErrors(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, w.Start(context.Background(), event.NewQueue()))
	assert.NoError(t, w.Shutdown())

	root := t.TempDir()
	w = NewWatcher([]string{root})
	require.NoError(t, w.Start(context.Background(), event.NewQueue()))
	assert.Error(t, w.Start(context.Background(), event.NewQueue()))
	assert.NoError(t, w.Shutdown())
	assert.NoError(t, w.Shutdown())
}
