package hotreload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextBatch(t *testing.T, w *Watcher) []string {
	t.Helper()
	select {
	case batch, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestWatcherBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, Options{Debounce: 50 * time.Millisecond, Extensions: []string{".js"}})
	require.NoError(t, err)
	defer w.Close()

	main := filepath.Join(dir, "main.js")
	lib := filepath.Join(dir, "lib.js")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(lib, []byte("2"), 0o644))
	require.NoError(t, os.WriteFile(main, []byte("3"), 0o644))

	batch := nextBatch(t, w)
	assert.Equal(t, []string{lib, main}, batch)
}

func TestWatcherReportsAbsolutePathsForRelativeRoot(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	w, err := New(".", Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile("a.js", []byte("1"), 0o644))
	batch := nextBatch(t, w)
	require.Len(t, batch, 1)
	assert.True(t, filepath.IsAbs(batch[0]), batch[0])

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "a.js"), batch[0])
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)

	file := filepath.Join(sub, "mod.js")
	require.NoError(t, os.WriteFile(file, []byte("module.exports = 1"), 0o644))
	assert.Contains(t, nextBatch(t, w), file)
}

func TestWatcherCloseEndsEvents(t *testing.T) {
	w, err := New(t.TempDir(), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, ok := <-w.Events()
	assert.False(t, ok)
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
