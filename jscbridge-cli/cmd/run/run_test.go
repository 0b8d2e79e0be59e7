package run

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jscbridge "github.com/yejune/go-jsc-bridge"
	"github.com/yejune/go-jsc-bridge/internal/bundler"
	"github.com/yejune/go-jsc-bridge/internal/cache"
	"github.com/yejune/go-jsc-bridge/internal/hotreload"
)

func newSession(t *testing.T, files ...string) *session {
	t.Helper()
	m, err := jscbridge.New(jscbridge.Config{Runtime: jscbridge.RuntimeGoja},
		jscbridge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(m.Cleanup)
	return &session{manager: m, files: files, bundles: cache.NewLocalCache(), bundle: true}
}

func TestSessionBundlesAndCaches(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("lib.js", []byte(`module.exports = 1`), 0o644))
	require.NoError(t, os.WriteFile("main.js", []byte(`globalThis.version = require('./lib')`), 0o644))

	s := newSession(t, "main.js")
	require.NoError(t, s.reload())
	assert.Equal(t, "1", s.manager.EvaluateScript(`String(version)`, ""))

	wd, err := os.Getwd()
	require.NoError(t, err)
	entry := filepath.Join(wd, "main.js")
	cached, ok := s.bundles.Get(entry)
	require.True(t, ok)
	assert.Contains(t, cached.Dependencies, filepath.Join(wd, "lib.js"))
}

func TestSessionRelativeWatchInvalidatesBundle(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("lib.js", []byte(`module.exports = 1`), 0o644))
	require.NoError(t, os.WriteFile("main.js", []byte(`globalThis.version = require('./lib')`), 0o644))

	s := newSession(t, "main.js")
	require.NoError(t, s.reload())

	w, err := hotreload.New(".", hotreload.Options{Debounce: 50 * time.Millisecond, Extensions: []string{".js"}})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile("lib.js", []byte(`module.exports = 2`), 0o644))
	var changed []string
	select {
	case changed = <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}

	s.invalidate(changed)
	wd, err := os.Getwd()
	require.NoError(t, err)
	_, ok := s.bundles.Get(filepath.Join(wd, "main.js"))
	assert.False(t, ok)

	require.NoError(t, s.reload())
	assert.Equal(t, "2", s.manager.EvaluateScript(`String(version)`, ""))
}

func TestSessionInvalidateRelativePath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	wd, err := os.Getwd()
	require.NoError(t, err)

	s := newSession(t)
	s.bundles.Set(filepath.Join(wd, "main.js"), bundlerResult(filepath.Join(wd, "main.js"), filepath.Join(wd, "lib.js")))
	s.invalidate([]string{"lib.js"})
	_, ok := s.bundles.Get(filepath.Join(wd, "main.js"))
	assert.False(t, ok)
}

func bundlerResult(deps ...string) bundler.Result {
	return bundler.Result{JS: "void 0", Dependencies: deps}
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
