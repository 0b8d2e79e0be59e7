package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jscbridge "github.com/yejune/go-jsc-bridge"
	"github.com/yejune/go-jsc-bridge/internal/cache"
)

func TestLoadDefaults(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, jscbridge.BootstrapAbort, f.BootstrapPolicy)
	assert.Equal(t, cache.Type(""), f.Cache.Type)
}

func TestLoadSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jscbridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
runtime = "goja"
memory_limit = 1048576

[cache]
type = "redis"
redis_addr = "localhost:6379"
ttl = "10m"
prefix = "app:"

[logs]
addr = "127.0.0.1:7070"
path = "logs.db"
`), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, jscbridge.RuntimeGoja, f.Runtime)
	assert.Equal(t, int64(1048576), f.MemoryLimit)
	assert.Equal(t, cache.TypeRedis, f.Cache.Type)
	assert.Equal(t, 10*time.Minute, f.Cache.TTL)
	assert.Equal(t, "app:", f.Cache.Prefix)
	assert.Equal(t, "127.0.0.1:7070", f.Logs.Addr)
	assert.Equal(t, "logs.db", f.Logs.Path)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`bootstrap_policy = "sometimes"`), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
