package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yejune/go-jsc-bridge/internal/bundler"
)

func TestLocalCache(t *testing.T) {
	c := NewLocalCache()
	_, ok := c.Get("/app/main.js")
	assert.False(t, ok)

	c.Set("/app/main.js", bundler.Result{JS: "1", Dependencies: []string{"/app/main.js", "/app/lib.js"}})
	c.Set("/app/other.js", bundler.Result{JS: "2", Dependencies: []string{"/app/other.js", "/app/lib.js"}})

	got, ok := c.Get("/app/main.js")
	require.True(t, ok)
	assert.Equal(t, "1", got.JS)

	assert.Equal(t, []string{"/app/main.js", "/app/other.js"}, c.Dependents("/app/lib.js"))
	assert.Equal(t, []string{"/app/other.js"}, c.Dependents("/app/other.js"))
	assert.Empty(t, c.Dependents("/app/unrelated.js"))

	c.Remove("/app/main.js")
	_, ok = c.Get("/app/main.js")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("/app/other.js")
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	assert.IsType(t, &LocalCache{}, c)

	_, err = NewCache(Config{Type: "memcached"})
	assert.Error(t, err)

	_, err = NewCache(Config{Type: TypeRedis, RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
