// Package cache stores finished bundles so unchanged entries are not rebuilt
// on every engine reset.
package cache

import (
	"fmt"
	"time"

	"github.com/yejune/go-jsc-bridge/internal/bundler"
)

// Type selects a cache backend
type Type string

const (
	TypeLocal Type = "local"
	TypeRedis Type = "redis"
)

// Cache is implemented by LocalCache and RedisCache
type Cache interface {
	Get(entry string) (bundler.Result, bool)
	Set(entry string, build bundler.Result)
	Remove(entry string)
	// Dependents returns the entries whose bundle includes path, or path
	// itself when it is a cached entry.
	Dependents(path string) []string
	Clear()
	Close() error
}

// Config is the [cache] section of the CLI configuration
type Config struct {
	Type          Type          `toml:"type"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	RedisTLS      bool          `toml:"redis_tls"`
	TTL           time.Duration `toml:"ttl"`
	Prefix        string        `toml:"prefix"`
}

// NewCache creates a cache based on the config
func NewCache(config Config) (Cache, error) {
	switch config.Type {
	case TypeRedis:
		return NewRedisCache(RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
			TTL:      config.TTL,
			Prefix:   config.Prefix,
			UseTLS:   config.RedisTLS,
		})
	case TypeLocal, "":
		return NewLocalCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", config.Type)
	}
}

func dependsOn(entry string, build bundler.Result, path string) bool {
	if entry == path {
		return true
	}
	for _, dep := range build.Dependencies {
		if dep == path {
			return true
		}
	}
	return false
}
