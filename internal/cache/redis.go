package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yejune/go-jsc-bridge/internal/bundler"
)

// RedisCache shares bundles between processes via Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisConfig configures the Redis cache
type RedisConfig struct {
	Addr     string        // Redis address (e.g., "localhost:6379")
	Password string        // Redis password (empty for no auth)
	DB       int           // Redis database number
	TTL      time.Duration // Cache TTL (0 = no expiration)
	Prefix   string        // Key prefix (default: "jscbridge:")
	UseTLS   bool
}

// NewRedisCache connects and pings the server
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	}
	if config.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return newRedisCache(redis.NewClient(opts), config)
}

func newRedisCache(client *redis.Client, config RedisConfig) (*RedisCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "jscbridge:"
	}
	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		prefix: prefix,
	}, nil
}

func (rc *RedisCache) key(entry string) string {
	return rc.prefix + "bundle:" + entry
}

func (rc *RedisCache) Get(entry string) (bundler.Result, bool) {
	data, err := rc.client.Get(context.Background(), rc.key(entry)).Bytes()
	if err != nil {
		return bundler.Result{}, false
	}
	var result bundler.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return bundler.Result{}, false
	}
	return result, true
}

func (rc *RedisCache) Set(entry string, build bundler.Result) {
	data, err := json.Marshal(build)
	if err != nil {
		return
	}
	rc.client.Set(context.Background(), rc.key(entry), data, rc.ttl)
}

func (rc *RedisCache) Remove(entry string) {
	rc.client.Del(context.Background(), rc.key(entry))
}

func (rc *RedisCache) Dependents(path string) []string {
	ctx := context.Background()
	pattern := rc.prefix + "bundle:*"
	var entries []string

	var cursor uint64
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			break
		}
		for _, key := range keys {
			data, err := rc.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var build bundler.Result
			if err := json.Unmarshal(data, &build); err != nil {
				continue
			}
			entry := key[len(rc.prefix+"bundle:"):]
			if dependsOn(entry, build, path) {
				entries = append(entries, entry)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	sort.Strings(entries)
	return entries
}

// Clear removes every key under the prefix
func (rc *RedisCache) Clear() {
	ctx := context.Background()
	pattern := rc.prefix + "*"
	var cursor uint64
	for {
		keys, nextCursor, err := rc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			break
		}
		if len(keys) > 0 {
			rc.client.Del(ctx, keys...)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
