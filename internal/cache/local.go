package cache

import (
	"sort"
	"sync"

	"github.com/yejune/go-jsc-bridge/internal/bundler"
)

// LocalCache is an in-memory cache implementation
type LocalCache struct {
	builds map[string]bundler.Result
	lock   sync.RWMutex
}

// NewLocalCache creates a new in-memory cache
func NewLocalCache() *LocalCache {
	return &LocalCache{builds: make(map[string]bundler.Result)}
}

func (lc *LocalCache) Get(entry string) (bundler.Result, bool) {
	lc.lock.RLock()
	defer lc.lock.RUnlock()
	build, ok := lc.builds[entry]
	return build, ok
}

func (lc *LocalCache) Set(entry string, build bundler.Result) {
	lc.lock.Lock()
	defer lc.lock.Unlock()
	lc.builds[entry] = build
}

func (lc *LocalCache) Remove(entry string) {
	lc.lock.Lock()
	defer lc.lock.Unlock()
	delete(lc.builds, entry)
}

func (lc *LocalCache) Dependents(path string) []string {
	lc.lock.RLock()
	defer lc.lock.RUnlock()
	var entries []string
	for entry, build := range lc.builds {
		if dependsOn(entry, build, path) {
			entries = append(entries, entry)
		}
	}
	sort.Strings(entries)
	return entries
}

// Clear removes all cached bundles
func (lc *LocalCache) Clear() {
	lc.lock.Lock()
	lc.builds = make(map[string]bundler.Result)
	lc.lock.Unlock()
}

func (lc *LocalCache) Close() error {
	return nil
}
