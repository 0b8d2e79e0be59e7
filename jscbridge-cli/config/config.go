// Package config loads the CLI's TOML file: the manager settings at the top
// level plus [cache] and [logs] sections.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	jscbridge "github.com/yejune/go-jsc-bridge"
	"github.com/yejune/go-jsc-bridge/internal/cache"
)

// Logs configures where console output goes besides the terminal
type Logs struct {
	// Addr serves a websocket log stream, e.g. "127.0.0.1:7070"
	Addr string `toml:"addr"`
	// Path is the SQLite archive file
	Path string `toml:"path"`
	// Buffer is the async delivery queue length
	Buffer int `toml:"buffer"`
}

// File is the whole CLI configuration
type File struct {
	jscbridge.Config
	Cache cache.Config `toml:"cache"`
	Logs  Logs         `toml:"logs"`
}

// Load reads path. An empty path yields the defaults.
func Load(path string) (File, error) {
	var f File
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return File{}, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	if err := f.Config.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}
