package jscbridge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/yejune/go-jsc-bridge/internal/jsruntime"
)

// DefaultScriptName is the origin used when a script is evaluated without one.
const DefaultScriptName = "script.js"

// BootstrapPolicy decides what a failing bootstrap script does to construction.
type BootstrapPolicy string

const (
	// BootstrapAbort fails construction like any other error
	BootstrapAbort BootstrapPolicy = "abort"
	// BootstrapContinue logs the failure and keeps building the context
	BootstrapContinue BootstrapPolicy = "continue"
)

// RuntimeType names a JS engine backend
type RuntimeType = jsruntime.RuntimeType

const (
	RuntimeV8      = jsruntime.RuntimeV8
	RuntimeQuickJS = jsruntime.RuntimeQuickJS
	RuntimeGoja    = jsruntime.RuntimeGoja
)

// Config holds the manager configuration. The zero value is usable once
// Validate has filled in defaults.
type Config struct {
	Runtime           RuntimeType     `toml:"runtime"`
	MemoryLimit       int64           `toml:"memory_limit"` // bytes, honoured by quickjs
	BootstrapPolicy   BootstrapPolicy `toml:"bootstrap_policy"`
	DefaultScriptName string          `toml:"default_script_name"`
	LogLevel          string          `toml:"log_level"`
}

// Validate fills defaults and rejects values the manager cannot use
func (c *Config) Validate() error {
	if c.Runtime == "" {
		c.Runtime = jsruntime.DefaultRuntimeType()
	}
	if c.MemoryLimit < 0 {
		return fmt.Errorf("memory_limit must not be negative, got %d", c.MemoryLimit)
	}
	switch c.BootstrapPolicy {
	case "":
		c.BootstrapPolicy = BootstrapAbort
	case BootstrapAbort, BootstrapContinue:
	default:
		return fmt.Errorf("unknown bootstrap_policy %q", c.BootstrapPolicy)
	}
	if c.DefaultScriptName == "" {
		c.DefaultScriptName = DefaultScriptName
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LoadConfig reads a TOML file. Sections other than the top-level keys are
// ignored so the same file can carry host settings.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
