package jscbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/yejune/go-jsc-bridge/internal/jsruntime"
	"github.com/yejune/go-jsc-bridge/internal/shim"
)

// State is the lifecycle state of a Manager
type State int32

const (
	StateUninitialized State = iota
	StateConstructing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConstructing:
		return "constructing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// RuntimeFactory loads the native engine binding and creates a context.
type RuntimeFactory func(opts RuntimeOptions) (Runtime, error)

// UserMessageHandler is told about construction failures. Every failure is
// currently reported with fatal set.
type UserMessageHandler func(message string, fatal bool)

// Manager owns one engine context and rebuilds it on demand. It is not safe
// for concurrent use: evaluation, registration and resets must come from one
// goroutine at a time.
type Manager struct {
	Logger *slog.Logger
	Config *Config

	factory      RuntimeFactory
	setupHook    SetupHook
	sink         LogSink
	onMessage    UserMessageHandler
	initializers []ModuleInitializer

	state      State
	ctx        *Context
	generation uint64
	lastErr    error
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger replaces the default stderr logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.Logger = logger
		}
	}
}

// WithSetupHook sets the host module setup, run before any initializer.
func WithSetupHook(hook SetupHook) Option {
	return func(m *Manager) {
		m.setupHook = hook
	}
}

// WithRuntimeFactory overrides how engine contexts are created.
func WithRuntimeFactory(factory RuntimeFactory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.factory = factory
		}
	}
}

// WithLogSink forwards console output to sink
func WithLogSink(sink LogSink) Option {
	return func(m *Manager) {
		m.sink = sink
	}
}

// WithUserMessageHandler sets the construction failure callback
func WithUserMessageHandler(fn UserMessageHandler) Option {
	return func(m *Manager) {
		m.onMessage = fn
	}
}

// New creates an uninitialized Manager. Call Initialize to build the context.
func New(config Config, opts ...Option) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	level, _ := config.level()
	m := &Manager{
		Logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		Config:  &config,
		factory: jsruntime.New,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// SetUserMessageHandler replaces the construction failure callback
func (m *Manager) SetUserMessageHandler(fn UserMessageHandler) {
	m.onMessage = fn
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	return m.state
}

// LastError returns the error of the most recent failed construction, or nil
// once a construction succeeds.
func (m *Manager) LastError() error {
	return m.lastErr
}

// GetContext returns the live context, or nil when uninitialized or failed.
func (m *Manager) GetContext() *Context {
	return m.ctx
}

// Initialize discards any existing context and builds a new one: console
// bridge, CommonJS shim, setup hook, then every initializer in registration
// order. A failure leaves the manager without a context; it is logged,
// reported once to the message handler with fatal set, and returned.
func (m *Manager) Initialize() error {
	m.discard()
	setActive(m)
	m.state = StateConstructing
	m.generation++

	ctx, err := m.construct()
	if err != nil {
		m.state = StateUninitialized
		m.lastErr = err
		if errors.Is(err, ErrBindingUnavailable) {
			m.Logger.Error("Failed to load JS native bindings", "runtime", m.Config.Runtime, "error", err)
		} else {
			m.Logger.Error("Failed to initialize JS engine", "runtime", m.Config.Runtime, "error", err)
		}
		if m.onMessage != nil {
			m.onMessage(userMessage(err), true)
		}
		return err
	}

	m.ctx = ctx
	m.state = StateReady
	m.lastErr = nil
	m.Logger.Info("JS engine initialized",
		"runtime", m.Config.Runtime,
		"generation", m.generation,
		"initializers", len(m.initializers))
	return nil
}

func (m *Manager) construct() (ctx *Context, err error) {
	var rt Runtime
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindConstruction, Message: fmt.Sprintf("panic: %v", r)}
		}
		if err != nil {
			if rt != nil {
				rt.Destroy()
			}
			ctx = nil
		}
	}()

	m.Logger.Debug("Starting JS engine", "runtime", m.Config.Runtime, "generation", m.generation)
	rt, err = m.factory(RuntimeOptions{Type: m.Config.Runtime, MemoryLimit: m.Config.MemoryLimit})
	if err != nil {
		if errors.Is(err, jsruntime.ErrBindingUnavailable) {
			return nil, &Error{Kind: KindBindingUnavailable, Message: "JS native bindings missing", Cause: err}
		}
		return nil, &Error{Kind: KindConstruction, Message: "creating runtime", Cause: err}
	}
	if rt == nil {
		return nil, &Error{Kind: KindConstruction, Message: "runtime factory returned nil"}
	}

	c := newContext(rt, m.Logger, m.generation)
	if err := m.bootstrap(shim.ConsoleOrigin, func() error { return installConsole(c, m.sink) }); err != nil {
		return nil, err
	}
	if err := m.bootstrap(shim.CommonJSOrigin, func() error { return installCommonJS(c) }); err != nil {
		return nil, err
	}
	if m.setupHook != nil {
		if err := m.setupHook.InitModule(c); err != nil {
			return nil, &Error{Kind: KindConstruction, Message: "module setup hook failed", Cause: err}
		}
	}
	for i, mi := range m.initializers {
		if err := mi.InitModule(c); err != nil {
			return nil, &Error{Kind: KindConstruction, Message: fmt.Sprintf("module initializer %d failed", i), Cause: err}
		}
	}
	return c, nil
}

// bootstrap applies the configured policy to one shim install step
func (m *Manager) bootstrap(script string, install func() error) error {
	err := install()
	if err == nil {
		return nil
	}
	if m.Config.BootstrapPolicy == BootstrapContinue {
		m.Logger.Error("Bootstrap script failed, continuing", "script", script, "error", err)
		return nil
	}
	return &Error{Kind: KindBootstrapScript, Script: script, Message: "bootstrap script failed", Cause: err}
}

// AddModuleInitializer appends mi to the replay list. When a context is
// live, mi also runs against it right away; its error is returned but mi
// stays registered for future constructions.
func (m *Manager) AddModuleInitializer(mi ModuleInitializer) error {
	if mi == nil {
		return errors.New("nil module initializer")
	}
	m.initializers = append(m.initializers, mi)
	if m.state != StateReady || m.ctx == nil {
		return nil
	}
	if err := mi.InitModule(m.ctx); err != nil {
		m.Logger.Error("Module initializer failed", "index", len(m.initializers)-1, "error", err)
		return fmt.Errorf("module initializer: %w", err)
	}
	return nil
}

// RegisterModule exposes objectExpression to require(name) in the current
// context only. Use a ModuleInitializer to keep it across resets.
func (m *Manager) RegisterModule(name, objectExpression string) error {
	if m.ctx == nil {
		m.Logger.Warn("RegisterModule without a JS engine", "name", name)
		return ErrNotInitialized
	}
	return m.ctx.RegisterModule(name, objectExpression)
}

// Evaluate runs source in the current context. An empty name falls back to
// Config.DefaultScriptName.
func (m *Manager) Evaluate(source, name string) Result {
	if m.ctx == nil {
		return failure(ErrNotInitialized)
	}
	if name == "" {
		name = m.Config.DefaultScriptName
	}
	return m.ctx.Evaluate(source, name)
}

// EvaluateScript is Evaluate reduced to a string. It returns "" when there is
// no context, when the script fails, and when it evaluates to undefined.
func (m *Manager) EvaluateScript(source, name string) string {
	return m.Evaluate(source, name).String()
}

// GarbageCollect forwards a collection hint when a context exists
func (m *Manager) GarbageCollect() {
	if m.ctx != nil {
		m.ctx.GarbageCollect()
	}
}

// Cleanup releases the context. Initializers stay registered.
func (m *Manager) Cleanup() {
	m.discard()
	m.Logger.Debug("JS engine released")
}

func (m *Manager) discard() {
	if m.ctx != nil {
		m.ctx.release()
		m.ctx = nil
	}
	m.state = StateUninitialized
}
