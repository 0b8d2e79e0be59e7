package jsruntime

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// RuntimeType represents the type of JavaScript runtime
type RuntimeType string

const (
	RuntimeQuickJS RuntimeType = "quickjs"
	RuntimeV8      RuntimeType = "v8"
	RuntimeGoja    RuntimeType = "goja"
)

// defaultRuntimeType is set by init() in the build-specific files
var defaultRuntimeType RuntimeType

// ErrBindingUnavailable is returned when the requested engine is not compiled
// into the running binary.
var ErrBindingUnavailable = errors.New("js engine binding unavailable")

// NativeFunc is a Go function callable from script. Arguments are coerced to
// strings; a non-nil error is thrown as a script exception.
type NativeFunc func(args []string) (string, error)

// Completion is the value a script evaluated to.
type Completion struct {
	Text      string
	Undefined bool
}

// JSRuntime is one live JavaScript execution context
type JSRuntime interface {
	// Execute runs a script and returns its completion value
	Execute(code, origin string) (Completion, error)
	// Assign evaluates expr on its own and stores the result at path on the
	// global object. Every element of path except the last must already exist.
	Assign(path []string, expr, origin string) error
	// Bind installs fn at path on the global object
	Bind(path []string, fn NativeFunc) error
	// GC hints the engine to collect garbage
	GC()
	// Destroy permanently destroys the runtime
	Destroy()
}

// Options configures a new runtime
type Options struct {
	Type        RuntimeType
	MemoryLimit int64 // bytes, 0 = engine default
}

// Constructor creates a runtime of one concrete type.
type Constructor func(opts Options) (JSRuntime, error)

var (
	registryMu sync.RWMutex
	registry   = map[RuntimeType]Constructor{}
)

// Register makes a runtime constructor available under name.
func Register(name RuntimeType, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// DefaultRuntimeType returns the runtime type for this build
func DefaultRuntimeType() RuntimeType {
	return defaultRuntimeType
}

// Available lists the runtimes compiled into this binary.
func Available() []RuntimeType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]RuntimeType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// New creates a runtime. An empty Type selects the build default.
func New(opts Options) (JSRuntime, error) {
	if opts.Type == "" {
		opts.Type = defaultRuntimeType
	}
	registryMu.RLock()
	ctor, ok := registry[opts.Type]
	registryMu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("%w: runtime %q is not compiled into this binary", ErrBindingUnavailable, opts.Type)
	}
	return ctor(opts)
}

// ScriptError is an exception raised by script code.
type ScriptError struct {
	Message string
	Stack   string
	Origin  string
}

func (e *ScriptError) Error() string {
	if e.Stack == "" {
		return e.Message
	}
	if strings.Contains(e.Stack, e.Message) {
		return e.Stack
	}
	return e.Message + "\n" + e.Stack
}

func pathError(path []string) error {
	return fmt.Errorf("invalid global path %q", strings.Join(path, "."))
}

// wrapExpression makes expr parse as an expression even when it is an object
// literal. The line breaks keep a trailing line comment from eating the paren.
func wrapExpression(expr string) string {
	return "(\n" + expr + "\n)"
}
