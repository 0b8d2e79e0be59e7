package jscbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yejune/go-jsc-bridge/internal/jsruntime"
	"github.com/yejune/go-jsc-bridge/internal/shim"
)

// Runtime is a live engine context as produced by a RuntimeFactory
type Runtime = jsruntime.JSRuntime

// RuntimeOptions is handed to a RuntimeFactory
type RuntimeOptions = jsruntime.Options

// Completion is what a Runtime reports a script evaluated to
type Completion = jsruntime.Completion

// NativeFunc is a Go function exposed to script. Arguments arrive as strings.
type NativeFunc = jsruntime.NativeFunc

// Context is the engine handle. The manager owns it exclusively; initializers
// receive it for the duration of their call and must not keep it past a reset.
type Context struct {
	rt         Runtime
	logger     *slog.Logger
	generation uint64
}

func newContext(rt Runtime, logger *slog.Logger, generation uint64) *Context {
	return &Context{rt: rt, logger: logger, generation: generation}
}

// Generation counts constructions of the owning manager, starting at 1.
func (c *Context) Generation() uint64 {
	return c.generation
}

// Evaluate runs source under the given origin name.
func (c *Context) Evaluate(source, name string) Result {
	if c.rt == nil {
		return failure(ErrNotInitialized)
	}
	if name == "" {
		name = DefaultScriptName
	}
	res, err := c.rt.Execute(source, name)
	if err != nil {
		kind := KindEvaluation
		var scriptErr *jsruntime.ScriptError
		if errors.As(err, &scriptErr) && isModuleNotFound(scriptErr.Message) {
			kind = KindModuleNotFound
		}
		c.logger.Error("Script evaluation failed", "script", name, "error", err)
		return failure(&Error{Kind: kind, Script: name, Message: "script threw", Cause: err})
	}
	if res.Undefined {
		return Result{Kind: ResultEmpty}
	}
	return Result{Kind: ResultValue, Value: res.Text}
}

// isModuleNotFound matches the exception require throws. Engines render it
// either bare or as "Error: <message>".
func isModuleNotFound(message string) bool {
	return strings.HasPrefix(strings.TrimPrefix(message, "Error: "), shim.ModuleNotFound)
}

// RegisterModule exposes the value of objectExpression to require(name).
// The name is set through the engine's property API, never spliced into
// source. Registering a name again replaces the previous value.
func (c *Context) RegisterModule(name, objectExpression string) error {
	if c.rt == nil {
		return ErrNotInitialized
	}
	origin := "module:" + name
	if err := c.rt.Assign([]string{shim.Packages, name}, objectExpression, origin); err != nil {
		return &Error{Kind: KindEvaluation, Script: origin, Message: "failed to register module " + name, Cause: err}
	}
	c.logger.Debug("Registered virtual package", "name", name)
	return nil
}

// RegisterValue exposes a JSON-encodable Go value to require(name).
func (c *Context) RegisterValue(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding module %s: %w", name, err)
	}
	return c.RegisterModule(name, string(data))
}

// RegisterNativeModule exposes an object of Go functions to require(name).
// The object is assembled off to the side, so a failed bind leaves any
// previous package of that name in place.
func (c *Context) RegisterNativeModule(name string, funcs map[string]NativeFunc) error {
	if c.rt == nil {
		return ErrNotInitialized
	}
	if err := c.rt.Assign([]string{shim.Staging}, "{}", "module:"+name); err != nil {
		return &Error{Kind: KindEvaluation, Script: "module:" + name, Message: "failed to register module " + name, Cause: err}
	}
	defer c.rt.Execute("delete globalThis."+shim.Staging, "module:"+name)

	keys := make([]string, 0, len(funcs))
	for k := range funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.rt.Bind([]string{shim.Staging, k}, funcs[k]); err != nil {
			return fmt.Errorf("binding %s.%s: %w", name, k, err)
		}
	}
	return c.RegisterModule(name, "globalThis."+shim.Staging)
}

// SetObjectForKey binds a native function as a global.
func (c *Context) SetObjectForKey(key string, fn NativeFunc) error {
	if c.rt == nil {
		return ErrNotInitialized
	}
	return c.rt.Bind([]string{key}, fn)
}

// ConsoleLogs returns every line the console shim recorded in this context.
func (c *Context) ConsoleLogs() ([]string, error) {
	if c.rt == nil {
		return nil, ErrNotInitialized
	}
	res, err := c.rt.Execute(shim.ReadConsoleLogs, "console_logs.js")
	if err != nil {
		return nil, err
	}
	var lines []string
	if err := json.Unmarshal([]byte(res.Text), &lines); err != nil {
		return nil, fmt.Errorf("decoding console buffer: %w", err)
	}
	return lines, nil
}

// GarbageCollect forwards a collection hint to the engine
func (c *Context) GarbageCollect() {
	if c.rt != nil {
		c.rt.GC()
	}
}

func (c *Context) release() {
	if c.rt != nil {
		c.rt.Destroy()
		c.rt = nil
	}
}
