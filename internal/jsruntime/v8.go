//go:build !use_quickjs

package jsruntime

import (
	"errors"
	"fmt"

	v8 "rogchap.com/v8go"
)

func init() {
	// gc() is only reachable from script when the flag is set before the
	// first isolate is created.
	v8.SetFlags("--expose-gc")
	defaultRuntimeType = RuntimeV8
	Register(RuntimeV8, func(opts Options) (JSRuntime, error) {
		return NewV8Runtime(), nil
	})
}

// V8Runtime wraps a V8 isolate and its single context
type V8Runtime struct {
	isolate *v8.Isolate
	context *v8.Context
}

// NewV8Runtime creates a new V8 runtime
func NewV8Runtime() *V8Runtime {
	isolate := v8.NewIsolate()
	context := v8.NewContext(isolate)
	return &V8Runtime{
		isolate: isolate,
		context: context,
	}
}

// Execute runs JavaScript code and returns the result
func (v *V8Runtime) Execute(code, origin string) (Completion, error) {
	if v.context == nil {
		return Completion{}, errors.New("v8 runtime destroyed")
	}
	val, err := v.context.RunScript(code, origin)
	if err != nil {
		return Completion{}, v8Error(err, origin)
	}
	if val == nil || val.IsUndefined() {
		return Completion{Undefined: true}, nil
	}
	return Completion{Text: val.String()}, nil
}

// Assign evaluates expr and stores it on the global object
func (v *V8Runtime) Assign(path []string, expr, origin string) error {
	if v.context == nil {
		return errors.New("v8 runtime destroyed")
	}
	holder, err := v.walk(path)
	if err != nil {
		return err
	}
	val, err := v.context.RunScript(wrapExpression(expr), origin)
	if err != nil {
		return v8Error(err, origin)
	}
	return holder.Set(path[len(path)-1], val)
}

// Bind installs a native function on the global object
func (v *V8Runtime) Bind(path []string, fn NativeFunc) error {
	if v.context == nil {
		return errors.New("v8 runtime destroyed")
	}
	holder, err := v.walk(path)
	if err != nil {
		return err
	}
	iso := v.isolate
	tmpl := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		strs := make([]string, len(args))
		for i, a := range args {
			strs[i] = a.String()
		}
		out, err := fn(strs)
		if err != nil {
			msg, _ := v8.NewValue(iso, err.Error())
			return iso.ThrowException(msg)
		}
		res, _ := v8.NewValue(iso, out)
		return res
	})
	return holder.Set(path[len(path)-1], tmpl.GetFunction(v.context))
}

// walk resolves every element of path but the last
func (v *V8Runtime) walk(path []string) (*v8.Object, error) {
	if len(path) == 0 {
		return nil, pathError(path)
	}
	obj := v.context.Global()
	for _, key := range path[:len(path)-1] {
		val, err := obj.Get(key)
		if err != nil {
			return nil, err
		}
		if val.IsUndefined() || val.IsNull() {
			return nil, pathError(path)
		}
		if obj, err = val.AsObject(); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// GC runs a full collection through the exposed gc() builtin
func (v *V8Runtime) GC() {
	if v.context == nil {
		return
	}
	v.context.RunScript(`typeof gc === 'function' && gc()`, "gc.js")
}

// Destroy permanently destroys the runtime
func (v *V8Runtime) Destroy() {
	if v.context != nil {
		v.context.Close()
		v.context = nil
	}
	if v.isolate != nil {
		v.isolate.Dispose()
		v.isolate = nil
	}
}

func v8Error(err error, origin string) error {
	var jsErr *v8.JSError
	if errors.As(err, &jsErr) {
		return &ScriptError{Message: jsErr.Message, Stack: jsErr.StackTrace, Origin: origin}
	}
	return fmt.Errorf("v8: %w", err)
}
