//go:build use_quickjs

package jsruntime

import (
	"errors"

	"github.com/buke/quickjs-go"
)

func init() {
	defaultRuntimeType = RuntimeQuickJS
	Register(RuntimeQuickJS, func(opts Options) (JSRuntime, error) {
		return NewQuickJSRuntime(opts)
	})
}

// QuickJSRuntime wraps a QuickJS runtime and its single context
type QuickJSRuntime struct {
	runtime *quickjs.Runtime
	context *quickjs.Context
}

// NewQuickJSRuntime creates a new QuickJS runtime
func NewQuickJSRuntime(opts Options) (*QuickJSRuntime, error) {
	rt := quickjs.NewRuntime()
	if rt == nil {
		return nil, errors.New("quickjs: failed to create runtime")
	}
	if opts.MemoryLimit > 0 {
		rt.SetMemoryLimit(uint64(opts.MemoryLimit))
	}
	ctx := rt.NewContext()
	if ctx == nil {
		rt.Close()
		return nil, errors.New("quickjs: failed to create context")
	}
	return &QuickJSRuntime{
		runtime: rt,
		context: ctx,
	}, nil
}

func (q *QuickJSRuntime) eval(code, origin string) (*quickjs.Value, error) {
	if q.context == nil {
		return nil, errors.New("quickjs runtime destroyed")
	}
	res := q.context.Eval(code, quickjs.EvalFlagGlobal(true), quickjs.EvalFileName(origin))
	if res.IsException() {
		res.Free()
		err := q.context.Exception()
		if err == nil {
			err = errors.New("quickjs eval exception")
		}
		return nil, &ScriptError{Message: err.Error(), Origin: origin}
	}
	return res, nil
}

// Execute runs JavaScript code and returns the result
func (q *QuickJSRuntime) Execute(code, origin string) (Completion, error) {
	res, err := q.eval(code, origin)
	if err != nil {
		return Completion{}, err
	}
	defer res.Free()
	if res.IsUndefined() {
		return Completion{Undefined: true}, nil
	}
	return Completion{Text: res.String()}, nil
}

// Assign evaluates expr and stores it on the global object
func (q *QuickJSRuntime) Assign(path []string, expr, origin string) error {
	holder, release, err := q.walk(path)
	if err != nil {
		return err
	}
	defer release()
	val, err := q.eval(wrapExpression(expr), origin)
	if err != nil {
		return err
	}
	// Set takes ownership of val
	holder.Set(path[len(path)-1], val)
	return nil
}

// Bind installs a native function on the global object
func (q *QuickJSRuntime) Bind(path []string, fn NativeFunc) error {
	holder, release, err := q.walk(path)
	if err != nil {
		return err
	}
	defer release()
	f := q.context.NewFunction(func(ctx *quickjs.Context, this *quickjs.Value, args []*quickjs.Value) *quickjs.Value {
		strs := make([]string, len(args))
		for i, a := range args {
			strs[i] = a.String()
		}
		out, err := fn(strs)
		if err != nil {
			return ctx.ThrowError(err)
		}
		return ctx.String(out)
	})
	holder.Set(path[len(path)-1], f)
	return nil
}

// walk resolves every element of path but the last. The release func frees
// the intermediate values it had to look up.
func (q *QuickJSRuntime) walk(path []string) (*quickjs.Value, func(), error) {
	if q.context == nil {
		return nil, nil, errors.New("quickjs runtime destroyed")
	}
	if len(path) == 0 {
		return nil, nil, pathError(path)
	}
	var owned []*quickjs.Value
	release := func() {
		for i := len(owned) - 1; i >= 0; i-- {
			owned[i].Free()
		}
	}
	obj := q.context.Globals()
	for _, key := range path[:len(path)-1] {
		next := obj.Get(key)
		owned = append(owned, next)
		if next.IsUndefined() || next.IsNull() || !next.IsObject() {
			release()
			return nil, nil, pathError(path)
		}
		obj = next
	}
	return obj, release, nil
}

// GC runs the QuickJS cycle collector
func (q *QuickJSRuntime) GC() {
	if q.runtime != nil {
		q.runtime.RunGC()
	}
}

// Destroy permanently destroys the runtime
func (q *QuickJSRuntime) Destroy() {
	if q.context != nil {
		q.context.Close()
		q.context = nil
	}
	if q.runtime != nil {
		q.runtime.Close()
		q.runtime = nil
	}
}
