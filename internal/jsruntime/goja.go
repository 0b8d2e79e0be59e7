package jsruntime

import (
	"errors"
	"runtime"

	"github.com/dop251/goja"
)

// goja is pure Go, so it is compiled into every build and only becomes the
// default when nothing else is.
func init() {
	if defaultRuntimeType == "" {
		defaultRuntimeType = RuntimeGoja
	}
	Register(RuntimeGoja, func(opts Options) (JSRuntime, error) {
		return NewGojaRuntime(), nil
	})
}

// GojaRuntime wraps a goja VM
type GojaRuntime struct {
	vm *goja.Runtime
}

// NewGojaRuntime creates a new goja runtime
func NewGojaRuntime() *GojaRuntime {
	return &GojaRuntime{vm: goja.New()}
}

// Execute runs JavaScript code and returns the result
func (g *GojaRuntime) Execute(code, origin string) (Completion, error) {
	if g.vm == nil {
		return Completion{}, errors.New("goja runtime destroyed")
	}
	val, err := g.vm.RunScript(origin, code)
	if err != nil {
		return Completion{}, gojaError(err, origin)
	}
	if val == nil || goja.IsUndefined(val) {
		return Completion{Undefined: true}, nil
	}
	return Completion{Text: val.String()}, nil
}

// Assign evaluates expr and stores it on the global object
func (g *GojaRuntime) Assign(path []string, expr, origin string) error {
	holder, err := g.walk(path)
	if err != nil {
		return err
	}
	val, err := g.vm.RunScript(origin, wrapExpression(expr))
	if err != nil {
		return gojaError(err, origin)
	}
	return holder.Set(path[len(path)-1], val)
}

// Bind installs a native function on the global object
func (g *GojaRuntime) Bind(path []string, fn NativeFunc) error {
	holder, err := g.walk(path)
	if err != nil {
		return err
	}
	vm := g.vm
	return holder.Set(path[len(path)-1], func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.String()
		}
		out, err := fn(args)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(out)
	})
}

func (g *GojaRuntime) walk(path []string) (*goja.Object, error) {
	if g.vm == nil {
		return nil, errors.New("goja runtime destroyed")
	}
	if len(path) == 0 {
		return nil, pathError(path)
	}
	obj := g.vm.GlobalObject()
	for _, key := range path[:len(path)-1] {
		val := obj.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return nil, pathError(path)
		}
		obj = val.ToObject(g.vm)
	}
	return obj, nil
}

// GC hints the Go collector, which owns every goja value
func (g *GojaRuntime) GC() {
	runtime.GC()
}

// Destroy permanently destroys the runtime
func (g *GojaRuntime) Destroy() {
	if g.vm != nil {
		g.vm.Interrupt("runtime destroyed")
		g.vm = nil
	}
}

func gojaError(err error, origin string) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &ScriptError{Message: ex.Value().String(), Stack: ex.String(), Origin: origin}
	}
	var syntaxErr *goja.CompilerSyntaxError
	if errors.As(err, &syntaxErr) {
		return &ScriptError{Message: "SyntaxError: " + syntaxErr.Error(), Origin: origin}
	}
	return err
}
