package jscbridge

// ModuleInitializer installs host capabilities into a fresh context. It is
// invoked on every construction, so anything it registers survives resets.
type ModuleInitializer interface {
	InitModule(ctx *Context) error
}

// InitializerFunc adapts a function to ModuleInitializer
type InitializerFunc func(ctx *Context) error

func (f InitializerFunc) InitModule(ctx *Context) error {
	return f(ctx)
}

// SetupHook is the host's own module setup. It runs once per construction,
// after the shims and before every registered initializer.
type SetupHook = ModuleInitializer
