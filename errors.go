package jscbridge

import (
	"errors"
	"strings"
)

// Kind categorizes an engine error
type Kind string

const (
	KindBindingUnavailable Kind = "binding_unavailable"      // engine cannot be loaded at all
	KindConstruction       Kind = "construction_failure"     // any other failure while building a context
	KindBootstrapScript    Kind = "bootstrap_script_failure" // a shim script failed to evaluate
	KindEvaluation         Kind = "evaluation_failure"       // caller script threw
	KindModuleNotFound     Kind = "module_not_found"         // require() could not resolve an id
	KindNotInitialized     Kind = "not_initialized"          // no live context
)

// Error is the structured error returned by the manager and its context.
type Error struct {
	Kind    Kind
	Message string
	Script  string
	Cause   error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrBindingUnavailable = &Error{Kind: KindBindingUnavailable}
	ErrConstruction       = &Error{Kind: KindConstruction}
	ErrBootstrapScript    = &Error{Kind: KindBootstrapScript}
	ErrEvaluation         = &Error{Kind: KindEvaluation}
	ErrModuleNotFound     = &Error{Kind: KindModuleNotFound}
	ErrNotInitialized     = &Error{Kind: KindNotInitialized, Message: "JS engine not initialized"}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteByte(']')
	if e.Script != "" {
		b.WriteString(" ")
		b.WriteString(e.Script)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Kind == e.Kind
}

// userMessage is the text handed to the host's message handler when
// construction fails.
func userMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBindingUnavailable {
		if e.Cause != nil {
			return "JS native bindings missing: " + e.Cause.Error()
		}
		return "JS native bindings missing"
	}
	return "Failed to initialize JS engine: " + err.Error()
}
