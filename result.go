package jscbridge

// ResultKind tells an evaluation outcome apart
type ResultKind int

const (
	ResultValue   ResultKind = iota // completed with a value
	ResultEmpty                     // completed with undefined
	ResultFailure                   // threw, or no engine
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "value"
	case ResultEmpty:
		return "empty"
	default:
		return "failure"
	}
}

// Result is the outcome of evaluating a script.
type Result struct {
	Kind  ResultKind
	Value string
	Err   error
}

// OK reports whether the script ran to completion
func (r Result) OK() bool {
	return r.Kind != ResultFailure
}

// String returns the completion value, or "" for empty and failed results.
func (r Result) String() string {
	return r.Value
}

func failure(err error) Result {
	return Result{Kind: ResultFailure, Err: err}
}
