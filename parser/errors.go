package parser

import "fmt"

// ErrorKind classifies why a command string was rejected.
type ErrorKind int

const (
	// Malformed input does not match the grammar at all.
	Malformed ErrorKind = iota
	// AmbiguousTarget means the target was specified more than once.
	AmbiguousTarget
	// UnknownUnit means a duration used an unrecognized unit word.
	UnknownUnit
)

func (k ErrorKind) String() string {
	switch k {
	case AmbiguousTarget:
		return "ambiguous target"
	case UnknownUnit:
		return "unknown unit"
	default:
		return "malformed"
	}
}

// Error is a command rejection. The message is surfaced to the user
// verbatim; the command is never partially applied.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func malformed(format string, args ...interface{}) *Error {
	return &Error{Kind: Malformed, Msg: fmt.Sprintf(format, args...)}
}
