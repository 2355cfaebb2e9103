package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a compilation failure.
type ErrorKind string

const (
	UnsupportedConstruct ErrorKind = "UnsupportedConstruct"
	UnresolvedCallee     ErrorKind = "UnresolvedCallee"
	ArityMismatch        ErrorKind = "ArityMismatch"
	MissingArgument      ErrorKind = "MissingArgument"
	MultipleVariadic     ErrorKind = "MultipleVariadic"
	UnsupportedFeature   ErrorKind = "UnsupportedFeature"
)

// CompileError is the single structured failure a compilation reports.
// All compile errors are fatal; no output accompanies them.
type CompileError struct {
	Kind   ErrorKind
	Detail string
}

func (e *CompileError) Error() string {
	return string(e.Kind) + ": " + e.Detail
}

func compileErrorf(kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a CompileError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Kind == kind
}
