package types

import (
	"errors"
	"fmt"
)

// ErrCompile is the sentinel wrapped by every pattern compilation failure.
var ErrCompile = errors.New("pattern compile error")

// CompileError describes why a pattern could not be compiled.
type CompileError struct {
	Pattern string
	Offset  int // byte offset into Pattern, -1 when not positional
	Reason  string
}

// Error implements error.
func (e *CompileError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("invalid pattern %q at offset %d: %s", e.Pattern, e.Offset, e.Reason)
	}
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

// Unwrap returns ErrCompile so callers can use errors.Is.
func (e *CompileError) Unwrap() error {
	return ErrCompile
}

// NewCompileError builds a CompileError at the given offset.
func NewCompileError(pattern string, offset int, format string, args ...any) *CompileError {
	return &CompileError{
		Pattern: pattern,
		Offset:  offset,
		Reason:  fmt.Sprintf(format, args...),
	}
}
