// Package validator holds the checksum and structural checks run when a
// pattern walk reaches a terminal node, plus the per-attempt State they read.
package validator

import (
	"sort"
)

// Validator confirms that a candidate shape is a genuine sensitive-data
// instance. Implementations are pure functions of the State and keep no
// state of their own.
type Validator interface {
	// Name returns the identifier used in patterns (\V{name}) and rule files.
	Name() string

	// Validate reports whether the digits accumulated in st pass the check.
	Validate(st *State) bool
}

// Func adapts a plain function to the Validator interface.
type Func struct {
	name string
	fn   func(st *State) bool
}

// NewFunc creates a named Validator from fn.
func NewFunc(name string, fn func(st *State) bool) Func {
	return Func{name: name, fn: fn}
}

// Name returns the validator name.
func (f Func) Name() string {
	return f.name
}

// Validate runs the wrapped function.
func (f Func) Validate(st *State) bool {
	return f.fn(st)
}

// builtins is read-only after package initialization.
var builtins = map[string]Validator{
	"luhn": NewFunc("luhn", Luhn),
	"card": NewFunc("card", Card),
	"ssn":  NewFunc("ssn", SSN),
}

// Lookup returns the built-in validator registered under name.
func Lookup(name string) (Validator, bool) {
	v, ok := builtins[name]
	return v, ok
}

// Names returns the registered validator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
