// Released under an MIT license. See LICENSE.

// Package prim provides the primitive function type: operations
// implemented in Go rather than rho. A builtin receives its arguments
// evaluated; a special receives them as written.
package prim

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/env"
)

// Interp is the view of the evaluator a primitive gets. It is the
// seam between the primitives and the machine that runs them.
type Interp interface {
	// Eval evaluates expr in e.
	Eval(expr cell.I, e *env.T) cell.I

	// EvalArgs evaluates an argument pairlist left to right,
	// splicing "..." and preserving tags.
	EvalArgs(args cell.I, e *env.T) cell.I

	// Apply applies fn to already-processed args under call.
	Apply(fn, call, args cell.I, e *env.T) cell.I

	// Force forces c if it is a promise and returns its value.
	Force(c cell.I) cell.I

	// Visible controls whether the result of the current top-level
	// expression is printed.
	Visible(on bool)

	// Errorf raises an evaluation error. It does not return.
	Errorf(call cell.I, format string, args ...interface{})

	// Warningf collects a warning.
	Warningf(call cell.I, format string, args ...interface{})
}

// Fn is the Go implementation of a primitive. For a special, args is
// the unevaluated cdr of call; for a builtin, a pairlist of values.
type Fn func(ip Interp, call, args cell.I, e *env.T) cell.I

// T (prim) is a primitive function.
type T struct {
	name    string
	fn      Fn
	special bool
}

type prim = T

// New creates a builtin: a primitive with evaluated arguments.
func New(name string, fn Fn) *T {
	return &prim{name: name, fn: fn}
}

// Special creates a special: a primitive that sees its arguments
// unevaluated.
func Special(name string, fn Fn) *T {
	return &prim{name: name, fn: fn, special: true}
}

// Equal returns true if c is the same primitive as p.
func (p *prim) Equal(c cell.I) bool {
	q, ok := c.(*prim)

	return ok && p == q
}

// Name returns the type name for the primitive p.
func (p *prim) Name() string {
	if p.special {
		return "special"
	}

	return "builtin"
}

// Methods specific to prim.

// Apply runs the primitive.
func (p *prim) Apply(ip Interp, call, args cell.I, e *env.T) cell.I {
	return p.fn(ip, call, args, e)
}

// Label returns the name the primitive is bound to in the base
// environment.
func (p *prim) Label() string {
	return p.name
}

// IsSpecial returns true if the primitive sees unevaluated arguments.
func (p *prim) IsSpecial() bool {
	return p.special
}

// Is returns true if c is a primitive.
func Is(c cell.I) bool {
	_, ok := c.(*prim)

	return ok
}

// To returns the primitive if c is a primitive; Otherwise it panics.
func To(c cell.I) *prim {
	if t, ok := c.(*prim); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a function context")
}
