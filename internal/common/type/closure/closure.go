// Released under an MIT license. See LICENSE.

// Package closure provides rho's function type: formals, body, and the
// environment captured at creation, plus the compile-policy bits used
// by the JIT layer.
package closure

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/env"
)

const name = "closure"

// T (closure) is a user-defined function.
type T struct {
	formals cell.I // Pairlist of (name, default) pairs.
	body    cell.I // Replaced in place by a bytecode object when compiled.
	env     *env.T

	nojit    bool
	maybejit bool
}

type closure = T

// New creates a closure.
func New(formals, body cell.I, e *env.T) *T {
	return &closure{formals: formals, body: body, env: e}
}

// Equal returns true if c is the same closure as f.
func (f *closure) Equal(c cell.I) bool {
	q, ok := c.(*closure)

	return ok && f == q
}

// Name returns the type name for the closure f.
func (f *closure) Name() string {
	return name
}

// Methods specific to closure.

// Body returns the closure's body.
func (f *closure) Body() cell.I {
	return f.body
}

// Env returns the environment the closure captured.
func (f *closure) Env() *env.T {
	return f.env
}

// Formals returns the closure's formal argument list.
func (f *closure) Formals() cell.I {
	return f.formals
}

// MaybeJIT returns true if the closure should compile on next sighting.
func (f *closure) MaybeJIT() bool {
	return f.maybejit
}

// NoJIT returns true if the closure must never be compiled.
func (f *closure) NoJIT() bool {
	return f.nojit
}

// SetBody replaces the closure's body (with a bytecode object, when
// compilation succeeds).
func (f *closure) SetBody(b cell.I) {
	f.body = b
}

// SetMaybeJIT sets the compile-on-next-sighting bit.
func (f *closure) SetMaybeJIT(v bool) {
	f.maybejit = v
}

// SetNoJIT marks the closure as never to be compiled.
func (f *closure) SetNoJIT() {
	f.nojit = true
	f.maybejit = false
}

// Is returns true if c is a closure.
func Is(c cell.I) bool {
	_, ok := c.(*closure)

	return ok
}

// To returns the closure if c is a closure; Otherwise it panics.
func To(c cell.I) *closure {
	if t, ok := c.(*closure); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a function context")
}
