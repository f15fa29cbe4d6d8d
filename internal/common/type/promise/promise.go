// Released under an MIT license. See LICENSE.

// Package promise provides rho's delayed-evaluation record.
package promise

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/sym"
)

const name = "promise"

// Forcing states. A promise being forced has state Forcing; one whose
// forcing was cut short by a non-local exit has state Interrupted and
// may be restarted with a warning.
const (
	Unforced uint8 = iota
	Forcing
	Interrupted
)

// T (promise) holds an expression, the environment to evaluate it in,
// and, once forced, its value. Forcing is idempotent.
type T struct {
	code  cell.I
	env   *env.T
	value cell.I
	seen  uint8
}

type promise = T

// New creates an unforced promise over code in e.
func New(code cell.I, e *env.T) *T {
	return &promise{code: code, env: e, value: sym.Unbound}
}

// Forced creates a promise that already holds the value v.
func Forced(code cell.I, v cell.I) *T {
	return &promise{code: code, value: v}
}

// Equal returns true if c is the same promise as p.
func (p *promise) Equal(c cell.I) bool {
	q, ok := c.(*promise)

	return ok && p == q
}

// Name returns the type name for the promise p.
func (p *promise) Name() string {
	return name
}

// Methods specific to promise.

// Code returns the promise's expression.
func (p *promise) Code() cell.I {
	return p.code
}

// Env returns the environment the promise's code evaluates in.
// It is nil once the promise has been forced.
func (p *promise) Env() *env.T {
	return p.env
}

// Fulfill records the forced value and clears the environment slot so
// that it can be reclaimed.
func (p *promise) Fulfill(v cell.I) {
	p.value = v
	p.env = nil
	p.seen = Unforced
}

// IsForced returns true if the promise has a value.
func (p *promise) IsForced() bool {
	return p.value != cell.I(sym.Unbound)
}

// Seen returns the promise's forcing state.
func (p *promise) Seen() uint8 {
	return p.seen
}

// SetSeen sets the promise's forcing state.
func (p *promise) SetSeen(s uint8) {
	p.seen = s
}

// Value returns the forced value, or the unbound marker.
func (p *promise) Value() cell.I {
	return p.value
}

// Is returns true if c is a promise.
func Is(c cell.I) bool {
	_, ok := c.(*promise)

	return ok
}

// To returns the promise if c is a promise; Otherwise it panics.
func To(c cell.I) *promise {
	if t, ok := c.(*promise); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a promise context")
}
