// Released under an MIT license. See LICENSE.

// Package env provides rho's first-class environment type.
package env

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/binding"
	"github.com/rho-lang/rho/internal/common/type/sym"
)

const name = "environment"

// T (env) is a frame of bindings plus an enclosing environment.
// Every chain of environments terminates at Empty.
type T struct {
	frame     map[*sym.T]*binding.T
	order     []*sym.T
	enclosing *T

	locked     bool
	noSpecials bool
}

type env = T

//nolint:gochecknoglobals
var (
	// Empty is the distinguished empty environment terminating
	// every enclosing chain. It is locked and has no frame.
	Empty *T
)

// New creates a new env enclosed by enclosing.
func New(enclosing *T) *T {
	if enclosing == nil {
		enclosing = Empty
	}

	return &env{
		frame:      map[*sym.T]*binding.T{},
		enclosing:  enclosing,
		noSpecials: true,
	}
}

// Equal returns true if c is the same env as e.
func (e *env) Equal(c cell.I) bool {
	return Is(c) && e == To(c)
}

// Name returns the type name for the env e.
func (e *env) Name() string {
	return name
}

// Methods specific to env.

// Define creates or replaces the binding for s in e's own frame.
func (e *env) Define(s *sym.T, v cell.I) *binding.T {
	b, ok := e.frame[s]
	if ok {
		b.Set(v)

		return b
	}

	if e.locked {
		panic("cannot add bindings to a locked environment")
	}

	b = binding.New(v)
	e.frame[s] = b
	e.order = append(e.order, s)

	if special(s) {
		e.noSpecials = false
	}

	return b
}

// DefineBinding installs a prepared binding for s in e's own frame.
func (e *env) DefineBinding(s *sym.T, b *binding.T) {
	if e.locked {
		panic("cannot add bindings to a locked environment")
	}

	if _, ok := e.frame[s]; !ok {
		e.order = append(e.order, s)
	}

	e.frame[s] = b
}

// Enclosing returns the enclosing environment.
func (e *env) Enclosing() *T {
	return e.enclosing
}

// Find walks the enclosing chain and returns the first environment
// with a binding for s, along with the binding.
func (e *env) Find(s *sym.T) (*T, *binding.T) {
	for scan := e; scan != nil && scan != Empty; scan = scan.enclosing {
		if b, ok := scan.frame[s]; ok && !b.IsUnbound() {
			return scan, b
		}
	}

	return nil, nil
}

// Local returns the binding for s in e's own frame, or nil.
func (e *env) Local(s *sym.T) *binding.T {
	b, ok := e.frame[s]
	if !ok || b.IsUnbound() {
		return nil
	}

	return b
}

// Lock prevents new bindings from being added to e.
func (e *env) Lock() {
	e.locked = true
}

// Locked returns true if e is locked.
func (e *env) Locked() bool {
	return e.locked
}

// Lookup scans e's frame then the enclosing chain for s.
func (e *env) Lookup(s *sym.T) *binding.T {
	_, b := e.Find(s)

	return b
}

// Names returns the names bound in e's own frame, in definition order.
func (e *env) Names() []string {
	names := make([]string, 0, len(e.order))

	for _, s := range e.order {
		if b, ok := e.frame[s]; ok && !b.IsUnbound() {
			names = append(names, s.String())
		}
	}

	return names
}

// NoSpecials returns true if no operator-like name is bound in e.
func (e *env) NoSpecials() bool {
	return e.noSpecials
}

// Remove marks the binding for s in e's own frame as unbound. The
// unbound marker is written into the binding so that any cached
// reference to it invalidates on its next use.
func (e *env) Remove(s *sym.T) bool {
	b, ok := e.frame[s]
	if !ok {
		return false
	}

	if b.Locked() {
		panic("cannot remove locked binding")
	}

	b.Set(sym.Unbound)
	delete(e.frame, s)

	return true
}

// Is returns true if c is an env.
func Is(c cell.I) bool {
	_, ok := c.(*env)

	return ok
}

// To returns the env if c is an env; Otherwise it panics.
func To(c cell.I) *env {
	if t, ok := c.(*env); ok {
		return t
	}

	panic(c.Name() + " cannot be used in an environment context")
}

// Operator-like names defeat the no-specials hint used when deciding
// whether syntactic functions can be trusted to mean themselves.
func special(s *sym.T) bool {
	n := s.String()
	if n == "" {
		return false
	}

	switch n[0] {
	case '+', '-', '*', '/', '^', '<', '>', '=', '!', '&', '|', '%', '[', '$', '(', '{', '~':
		return true
	}

	switch n {
	case "if", "for", "while", "repeat", "function", "return", "break", "next":
		return true
	}

	return false
}

func init() { //nolint:gochecknoinits
	Empty = &env{locked: true, noSpecials: true}
}
