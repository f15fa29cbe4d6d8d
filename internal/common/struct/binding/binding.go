// Released under an MIT license. See LICENSE.

// Package binding provides the cell that associates one name with one
// value in an environment frame. A binding carries metadata bits
// (locked, active, missing) and may hold a scalar
// immediately, without boxing, when its tag says so.
package binding

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/reference"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Tag says how a binding stores its value.
type Tag byte

// Immediate-value tags. Boxed means the value slot holds the value.
const (
	Boxed Tag = iota
	Double
	Integer
	Logical
)

// Missing-argument states.
const (
	NotMissing uint8 = iota
	MissingArg
	DefaultedArg
)

// T (binding) holds one value slot plus metadata.
type T struct {
	v   cell.I
	tag Tag
	f   float64
	i   int32
	b   bool

	locked  bool
	active  bool
	missing uint8
}

type binding = T

// New creates a new binding holding the cell v.
func New(v cell.I) *T {
	return &binding{v: v}
}

// Unbound creates a binding holding the unbound marker.
func Unbound() *T {
	return &binding{v: sym.Unbound}
}

// Active returns true if the binding's value is computed by a function.
func (b *binding) Active() bool {
	return b.active
}

// Fn returns the function of an active binding.
func (b *binding) Fn() cell.I {
	return b.v
}

// Get returns the value in the binding b, boxing an immediate scalar
// on demand. For an active binding, Get returns the stored function;
// invoking it is the evaluator's job.
func (b *binding) Get() cell.I {
	switch b.tag {
	case Double:
		return vec.Real(b.f)
	case Integer:
		return vec.Int(b.i)
	case Logical:
		return vec.Bool(b.b)
	}

	return b.v
}

// IsUnbound returns true if the binding holds the unbound marker.
func (b *binding) IsUnbound() bool {
	return b.tag == Boxed && b.v == cell.I(sym.Unbound)
}

// Lock prevents further changes to the binding's value.
func (b *binding) Lock() {
	b.locked = true
}

// Locked returns true if the binding is locked.
func (b *binding) Locked() bool {
	return b.locked
}

// Missing returns the binding's missing-argument state.
func (b *binding) Missing() uint8 {
	return b.missing
}

// Set replaces the value in the binding b.
func (b *binding) Set(v cell.I) {
	if b.locked {
		panic("cannot change value of locked binding")
	}

	b.tag = Boxed
	b.v = v
}

// SetActive marks the binding as computed by the function fn.
func (b *binding) SetActive(fn cell.I) {
	if b.locked {
		panic("cannot change value of locked binding")
	}

	b.active = true
	b.tag = Boxed
	b.v = fn
}

// SetDouble stores a double immediately in the binding b.
func (b *binding) SetDouble(f float64) {
	if b.locked || b.active {
		b.Set(vec.Real(f))

		return
	}

	b.tag = Double
	b.f = f
	b.v = nil
}

// SetInteger stores an integer immediately in the binding b.
func (b *binding) SetInteger(i int32) {
	if b.locked || b.active {
		b.Set(vec.Int(i))

		return
	}

	b.tag = Integer
	b.i = i
	b.v = nil
}

// SetLogical stores a logical immediately in the binding b.
func (b *binding) SetLogical(v bool) {
	if b.locked || b.active {
		b.Set(vec.Bool(v))

		return
	}

	b.tag = Logical
	b.b = v
	b.v = nil
}

// SetMissing sets the binding's missing-argument state.
func (b *binding) SetMissing(m uint8) {
	b.missing = m
}

// Tag returns the binding's immediate-value tag.
func (b *binding) Tag() Tag {
	return b.tag
}

// DoubleVal returns the immediate double in the binding b.
func (b *binding) DoubleVal() float64 {
	return b.f
}

// IntegerVal returns the immediate integer in the binding b.
func (b *binding) IntegerVal() int32 {
	return b.i
}

// LogicalVal returns the immediate logical in the binding b.
func (b *binding) LogicalVal() bool {
	return b.b
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t binding

	// The binding type is a reference.
	_ = reference.I(&t)
}
