// Released under an MIT license. See LICENSE.

// Package pair provides rho's cons cell type. Pair cells are used for
// pairlists (argument and attribute lists), language (call) nodes, and
// collected "..." values; the three are distinguished by a kind tag.
package pair

import (
	"github.com/rho-lang/rho/internal/common"
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/literal"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
)

const name = "pairlist"

// Kind distinguishes the uses of a pair cell.
type Kind byte

// Pair cell kinds.
const (
	List Kind = iota
	Lang
	Dots
)

//nolint:gochecknoglobals
var (
	// Null is the empty list. It is also used to mark the end of a list.
	Null cell.I
)

// T (pair) is a cons cell: car, cdr, and an optional tag.
type T struct {
	car  cell.I
	cdr  cell.I
	tag  cell.I
	kind Kind

	source *srcref.T
}

type pair = T

// Cons conses h and t together to form a new pairlist cell.
func Cons(h, t cell.I) cell.I {
	return &pair{car: h, cdr: t}
}

// ConsTagged conses h and t with the tag n.
func ConsTagged(n cell.I, h, t cell.I) cell.I {
	return &pair{car: h, cdr: t, tag: n}
}

// Lang1 conses h and t as a language (call) cell.
func Lang1(h, t cell.I) cell.I {
	return &pair{car: h, cdr: t, kind: Lang}
}

// DotsCons conses h and t as a collected-"..." cell.
func DotsCons(h, t cell.I) cell.I {
	return &pair{car: h, cdr: t, kind: Dots}
}

// Equal returns true if c is a pair with elements that are equal to p's.
func (p *pair) Equal(c cell.I) bool {
	if p == Null && c == Null {
		return true
	}

	if !Is(c) || c == Null {
		return false
	}

	q := To(c)

	if p.tag == nil != (q.tag == nil) {
		return false
	}

	if p.tag != nil && !p.tag.Equal(q.tag) {
		return false
	}

	return p.car.Equal(q.car) && p.cdr.Equal(q.cdr)
}

// Literal returns the literal representation of the pair p.
func (p *pair) Literal() string {
	if p == Null {
		return "NULL"
	}

	s := "("

	var c cell.I = p

	for first := true; c != Null && Is(c); c = Cdr(c) {
		if !first {
			s += " "
		}

		first = false

		if t := To(c).tag; t != nil {
			s += literal.String(t) + "="
		}

		h := Car(c)
		if h == nil {
			s += "()"
		} else {
			s += literal.String(h)
		}
	}

	if c != Null {
		s += " . " + literal.String(c)
	}

	return s + ")"
}

// Name returns the name for a pair cell.
func (p *pair) Name() string {
	if p != Null && p.kind == Lang {
		return "language"
	}

	return name
}

// String returns the text representation of the pair p.
func (p *pair) String() string {
	return p.Literal()
}

// Functions specific to pair.

// Car returns the car/head/first member of the pair c.
// If c is not a pair, this function will panic.
func Car(c cell.I) cell.I {
	return To(c).car
}

// Cdr returns the cdr/tail/rest member of the pair c.
// If c is not a pair, this function will panic.
func Cdr(c cell.I) cell.I {
	return To(c).cdr
}

// Cadr returns the car of the cdr of the pair c.
func Cadr(c cell.I) cell.I {
	return To(To(c).cdr).car
}

// Caddr returns the car of the cdr of the cdr of the pair c.
func Caddr(c cell.I) cell.I {
	return To(To(To(c).cdr).cdr).car
}

// Cddr returns the cdr of the cdr of the pair c.
func Cddr(c cell.I) cell.I {
	return To(To(c).cdr).cdr
}

// Is returns true if c is a pair.
func Is(c cell.I) bool {
	_, ok := c.(*pair)

	return ok
}

// IsLang returns true if c is a language cell.
func IsLang(c cell.I) bool {
	p, ok := c.(*pair)

	return ok && c != Null && p.kind == Lang
}

// KindOf returns the kind of the pair c.
func KindOf(c cell.I) Kind {
	return To(c).kind
}

// SetCar sets the car/head/first of the pair c to value.
func SetCar(c, value cell.I) {
	To(c).car = value
}

// SetCdr sets the cdr/tail/rest of the pair c to value.
func SetCdr(c, value cell.I) {
	To(c).cdr = value
}

// SetTag sets the tag of the pair c to value.
func SetTag(c, value cell.I) {
	To(c).tag = value
}

// SetSource attaches the srcref r to the pair c.
func SetSource(c cell.I, r *srcref.T) {
	To(c).source = r
}

// Source returns the srcref attached to c, or nil.
func Source(c cell.I) *srcref.T {
	if !Is(c) || c == Null {
		return nil
	}

	return To(c).source
}

// Tag returns the tag of the pair c, or nil if it has none.
func Tag(c cell.I) cell.I {
	return To(c).tag
}

// To returns the pair if c is a pair; Otherwise it panics.
func To(c cell.I) *pair {
	if t, ok := c.(*pair); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a pairlist context")
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t pair

	// The pair type is a cell.
	_ = cell.I(&t)

	// The pair type has a literal representation.
	_ = literal.I(&t)

	// The pair type is a stringer.
	_ = common.Stringer(&t)
}

func init() { //nolint:gochecknoinits
	p := &pair{}
	p.car = p
	p.cdr = p

	Null = cell.I(p)
}
