// Released under an MIT license. See LICENSE.

// Package vec provides rho's homogeneous vector types (logical,
// integer, double, complex, character, raw) and the heterogeneous
// list and expression vectors. A one-element vector doubles as a
// scalar; there is no separate scalar type.
package vec

import (
	"math"
	"strconv"

	"github.com/rho-lang/rho/internal/common"
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/literal"
	"github.com/rho-lang/rho/internal/common/interface/truth"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
)

// Kind is a vector's element type.
type Kind byte

// Vector kinds, in coercion order.
const (
	Logical Kind = iota
	Integer
	Double
	Complex
	Character
	Raw
	List
	Expr
)

// Missing-value representations.
const (
	NAInteger int32 = math.MinInt32
	NALogical byte  = 2
)

//nolint:gochecknoglobals
var (
	// NAReal is the quiet NaN rho uses for a missing double.
	NAReal = math.Float64frombits(0x7FF00000000007A2)

	// NAString marks a missing character element.
	NAString = "\x00NA\x00"
)

// T (vec) is a vector of elements of a single kind plus attributes.
type T struct {
	kind Kind

	log  []byte
	ints []int32
	real []float64
	cplx []complex128
	chr  []string
	raw  []byte
	elts []cell.I

	attr  cell.I // Tagged pairlist; pair.Null when empty.
	named uint8  // Monotone sharing counter.
}

type vec = T

// IsNAReal returns true if f is the missing double.
func IsNAReal(f float64) bool {
	return math.Float64bits(f) == math.Float64bits(NAReal)
}

// New creates a zero-filled vector of the given kind and length.
func New(kind Kind, n int) *T {
	v := &vec{kind: kind, attr: pair.Null}

	switch kind {
	case Logical:
		v.log = make([]byte, n)
	case Integer:
		v.ints = make([]int32, n)
	case Double:
		v.real = make([]float64, n)
	case Complex:
		v.cplx = make([]complex128, n)
	case Character:
		v.chr = make([]string, n)
	case Raw:
		v.raw = make([]byte, n)
	case List, Expr:
		v.elts = make([]cell.I, n)
		for i := range v.elts {
			v.elts[i] = Null()
		}
	}

	return v
}

// Scalar constructors.

// Bool creates a logical scalar.
func Bool(b bool) *T {
	v := New(Logical, 1)
	if b {
		v.log[0] = 1
	}

	return v
}

// NA creates the logical missing-value scalar.
func NA() *T {
	v := New(Logical, 1)
	v.log[0] = NALogical

	return v
}

// Int creates an integer scalar.
func Int(i int32) *T {
	v := New(Integer, 1)
	v.ints[0] = i

	return v
}

// Real creates a double scalar.
func Real(f float64) *T {
	v := New(Double, 1)
	v.real[0] = f

	return v
}

// Cplx creates a complex scalar.
func Cplx(z complex128) *T {
	v := New(Complex, 1)
	v.cplx[0] = z

	return v
}

// Str creates a character scalar.
func Str(s string) *T {
	v := New(Character, 1)
	v.chr[0] = s

	return v
}

// Null returns the distinguished null value. Rho reuses the empty
// pairlist, as the evaluator only ever checks identity.
func Null() cell.I {
	return pair.Null
}

// The vec type is a cell.

// Equal returns true if c is a vec with the same kind, elements, and
// attributes as v. Missing values compare equal to themselves.
func (v *vec) Equal(c cell.I) bool {
	w, ok := c.(*vec)
	if !ok || v.kind != w.kind || v.Len() != w.Len() {
		return false
	}

	for i, n := 0, v.Len(); i < n; i++ {
		switch v.kind {
		case Logical:
			if v.log[i] != w.log[i] {
				return false
			}
		case Integer:
			if v.ints[i] != w.ints[i] {
				return false
			}
		case Double:
			a, b := v.real[i], w.real[i]
			if a != b && !(IsNAReal(a) && IsNAReal(b)) &&
				!(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		case Complex:
			if v.cplx[i] != w.cplx[i] {
				return false
			}
		case Character:
			if v.chr[i] != w.chr[i] {
				return false
			}
		case Raw:
			if v.raw[i] != w.raw[i] {
				return false
			}
		case List, Expr:
			if !v.elts[i].Equal(w.elts[i]) {
				return false
			}
		}
	}

	return v.attr.Equal(w.attr)
}

// Literal returns the source form of the vec v.
func (v *vec) Literal() string {
	n := v.Len()

	if n == 1 && v.attr == pair.Null {
		return v.elemLiteral(0)
	}

	s := typeName(v.kind) + "(" // Not valid source; only for display.
	if v.kind == List || v.kind == Expr {
		for i := 0; i < n; i++ {
			if i > 0 {
				s += ", "
			}

			s += literal.String(v.elts[i])
		}

		return s + ")"
	}

	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}

		s += v.elemLiteral(i)
	}

	return s + ")"
}

// Name returns the type name for the vec v.
func (v *vec) Name() string {
	return typeName(v.kind)
}

// Bool returns the truth value of the vec v.
func (v *vec) Bool() bool {
	if v.Len() < 1 {
		panic("argument is of length zero")
	}

	switch v.kind {
	case Logical:
		if v.log[0] == NALogical {
			panic("missing value where TRUE/FALSE needed")
		}

		return v.log[0] != 0
	case Integer:
		if v.ints[0] == NAInteger {
			panic("missing value where TRUE/FALSE needed")
		}

		return v.ints[0] != 0
	case Double:
		if IsNAReal(v.real[0]) || math.IsNaN(v.real[0]) {
			panic("missing value where TRUE/FALSE needed")
		}

		return v.real[0] != 0
	}

	panic("argument is not interpretable as logical")
}

// String returns the display form of the vec v.
func (v *vec) String() string {
	return v.Literal()
}

// Methods specific to vec.

// Attr returns the attribute named k, or nil.
func (v *vec) Attr(k string) cell.I {
	s := sym.New(k)

	for a := v.attr; a != pair.Null; a = pair.Cdr(a) {
		if pair.Tag(a) == cell.I(s) {
			return pair.Car(a)
		}
	}

	return nil
}

// Attributes returns the full attribute pairlist (Null when empty).
func (v *vec) Attributes() cell.I {
	return v.attr
}

// Bump raises the sharing count of the vec v.
func (v *vec) Bump() {
	if v.named < 2 {
		v.named++
	}
}

// Complexes returns the complex elements of the vec v.
func (v *vec) Complexes() []complex128 {
	return v.cplx
}

// Copy returns a fresh, unshared copy of the vec v.
func (v *vec) Copy() *T {
	w := New(v.kind, v.Len())

	copy(w.log, v.log)
	copy(w.ints, v.ints)
	copy(w.real, v.real)
	copy(w.cplx, v.cplx)
	copy(w.chr, v.chr)
	copy(w.raw, v.raw)
	copy(w.elts, v.elts)

	// The copy shares its list elements with the original; mark them
	// fully shared so an element-level write through either container
	// copies before mutating.
	for _, c := range w.elts {
		if u, ok := c.(*vec); ok {
			u.Bump()
			u.Bump()
		}
	}

	for a := v.attr; a != pair.Null; a = pair.Cdr(a) {
		w.attr = pair.ConsTagged(pair.Tag(a), pair.Car(a), w.attr)
	}

	return w
}

// Elts returns the elements of a list or expression vec.
func (v *vec) Elts() []cell.I {
	return v.elts
}

// HasAttrs returns true if v carries any attribute.
func (v *vec) HasAttrs() bool {
	return v.attr != pair.Null
}

// Integers returns the integer elements of the vec v.
func (v *vec) Integers() []int32 {
	return v.ints
}

// Kind returns the element kind of the vec v.
func (v *vec) Kind() Kind {
	return v.kind
}

// Len returns the number of elements in the vec v.
func (v *vec) Len() int {
	switch v.kind {
	case Logical:
		return len(v.log)
	case Integer:
		return len(v.ints)
	case Double:
		return len(v.real)
	case Complex:
		return len(v.cplx)
	case Character:
		return len(v.chr)
	case Raw:
		return len(v.raw)
	default:
		return len(v.elts)
	}
}

// Logicals returns the logical elements of the vec v.
func (v *vec) Logicals() []byte {
	return v.log
}

// Named returns the sharing count of the vec v.
func (v *vec) Named() uint8 {
	return v.named
}

// OnlyDim returns true if v's only attribute is dim.
func (v *vec) OnlyDim() bool {
	a := v.attr
	if a == pair.Null || pair.Cdr(a) != pair.Null {
		return false
	}

	return pair.Tag(a) == cell.I(sym.New("dim"))
}

// Raws returns the raw elements of the vec v.
func (v *vec) Raws() []byte {
	return v.raw
}

// Reals returns the double elements of the vec v.
func (v *vec) Reals() []float64 {
	return v.real
}

// Strings returns the character elements of the vec v.
func (v *vec) Strings() []string {
	return v.chr
}

// SetAttr sets (or, given nil or Null, removes) the attribute named k.
func (v *vec) SetAttr(k string, value cell.I) {
	s := sym.New(k)

	if value == nil || value == pair.Null {
		var fresh cell.I = pair.Null

		for a := v.attr; a != pair.Null; a = pair.Cdr(a) {
			if pair.Tag(a) != cell.I(s) {
				fresh = pair.ConsTagged(pair.Tag(a), pair.Car(a), fresh)
			}
		}

		v.attr = fresh

		return
	}

	for a := v.attr; a != pair.Null; a = pair.Cdr(a) {
		if pair.Tag(a) == cell.I(s) {
			pair.SetCar(a, value)

			return
		}
	}

	v.attr = pair.ConsTagged(s, value, v.attr)
}

// At returns element i of the vec v as a scalar.
func (v *vec) At(i int) cell.I {
	switch v.kind {
	case Logical:
		w := New(Logical, 1)
		w.log[0] = v.log[i]

		return w
	case Integer:
		return Int(v.ints[i])
	case Double:
		return Real(v.real[i])
	case Complex:
		return Cplx(v.cplx[i])
	case Character:
		return Str(v.chr[i])
	case Raw:
		w := New(Raw, 1)
		w.raw[0] = v.raw[i]

		return w
	default:
		return v.elts[i]
	}
}

// SetElt replaces element i of a list or expression vec.
func (v *vec) SetElt(i int, c cell.I) {
	v.elts[i] = c
}

// Is returns true if c is a vec.
func Is(c cell.I) bool {
	_, ok := c.(*vec)

	return ok
}

// IsKind returns true if c is a vec of the given kind.
func IsKind(c cell.I, k Kind) bool {
	v, ok := c.(*vec)

	return ok && v.kind == k
}

// To returns the vec if c is a vec; Otherwise it panics.
func To(c cell.I) *vec {
	if t, ok := c.(*vec); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a vector context")
}

// FromElts creates a list (or expression) vec holding elts.
func FromElts(kind Kind, elts []cell.I) *T {
	v := &vec{kind: kind, elts: elts, attr: pair.Null}

	return v
}

// Seq creates the compact-free integer vector from..to (inclusive).
func Seq(from, to int32) *T {
	n := int(to) - int(from) + 1
	if n < 0 {
		n = int(from) - int(to) + 1
	}

	v := New(Integer, n)

	step := int32(1)
	if to < from {
		step = -1
	}

	x := from
	for i := 0; i < n; i++ {
		v.ints[i] = x
		x += step
	}

	return v
}

func (v *vec) elemLiteral(i int) string {
	switch v.kind {
	case Logical:
		switch v.log[i] {
		case 0:
			return "FALSE"
		case 1:
			return "TRUE"
		default:
			return "NA"
		}
	case Integer:
		if v.ints[i] == NAInteger {
			return "NA_integer_"
		}

		return strconv.FormatInt(int64(v.ints[i]), 10) + "L"
	case Double:
		f := v.real[i]
		switch {
		case IsNAReal(f):
			return "NA_real_"
		case math.IsInf(f, 1):
			return "Inf"
		case math.IsInf(f, -1):
			return "-Inf"
		case math.IsNaN(f):
			return "NaN"
		}

		return strconv.FormatFloat(f, 'g', -1, 64)
	case Complex:
		z := v.cplx[i]

		return strconv.FormatFloat(imag(z), 'g', -1, 64) + "i"
	case Character:
		if v.chr[i] == NAString {
			return "NA_character_"
		}

		return strconv.Quote(v.chr[i])
	case Raw:
		return strconv.FormatUint(uint64(v.raw[i]), 16)
	default:
		return literal.String(v.elts[i])
	}
}

func typeName(k Kind) string {
	switch k {
	case Logical:
		return "logical"
	case Integer:
		return "integer"
	case Double:
		return "double"
	case Complex:
		return "complex"
	case Character:
		return "character"
	case Raw:
		return "raw"
	case List:
		return "list"
	default:
		return "expression"
	}
}

// A compiler-checked list of interfaces this type satisfies. Never called.
func implements() { //nolint:deadcode,unused
	var t vec

	// The vec type is a cell.
	_ = cell.I(&t)

	// The vec type has a literal representation.
	_ = literal.I(&t)

	// The vec type is a stringer.
	_ = common.Stringer(&t)

	// The vec type has a truth value.
	_ = truth.I(&t)
}
