// Released under an MIT license. See LICENSE.

// Package base provides the primitives of the base environment: the
// numeric kernels, subscripting, coercion, and the builtin table.
package base

import (
	"math"
	"math/cmplx"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Arith applies a binary arithmetic operator elementwise with
// recycling. Logical operands count as integer; division and
// exponentiation always produce doubles.
//
//nolint:gocognit,funlen,gocyclo
func Arith(ip prim.Interp, call cell.I, name string, x, y *vec.T) cell.I {
	kind := resolve(x.Kind(), y.Kind())
	if kind == vec.Character || kind > vec.Complex {
		panic(cond.Error("non-numeric argument to binary operator", call))
	}

	nx, ny := x.Len(), y.Len()
	n := nx

	if ny > n {
		n = ny
	}

	if nx == 0 || ny == 0 {
		n = 0
	} else if n%nx != 0 && n%ny != 0 {
		ip.Warningf(call,
			"longer object length is not a multiple of shorter object length")
	}

	if kind == vec.Complex {
		return arithComplex(call, name, x, y, n)
	}

	if kind == vec.Integer && integerOp(name) {
		return arithInteger(ip, call, name, x, y, n)
	}

	out := vec.New(vec.Double, n)
	r := out.Reals()

	for i := 0; i < n; i++ {
		a, na := doubleAt(x, i%max1(nx))
		b, nb := doubleAt(y, i%max1(ny))

		if na || nb {
			r[i] = vec.NAReal

			continue
		}

		r[i] = doubleOp(name, a, b)
	}

	copyShape(out, x, y, n)

	return out
}

// Unary applies unary + or -.
func Unary(call cell.I, name string, x *vec.T) cell.I {
	switch x.Kind() {
	case vec.Logical, vec.Integer, vec.Double, vec.Complex:
	default:
		panic(cond.Error("invalid argument to unary operator", call))
	}

	if name == "+" {
		if x.Kind() == vec.Logical {
			return coerce(x, vec.Integer)
		}

		return x
	}

	switch x.Kind() {
	case vec.Complex:
		out := x.Copy()
		z := out.Complexes()

		for i := range z {
			z[i] = -z[i]
		}

		return out
	case vec.Double:
		out := x.Copy()
		r := out.Reals()

		for i := range r {
			if !vec.IsNAReal(r[i]) {
				r[i] = -r[i]
			}
		}

		return out
	default:
		w := coerce(x, vec.Integer)

		out := w.Copy()
		ints := out.Integers()

		for i := range ints {
			if ints[i] != vec.NAInteger {
				ints[i] = -ints[i]
			}
		}

		return out
	}
}

// Math1 applies a one-argument math function elementwise.
func Math1(ip prim.Interp, call cell.I, name string, x *vec.T) cell.I {
	f, ok := math1[name]
	if !ok {
		panic(cond.Error("unknown math function "+name, call))
	}

	switch x.Kind() {
	case vec.Logical, vec.Integer, vec.Double:
	default:
		panic(cond.Error("non-numeric argument to mathematical function", call))
	}

	n := x.Len()
	out := vec.New(vec.Double, n)
	r := out.Reals()

	warned := false

	for i := 0; i < n; i++ {
		a, na := doubleAt(x, i)
		if na {
			r[i] = vec.NAReal

			continue
		}

		r[i] = f(a)

		if math.IsNaN(r[i]) && !math.IsNaN(a) && !warned {
			warned = true

			ip.Warningf(call, "NaNs produced")
		}
	}

	copyShape(out, x, x, n)

	return out
}

//nolint:gochecknoglobals
var math1 = map[string]func(float64) float64{
	"sqrt":    math.Sqrt,
	"exp":     math.Exp,
	"log":     math.Log,
	"log2":    math.Log2,
	"log10":   math.Log10,
	"sin":     math.Sin,
	"cos":     math.Cos,
	"tan":     math.Tan,
	"asin":    math.Asin,
	"acos":    math.Acos,
	"atan":    math.Atan,
	"floor":   math.Floor,
	"ceiling": math.Ceil,
	"trunc":   math.Trunc,
	"abs":     math.Abs,
	"sign": func(a float64) float64 {
		switch {
		case a > 0:
			return 1
		case a < 0:
			return -1
		}

		return a
	},
	"expm1": math.Expm1,
	"log1p": math.Log1p,
	"gamma": func(a float64) float64 { return math.Gamma(a) },
	"lgamma": func(a float64) float64 {
		v, _ := math.Lgamma(a)

		return v
	},
}

func arithComplex(call cell.I, name string, x, y *vec.T, n int) cell.I {
	nx, ny := x.Len(), y.Len()

	out := vec.New(vec.Complex, n)
	z := out.Complexes()

	for i := 0; i < n; i++ {
		a := complexAt(x, i%max1(nx))
		b := complexAt(y, i%max1(ny))

		switch name {
		case "+":
			z[i] = a + b
		case "-":
			z[i] = a - b
		case "*":
			z[i] = a * b
		case "/":
			z[i] = a / b
		case "^":
			z[i] = cmplx.Pow(a, b)
		default:
			panic(cond.Error("invalid operation on complex values", call))
		}
	}

	copyShape(out, x, y, n)

	return out
}

func arithInteger(ip prim.Interp, call cell.I, name string, x, y *vec.T, n int) cell.I {
	nx, ny := x.Len(), y.Len()

	out := vec.New(vec.Integer, n)
	ints := out.Integers()

	overflow := false

	for i := 0; i < n; i++ {
		a, na := intAt(x, i%max1(nx))
		b, nb := intAt(y, i%max1(ny))

		if na || nb {
			ints[i] = vec.NAInteger

			continue
		}

		v, ok := intOp(name, a, b)
		if !ok {
			overflow = true
			ints[i] = vec.NAInteger

			continue
		}

		ints[i] = v
	}

	if overflow {
		ip.Warningf(call, "NAs produced by integer overflow")
	}

	copyShape(out, x, y, n)

	return out
}

// IntOp computes an integer op, reporting overflow instead of
// wrapping.
func intOp(name string, a, b int32) (int32, bool) {
	switch name {
	case "+":
		v := int64(a) + int64(b)

		return int32(v), v >= math.MinInt32+1 && v <= math.MaxInt32
	case "-":
		v := int64(a) - int64(b)

		return int32(v), v >= math.MinInt32+1 && v <= math.MaxInt32
	case "*":
		v := int64(a) * int64(b)

		return int32(v), v >= math.MinInt32+1 && v <= math.MaxInt32
	case "%%":
		if b == 0 {
			return vec.NAInteger, true
		}

		v := a % b
		if v != 0 && (v < 0) != (b < 0) {
			v += b
		}

		return v, true
	case "%/%":
		if b == 0 {
			return vec.NAInteger, true
		}

		return int32(math.Floor(float64(a) / float64(b))), true
	}

	return 0, false
}

// IntegerOp returns true if name keeps integer operands integer.
func integerOp(name string) bool {
	switch name {
	case "+", "-", "*", "%%", "%/%":
		return true
	}

	return false
}

func doubleOp(name string, a, b float64) float64 {
	switch name {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "^":
		// 1^y and x^0 are 1 even for NA operands, matching the
		// mathematical convention used elsewhere.
		return math.Pow(a, b)
	case "%%":
		v := math.Mod(a, b)
		if v != 0 && (v < 0) != (b < 0) {
			v += b
		}

		return v
	case "%/%":
		return math.Floor(a / b)
	}

	return math.NaN()
}

// DoubleAt reads element i of x as a double, reporting NA.
func doubleAt(x *vec.T, i int) (float64, bool) {
	switch x.Kind() {
	case vec.Logical:
		b := x.Logicals()[i]
		if b == vec.NALogical {
			return 0, true
		}

		return float64(b), false
	case vec.Integer:
		v := x.Integers()[i]
		if v == vec.NAInteger {
			return 0, true
		}

		return float64(v), false
	default:
		v := x.Reals()[i]

		return v, vec.IsNAReal(v)
	}
}

// IntAt reads element i of x as an integer, reporting NA.
func intAt(x *vec.T, i int) (int32, bool) {
	switch x.Kind() {
	case vec.Logical:
		b := x.Logicals()[i]
		if b == vec.NALogical {
			return 0, true
		}

		return int32(b), false
	default:
		v := x.Integers()[i]

		return v, v == vec.NAInteger
	}
}

func complexAt(x *vec.T, i int) complex128 {
	switch x.Kind() {
	case vec.Complex:
		return x.Complexes()[i]
	default:
		v, na := doubleAt(x, i)
		if na {
			return complex(vec.NAReal, 0)
		}

		return complex(v, 0)
	}
}

// Resolve picks the result kind for a pair of operand kinds.
func resolve(a, b vec.Kind) vec.Kind {
	if b > a {
		a = b
	}

	if a == vec.Logical {
		return vec.Integer
	}

	return a
}

// CopyShape carries names and dim from the operand that determined
// the result length.
func copyShape(out, x, y *vec.T, n int) {
	src := x
	if y.Len() == n && x.Len() != n {
		src = y
	} else if x.Len() != n {
		return
	}

	if d := src.Attr("dim"); d != nil {
		out.SetAttr("dim", d)
	}

	if names := src.Attr("names"); names != nil {
		out.SetAttr("names", names)
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}

	return n
}
