// Released under an MIT license. See LICENSE.

package base

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Compare applies a comparison operator elementwise with recycling,
// producing a logical vector.
//
//nolint:gocognit,gocyclo
func Compare(call cell.I, name string, x, y *vec.T) cell.I {
	nx, ny := x.Len(), y.Len()
	n := nx

	if ny > n {
		n = ny
	}

	if nx == 0 || ny == 0 {
		n = 0
	}

	out := vec.New(vec.Logical, n)
	log := out.Logicals()

	character := x.Kind() == vec.Character || y.Kind() == vec.Character
	complexes := x.Kind() == vec.Complex || y.Kind() == vec.Complex

	if complexes && name != "==" && name != "!=" {
		panic(cond.Error("invalid comparison with complex values", call))
	}

	for i := 0; i < n; i++ {
		var r, na bool

		switch {
		case character:
			a, naa := stringAt(x, i%max1(nx))
			b, nab := stringAt(y, i%max1(ny))

			na = naa || nab
			if !na {
				r = stringCompare(name, a, b)
			}
		case complexes:
			a := complexAt(x, i%max1(nx))
			b := complexAt(y, i%max1(ny))

			na = isNAComplex(a) || isNAComplex(b)
			if !na {
				r = a == b == (name == "==")
			}
		default:
			a, naa := doubleAt(x, i%max1(nx))
			b, nab := doubleAt(y, i%max1(ny))

			na = naa || nab
			if !na {
				r = doubleCompare(name, a, b)
			}
		}

		switch {
		case na:
			log[i] = vec.NALogical
		case r:
			log[i] = 1
		default:
			log[i] = 0
		}
	}

	copyShape(out, x, y, n)

	return out
}

// Logic applies & or | elementwise with three-valued logic.
func Logic(call cell.I, name string, x, y *vec.T) cell.I {
	nx, ny := x.Len(), y.Len()
	n := nx

	if ny > n {
		n = ny
	}

	if nx == 0 || ny == 0 {
		n = 0
	}

	out := vec.New(vec.Logical, n)
	log := out.Logicals()

	for i := 0; i < n; i++ {
		a := logicalAt(call, x, i%max1(nx))
		b := logicalAt(call, y, i%max1(ny))

		if name == "&" {
			log[i] = and3(a, b)
		} else {
			log[i] = or3(a, b)
		}
	}

	copyShape(out, x, y, n)

	return out
}

// Not negates a logical (or numeric, coerced) vector.
func Not(call cell.I, x *vec.T) cell.I {
	n := x.Len()

	out := vec.New(vec.Logical, n)
	log := out.Logicals()

	for i := 0; i < n; i++ {
		v := logicalAt(call, x, i)
		if v == vec.NALogical {
			log[i] = vec.NALogical
		} else {
			log[i] = 1 - v
		}
	}

	copyShape(out, x, x, n)

	return out
}

func and3(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}

	if a == vec.NALogical || b == vec.NALogical {
		return vec.NALogical
	}

	return 1
}

func or3(a, b byte) byte {
	if a == 1 || b == 1 {
		return 1
	}

	if a == vec.NALogical || b == vec.NALogical {
		return vec.NALogical
	}

	return 0
}

// LogicalAt reads element i of x as a logical.
func logicalAt(call cell.I, x *vec.T, i int) byte {
	switch x.Kind() {
	case vec.Logical:
		return x.Logicals()[i]
	case vec.Integer, vec.Double:
		v, na := doubleAt(x, i)
		if na {
			return vec.NALogical
		}

		if v != 0 {
			return 1
		}

		return 0
	default:
		panic(cond.Error("invalid argument type in logical operation", call))
	}
}

func stringAt(x *vec.T, i int) (string, bool) {
	switch x.Kind() {
	case vec.Character:
		s := x.Strings()[i]

		return s, s == vec.NAString
	default:
		return elementString(x, i)
	}
}

func doubleCompare(name string, a, b float64) bool {
	switch name {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	default:
		return a >= b
	}
}

func stringCompare(name string, a, b string) bool {
	switch name {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	default:
		return a >= b
	}
}

func isNAComplex(z complex128) bool {
	return vec.IsNAReal(real(z)) || vec.IsNAReal(imag(z))
}
