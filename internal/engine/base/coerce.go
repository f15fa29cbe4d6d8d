// Released under an MIT license. See LICENSE.

package base

import (
	"math"
	"strconv"
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Coerce converts v to the given kind. Attributes are dropped except
// names, matching coercion during combination.
//
//nolint:gocognit,gocyclo,funlen
func coerce(v *vec.T, kind vec.Kind) *vec.T {
	if v.Kind() == kind {
		return v
	}

	n := v.Len()
	out := vec.New(kind, n)

	for i := 0; i < n; i++ {
		switch kind {
		case vec.Logical:
			f, na := doubleAt(v, i)

			switch {
			case na:
				out.Logicals()[i] = vec.NALogical
			case f != 0:
				out.Logicals()[i] = 1
			default:
				out.Logicals()[i] = 0
			}
		case vec.Integer:
			f, na := doubleAt(v, i)
			if na || f > math.MaxInt32 || f < math.MinInt32+1 {
				out.Integers()[i] = vec.NAInteger
			} else {
				out.Integers()[i] = int32(f)
			}
		case vec.Double:
			f, na := doubleAt(v, i)
			if na {
				f = vec.NAReal
			}

			out.Reals()[i] = f
		case vec.Complex:
			out.Complexes()[i] = complexAt(v, i)
		case vec.Character:
			s, na := elementString(v, i)
			if na {
				s = vec.NAString
			}

			out.Strings()[i] = s
		case vec.List:
			out.SetElt(i, v.At(i))
		default:
			panic(cond.Error("unsupported coercion", nil))
		}
	}

	if names := v.Attr("names"); names != nil {
		out.SetAttr("names", names)
	}

	return out
}

// ElementString formats element i of v the way as.character does.
func elementString(v *vec.T, i int) (string, bool) {
	switch v.Kind() {
	case vec.Logical:
		switch v.Logicals()[i] {
		case vec.NALogical:
			return "", true
		case 0:
			return "FALSE", false
		default:
			return "TRUE", false
		}
	case vec.Integer:
		n := v.Integers()[i]
		if n == vec.NAInteger {
			return "", true
		}

		return strconv.Itoa(int(n)), false
	case vec.Double:
		f := v.Reals()[i]
		if vec.IsNAReal(f) {
			return "", true
		}

		return FormatDouble(f), false
	case vec.Complex:
		z := v.Complexes()[i]
		if isNAComplex(z) {
			return "", true
		}

		s := FormatDouble(imag(z)) + "i"
		if imag(z) >= 0 && !math.IsInf(imag(z), 0) {
			s = "+" + s
		}

		return FormatDouble(real(z)) + s, false
	case vec.Character:
		s := v.Strings()[i]

		return s, s == vec.NAString
	default:
		return "", true
	}
}

// FormatDouble formats a double the way R's default printing does:
// up to 15 significant digits, no trailing zeros.
func FormatDouble(f float64) string {
	if math.IsInf(f, 1) {
		return "Inf"
	}

	if math.IsInf(f, -1) {
		return "-Inf"
	}

	if math.IsNaN(f) {
		return "NaN"
	}

	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'g', 15, 64)

	// Go writes e+05 where R writes e+05 as well; trim a leading
	// zero in two-digit exponents is not needed. Trim trailing
	// zeros in the mantissa.
	if strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	return s
}

// Combine implements c(): the common kind is the highest of the
// argument kinds, lists absorb everything else.
//
//nolint:gocognit,gocyclo,funlen
func Combine(call, argList cell.I) cell.I {
	kind := vec.Logical
	total := 0
	isList := false
	anyNames := false

	type part struct {
		tag string
		v   *vec.T
		c   cell.I
	}

	parts := []part{}

	for a := argList; a != pair.Null; a = pair.Cdr(a) {
		v := pair.Car(a)

		tag := ""
		if t := pair.Tag(a); t != nil {
			tag = sym.To(t).String()
			anyNames = true
		}

		if v == pair.Null {
			continue
		}

		if !vec.Is(v) {
			isList = true

			parts = append(parts, part{tag: tag, c: v})
			total++

			continue
		}

		w := vec.To(v)

		if w.Kind() > kind {
			kind = w.Kind()
		}

		if w.Kind() == vec.List || w.Kind() == vec.Expr {
			isList = true
		}

		if w.Attr("names") != nil {
			anyNames = true
		}

		parts = append(parts, part{tag: tag, v: w})
		total += w.Len()
	}

	if isList {
		kind = vec.List
	}

	out := vec.New(kind, total)

	var names *vec.T
	if anyNames {
		names = vec.New(vec.Character, total)
	}

	i := 0

	for _, p := range parts {
		if p.c != nil {
			out.SetElt(i, p.c)
			setName(names, i, p.tag, "", 1, 0)
			i++

			continue
		}

		v := p.v
		if kind != vec.List {
			v = coerce(v, kind)
		}

		var sub *vec.T
		if a := p.v.Attr("names"); a != nil {
			sub = vec.To(a)
		}

		for j := 0; j < p.v.Len(); j++ {
			if kind == vec.List {
				out.SetElt(i, p.v.At(j))
			} else {
				copyElement(out, i, v, j)
			}

			inner := ""
			if sub != nil && j < sub.Len() {
				inner = sub.Strings()[j]
			}

			setName(names, i, p.tag, inner, p.v.Len(), j)
			i++
		}
	}

	if names != nil {
		out.SetAttr("names", names)
	}

	return out
}

func copyElement(out *vec.T, i int, v *vec.T, j int) {
	switch out.Kind() {
	case vec.Logical:
		out.Logicals()[i] = v.Logicals()[j]
	case vec.Integer:
		out.Integers()[i] = v.Integers()[j]
	case vec.Double:
		out.Reals()[i] = v.Reals()[j]
	case vec.Complex:
		out.Complexes()[i] = v.Complexes()[j]
	case vec.Character:
		out.Strings()[i] = v.Strings()[j]
	case vec.Raw:
		out.Raws()[i] = v.Raws()[j]
	default:
		out.SetElt(i, v.At(j))
	}
}

// SetName composes c()-style names: a tagged scalar keeps its tag, a
// tagged vector numbers its elements, inner names pass through.
func setName(names *vec.T, i int, tag, inner string, n, j int) {
	if names == nil {
		return
	}

	switch {
	case tag != "" && n == 1:
		names.Strings()[i] = tag
	case tag != "" && inner != "":
		names.Strings()[i] = tag + "." + inner
	case tag != "":
		names.Strings()[i] = tag + strconv.Itoa(j+1)
	default:
		names.Strings()[i] = inner
	}
}
