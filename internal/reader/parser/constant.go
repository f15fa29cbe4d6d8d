// Released under an MIT license. See LICENSE.

package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/struct/token"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Number converts a numeric-constant token to a scalar. A trailing L
// makes an integer when the value is integral and fits; a trailing i
// makes a complex.
func (p *T) number(t *token.T) cell.I {
	text := t.Value()

	switch text {
	case "TRUE":
		return vec.Bool(true)
	case "FALSE":
		return vec.Bool(false)
	case "NA":
		return vec.NA()
	case "NA_integer_":
		return vec.Int(vec.NAInteger)
	case "NA_real_":
		return vec.Real(vec.NAReal)
	case "NA_character_":
		v := vec.New(vec.Character, 1)
		v.Strings()[0] = vec.NAString

		return v
	case "Inf":
		return vec.Real(math.Inf(1))
	case "NaN":
		return vec.Real(math.NaN())
	}

	integer := strings.HasSuffix(text, "L")
	imaginary := strings.HasSuffix(text, "i")

	if integer || imaginary {
		text = text[:len(text)-1]
	}

	f, err := parseNumber(text)
	if err != nil {
		panic(cond.Parse("", "invalid numeric constant '"+t.Value()+"'", t.Source()))
	}

	if imaginary {
		return vec.Cplx(complex(0, f))
	}

	if integer {
		if f == math.Trunc(f) && f >= math.MinInt32+1 && f <= math.MaxInt32 {
			return vec.Int(int32(f))
		}

		// Does not fit; keep the numeric value.
		return vec.Real(f)
	}

	return vec.Real(f)
}

func parseNumber(text string) (float64, error) {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		// Hex constants without a binary exponent are integral.
		if !strings.ContainsAny(text, "pP.") {
			u, err := strconv.ParseUint(text[2:], 16, 64)

			return float64(u), err
		}

		if !strings.ContainsAny(text, "pP") {
			// A hex fraction needs an exponent to round-trip
			// through ParseFloat.
			text += "p0"
		}
	}

	return strconv.ParseFloat(text, 64)
}
