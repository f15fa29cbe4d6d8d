// Released under an MIT license. See LICENSE.

package base

import (
	"strconv"
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/deparse"
)

const printWidth = 80

// Render returns the display form of a value, the way the top level
// prints results.
//
//nolint:gocognit,gocyclo
func Render(c cell.I) string {
	switch {
	case c == pair.Null:
		return "NULL\n"
	case env.Is(c):
		return "<environment>\n"
	case sym.Is(c):
		return sym.To(c).Literal() + "\n"
	case closure.Is(c):
		return deparse.Text(c) + "\n"
	case prim.Is(c):
		p := prim.To(c)

		return "function (...) .Primitive(\"" + p.Label() + "\")\n"
	case pair.IsLang(c):
		return deparse.Text(c) + "\n"
	case pair.Is(c):
		return renderPairlist(c)
	case vec.Is(c):
		v := vec.To(c)
		if v.Kind() == vec.List || v.Kind() == vec.Expr {
			return renderList(v, "")
		}

		return renderAtomic(v)
	}

	return deparse.Text(c) + "\n"
}

//nolint:gocognit
func renderAtomic(v *vec.T) string {
	n := v.Len()
	if n == 0 {
		return typeNameOf(v.Kind()) + "(0)\n"
	}

	elems := make([]string, n)
	width := 0

	for i := 0; i < n; i++ {
		elems[i] = displayElement(v, i)
		if len(elems[i]) > width {
			width = len(elems[i])
		}
	}

	if names := v.Attr("names"); names != nil {
		return renderNamed(elems, vec.To(names).Strings(), width)
	}

	// Indexes like [12] take room in front of each output line.
	idxWidth := len(strconv.Itoa(n)) + 2
	perLine := (printWidth - idxWidth) / (width + 1)

	if perLine < 1 {
		perLine = 1
	}

	var b strings.Builder

	for i := 0; i < n; i += perLine {
		idx := "[" + strconv.Itoa(i+1) + "]"
		b.WriteString(strings.Repeat(" ", idxWidth-len(idx)) + idx)

		for j := i; j < n && j < i+perLine; j++ {
			b.WriteString(" " + pad(elems[j], width))
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderNamed(elems, names []string, width int) string {
	for _, s := range names {
		if len(s) > width {
			width = len(s)
		}
	}

	perLine := printWidth / (width + 1)
	if perLine < 1 {
		perLine = 1
	}

	var b strings.Builder

	for i := 0; i < len(elems); i += perLine {
		end := i + perLine
		if end > len(elems) {
			end = len(elems)
		}

		for j := i; j < end; j++ {
			name := ""
			if j < len(names) {
				name = names[j]
			}

			b.WriteString(pad(name, width) + " ")
		}

		b.WriteString("\n")

		for j := i; j < end; j++ {
			b.WriteString(pad(elems[j], width) + " ")
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderList(v *vec.T, prefix string) string {
	if v.Len() == 0 {
		return "list()\n"
	}

	var names []string
	if a := v.Attr("names"); a != nil {
		names = vec.To(a).Strings()
	}

	var b strings.Builder

	for i := 0; i < v.Len(); i++ {
		label := prefix + "[[" + strconv.Itoa(i+1) + "]]"
		if i < len(names) && names[i] != "" {
			label = prefix + "$" + names[i]
		}

		b.WriteString(label + "\n")

		elt := v.At(i)
		if w, ok := elt.(*vec.T); ok && elt != pair.Null &&
			(w.Kind() == vec.List || w.Kind() == vec.Expr) {
			b.WriteString(renderList(w, label))
		} else {
			b.WriteString(Render(elt))
		}

		b.WriteString("\n")
	}

	return b.String()
}

func renderPairlist(c cell.I) string {
	var b strings.Builder

	i := 1

	for ; c != pair.Null; c = pair.Cdr(c) {
		label := "[[" + strconv.Itoa(i) + "]]"
		if t := pair.Tag(c); t != nil {
			label = "$" + sym.To(t).String()
		}

		b.WriteString(label + "\n")
		b.WriteString(Render(pair.Car(c)))
		b.WriteString("\n")

		i++
	}

	return b.String()
}

// DisplayElement formats one element for printing. Unlike
// elementString, missing values show as NA and strings are quoted.
func displayElement(v *vec.T, i int) string {
	if v.Kind() == vec.Character {
		s := v.Strings()[i]
		if s == vec.NAString {
			return "NA"
		}

		return strconv.Quote(s)
	}

	s, na := elementString(v, i)
	if na {
		return "NA"
	}

	return s
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}

	return strings.Repeat(" ", width-len(s)) + s
}

func typeNameOf(k vec.Kind) string {
	switch k {
	case vec.Logical:
		return "logical"
	case vec.Integer:
		return "integer"
	case vec.Double:
		return "numeric"
	case vec.Complex:
		return "complex"
	case vec.Character:
		return "character"
	default:
		return "list"
	}
}
