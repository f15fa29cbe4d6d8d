// Released under an MIT license. See LICENSE.

// Package deparse turns an AST back into source text. Re-parsing the
// result yields a structurally equal AST (source references aside).
package deparse

import (
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/literal"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Operator precedences, mirroring the grammar. An operand whose
// operator binds looser than its context is parenthesised.
const (
	precLowest  = 1
	precAssign  = 2
	precEq      = 3
	precTilde   = 5
	precOr      = 6
	precAnd     = 7
	precNot     = 8
	precCompare = 9
	precAdd     = 10
	precMul     = 11
	precSpecial = 12
	precPipe    = 13
	precColon   = 14
	precUnary   = 15
	precPower   = 16
	precPostfix = 17
	precAtom    = 18
)

type op struct {
	prec  int
	right bool
	tight bool // No spaces around the operator.
}

//nolint:gochecknoglobals
var infix = map[string]op{
	"<-":  {prec: precAssign, right: true},
	"<<-": {prec: precAssign, right: true},
	":=":  {prec: precAssign, right: true},
	"=":   {prec: precEq, right: true},
	"~":   {prec: precTilde},
	"||":  {prec: precOr},
	"|":   {prec: precOr},
	"&&":  {prec: precAnd},
	"&":   {prec: precAnd},
	"==":  {prec: precCompare},
	"!=":  {prec: precCompare},
	"<":   {prec: precCompare},
	">":   {prec: precCompare},
	"<=":  {prec: precCompare},
	">=":  {prec: precCompare},
	"+":   {prec: precAdd},
	"-":   {prec: precAdd},
	"*":   {prec: precMul},
	"/":   {prec: precMul},
	"|>":  {prec: precPipe},
	":":   {prec: precColon, tight: true},
	"^":   {prec: precPower, right: true, tight: true},
}

// Text deparses c into source text.
func Text(c cell.I) string {
	return expr(c, precLowest)
}

//nolint:gocognit,funlen
func expr(c cell.I, min int) string {
	switch {
	case c == nil:
		return "NULL"
	case c == pair.Null:
		return "NULL"
	case sym.Is(c):
		return sym.To(c).Literal()
	case vec.Is(c):
		return vec.To(c).Literal()
	case promise.Is(c):
		return expr(source(promise.To(c).Code()), min)
	case bcode.Is(c):
		return expr(bcode.To(c).Expr(), min)
	case env.Is(c):
		return "<environment>"
	case closure.Is(c):
		f := closure.To(c)

		return parens(function(f.Formals(), source(f.Body())), precLowest, min)
	case pair.IsLang(c):
		return call(c, min)
	case pair.Is(c):
		// A bare pairlist appears only in deparsed formals.
		return "pairlist(" + args(c) + ")"
	}

	if l, ok := c.(literal.I); ok {
		return l.Literal()
	}

	return "<" + c.Name() + ">"
}

//nolint:gocognit,funlen,gocyclo
func call(c cell.I, min int) string {
	head := pair.Car(c)
	rest := pair.Cdr(c)
	n := listLen(rest)

	if s, ok := headName(head); ok {
		if o, found := infix[s]; found && n == 2 {
			lhs := expr(pair.Car(rest), o.prec+boolInt(o.right))
			rhs := expr(pair.Cadr(rest), o.prec+boolInt(!o.right))

			sep := " "
			if o.tight {
				sep = ""
			}

			return parens(lhs+sep+s+sep+rhs, o.prec, min)
		}

		if len(s) > 1 && s[0] == '%' && n == 2 {
			lhs := expr(pair.Car(rest), precSpecial)
			rhs := expr(pair.Cadr(rest), precSpecial+1)

			return parens(lhs+" "+s+" "+rhs, precSpecial, min)
		}

		switch s {
		case "-", "+":
			if n == 1 {
				return parens(s+expr(pair.Car(rest), precUnary), precUnary, min)
			}
		case "!":
			if n == 1 {
				return parens("!"+expr(pair.Car(rest), precNot), precNot, min)
			}
		case "~":
			if n == 1 {
				return parens("~"+expr(pair.Car(rest), precTilde), precTilde, min)
			}
		case "?":
			if n == 1 {
				return parens("?"+expr(pair.Car(rest), precLowest), precLowest, min)
			}
		case "(":
			return "(" + expr(pair.Car(rest), precLowest) + ")"
		case "{":
			return block(rest)
		case "if":
			s := "if (" + expr(pair.Car(rest), precLowest) + ") " +
				expr(pair.Cadr(rest), precAssign)
			if n == 3 {
				s += " else " + expr(pair.Caddr(rest), precAssign)
			}

			return parens(s, precLowest, min)
		case "for":
			return parens("for ("+expr(pair.Car(rest), precAtom)+" in "+
				expr(pair.Cadr(rest), precLowest)+") "+
				expr(pair.Caddr(rest), precAssign), precLowest, min)
		case "while":
			return parens("while ("+expr(pair.Car(rest), precLowest)+") "+
				expr(pair.Cadr(rest), precAssign), precLowest, min)
		case "repeat":
			return parens("repeat "+expr(pair.Car(rest), precAssign),
				precLowest, min)
		case "function":
			return parens(function(pair.Car(rest), pair.Cadr(rest)),
				precLowest, min)
		case "next", "break":
			if n == 0 {
				return s
			}
		case "$", "@":
			if n == 2 {
				return parens(expr(pair.Car(rest), precPostfix)+s+
					selector(pair.Cadr(rest)), precPostfix, min)
			}
		case "::", ":::":
			if n == 2 {
				return parens(expr(pair.Car(rest), precAtom)+s+
					expr(pair.Cadr(rest), precAtom), precPostfix, min)
			}
		case "[":
			if n >= 1 {
				return parens(expr(pair.Car(rest), precPostfix)+"["+
					args(pair.Cdr(rest))+"]", precPostfix, min)
			}
		case "[[":
			if n >= 1 {
				return parens(expr(pair.Car(rest), precPostfix)+"[["+
					args(pair.Cdr(rest))+"]]", precPostfix, min)
			}
		}
	}

	return parens(expr(head, precPostfix)+"("+args(rest)+")", precPostfix, min)
}

func args(c cell.I) string {
	parts := []string{}

	for ; c != pair.Null; c = pair.Cdr(c) {
		part := ""

		if t := pair.Tag(c); t != nil {
			part = sym.To(t).Literal() + " = "
		}

		v := pair.Car(c)
		if v != cell.I(sym.Missing) {
			part += expr(v, precLowest)
		} else if part != "" {
			part = strings.TrimSuffix(part, " ")
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, ", ")
}

func block(body cell.I) string {
	var b strings.Builder

	b.WriteString("{\n")

	for c := body; c != pair.Null; c = pair.Cdr(c) {
		for _, line := range strings.Split(expr(pair.Car(c), precLowest), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("}")

	return b.String()
}

func function(formals, body cell.I) string {
	var b strings.Builder

	b.WriteString("function(")

	first := true

	for c := formals; c != pair.Null && pair.Is(c); c = pair.Cdr(c) {
		if !first {
			b.WriteString(", ")
		}

		first = false

		b.WriteString(sym.To(pair.Tag(c)).Literal())

		if v := pair.Car(c); v != cell.I(sym.Missing) {
			b.WriteString(" = ")
			b.WriteString(expr(v, precLowest))
		}
	}

	b.WriteString(") ")
	b.WriteString(expr(body, precAssign))

	return b.String()
}

// Selector prints the name after $ or @ without backticks when the
// original was a string.
func selector(c cell.I) string {
	if vec.IsKind(c, vec.Character) {
		return vec.To(c).Literal()
	}

	return expr(c, precAtom)
}

func headName(head cell.I) (string, bool) {
	if !sym.Is(head) {
		return "", false
	}

	return sym.To(head).String(), true
}

func listLen(c cell.I) int {
	n := 0

	for ; c != pair.Null && pair.Is(c); c = pair.Cdr(c) {
		n++
	}

	return n
}

func parens(s string, prec, min int) string {
	if prec < min {
		return "(" + s + ")"
	}

	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// Source maps compiled code back to the expression it came from.
func source(c cell.I) cell.I {
	if bcode.Is(c) {
		return bcode.To(c).Expr()
	}

	return c
}
