// Released under an MIT license. See LICENSE.

package base

import (
	"fmt"
	"math"
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/list"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/prim"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/deparse"
)

// Install defines the base primitives in e.
//
//nolint:funlen
func Install(e *env.T) {
	prims := []*prim.T{}

	for _, name := range []string{"+", "-", "*", "/", "^", "%%", "%/%"} {
		prims = append(prims, prim.New(name, arithFn(name)))
	}

	for _, name := range []string{"==", "!=", "<", ">", "<=", ">="} {
		prims = append(prims, prim.New(name, compareFn(name)))
	}

	for _, name := range []string{"&", "|"} {
		prims = append(prims, prim.New(name, logicFn(name)))
	}

	for name := range math1 {
		if name == "log" || name == "abs" {
			continue
		}

		prims = append(prims, prim.New(name, math1Fn(name)))
	}

	prims = append(prims,
		prim.New("!", bNot),
		prim.New("abs", bAbs),
		prim.New("log", bLog),
		prim.New("[", bSubset),
		prim.New("[[", bSubset2),
		prim.New("[<-", bSubsetAssign),
		prim.New("[[<-", bSubset2Assign),
		prim.Special("$", bDollar),
		prim.Special("$<-", bDollarAssign),
		prim.Special("@", bAt),
		prim.Special("@<-", bAtAssign),
		prim.Special("&&", andFn),
		prim.Special("||", orFn),
		prim.Special("quote", bQuote),
		prim.New(":", bColon),
		prim.New("c", bCombine),
		prim.New("length", bLength),
		prim.New("names", bNames),
		prim.New("names<-", bNamesAssign),
		prim.New("attr", bAttr),
		prim.New("attr<-", bAttrAssign),
		prim.New("attributes", bAttributes),
		prim.New("class", bClass),
		prim.New("class<-", bClassAssign),
		prim.New("dim", bDim),
		prim.New("dim<-", bDimAssign),
		prim.New("list", bList),
		prim.New("vector", bVector),
		prim.New("logical", modeFn(vec.Logical)),
		prim.New("integer", modeFn(vec.Integer)),
		prim.New("numeric", modeFn(vec.Double)),
		prim.New("double", modeFn(vec.Double)),
		prim.New("complex", modeFn(vec.Complex)),
		prim.New("character", modeFn(vec.Character)),
		prim.New("seq_len", bSeqLen),
		prim.New("seq_along", bSeqAlong),
		prim.New("rep", bRep),
		prim.New("is.null", isFn(func(c cell.I) bool { return c == pair.Null })),
		prim.New("is.function", isFn(func(c cell.I) bool {
			return closure.Is(c) || prim.Is(c)
		})),
		prim.New("is.symbol", isFn(sym.Is)),
		prim.New("is.name", isFn(sym.Is)),
		prim.New("is.environment", isFn(env.Is)),
		prim.New("is.call", isFn(pair.IsLang)),
		prim.New("is.numeric", isFn(isNumericCell)),
		prim.New("is.double", isKindFn(vec.Double)),
		prim.New("is.integer", isKindFn(vec.Integer)),
		prim.New("is.logical", isKindFn(vec.Logical)),
		prim.New("is.character", isKindFn(vec.Character)),
		prim.New("is.complex", isKindFn(vec.Complex)),
		prim.New("is.list", isKindFn(vec.List)),
		prim.New("is.na", bIsNA),
		prim.New("as.logical", asFn(vec.Logical)),
		prim.New("as.integer", asFn(vec.Integer)),
		prim.New("as.numeric", asFn(vec.Double)),
		prim.New("as.double", asFn(vec.Double)),
		prim.New("as.complex", asFn(vec.Complex)),
		prim.New("as.character", asFn(vec.Character)),
		prim.New("as.vector", bAsVector),
		prim.New("typeof", bTypeof),
		prim.New("identical", bIdentical),
		prim.New("invisible", bInvisible),
		prim.New("print", bPrint),
		prim.New("cat", bCat),
		prim.New("paste", pasteFn(" ")),
		prim.New("paste0", pasteFn("")),
		prim.New("deparse", bDeparse),
		prim.New("stop", bStop),
		prim.New("warning", bWarning),
		prim.New("conditionMessage", bConditionMessage),
		prim.New("conditionCall", bConditionCall),
		prim.New("simpleError", bSimpleError),
		prim.New("simpleCondition", bSimpleCondition),
		prim.New("sum", bSum),
		prim.New("prod", bProd),
		prim.New("max", extremeFn("max")),
		prim.New("min", extremeFn("min")),
		prim.New("any", anyAllFn(true)),
		prim.New("all", anyAllFn(false)),
		prim.New("new.env", bNewEnv),
		prim.New("emptyenv", bEmptyEnv),
		prim.New("environment", bEnvironment),
		prim.New("get", bGet),
		prim.New("exists", bExists),
		prim.New("assign", bAssign),
		prim.Special("rm", bRm),
		prim.New("body", bBody),
		prim.New("formals", bFormals),
		prim.New("do.call", bDoCall),
		prim.New("Rprof", bRprof),
	)

	for _, p := range prims {
		e.Define(sym.New(p.Label()), p)
	}
}

// Match fills one slot per formal name: tagged arguments match their
// name exactly, the rest fill the remaining slots in order. Unfilled
// slots stay nil.
func match(args cell.I, formals ...string) []cell.I {
	out := make([]cell.I, len(formals))

	rest := []cell.I{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		t := pair.Tag(a)
		if t == nil {
			rest = append(rest, pair.Car(a))

			continue
		}

		name := sym.To(t).String()

		found := false

		for i, f := range formals {
			if f == name && out[i] == nil {
				out[i] = pair.Car(a)
				found = true

				break
			}
		}

		if !found {
			rest = append(rest, pair.Car(a))
		}
	}

	j := 0

	for i := range out {
		if out[i] == nil && j < len(rest) {
			out[i] = rest[j]
			j++
		}
	}

	return out
}

func arg1(call, args cell.I) cell.I {
	if args == pair.Null {
		panic(cond.Error("argument is missing, with no default", call))
	}

	return pair.Car(args)
}

func arithFn(name string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		x := arg1(call, args)

		if pair.Cdr(args) == pair.Null {
			if r, ok := OpsDispatch(ip, call, name, x, nil, e); ok {
				return r
			}

			return Unary(call, name, mustVec(call, x))
		}

		y := pair.Cadr(args)

		if r, ok := OpsDispatch(ip, call, name, x, y, e); ok {
			return r
		}

		return Arith(ip, call, name, mustVec(call, x), mustVec(call, y))
	}
}

func compareFn(name string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		x, y := arg1(call, args), pair.Cadr(args)

		if r, ok := OpsDispatch(ip, call, name, x, y, e); ok {
			return r
		}

		return Compare(call, name, mustVec(call, x), mustVec(call, y))
	}
}

func logicFn(name string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		x, y := arg1(call, args), pair.Cadr(args)

		if r, ok := OpsDispatch(ip, call, name, x, y, e); ok {
			return r
		}

		return Logic(call, name, mustVec(call, x), mustVec(call, y))
	}
}

func math1Fn(name string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		return Math1(ip, call, name, mustVec(call, arg1(call, args)))
	}
}

func bNot(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := arg1(call, args)

	if r, ok := OpsDispatch(ip, call, "!", x, nil, e); ok {
		return r
	}

	return Not(call, mustVec(call, x))
}

func bAbs(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := mustVec(call, arg1(call, args))

	// abs keeps integers integer.
	if x.Kind() == vec.Integer {
		out := x.Copy()
		ints := out.Integers()

		for i, v := range ints {
			if v != vec.NAInteger && v < 0 {
				ints[i] = -v
			}
		}

		return out
	}

	return Math1(ip, call, "abs", x)
}

func bLog(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "base")

	x := mustVec(call, m[0])

	if m[1] == nil {
		return Math1(ip, call, "log", x)
	}

	b, na := doubleAt(mustVec(call, m[1]), 0)
	if na {
		panic(cond.Error("invalid 'base' argument", call))
	}

	n := x.Len()
	out := vec.New(vec.Double, n)
	r := out.Reals()

	for i := 0; i < n; i++ {
		a, isna := doubleAt(x, i)
		if isna {
			r[i] = vec.NAReal

			continue
		}

		r[i] = math.Log(a) / math.Log(b)
	}

	copyShape(out, x, x, n)

	return out
}

// Subscripting.

func bSubset(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return Subset(call, arg1(call, args), pair.Cdr(args))
}

func bSubset2(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return Subset2(call, arg1(call, args), pair.Cdr(args))
}

func bSubsetAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x, idx, value := splitAssignArgs(call, args)

	return SubsetAssign(call, x, idx, value)
}

func bSubset2Assign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x, idx, value := splitAssignArgs(call, args)

	return Subset2Assign(call, x, idx, value)
}

// SplitAssignArgs separates (x, subscripts..., value): the last
// argument of a replacement call is the value being assigned.
func splitAssignArgs(call, args cell.I) (cell.I, cell.I, cell.I) {
	x := arg1(call, args)

	rest := pair.Cdr(args)
	if rest == pair.Null {
		panic(cond.Error("replacement requires a value", call))
	}

	var idx cell.I = pair.Null

	elems := []cell.I{}
	tags := []cell.I{}

	for a := rest; pair.Cdr(a) != pair.Null; a = pair.Cdr(a) {
		elems = append(elems, pair.Car(a))
		tags = append(tags, pair.Tag(a))
	}

	for i := len(elems) - 1; i >= 0; i-- {
		idx = pair.ConsTagged(tags[i], elems[i], idx)
	}

	var value cell.I

	for a := rest; a != pair.Null; a = pair.Cdr(a) {
		if pair.Cdr(a) == pair.Null {
			value = pair.Car(a)
		}
	}

	return x, idx, value
}

func selectorName(call, c cell.I) string {
	if sym.Is(c) {
		return sym.To(c).String()
	}

	if vec.IsKind(c, vec.Character) {
		return vec.To(c).Strings()[0]
	}

	panic(cond.Error("invalid subscript type", call))
}

func bDollar(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := ip.Force(ip.Eval(arg1(call, args), e))

	return Dollar(call, x, selectorName(call, pair.Cadr(args)))
}

func bDollarAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := ip.Force(ip.Eval(arg1(call, args), e))
	value := ip.Force(ip.Eval(pair.Caddr(args), e))

	return DollarAssign(call, x, selectorName(call, pair.Cadr(args)), value)
}

// @ reads and writes attributes directly.

func bAt(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := ip.Force(ip.Eval(arg1(call, args), e))

	a := mustVec(call, x).Attr(selectorName(call, pair.Cadr(args)))
	if a == nil {
		return pair.Null
	}

	return a
}

func bAtAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := ip.Force(ip.Eval(arg1(call, args), e))
	value := ip.Force(ip.Eval(pair.Caddr(args), e))

	v := mustVec(call, x)
	if v.Named() > 1 {
		v = v.Copy()
	}

	v.SetAttr(selectorName(call, pair.Cadr(args)), value)

	return v
}

// Short-circuit logic. Both forms demand scalar operands and only
// evaluate the right side when the left does not decide.

func andFn(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	a := scalarLogic(ip, call, arg1(call, args), e)
	if a == 0 {
		return vec.Bool(false)
	}

	b := scalarLogic(ip, call, pair.Cadr(args), e)

	switch {
	case b == 0:
		return vec.Bool(false)
	case a == vec.NALogical || b == vec.NALogical:
		return vec.NA()
	}

	return vec.Bool(true)
}

func orFn(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	a := scalarLogic(ip, call, arg1(call, args), e)
	if a == 1 {
		return vec.Bool(true)
	}

	b := scalarLogic(ip, call, pair.Cadr(args), e)

	switch {
	case b == 1:
		return vec.Bool(true)
	case a == vec.NALogical || b == vec.NALogical:
		return vec.NA()
	}

	return vec.Bool(false)
}

func scalarLogic(ip prim.Interp, call, expr cell.I, e *env.T) byte {
	v := mustVec(call, ip.Force(ip.Eval(expr, e)))

	if v.Len() != 1 {
		panic(cond.Error("'length = "+fmt.Sprint(v.Len())+
			"' in coercion to 'logical(1)'", call))
	}

	return logicalAt(call, v, 0)
}

func bQuote(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return arg1(call, args)
}

// Sequences.

func bColon(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	from := mustVec(call, arg1(call, args))
	to := mustVec(call, pair.Cadr(args))

	return Colon(call, from, to)
}

// Colon builds the sequence from:to, compact integer when both ends
// are integral and in range, double otherwise.
func Colon(call cell.I, from, to *vec.T) cell.I {
	a, na := doubleAt(from, 0)
	b, nb := doubleAt(to, 0)

	if na || nb {
		panic(cond.Error("NA/NaN argument", call))
	}

	if a == math.Trunc(a) && b == math.Trunc(b) &&
		a >= math.MinInt32+1 && a <= math.MaxInt32 &&
		b >= math.MinInt32+1 && b <= math.MaxInt32 {
		return vec.Seq(int32(a), int32(b))
	}

	n := int(math.Abs(b-a)) + 1
	out := vec.New(vec.Double, n)

	step := 1.0
	if b < a {
		step = -1
	}

	for i := 0; i < n; i++ {
		out.Reals()[i] = a + float64(i)*step
	}

	return out
}

func bSeqLen(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	n := asScalarInteger(call, arg1(call, args))
	if n < 0 {
		panic(cond.Error("argument must be coercible to non-negative integer", call))
	}

	if n == 0 {
		return vec.New(vec.Integer, 0)
	}

	return vec.Seq(1, n)
}

func bSeqAlong(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	n := lengthOf(arg1(call, args))
	if n == 0 {
		return vec.New(vec.Integer, 0)
	}

	return vec.Seq(1, int32(n))
}

func bRep(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "times")

	x := mustVec(call, m[0])
	times := int(asScalarInteger(call, m[1]))

	if times < 0 {
		panic(cond.Error("invalid 'times' argument", call))
	}

	out := vec.New(x.Kind(), x.Len()*times)

	for i := 0; i < out.Len(); i++ {
		copyElement(out, i, x, i%max1(x.Len()))
	}

	return out
}

// Structure.

func bCombine(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return Combine(call, args)
}

func bLength(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return vec.Int(int32(lengthOf(arg1(call, args))))
}

func lengthOf(c cell.I) int {
	switch {
	case c == pair.Null:
		return 0
	case vec.Is(c):
		return vec.To(c).Len()
	case env.Is(c):
		return len(env.To(c).Names())
	case pair.Is(c):
		return list.Length(c)
	}

	return 1
}

func bList(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	n := list.Length(args)
	out := vec.New(vec.List, n)

	var names *vec.T

	i := 0

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		out.SetElt(i, pair.Car(a))

		if t := pair.Tag(a); t != nil {
			if names == nil {
				names = vec.New(vec.Character, n)
			}

			names.Strings()[i] = sym.To(t).String()
		}

		i++
	}

	if names != nil {
		out.SetAttr("names", names)
	}

	return out
}

func bVector(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "mode", "length")

	mode := "logical"
	if m[0] != nil {
		mode = vec.To(m[0]).Strings()[0]
	}

	n := 0
	if m[1] != nil {
		n = int(asScalarInteger(call, m[1]))
	}

	kind, ok := map[string]vec.Kind{
		"logical": vec.Logical, "integer": vec.Integer,
		"numeric": vec.Double, "double": vec.Double,
		"complex": vec.Complex, "character": vec.Character,
		"list": vec.List, "expression": vec.Expr, "raw": vec.Raw,
	}[mode]
	if !ok {
		panic(cond.Error("vector: cannot make a vector of mode '"+mode+"'", call))
	}

	return vec.New(kind, n)
}

func modeFn(kind vec.Kind) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		n := 0
		if args != pair.Null {
			n = int(asScalarInteger(call, pair.Car(args)))
		}

		return vec.New(kind, n)
	}
}

// Attributes.

func bNames(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)

	if env.Is(c) {
		names := env.To(c).Names()
		out := vec.New(vec.Character, len(names))
		copy(out.Strings(), names)

		return out
	}

	if !vec.Is(c) || c == pair.Null {
		return pair.Null
	}

	a := vec.To(c).Attr("names")
	if a == nil {
		return pair.Null
	}

	return a
}

func bNamesAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	v := mustVec(call, arg1(call, args))
	value := pair.Cadr(args)

	if v.Named() > 1 {
		v = v.Copy()
	}

	if value == pair.Null {
		v.SetAttr("names", nil)

		return v
	}

	names := coerce(mustVec(call, value), vec.Character)

	if names.Len() < v.Len() {
		grown := vec.New(vec.Character, v.Len())
		copy(grown.Strings(), names.Strings())

		for i := names.Len(); i < v.Len(); i++ {
			grown.Strings()[i] = vec.NAString
		}

		names = grown
	}

	v.SetAttr("names", names)

	return v
}

func bAttr(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "which")

	a := mustVec(call, m[0]).Attr(vec.To(m[1]).Strings()[0])
	if a == nil {
		return pair.Null
	}

	return a
}

func bAttrAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "which", "value")

	v := mustVec(call, m[0])
	if v.Named() > 1 {
		v = v.Copy()
	}

	v.SetAttr(vec.To(m[1]).Strings()[0], m[2])

	return v
}

func bAttributes(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)
	if !vec.Is(c) || c == pair.Null {
		return pair.Null
	}

	attrs := vec.To(c).Attributes()
	if attrs == pair.Null {
		return pair.Null
	}

	n := list.Length(attrs)
	out := vec.New(vec.List, n)
	names := vec.New(vec.Character, n)

	i := 0

	for a := attrs; a != pair.Null; a = pair.Cdr(a) {
		out.SetElt(i, pair.Car(a))
		names.Strings()[i] = sym.To(pair.Tag(a)).String()
		i++
	}

	out.SetAttr("names", names)

	return out
}

func bClass(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)

	if classes := ClassesOf(c); classes != nil {
		out := vec.New(vec.Character, len(classes))
		copy(out.Strings(), classes)

		return out
	}

	return vec.Str(implicitClass(c))
}

func implicitClass(c cell.I) string {
	switch {
	case c == pair.Null:
		return "NULL"
	case closure.Is(c) || prim.Is(c):
		return "function"
	case pair.IsLang(c):
		return "call"
	case sym.Is(c):
		return "name"
	case env.Is(c):
		return "environment"
	case vec.Is(c):
		v := vec.To(c)
		if v.Kind() == vec.Double {
			return "numeric"
		}

		return v.Name()
	}

	return c.Name()
}

func bClassAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	v := mustVec(call, arg1(call, args))
	value := pair.Cadr(args)

	if v.Named() > 1 {
		v = v.Copy()
	}

	if value == pair.Null {
		v.SetAttr("class", nil)
	} else {
		v.SetAttr("class", coerce(mustVec(call, value), vec.Character))
	}

	return v
}

func bDim(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)
	if !vec.Is(c) || c == pair.Null {
		return pair.Null
	}

	d := vec.To(c).Attr("dim")
	if d == nil {
		return pair.Null
	}

	return d
}

func bDimAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	v := mustVec(call, arg1(call, args))
	value := pair.Cadr(args)

	if v.Named() > 1 {
		v = v.Copy()
	}

	if value == pair.Null {
		v.SetAttr("dim", nil)

		return v
	}

	d := coerce(mustVec(call, value), vec.Integer)

	n := 1
	for _, ext := range d.Integers() {
		n *= int(ext)
	}

	if n != v.Len() {
		panic(cond.Error("dims do not match the length of object", call))
	}

	v.SetAttr("dim", d)

	return v
}

// Predicates and coercions.

func isFn(f func(cell.I) bool) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		return vec.Bool(f(arg1(call, args)))
	}
}

func isKindFn(kind vec.Kind) prim.Fn {
	return isFn(func(c cell.I) bool {
		return c != pair.Null && vec.IsKind(c, kind)
	})
}

func isNumericCell(c cell.I) bool {
	if c == pair.Null {
		return false
	}

	return vec.IsKind(c, vec.Integer) || vec.IsKind(c, vec.Double)
}

func bIsNA(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := mustVec(call, arg1(call, args))

	n := x.Len()
	out := vec.New(vec.Logical, n)
	log := out.Logicals()

	for i := 0; i < n; i++ {
		na := false

		switch x.Kind() {
		case vec.Logical:
			na = x.Logicals()[i] == vec.NALogical
		case vec.Integer:
			na = x.Integers()[i] == vec.NAInteger
		case vec.Double:
			f := x.Reals()[i]
			na = vec.IsNAReal(f) || math.IsNaN(f)
		case vec.Complex:
			na = isNAComplex(x.Complexes()[i])
		case vec.Character:
			na = x.Strings()[i] == vec.NAString
		}

		if na {
			log[i] = 1
		}
	}

	copyShape(out, x, x, n)

	return out
}

func asFn(kind vec.Kind) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		c := arg1(call, args)
		if c == pair.Null {
			return vec.New(kind, 0)
		}

		out := coerce(mustVec(call, c), kind)
		out.SetAttr("names", nil)

		return out
	}
}

func bAsVector(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	v := mustVec(call, arg1(call, args))

	out := v.Copy()

	for a := v.Attributes(); a != pair.Null; a = pair.Cdr(a) {
		name := sym.To(pair.Tag(a)).String()
		if name != "names" {
			out.SetAttr(name, nil)
		}
	}

	return out
}

func bTypeof(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)
	if c == pair.Null {
		return vec.Str("NULL")
	}

	return vec.Str(c.Name())
}

func bIdentical(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return vec.Bool(arg1(call, args).Equal(pair.Cadr(args)))
}

func bInvisible(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	ip.Visible(false)

	if args == pair.Null {
		return pair.Null
	}

	return pair.Car(args)
}

// Output.

func bPrint(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	x := arg1(call, args)

	fmt.Print(Render(x))
	ip.Visible(false)

	return x
}

func bCat(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	sep := " "
	parts := []string{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil && sym.To(t).String() == "sep" {
			sep = vec.To(pair.Car(a)).Strings()[0]

			continue
		}

		c := pair.Car(a)
		if c == pair.Null {
			continue
		}

		v := mustVec(call, c)

		for i := 0; i < v.Len(); i++ {
			s, na := elementString(v, i)
			if na {
				s = "NA"
			}

			parts = append(parts, s)
		}
	}

	fmt.Print(strings.Join(parts, sep))
	ip.Visible(false)

	return pair.Null
}

//nolint:gocognit
func pasteFn(defaultSep string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		sep := defaultSep
		collapse := cell.I(pair.Null)

		vs := []*vec.T{}

		for a := args; a != pair.Null; a = pair.Cdr(a) {
			if t := pair.Tag(a); t != nil {
				switch sym.To(t).String() {
				case "sep":
					sep = vec.To(pair.Car(a)).Strings()[0]

					continue
				case "collapse":
					collapse = pair.Car(a)

					continue
				}
			}

			c := pair.Car(a)
			if c == pair.Null {
				continue
			}

			vs = append(vs, coerce(mustVec(call, c), vec.Character))
		}

		n := 0

		for _, v := range vs {
			if v.Len() > n {
				n = v.Len()
			}
		}

		out := vec.New(vec.Character, n)

		for i := 0; i < n; i++ {
			elems := make([]string, len(vs))
			for j, v := range vs {
				elems[j] = v.Strings()[i%max1(v.Len())]
			}

			out.Strings()[i] = strings.Join(elems, sep)
		}

		if collapse != pair.Null {
			return vec.Str(strings.Join(out.Strings(),
				vec.To(collapse).Strings()[0]))
		}

		return out
	}
}

func bDeparse(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return vec.Str(deparse.Text(arg1(call, args)))
}

// Conditions.

func bStop(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	if args != pair.Null && cond.Is(pair.Car(args)) {
		c := cond.To(pair.Car(args))
		c.SetCall(call)

		panic(c)
	}

	panic(cond.Error(messageFrom(call, args), call))
}

func bWarning(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	if args != pair.Null && cond.Is(pair.Car(args)) {
		ip.Warningf(cond.To(pair.Car(args)).Call(), "%s",
			cond.To(pair.Car(args)).Message())
	} else {
		ip.Warningf(call, "%s", messageFrom(call, args))
	}

	ip.Visible(false)

	return pair.Null
}

func messageFrom(call, args cell.I) string {
	var b strings.Builder

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil {
			continue
		}

		v := mustVec(call, pair.Car(a))

		for i := 0; i < v.Len(); i++ {
			s, _ := elementString(v, i)
			b.WriteString(s)
		}
	}

	return b.String()
}

func bConditionMessage(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return vec.Str(cond.To(arg1(call, args)).Message())
}

func bConditionCall(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := cond.To(arg1(call, args)).Call()
	if c == nil {
		return pair.Null
	}

	return c
}

func bSimpleError(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "message", "call")

	msg := vec.To(m[0]).Strings()[0]

	errCall := cell.I(nil)
	if m[1] != nil && m[1] != pair.Null {
		errCall = m[1]
	}

	return cond.New(msg, errCall, "simpleError")
}

func bSimpleCondition(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return bSimpleError(ip, call, args, e)
}

// Summaries.

func bSum(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	total, integral, na := summarize(ip, call, args, func(acc, f float64) float64 {
		return acc + f
	}, 0)

	return summaryResult(total, integral, na)
}

func bProd(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	total, _, na := summarize(ip, call, args, func(acc, f float64) float64 {
		return acc * f
	}, 1)

	if na {
		return vec.Real(vec.NAReal)
	}

	return vec.Real(total)
}

func summarize(
	ip prim.Interp, call, args cell.I,
	f func(acc, v float64) float64, acc float64,
) (float64, bool, bool) {
	naRM := false
	integral := true
	sawNA := false

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil && sym.To(t).String() == "na.rm" {
			naRM = asScalarLogical(call, pair.Car(a))

			continue
		}

		v := mustVec(call, pair.Car(a))
		if v.Kind() != vec.Integer && v.Kind() != vec.Logical {
			integral = false
		}

		for i := 0; i < v.Len(); i++ {
			x, na := doubleAt(v, i)
			if na {
				if !naRM {
					sawNA = true
				}

				continue
			}

			acc = f(acc, x)
		}
	}

	return acc, integral, sawNA
}

func summaryResult(total float64, integral, na bool) cell.I {
	if na {
		if integral {
			return vec.Int(vec.NAInteger)
		}

		return vec.Real(vec.NAReal)
	}

	if integral && total >= math.MinInt32+1 && total <= math.MaxInt32 {
		return vec.Int(int32(total))
	}

	return vec.Real(total)
}

func extremeFn(name string) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		best := math.Inf(1)
		if name == "max" {
			best = math.Inf(-1)
		}

		integral := true
		naRM := false
		sawNA := false
		sawAny := false

		for a := args; a != pair.Null; a = pair.Cdr(a) {
			if t := pair.Tag(a); t != nil && sym.To(t).String() == "na.rm" {
				naRM = asScalarLogical(call, pair.Car(a))

				continue
			}

			v := mustVec(call, pair.Car(a))
			if v.Kind() != vec.Integer && v.Kind() != vec.Logical {
				integral = false
			}

			for i := 0; i < v.Len(); i++ {
				x, na := doubleAt(v, i)
				if na {
					if !naRM {
						sawNA = true
					}

					continue
				}

				sawAny = true

				if name == "max" && x > best || name == "min" && x < best {
					best = x
				}
			}
		}

		if !sawAny && !sawNA {
			ip.Warningf(call, "no non-missing arguments to "+name+
				"; returning "+FormatDouble(best))

			return vec.Real(best)
		}

		return summaryResult(best, integral, sawNA)
	}
}

func anyAllFn(any bool) prim.Fn {
	return func(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
		naRM := false
		sawNA := false

		for a := args; a != pair.Null; a = pair.Cdr(a) {
			if t := pair.Tag(a); t != nil && sym.To(t).String() == "na.rm" {
				naRM = asScalarLogical(call, pair.Car(a))
			}
		}

		for a := args; a != pair.Null; a = pair.Cdr(a) {
			if pair.Tag(a) != nil {
				continue
			}

			v := mustVec(call, pair.Car(a))

			for i := 0; i < v.Len(); i++ {
				switch logicalAt(call, v, i) {
				case vec.NALogical:
					if !naRM {
						sawNA = true
					}
				case 1:
					if any {
						return vec.Bool(true)
					}
				case 0:
					if !any {
						return vec.Bool(false)
					}
				}
			}
		}

		if sawNA {
			return vec.NA()
		}

		return vec.Bool(!any)
	}
}

// Environments.

func bNewEnv(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "hash", "parent", "size")

	parent := e
	if m[1] != nil {
		parent = env.To(m[1])
	}

	return env.New(parent)
}

func bEmptyEnv(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	return env.Empty
}

func bEnvironment(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	if args == pair.Null || pair.Car(args) == pair.Null {
		return e
	}

	c := pair.Car(args)
	if closure.Is(c) {
		return closure.To(c).Env()
	}

	return pair.Null
}

func envArg(call cell.I, c cell.I, dflt *env.T) *env.T {
	if c == nil {
		return dflt
	}

	if !env.Is(c) {
		panic(cond.Error("invalid 'envir' argument", call))
	}

	return env.To(c)
}

func bGet(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "envir")

	name := vec.To(m[0]).Strings()[0]

	b := envArg(call, m[1], e).Lookup(sym.New(name))
	if b == nil {
		panic(cond.Error("object '"+name+"' not found", call))
	}

	return ip.Force(b.Get())
}

func bExists(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "envir", "inherits")

	name := vec.To(m[0]).Strings()[0]
	where := envArg(call, m[1], e)

	if m[2] != nil && !asScalarLogical(call, m[2]) {
		return vec.Bool(where.Local(sym.New(name)) != nil)
	}

	return vec.Bool(where.Lookup(sym.New(name)) != nil)
}

func bAssign(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "x", "value", "envir")

	name := vec.To(m[0]).Strings()[0]

	envArg(call, m[2], e).Define(sym.New(name), m[1])
	ip.Visible(false)

	return m[1]
}

// Rm takes its ... arguments unevaluated: rm(x) names the binding x,
// it does not fetch x's value. Only envir and list are evaluated.
func bRm(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	where := e
	names := []string{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil {
			switch sym.To(t).String() {
			case "envir":
				where = env.To(ip.Force(ip.Eval(pair.Car(a), e)))
			case "list":
				v := ip.Force(ip.Eval(pair.Car(a), e))
				names = append(names, vec.To(v).Strings()...)
			}

			continue
		}

		c := pair.Car(a)

		switch {
		case sym.Is(c):
			names = append(names, sym.To(c).String())
		case vec.IsKind(c, vec.Character):
			names = append(names, vec.To(c).Strings()[0])
		default:
			panic(cond.Error(
				"... must contain names or character strings", call))
		}
	}

	for _, name := range names {
		if !where.Remove(sym.New(name)) {
			ip.Warningf(call, "object '"+name+"' not found")
		}
	}

	ip.Visible(false)

	return pair.Null
}

// Function accessors.

func bBody(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	body := closure.To(arg1(call, args)).Body()
	if bcode.Is(body) {
		return bcode.To(body).Expr()
	}

	return body
}

func bFormals(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	c := arg1(call, args)
	if !closure.Is(c) {
		return pair.Null
	}

	return closure.To(c).Formals()
}

func bDoCall(ip prim.Interp, call, args cell.I, e *env.T) cell.I {
	m := match(args, "what", "args")

	fn := m[0]
	if vec.IsKind(fn, vec.Character) {
		name := vec.To(fn).Strings()[0]

		b := e.Lookup(sym.New(name))
		if b == nil {
			panic(cond.Error("could not find function \""+name+"\"", call))
		}

		fn = ip.Force(b.Get())
	}

	v := mustVec(call, m[1])
	if v.Kind() != vec.List {
		panic(cond.Error("second argument must be a list", call))
	}

	var names []string
	if a := v.Attr("names"); a != nil {
		names = vec.To(a).Strings()
	}

	built := cell.I(pair.Null)

	for i := v.Len() - 1; i >= 0; i-- {
		var tag cell.I
		if i < len(names) && names[i] != "" {
			tag = sym.New(names[i])
		}

		built = pair.ConsTagged(tag, v.At(i), built)
	}

	return ip.Apply(fn, call, built, e)
}
