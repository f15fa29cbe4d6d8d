// Released under an MIT license. See LICENSE.

package base

import (
	"math"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Subset implements x[...]. One subscript selects elements; two
// subscripts select from a matrix.
//
//nolint:gocognit,gocyclo,funlen
func Subset(call, x cell.I, args cell.I) cell.I {
	if x == pair.Null {
		return pair.Null
	}

	v := mustVec(call, x)

	drop := true
	subs := []cell.I{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil && sym.To(t).String() == "drop" {
			drop = asScalarLogical(call, pair.Car(a))

			continue
		}

		subs = append(subs, pair.Car(a))
	}

	switch len(subs) {
	case 0:
		return v
	case 1:
		return subsetVector(call, v, subs[0])
	case 2:
		return subsetMatrix(call, v, subs[0], subs[1], drop)
	default:
		panic(cond.Error("incorrect number of dimensions", call))
	}
}

// Subset2 implements x[[i]]: exactly one element.
func Subset2(call, x cell.I, args cell.I) cell.I {
	if args == pair.Null || pair.Cdr(args) != pair.Null {
		panic(cond.Error("incorrect number of subscripts", call))
	}

	if env.Is(x) {
		return envElement(call, env.To(x), pair.Car(args))
	}

	v := mustVec(call, x)

	i := element2Index(call, v, pair.Car(args))

	if v.Kind() == vec.List || v.Kind() == vec.Expr {
		return share(v, v.At(i))
	}

	return v.At(i)
}

// Share marks an extracted list element as shared: it is reachable
// from the container as well as from the extraction result, and a
// shared container shares all of its elements.
func share(container *vec.T, c cell.I) cell.I {
	v, ok := c.(*vec.T)
	if !ok {
		return c
	}

	v.Bump()

	if container.Named() > 1 {
		v.Bump()
	}

	return c
}

// Dollar implements x$name for lists and environments.
func Dollar(call, x cell.I, name string) cell.I {
	if env.Is(x) {
		b := env.To(x).Local(sym.New(name))
		if b == nil {
			return pair.Null
		}

		return b.Get()
	}

	v := mustVec(call, x)
	if v.Kind() != vec.List {
		panic(cond.Error("$ operator is invalid for atomic vectors", call))
	}

	i := nameIndex(v, name)
	if i < 0 {
		return pair.Null
	}

	return share(v, v.At(i))
}

// SubsetAssign implements x[...] <- value, returning the updated
// vector. The input is copied when shared.
//
//nolint:gocognit,gocyclo,funlen
func SubsetAssign(call, x cell.I, args cell.I, value cell.I) cell.I {
	v := mustVec(call, x)

	subs := []cell.I{}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if t := pair.Tag(a); t != nil && sym.To(t).String() == "drop" {
			continue
		}

		subs = append(subs, pair.Car(a))
	}

	if len(subs) != 1 {
		panic(cond.Error("unsupported subscript count in assignment", call))
	}

	w := mustVec(call, value)

	// Integral doubles assigned into an integer vector stay integer.
	target := v.Kind()
	if w.Kind() > target && !(w.Kind() == vec.Double && target == vec.Integer && allIntegral(w)) {
		v = coerceKeepAttrs(v, w.Kind())
		target = w.Kind()
	} else if w.Kind() != target {
		w = coerce(w, target)
	}

	if v.Named() > 1 {
		v = v.Copy()
	}

	idx := resolveIndex(call, v, subs[0], false)

	if w.Len() == 0 {
		panic(cond.Error("replacement has length zero", call))
	}

	if len(idx)%w.Len() != 0 {
		panic(cond.Error(
			"number of items to replace is not a multiple of replacement length",
			call))
	}

	for k, i := range idx {
		if i < 0 {
			panic(cond.Error("NAs are not allowed in subscripted assignments", call))
		}

		if i >= v.Len() {
			v = growVector(v, i+1)
		}

		copyElement(v, i, w, k%w.Len())
	}

	return v
}

// Subset2Assign implements x[[i]] <- value.
func Subset2Assign(call, x cell.I, args cell.I, value cell.I) cell.I {
	if env.Is(x) {
		name := elementName(call, pair.Car(args))
		env.To(x).Define(sym.New(name), value)

		return x
	}

	v, ok := x.(*vec.T)
	if !ok || x == pair.Null {
		v = vec.New(vec.List, 0)
	}

	if v.Kind() != vec.List && v.Kind() != vec.Expr {
		// Element assignment into an atomic vector behaves like [<-.
		return SubsetAssign(call, v, args, value)
	}

	if v.Named() > 1 {
		v = v.Copy()
	}

	sub := pair.Car(args)

	var i int
	if vec.IsKind(sub, vec.Character) {
		name := vec.To(sub).Strings()[0]

		i = nameIndex(v, name)
		if i < 0 {
			v = growList(v, name)
			i = v.Len() - 1
		}
	} else {
		i = int(asScalarInteger(call, sub)) - 1
		if i < 0 {
			panic(cond.Error("subscript out of bounds", call))
		}

		for i >= v.Len() {
			v = growList(v, "")
		}
	}

	v.SetElt(i, value)

	return v
}

// DollarAssign implements x$name <- value.
func DollarAssign(call, x cell.I, name string, value cell.I) cell.I {
	if env.Is(x) {
		env.To(x).Define(sym.New(name), value)

		return x
	}

	v, ok := x.(*vec.T)
	if !ok || x == pair.Null {
		v = vec.New(vec.List, 0)
	}

	if v.Kind() != vec.List {
		panic(cond.Error("$ operator is invalid for atomic vectors", call))
	}

	if v.Named() > 1 {
		v = v.Copy()
	}

	i := nameIndex(v, name)
	if i < 0 {
		v = growList(v, name)
		i = v.Len() - 1
	}

	v.SetElt(i, value)

	return v
}

// SubsetVector is the one-subscript [ kernel, shared with the VM's
// fast path fallback.
func subsetVector(call cell.I, v *vec.T, sub cell.I) cell.I {
	idx := resolveIndex(call, v, sub, true)

	out := vec.New(v.Kind(), len(idx))

	var names, sel *vec.T
	if a := v.Attr("names"); a != nil {
		names = vec.To(a)
		sel = vec.New(vec.Character, len(idx))
	}

	for k, i := range idx {
		if i < 0 || i >= v.Len() {
			setNAElement(out, k)

			if sel != nil {
				sel.Strings()[k] = vec.NAString
			}

			continue
		}

		copyElement(out, k, v, i)

		if sel != nil {
			sel.Strings()[k] = names.Strings()[i]
		}
	}

	if sel != nil {
		out.SetAttr("names", sel)
	}

	return out
}

//nolint:gocognit,gocyclo
func subsetMatrix(call cell.I, v *vec.T, si, sj cell.I, drop bool) cell.I {
	d := v.Attr("dim")
	if d == nil {
		panic(cond.Error("incorrect number of dimensions", call))
	}

	dim := vec.To(d).Integers()
	if len(dim) != 2 {
		panic(cond.Error("incorrect number of dimensions", call))
	}

	nrow, ncol := int(dim[0]), int(dim[1])

	rows := resolveExtent(call, v, si, nrow)
	cols := resolveExtent(call, v, sj, ncol)

	out := vec.New(v.Kind(), len(rows)*len(cols))

	k := 0

	for _, j := range cols {
		for _, i := range rows {
			if i < 0 || i >= nrow || j < 0 || j >= ncol {
				panic(cond.Error("subscript out of bounds", call))
			}

			copyElement(out, k, v, j*nrow+i)
			k++
		}
	}

	if !drop || (len(rows) > 1 && len(cols) > 1) {
		nd := vec.New(vec.Integer, 2)
		nd.Integers()[0] = int32(len(rows))
		nd.Integers()[1] = int32(len(cols))
		out.SetAttr("dim", nd)
	}

	return out
}

// ResolveIndex turns a subscript into 0-based element indexes. An
// index of -1 in the result marks an NA (or out-of-range) selection.
//
//nolint:gocognit,gocyclo,funlen
func resolveIndex(call cell.I, v *vec.T, sub cell.I, allowOOB bool) []int {
	if sub == cell.I(sym.Missing) {
		idx := make([]int, v.Len())
		for i := range idx {
			idx[i] = i
		}

		return idx
	}

	s := mustVec(call, sub)

	switch s.Kind() {
	case vec.Logical:
		n := v.Len()
		if s.Len() > n {
			n = s.Len()
		}

		idx := []int{}

		for i := 0; i < n; i++ {
			switch s.Logicals()[i%max1(s.Len())] {
			case 1:
				idx = append(idx, i)
			case vec.NALogical:
				idx = append(idx, -1)
			}
		}

		return idx
	case vec.Character:
		idx := make([]int, s.Len())

		for i := 0; i < s.Len(); i++ {
			idx[i] = nameIndex(v, s.Strings()[i])
		}

		return idx
	case vec.Integer, vec.Double:
		neg, pos := false, false
		idx := []int{}

		for i := 0; i < s.Len(); i++ {
			f, na := doubleAt(s, i)

			switch {
			case na:
				idx = append(idx, -1)
			case f < 0:
				neg = true

				idx = append(idx, int(-f)-1)
			case f == 0:
				// Zero subscripts select nothing.
			default:
				pos = true

				j := int(f) - 1
				if j >= v.Len() && !allowOOB {
					idx = append(idx, j)

					continue
				}

				idx = append(idx, j)
			}
		}

		if neg && pos {
			panic(cond.Error(
				"can't mix positive and negative subscripts", call))
		}

		if !neg {
			return idx
		}

		drop := map[int]bool{}
		for _, i := range idx {
			drop[i] = true
		}

		kept := []int{}

		for i := 0; i < v.Len(); i++ {
			if !drop[i] {
				kept = append(kept, i)
			}
		}

		return kept
	default:
		panic(cond.Error("invalid subscript type", call))
	}
}

func resolveExtent(call cell.I, v *vec.T, sub cell.I, extent int) []int {
	if sub == cell.I(sym.Missing) {
		idx := make([]int, extent)
		for i := range idx {
			idx[i] = i
		}

		return idx
	}

	s := mustVec(call, sub)

	idx := make([]int, 0, s.Len())

	for i := 0; i < s.Len(); i++ {
		f, na := doubleAt(s, i)
		if na {
			panic(cond.Error("NA subscripts are not allowed here", call))
		}

		idx = append(idx, int(f)-1)
	}

	return idx
}

func element2Index(call cell.I, v *vec.T, sub cell.I) int {
	if vec.IsKind(sub, vec.Character) {
		i := nameIndex(v, vec.To(sub).Strings()[0])
		if i < 0 {
			panic(cond.Error("subscript out of bounds", call))
		}

		return i
	}

	i := int(asScalarInteger(call, sub)) - 1
	if i < 0 || i >= v.Len() {
		panic(cond.Error("subscript out of bounds", call))
	}

	return i
}

func envElement(call cell.I, e *env.T, sub cell.I) cell.I {
	name := elementName(call, sub)

	b := e.Local(sym.New(name))
	if b == nil {
		return pair.Null
	}

	return b.Get()
}

func elementName(call cell.I, sub cell.I) string {
	if vec.IsKind(sub, vec.Character) {
		return vec.To(sub).Strings()[0]
	}

	if sym.Is(sub) {
		return sym.To(sub).String()
	}

	panic(cond.Error("wrong args for environment subassignment", call))
}

func nameIndex(v *vec.T, name string) int {
	a := v.Attr("names")
	if a == nil || name == "" {
		return -1
	}

	names := vec.To(a).Strings()
	for i, s := range names {
		if s == name {
			return i
		}
	}

	return -1
}

func setNAElement(v *vec.T, i int) {
	switch v.Kind() {
	case vec.Logical:
		v.Logicals()[i] = vec.NALogical
	case vec.Integer:
		v.Integers()[i] = vec.NAInteger
	case vec.Double:
		v.Reals()[i] = vec.NAReal
	case vec.Complex:
		v.Complexes()[i] = complex(vec.NAReal, vec.NAReal)
	case vec.Character:
		v.Strings()[i] = vec.NAString
	default:
		v.SetElt(i, pair.Null)
	}
}

func growVector(v *vec.T, n int) *vec.T {
	out := vec.New(v.Kind(), n)

	for i := 0; i < v.Len(); i++ {
		copyElement(out, i, v, i)
	}

	for i := v.Len(); i < n; i++ {
		setNAElement(out, i)
	}

	if names := v.Attr("names"); names != nil {
		grown := vec.New(vec.Character, n)
		copy(grown.Strings(), vec.To(names).Strings())
		out.SetAttr("names", grown)
	}

	return out
}

func growList(v *vec.T, name string) *vec.T {
	n := v.Len() + 1
	out := vec.New(v.Kind(), n)

	for i := 0; i < v.Len(); i++ {
		out.SetElt(i, v.At(i))
	}

	names := v.Attr("names")
	if names != nil || name != "" {
		grown := vec.New(vec.Character, n)

		if names != nil {
			copy(grown.Strings(), vec.To(names).Strings())
		}

		grown.Strings()[n-1] = name
		out.SetAttr("names", grown)
	}

	return out
}

// CoerceKeepAttrs widens a vector for assignment without losing its
// attributes.
func coerceKeepAttrs(v *vec.T, kind vec.Kind) *vec.T {
	out := coerce(v, kind)

	for a := v.Attributes(); a != pair.Null; a = pair.Cdr(a) {
		out.SetAttr(sym.To(pair.Tag(a)).String(), pair.Car(a))
	}

	return out
}

func allIntegral(v *vec.T) bool {
	for _, f := range v.Reals() {
		if vec.IsNAReal(f) {
			continue
		}

		if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32+1 {
			return false
		}
	}

	return true
}

func mustVec(call, c cell.I) *vec.T {
	if v, ok := c.(*vec.T); ok {
		return v
	}

	panic(cond.Error("object of type '"+c.Name()+"' is not subsettable", call))
}

func asScalarLogical(call, c cell.I) bool {
	v := mustVec(call, c)
	if v.Len() < 1 {
		panic(cond.Error("argument is of length zero", call))
	}

	return logicalAt(call, v, 0) == 1
}

func asScalarInteger(call, c cell.I) int32 {
	v := mustVec(call, c)
	if v.Len() < 1 {
		panic(cond.Error("argument is of length zero", call))
	}

	f, na := doubleAt(v, 0)
	if na {
		panic(cond.Error("subscript out of bounds", call))
	}

	return int32(f)
}
