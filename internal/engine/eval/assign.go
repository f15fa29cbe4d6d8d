// Released under an MIT license. See LICENSE.

package eval

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/promise"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Assign binds value to target in e. A language target is a
// replacement-function chain; super routes the final binding through
// the enclosing environments.
func (m *machine) assign(call, target, value cell.I, e *env.T, super bool) {
	switch {
	case sym.Is(target):
		m.assignSym(sym.To(target), value, e, super)
	case vec.IsKind(target, vec.Character):
		m.assignSym(sym.New(vec.To(target).Strings()[0]), value, e, super)
	case pair.IsLang(target):
		m.assignComplex(call, target, value, e, super)
	default:
		panic(cond.Error("invalid assignment left-hand side", call))
	}
}

func (m *machine) assignSym(s *sym.T, value cell.I, e *env.T, super bool) {
	if s == sym.Missing {
		panic(cond.Error("invalid assignment left-hand side", nil))
	}

	if v, ok := value.(*vec.T); ok {
		v.Bump()
	}

	if !super {
		e.Define(s, value)

		return
	}

	start := e.Enclosing()
	if start == nil {
		start = env.Empty
	}

	where, b := start.Find(s)
	if b != nil && where != nil {
		b.Set(value)

		return
	}

	m.global.Define(s, value)
}

// AssignComplex rewrites x[i] <- v (and any deeper chain) into calls
// of replacement functions: the object is bound to *tmp*, the setter
// runs with the evaluated right-hand side passed as a forced promise
// tagged value, and the result is assigned one level out.
func (m *machine) assignComplex(call, target, value cell.I, e *env.T, super bool) {
	fun := pair.Car(target)
	obj := pair.Cadr(target)

	var cur cell.I
	if sym.Is(obj) {
		cur = m.lookupForAssign(sym.To(obj), e, super)
	} else {
		cur = m.Force(m.Eval(obj, e))
	}

	tmp := sym.New("*tmp*")
	e.Define(tmp, cur)

	b := &appender{}
	b.emit(nil, tmp)

	for a := pair.Cddr(target); a != pair.Null; a = pair.Cdr(a) {
		b.emit(pair.Tag(a), pair.Car(a))
	}

	b.emit(sym.New("value"), promise.Forced(value, value))

	setter := pair.Lang1(setterFor(call, fun), b.list())

	updated := m.Force(m.Eval(setter, e))

	e.Remove(tmp)

	if sym.Is(obj) {
		m.assignSym(sym.To(obj), updated, e, super)

		return
	}

	m.assignComplex(call, obj, updated, e, super)
}

func (m *machine) lookupForAssign(s *sym.T, e *env.T, super bool) cell.I {
	start := e
	if super {
		start = e.Enclosing()
		if start == nil {
			start = env.Empty
		}
	}

	_, b := start.Find(s)
	if b == nil {
		panic(cond.Error("object '"+s.String()+"' not found", nil))
	}

	return m.Force(b.Get())
}

// SetterFor maps a getter in assignment position to its replacement
// function: f becomes f<-, and pkg::f becomes pkg::`f<-`.
func setterFor(call, fun cell.I) cell.I {
	if sym.Is(fun) {
		return sym.New(sym.To(fun).String() + "<-")
	}

	if pair.IsLang(fun) {
		op := pair.Car(fun)
		if sym.Is(op) {
			name := sym.To(op).String()
			if name == "::" || name == ":::" {
				inner := pair.Caddr(fun)
				if sym.Is(inner) {
					b := &appender{}
					b.emit(nil, pair.Cadr(fun))
					b.emit(nil, sym.New(sym.To(inner).String()+"<-"))

					return pair.Lang1(op, b.list())
				}
			}
		}
	}

	panic(cond.Error("invalid function in complex assignment", call))
}
