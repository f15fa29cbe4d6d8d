// Released under an MIT license. See LICENSE.

package eval

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/engine/context"
	"github.com/rho-lang/rho/internal/system/profile"
)

// SampleProfile takes a stack snapshot if the active profiler has a
// sample due. It runs at the same safe points as interrupt polling.
func (m *machine) sampleProfile() {
	p := profile.Active()
	if p == nil || !p.Pending() {
		return
	}

	p.Sample(m.stackFrames(p.Lines(), p.Filter()))
}

// StackFrames renders the context stack, innermost call first, as
// profiler frames.
func (m *machine) stackFrames(lines, filter bool) []profile.Frame {
	frames := []profile.Frame{}

	var caller cell.I // Sysparent of the innermost frame taken so far.

	for depth := 0; ; depth++ {
		ctx := m.contexts.At(depth)
		if ctx == nil {
			break
		}

		if ctx.Kind()&(context.Function|context.Builtin) == 0 {
			continue
		}

		call := ctx.Call()
		if !pair.IsLang(call) {
			continue
		}

		// The trailing-branch filter follows the caller chain and
		// skips frames reached some other way.
		if filter && caller != nil && ctx.Kind()&context.Function != 0 {
			if cell.I(ctx.Env()) != caller {
				continue
			}
		}

		if ctx.Kind()&context.Function != 0 {
			caller = cell.I(ctx.Sysparent())
		}

		f := profile.Frame{Name: frameName(pair.Car(call))}

		if lines {
			if src := pair.Source(call); src != nil {
				f.File = src.File
				f.Line = src.FirstLine
			}
		}

		frames = append(frames, f)
	}

	return frames
}

// FrameName renders a call head the way the profiler quotes it: a
// bare symbol, the pretty forms for pkg::f, pkg:::f, obj$f, and
// simple obj[[i]], and <Anonymous> for anything else.
func frameName(head cell.I) string {
	if sym.Is(head) {
		return sym.To(head).String()
	}

	if !pair.IsLang(head) {
		return "<Anonymous>"
	}

	op := pair.Car(head)
	if !sym.Is(op) {
		return "<Anonymous>"
	}

	args := pair.Cdr(head)
	if args == pair.Null || pair.Cdr(args) == pair.Null {
		return "<Anonymous>"
	}

	lhs, rhs := pair.Car(args), pair.Car(pair.Cdr(args))
	if !sym.Is(lhs) {
		return "<Anonymous>"
	}

	name := sym.To(op).String()

	switch name {
	case "::", ":::", "$":
		if sym.Is(rhs) {
			return sym.To(lhs).String() + name + sym.To(rhs).String()
		}
	case "[[":
		if sym.Is(rhs) {
			return sym.To(lhs).String() + "[[" + sym.To(rhs).String() + "]]"
		}

		if w, ok := rhs.(*vec.T); ok && !w.HasAttrs() && w.Len() == 1 {
			return sym.To(lhs).String() + "[[" + w.Literal() + "]]"
		}
	}

	return "<Anonymous>"
}
