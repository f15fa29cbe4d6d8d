// Released under an MIT license. See LICENSE.

package eval

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/engine/context"
)

// The bytecode interpreter drives the machine through these methods:
// it owns the instruction stream but the machine owns the context
// stack, visibility, and condition handling.

// PushLoop opens a loop context for a compiled loop whose body may
// raise break or next from code the stream cannot see.
func (m *machine) PushLoop(call cell.I, e *env.T) *context.T {
	ctx := context.New(context.Loop, call, e, e)
	m.contexts.Push(ctx)

	return ctx
}

// PopLoop closes a loop context on the loop's normal exit.
func (m *machine) PopLoop(ctx *context.T) {
	m.contexts.Pop(ctx)
}

// TruncateTo unwinds the context stack down to ctx after a caught
// non-local exit.
func (m *machine) TruncateTo(ctx *context.T) {
	m.contexts.Truncate(ctx)
}

// JumpIsBreak reports whether a caught loop jump carries break rather
// than next.
func (m *machine) JumpIsBreak(v cell.I) bool {
	s, ok := v.(*loopSignal)

	return ok && s.brk
}
