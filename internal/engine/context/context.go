// Released under an MIT license. See LICENSE.

// Package context provides the evaluation context stack. Each frame
// records in-flight state for one function call, loop, or builtin and
// is the target for non-local exits and on-exit handlers.
package context

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/env"
)

// Kind is a bitmask of context kinds so that a non-local exit can
// name several acceptable targets at once.
type Kind int

// Context kinds. Return is Function|CCode: return() may land on
// either. Generic marks a frame pushed by method dispatch.
const (
	Toplevel Kind = 0
	Next     Kind = 1 << iota
	Break
	Function
	CCode
	Browser
	Restart
	Builtin
	Generic

	Loop   = Next | Break
	Return = Function | CCode
)

// T (context) is one frame of the context stack.
type T struct {
	kind      Kind
	call      cell.I
	cloenv    *env.T // Environment the callee runs in.
	sysparent *env.T // Environment the call was made from.

	onExit []cell.I // Pending on.exit expressions, oldest first.
	jumped bool     // This frame is the target of an in-flight jump.

	// Generic dispatch carries the original caller through wrapper
	// frames so sys.function and friends see through dispatch.
	genericSysparent *env.T
}

type frame = T

// New creates a context frame.
func New(kind Kind, call cell.I, cloenv, sysparent *env.T) *T {
	return &frame{kind: kind, call: call, cloenv: cloenv, sysparent: sysparent}
}

// Call returns the call being evaluated in this frame.
func (c *frame) Call() cell.I {
	return c.call
}

// Env returns the environment the callee runs in.
func (c *frame) Env() *env.T {
	return c.cloenv
}

// GenericSysparent returns the dispatch caller environment, or nil.
func (c *frame) GenericSysparent() *env.T {
	return c.genericSysparent
}

// Jumped returns true if this frame is the target of an in-flight
// non-local exit. Its on-exit expressions run exactly once.
func (c *frame) Jumped() bool {
	return c.jumped
}

// Kind returns the frame's kind.
func (c *frame) Kind() Kind {
	return c.kind
}

// OnExit returns the frame's pending on.exit expressions and clears
// them, so a jump through a frame cannot run them twice.
func (c *frame) OnExit() []cell.I {
	pending := c.onExit
	c.onExit = nil

	return pending
}

// PushOnExit appends (or, given add false, replaces) the frame's
// on.exit expressions.
func (c *frame) PushOnExit(expr cell.I, add bool) {
	if !add {
		c.onExit = nil
	}

	c.onExit = append(c.onExit, expr)
}

// SetGenericSysparent records the dispatch caller environment.
func (c *frame) SetGenericSysparent(e *env.T) {
	c.genericSysparent = e
}

// SetJumped marks the frame as the target of a non-local exit.
func (c *frame) SetJumped() {
	c.jumped = true
}

// Sysparent returns the environment the call was made from.
func (c *frame) Sysparent() *env.T {
	return c.sysparent
}

// Jump is the panic value used for non-local exits. A nil Target
// means the top level.
type Jump struct {
	Target *T
	Value  cell.I
}

// Stack is the context stack. It is strictly LIFO: every push is
// matched by a pop or by an unwind through it.
type Stack struct {
	frames []*T
}

// At returns the frame depth entries from the top, or nil.
func (s *Stack) At(depth int) *T {
	i := len(s.frames) - 1 - depth
	if i < 0 {
		return nil
	}

	return s.frames[i]
}

// Depth returns the number of frames on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Find walks the stack for the nearest frame whose kind is in mask
// and whose callee environment is e. A nil e matches any frame, which
// is what break and next need.
func (s *Stack) Find(mask Kind, e *env.T) *T {
	for i := len(s.frames) - 1; i >= 0; i-- {
		c := s.frames[i]
		if c.kind&mask == 0 {
			continue
		}

		if e == nil || c.cloenv == e {
			return c
		}
	}

	return nil
}

// Pop removes the top frame. It panics if the top frame is not c;
// the stack discipline is load-bearing for on-exit handling.
func (s *Stack) Pop(c *T) {
	n := len(s.frames)
	if n == 0 || s.frames[n-1] != c {
		panic("context stack corrupted")
	}

	s.frames = s.frames[:n-1]
}

// Push adds a frame to the stack.
func (s *Stack) Push(c *T) {
	s.frames = append(s.frames, c)
}

// Truncate unwinds the stack down to (and including) frames above
// target. The caller runs on-exit expressions first.
func (s *Stack) Truncate(target *T) {
	if target == nil {
		s.frames = s.frames[:0]

		return
	}

	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i] == target {
			s.frames = s.frames[:i+1]

			return
		}
	}
}
