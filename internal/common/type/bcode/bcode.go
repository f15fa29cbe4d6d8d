// Released under an MIT license. See LICENSE.

// Package bcode provides rho's bytecode object: an instruction stream
// and a constant pool. The stream begins with a version word; the
// first constant is always the expression the stream was compiled
// from, so decompilation is always possible.
package bcode

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
)

const name = "bytecode"

// Version is the only supported bytecode version. A stream carrying
// any other version encodes to a single BCMISMATCH instruction.
const Version = 13

// T (bcode) is a compiled expression.
type T struct {
	code   []int
	consts []cell.I

	// Location tables mapping an instruction offset to the index of
	// the innermost call expression and srcref in the constant pool.
	// A negative entry means no mapping.
	exprIdx []int32
	srcIdx  []int32

	threaded interface{} // Encoded form, owned by the VM.
}

type bcode = T

// New creates a bytecode object. The code slice must begin with the
// version word, and consts[0] must be the source expression.
func New(code []int, consts []cell.I, exprIdx, srcIdx []int32) *T {
	return &bcode{code: code, consts: consts, exprIdx: exprIdx, srcIdx: srcIdx}
}

// Equal returns true if c is the same bytecode object as b.
func (b *bcode) Equal(c cell.I) bool {
	q, ok := c.(*bcode)

	return ok && b == q
}

// Name returns the type name for the bcode b.
func (b *bcode) Name() string {
	return name
}

// Methods specific to bcode.

// Code returns the instruction stream, version word first.
func (b *bcode) Code() []int {
	return b.code
}

// Consts returns the constant pool.
func (b *bcode) Consts() []cell.I {
	return b.consts
}

// Expr returns the expression the stream was compiled from.
func (b *bcode) Expr() cell.I {
	return b.consts[0]
}

// ExprAt maps the instruction offset pc to the innermost call
// expression active there, or nil.
func (b *bcode) ExprAt(pc int) cell.I {
	if pc < 0 || pc >= len(b.exprIdx) || b.exprIdx[pc] < 0 {
		return nil
	}

	return b.consts[b.exprIdx[pc]]
}

// SetThreaded caches the encoded form of the stream.
func (b *bcode) SetThreaded(t interface{}) {
	b.threaded = t
}

// SrcrefAt maps the instruction offset pc to a source reference, or nil.
func (b *bcode) SrcrefAt(pc int) *srcref.T {
	if pc < 0 || pc >= len(b.srcIdx) || b.srcIdx[pc] < 0 {
		return nil
	}

	r, ok := b.consts[b.srcIdx[pc]].(*srcrefConst)
	if !ok {
		return nil
	}

	return r.ref
}

// Threaded returns the cached encoded form of the stream, or nil.
func (b *bcode) Threaded() interface{} {
	return b.threaded
}

// Version returns the stream's version word.
func (b *bcode) Version() int {
	if len(b.code) == 0 {
		return 0
	}

	return b.code[0]
}

// Is returns true if c is a bcode.
func Is(c cell.I) bool {
	_, ok := c.(*bcode)

	return ok
}

// To returns the bcode if c is a bcode; Otherwise it panics.
func To(c cell.I) *bcode {
	if t, ok := c.(*bcode); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a bytecode context")
}

// SrcrefConst wraps a srcref for storage in a constant pool.
func SrcrefConst(r *srcref.T) cell.I {
	return &srcrefConst{ref: r}
}

type srcrefConst struct {
	ref *srcref.T
}

func (s *srcrefConst) Equal(c cell.I) bool {
	q, ok := c.(*srcrefConst)

	return ok && srcref.Equal(s.ref, q.ref)
}

func (s *srcrefConst) Name() string {
	return "srcref"
}
