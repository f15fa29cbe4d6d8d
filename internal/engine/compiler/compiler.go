// Released under an MIT license. See LICENSE.

// Package compiler translates expressions into bytecode. Compilation
// is best effort: anything the bytecode interpreter cannot express
// aborts the attempt and the expression stays a tree.
package compiler

import (
	"errors"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// ErrCannotCompile aborts compilation of expressions with shapes the
// bytecode cannot express.
var ErrCannotCompile = errors.New("cannot compile")

// T (compiler) accumulates one code object.
type T struct {
	code   []int
	consts []cell.I

	exprIdx []int32
	srcIdx  []int32

	symIdx map[*sym.T]int

	curExpr int32
	curSrc  int32

	loops []loopInfo
}

type compiler = T

type loopInfo struct {
	nextLabel  *label
	breakLabel *label
	contexted  bool
}

// A label is a forward reference into the code stream.
type label struct {
	pos  int
	refs []int
}

// Compile compiles a top-level expression.
func Compile(expr cell.I) (bc *bcode.T, err error) {
	defer catch(&err)

	c := newCompiler(expr)
	c.expr(expr)
	c.emit(bcode.RETURN)

	return c.finish(), nil
}

// Body compiles a function body.
func Body(body cell.I) (bc *bcode.T, err error) {
	defer catch(&err)

	c := newCompiler(body)
	c.expr(body)
	c.emit(bcode.RETURN)

	return c.finish(), nil
}

func catch(err *error) {
	r := recover()
	if r == nil {
		return
	}

	if e, ok := r.(error); ok && errors.Is(e, ErrCannotCompile) {
		*err = e

		return
	}

	panic(r)
}

func bail(reason string) {
	panic(fieldError{reason})
}

type fieldError struct {
	reason string
}

func (f fieldError) Error() string {
	return "cannot compile: " + f.reason
}

func (f fieldError) Unwrap() error {
	return ErrCannotCompile
}

func newCompiler(expr cell.I) *compiler {
	c := &compiler{symIdx: map[*sym.T]int{}}

	// Constant zero is always the source expression.
	c.consts = append(c.consts, expr)
	c.curExpr = 0
	c.curSrc = c.srcConst(expr)

	// The stream leads with its version word.
	c.code = append(c.code, bcode.Version)
	c.exprIdx = append(c.exprIdx, c.curExpr)
	c.srcIdx = append(c.srcIdx, c.curSrc)

	return c
}

func (c *compiler) finish() *bcode.T {
	return bcode.New(c.code, c.consts, c.exprIdx, c.srcIdx)
}

// Emit appends an opcode and its operands, tagging each slot with the
// current expression and source references.
func (c *compiler) emit(op int, operands ...int) {
	if len(operands) != bcode.Arity[op] {
		panic("operand count mismatch for " + bcode.OpName(op))
	}

	c.code = append(c.code, op)
	c.code = append(c.code, operands...)

	for i := 0; i <= len(operands); i++ {
		c.exprIdx = append(c.exprIdx, c.curExpr)
		c.srcIdx = append(c.srcIdx, c.curSrc)
	}
}

// EmitRef emits op with a label operand in the given slot position.
func (c *compiler) emitJump(op int, pre []int, l *label) {
	c.emit(op, append(append([]int{}, pre...), 0)...)

	at := len(c.code) - 1
	if l.pos >= 0 {
		c.code[at] = l.pos
	} else {
		l.refs = append(l.refs, at)
	}
}

func (c *compiler) newLabel() *label {
	return &label{pos: -1}
}

func (c *compiler) place(l *label) {
	l.pos = len(c.code)

	for _, at := range l.refs {
		c.code[at] = l.pos
	}

	l.refs = nil
}

func (c *compiler) constIndex(v cell.I) int {
	if s, ok := v.(*sym.T); ok {
		if i, ok := c.symIdx[s]; ok {
			return i
		}

		c.consts = append(c.consts, v)
		c.symIdx[s] = len(c.consts) - 1

		return len(c.consts) - 1
	}

	c.consts = append(c.consts, v)

	return len(c.consts) - 1
}

func (c *compiler) srcConst(expr cell.I) int32 {
	r := pair.Source(expr)
	if r == nil {
		return -1
	}

	return int32(c.constIndex(srcrefCell(r)))
}

func srcrefCell(r *srcref.T) cell.I {
	return bcode.SrcrefConst(r)
}

// Expr compiles one expression, leaving its value on the stack.
func (c *compiler) expr(e cell.I) {
	switch {
	case sym.Is(e):
		c.symbol(sym.To(e), false)
	case pair.IsLang(e):
		c.call(e)
	case e == pair.Null:
		c.emit(bcode.LDNULL)
	case vec.Is(e):
		c.literal(vec.To(e))
	case pair.Is(e):
		bail("pairlist literal")
	default:
		// Closures, environments, and the like self-evaluate.
		c.emit(bcode.LDCONST, c.constIndex(e))
	}
}

func (c *compiler) literal(v *vec.T) {
	if v.Kind() == vec.Logical && v.Len() == 1 && !v.HasAttrs() {
		switch v.Logicals()[0] {
		case 0:
			c.emit(bcode.LDFALSE)

			return
		case 1:
			c.emit(bcode.LDTRUE)

			return
		}
	}

	c.emit(bcode.LDCONST, c.constIndex(v))
}

func (c *compiler) symbol(s *sym.T, missOK bool) {
	if s == sym.Missing {
		bail("missing argument in value position")
	}

	if _, ok := sym.DotDotN(s); ok {
		op := bcode.DDVAL
		if missOK {
			op = bcode.DDVAL_MISSOK
		}

		c.emit(op, c.constIndex(s))

		return
	}

	op := bcode.GETVAR
	if missOK {
		op = bcode.GETVAR_MISSOK
	}

	c.emit(op, c.constIndex(s))
}
