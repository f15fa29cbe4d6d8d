// Released under an MIT license. See LICENSE.

package compiler

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/list"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Inline-compiled operators with one bytecode each.
//
//nolint:gochecknoglobals
var (
	binaryOps = map[string]int{
		"+": bcode.ADD, "-": bcode.SUB, "*": bcode.MUL, "/": bcode.DIV,
		"^": bcode.EXPT,
		"==": bcode.EQ, "!=": bcode.NE, "<": bcode.LT, "<=": bcode.LE,
		">=": bcode.GE, ">": bcode.GT,
		"&": bcode.AND, "|": bcode.OR,
	}

	unaryOps = map[string]int{
		"-": bcode.UMINUS, "+": bcode.UPLUS, "!": bcode.NOT,
	}

	predicateOps = map[string]int{
		"is.null": bcode.ISNULL, "is.logical": bcode.ISLOGICAL,
		"is.integer": bcode.ISINTEGER, "is.double": bcode.ISDOUBLE,
		"is.complex": bcode.ISCOMPLEX, "is.character": bcode.ISCHARACTER,
		"is.symbol": bcode.ISSYMBOL, "is.numeric": bcode.ISNUMERIC,
	}

	math1Ops = map[string]bool{
		"sin": true, "cos": true, "tan": true, "asin": true, "acos": true,
		"atan": true, "floor": true, "ceiling": true, "trunc": true,
		"abs": true, "sign": true, "expm1": true, "log1p": true,
		"gamma": true, "lgamma": true, "log2": true, "log10": true,
	}

	// Calls whose presence in a loop body can capture break or next
	// inside code the loop cannot see; such loops need a real context.
	contextMakers = map[string]bool{
		"function": true, "tryCatch": true, "withCallingHandlers": true,
		"eval": true, "evalq": true, "Recall": true, "do.call": true,
		"Tailcall": true, "Exec": true,
	}
)

//nolint:gocognit,gocyclo,funlen
func (c *compiler) call(e cell.I) {
	savedExpr, savedSrc := c.curExpr, c.curSrc
	c.curExpr = int32(c.constIndex(e))

	if s := c.srcConst(e); s >= 0 {
		c.curSrc = s
	}

	defer func() { c.curExpr, c.curSrc = savedExpr, savedSrc }()

	head := pair.Car(e)
	args := pair.Cdr(e)
	n := list.Length(args)

	if !sym.Is(head) {
		c.computedCall(e, head, args)

		return
	}

	name := sym.To(head).String()

	switch name {
	case "{":
		c.brace(args)
	case "(":
		if n != 1 {
			bail("malformed parenthesis")
		}

		c.expr(pair.Car(args))
		c.emit(bcode.VISIBLE)
	case "if":
		c.ifExpr(e, args)
	case "for":
		c.forLoop(e, args)
	case "while":
		c.whileLoop(e, args)
	case "repeat":
		c.repeatLoop(e, args)
	case "break":
		c.loopJump(true)
	case "next":
		c.loopJump(false)
	case "<-", "=":
		c.assign(e, args, false)
	case "<<-":
		c.assign(e, args, true)
	case "function":
		c.function(e, args)
	case "&&":
		c.andOr(e, args, bcode.AND1ST, bcode.AND2ND)
	case "||":
		c.andOr(e, args, bcode.OR1ST, bcode.OR2ND)
	case "switch":
		c.switchExpr(e, args)
	case "invisible":
		if n != 1 || pair.Tag(args) != nil {
			c.standardCall(e, sym.To(head), args)

			return
		}

		c.expr(pair.Car(args))
		c.emit(bcode.INVISIBLE)
	case "quote", "missing", "on.exit", "tryCatch", "withCallingHandlers",
		"substitute", "Tailcall", "Recall", "evalq", "local", "delayedAssign",
		"return", "~", "$<-", "@<-", "::", ":::":
		// Specials the stream cannot express run through the tree.
		c.special(e)
	default:
		c.inlineOrCall(e, sym.To(head), args, n)
	}
}

//nolint:gocognit,gocyclo
func (c *compiler) inlineOrCall(e cell.I, head *sym.T, args cell.I, n int) {
	name := head.String()

	if tagged(args) {
		c.standardCall(e, head, args)

		return
	}

	ci := int(c.curExpr)

	switch {
	case n == 2 && binaryOps[name] != 0:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.expr(pair.Cadr(args))
			c.emit(binaryOps[name], ci)
		})
	case n == 1 && unaryOps[name] != 0:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(unaryOps[name], ci)
		})
	case n == 1 && predicateOps[name] != 0:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(predicateOps[name])
		})
	case n == 1 && name == "sqrt":
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.SQRT, ci)
		})
	case n == 1 && name == "exp":
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.EXP, ci)
		})
	case name == "log" && n == 1:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.LOG, ci)
		})
	case name == "log" && n == 2:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.expr(pair.Cadr(args))
			c.emit(bcode.LOGBASE, ci)
		})
	case n == 1 && math1Ops[name]:
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.MATH1, ci, c.constIndex(vec.Str(name)))
		})
	case n == 2 && name == ":":
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.expr(pair.Cadr(args))
			c.emit(bcode.COLON, ci)
		})
	case n == 1 && name == "seq_along":
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.SEQALONG, ci)
		})
	case n == 1 && name == "seq_len":
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.SEQLEN, ci)
		})
	case name == "[":
		c.subset(e, args, n-1, bcode.VECSUBSET, bcode.MATSUBSET, bcode.SUBSET_N)
	case name == "[[":
		c.subset(e, args, n-1, bcode.VECSUBSET2, bcode.MATSUBSET2, bcode.SUBSET2_N)
	case name == "$" && n == 2 && sym.Is(pair.Cadr(args)):
		c.guarded(e, func() {
			c.expr(pair.Car(args))
			c.emit(bcode.DOLLAR, ci, c.constIndex(pair.Cadr(args)))
		})
	default:
		c.standardCall(e, head, args)
	}
}

// Guarded wraps inline code in a BASEGUARD: if the base binding has
// been shadowed, the interpreter runs the full call instead and skips
// the inline form.
func (c *compiler) guarded(e cell.I, inline func()) {
	after := c.newLabel()

	c.emitJump(bcode.BASEGUARD, []int{int(c.curExpr)}, after)
	inline()
	c.place(after)
}

// Subset compiles indexed reads: the one and two index forms have
// dedicated instructions, higher ranks share a counted one.
func (c *compiler) subset(e cell.I, args cell.I, rank, vecOp, matOp, nOp int) {
	if rank < 1 {
		c.standardCall(e, sym.To(pair.Car(e)), args)

		return
	}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if pair.Car(a) == cell.I(sym.Missing) {
			c.standardCall(e, sym.To(pair.Car(e)), args)

			return
		}
	}

	ci := int(c.curExpr)

	c.expr(pair.Car(args))
	c.emit(bcode.INCLNK)

	for a := pair.Cdr(args); a != pair.Null; a = pair.Cdr(a) {
		c.expr(pair.Car(a))
	}

	switch rank {
	case 1:
		c.emit(vecOp, ci)
	case 2:
		c.emit(matOp, ci)
	default:
		c.emit(nOp, ci, rank)
	}
}

func (c *compiler) brace(args cell.I) {
	if args == pair.Null {
		c.emit(bcode.LDNULL)

		return
	}

	for a := args; a != pair.Null; a = pair.Cdr(a) {
		c.expr(pair.Car(a))

		if pair.Cdr(a) != pair.Null {
			c.emit(bcode.POP)
		}
	}
}

func (c *compiler) ifExpr(e, args cell.I) {
	alt := c.newLabel()
	done := c.newLabel()

	c.expr(pair.Car(args))
	c.emitJump(bcode.BRIFNOT, []int{int(c.curExpr)}, alt)

	c.expr(pair.Cadr(args))
	c.emitJump(bcode.GOTO, nil, done)

	c.place(alt)

	if rest := pair.Cddr(args); rest != pair.Null {
		c.expr(pair.Car(rest))
	} else {
		c.emit(bcode.LDNULL)
		c.emit(bcode.INVISIBLE)
	}

	c.place(done)
}

func (c *compiler) andOr(e, args cell.I, first, second int) {
	done := c.newLabel()

	c.expr(pair.Car(args))
	c.emitJump(first, []int{int(c.curExpr)}, done)
	c.expr(pair.Cadr(args))
	c.emit(second, int(c.curExpr))
	c.place(done)
}

func (c *compiler) loopJump(brk bool) {
	if len(c.loops) == 0 {
		bail("break/next outside a loop")
	}

	loop := c.loops[len(c.loops)-1]

	if brk {
		c.emitJump(bcode.GOTO, nil, loop.breakLabel)
	} else {
		c.emitJump(bcode.GOTO, nil, loop.nextLabel)
	}
}

func (c *compiler) forLoop(e, args cell.I) {
	name := pair.Car(args)
	if !sym.Is(name) {
		bail("non-symbol loop variable")
	}

	c.expr(pair.Cadr(args))

	body := pair.Caddr(args)
	contexted := needsContext(body)

	bodyLabel := c.newLabel()
	step := c.newLabel()
	done := c.newLabel()

	if contexted {
		c.emitLoopContext(step, done)
	}

	c.loops = append(c.loops, loopInfo{
		nextLabel: step, breakLabel: done, contexted: contexted,
	})

	c.emitJump(bcode.STARTFOR,
		[]int{int(c.curExpr), c.constIndex(name)}, step)

	c.place(bodyLabel)
	c.expr(body)
	c.emit(bcode.POP)

	c.place(step)
	c.emitJump(bcode.STEPFOR, nil, bodyLabel)

	// Break lands here with the iteration state still stacked;
	// ENDFOR discards it.
	c.place(done)
	c.emit(bcode.ENDFOR)

	if contexted {
		c.emit(bcode.ENDLOOPCNTXT, 1)
	}

	c.emit(bcode.LDNULL)
	c.emit(bcode.INVISIBLE)

	c.loops = c.loops[:len(c.loops)-1]
}

func (c *compiler) whileLoop(e, args cell.I) {
	test := pair.Car(args)
	body := pair.Cadr(args)
	contexted := needsContext(body)

	top := c.newLabel()
	brk := c.newLabel()

	if contexted {
		c.emitLoopContext(top, brk)
	}

	c.loops = append(c.loops, loopInfo{
		nextLabel: top, breakLabel: brk, contexted: contexted,
	})

	c.place(top)
	c.expr(test)
	c.emitJump(bcode.BRIFNOT, []int{int(c.curExpr)}, brk)
	c.expr(body)
	c.emit(bcode.POP)
	c.emitJump(bcode.GOTO, nil, top)

	c.place(brk)

	if contexted {
		c.emit(bcode.ENDLOOPCNTXT, 0)
	}

	c.emit(bcode.LDNULL)
	c.emit(bcode.INVISIBLE)

	c.loops = c.loops[:len(c.loops)-1]
}

func (c *compiler) repeatLoop(e, args cell.I) {
	body := pair.Car(args)
	contexted := needsContext(body)

	top := c.newLabel()
	brk := c.newLabel()

	if contexted {
		c.emitLoopContext(top, brk)
	}

	c.loops = append(c.loops, loopInfo{
		nextLabel: top, breakLabel: brk, contexted: contexted,
	})

	c.place(top)
	c.expr(body)
	c.emit(bcode.POP)
	c.emitJump(bcode.GOTO, nil, top)

	c.place(brk)

	if contexted {
		c.emit(bcode.ENDLOOPCNTXT, 0)
	}

	c.emit(bcode.LDNULL)
	c.emit(bcode.INVISIBLE)

	c.loops = c.loops[:len(c.loops)-1]
}

// EmitLoopContext emits STARTLOOPCNTXT with its two resume labels:
// where a caught next re-enters, and where a caught break re-enters.
// The break label sits before ENDFOR/ENDLOOPCNTXT so that the literal
// and the caught forms of break share one cleanup path.
func (c *compiler) emitLoopContext(next, brk *label) {
	c.emit(bcode.STARTLOOPCNTXT, 0, 0)

	nextAt := len(c.code) - 2
	brkAt := len(c.code) - 1

	if next.pos >= 0 {
		c.code[nextAt] = next.pos
	} else {
		next.refs = append(next.refs, nextAt)
	}

	if brk.pos >= 0 {
		c.code[brkAt] = brk.pos
	} else {
		brk.refs = append(brk.refs, brkAt)
	}
}

func (c *compiler) function(e, args cell.I) {
	formals := pair.Car(args)
	body := pair.Cadr(args)

	parts := vec.New(vec.List, 3)
	parts.SetElt(0, formals)
	parts.SetElt(1, body)
	parts.SetElt(2, pair.Null)

	if compiled, err := Body(body); err == nil {
		parts.SetElt(2, compiled)
	}

	c.emit(bcode.MAKECLOSURE, c.constIndex(parts))
}

func (c *compiler) special(e cell.I) {
	c.emit(bcode.CALLSPECIAL, c.constIndex(e))
}

func (c *compiler) computedCall(e, head, args cell.I) {
	c.expr(head)
	c.emit(bcode.CHECKFUN)
	c.callArgs(args)
	c.emit(bcode.CALL, int(c.curExpr))
}

// StandardCall compiles the general case: find the function, build
// the argument list, call.
func (c *compiler) standardCall(e cell.I, head *sym.T, args cell.I) {
	c.emit(bcode.GETFUN, c.constIndex(head))
	c.callArgs(args)
	c.emit(bcode.CALL, int(c.curExpr))
}

//nolint:gocognit
func (c *compiler) callArgs(args cell.I) {
	for a := args; a != pair.Null; a = pair.Cdr(a) {
		v := pair.Car(a)

		switch {
		case v == cell.I(sym.Dots):
			c.emit(bcode.DODOTS)

			continue
		case v == cell.I(sym.Missing):
			c.emit(bcode.DOMISSING)
		case v == pair.Null:
			c.emit(bcode.PUSHNULLARG)
		case isTrue(v):
			c.emit(bcode.PUSHTRUEARG)
		case isFalse(v):
			c.emit(bcode.PUSHFALSEARG)
		case sym.Is(v), pair.IsLang(v):
			c.promiseArg(v)
		default:
			c.emit(bcode.PUSHCONSTARG, c.constIndex(v))
		}

		if t := pair.Tag(a); t != nil {
			c.emit(bcode.SETTAG, c.constIndex(t))
		}
	}
}

// PromiseArg compiles an argument expression into its own code object
// so the promise forces through the bytecode interpreter too. When the
// expression cannot compile the constant is the bare tree and MAKEPROM
// builds a tree promise instead.
func (c *compiler) promiseArg(v cell.I) {
	code, err := Compile(v)
	if err != nil {
		c.emit(bcode.MAKEPROM, c.constIndex(v))

		return
	}

	c.emit(bcode.MAKEPROM, c.constIndex(code))
}

func tagged(args cell.I) bool {
	for a := args; a != pair.Null; a = pair.Cdr(a) {
		if pair.Tag(a) != nil {
			return true
		}
	}

	return false
}

func isTrue(v cell.I) bool {
	w, ok := v.(*vec.T)

	return ok && w.Kind() == vec.Logical && w.Len() == 1 &&
		!w.HasAttrs() && w.Logicals()[0] == 1
}

func isFalse(v cell.I) bool {
	w, ok := v.(*vec.T)

	return ok && w.Kind() == vec.Logical && w.Len() == 1 &&
		!w.HasAttrs() && w.Logicals()[0] == 0
}

// NeedsContext reports whether a loop body can observe break or next
// from code compiled separately, which forces a real loop context.
func needsContext(body cell.I) bool {
	if !pair.Is(body) || body == pair.Null {
		return false
	}

	if pair.IsLang(body) {
		if h := pair.Car(body); sym.Is(h) && contextMakers[sym.To(h).String()] {
			return true
		}
	}

	for a := body; a != pair.Null && pair.Is(a); a = pair.Cdr(a) {
		if needsContext(pair.Car(a)) {
			return true
		}

		if !pair.Is(pair.Cdr(a)) {
			break
		}
	}

	return false
}
