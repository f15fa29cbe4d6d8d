// Released under an MIT license. See LICENSE.

// Package parser provides a recursive descent parser for the rho
// language. It produces one pairlist AST node per expression plus a
// parse-data table with one row per token.
package parser

import (
	"errors"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/cond"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
	"github.com/rho-lang/rho/internal/common/struct/token"
	"github.com/rho-lang/rho/internal/common/type/list"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// ErrIncomplete is returned when the input ends in the middle of an
// expression. More input may complete the parse.
var ErrIncomplete = errors.New("incomplete expression")

// T holds the state of the parser.
type T struct {
	item  func() *token.T // Function to call to get another token.
	ahead int             // Lookahead count.
	queue [2]*token.T     // Token lookahead.
	last  *token.T        // Most recently consumed token.

	braces   int // Brace nesting; else may follow a newline inside braces.
	pipeBind bool

	data Data
}

// New creates a new parser drawing tokens from item.
func New(item func() *token.T) *T {
	return &T{item: item}
}

// EnablePipeBind allows the => pipe-bind form.
func (p *T) EnablePipeBind() {
	p.pipeBind = true
}

// Data returns the parse-data table for the most recent Parse.
func (p *T) Data() *Data {
	return &p.data
}

// Parse consumes tokens until end of input and returns one cell per
// top-level expression. On a syntax error the returned error is a
// *cond.T; if the input ends mid-expression it is ErrIncomplete.
func (p *T) Parse() (parsed []cell.I, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		switch r := r.(type) {
		case *cond.T:
			err = r
		case error:
			err = r
		default:
			panic(r)
		}
	}()

	for {
		t := p.peek()
		for t.Is(token.Newline, token.Semicolon) {
			p.consume()

			t = p.peek()
		}

		if t.Is(token.End) {
			break
		}

		start := p.data.mark()

		e := p.expression(precLowest)

		id, ok := p.data.pending(start)
		if !ok {
			id = p.data.node(start, t.Source(), p.last.End())
		}

		p.data.topLevel(id)

		parsed = append(parsed, e)

		if !p.peek().Is(token.Newline, token.Semicolon, token.End) {
			p.unexpected(p.peek())
		}
	}

	p.data.finish()

	return parsed, nil
}

// Precedence levels, lowest binds loosest.
const (
	precLowest    = 1  // ?
	precLeft      = 2  // <- <<- :=
	precEq        = 3  // =
	precRight     = 4  // -> ->>
	precTilde     = 5  // ~
	precOr        = 6  // || |
	precAnd       = 7  // && &
	precNot       = 8  // !
	precCompare   = 9  // == != < > <= >=
	precAdd       = 10 // + -
	precMul       = 11 // * /
	precSpecial   = 12 // %any%
	precPipe      = 13 // |>
	precColon     = 14 // :
	precUnary     = 15 // unary + -
	precPower     = 16 // ^
	precNamespace = 17 // :: and ::: bind tighter than postfix.
)

type opInfo struct {
	prec  int
	right bool
}

//nolint:gochecknoglobals
var binary = map[token.Class]opInfo{
	token.Question:    {prec: precLowest},
	token.LeftAssign:  {prec: precLeft, right: true},
	token.EqAssign:    {prec: precEq, right: true},
	token.RightAssign: {prec: precRight},
	token.Tilde:       {prec: precTilde},
	token.OrOr:        {prec: precOr},
	token.Or:          {prec: precOr},
	token.AndAnd:      {prec: precAnd},
	token.And:         {prec: precAnd},
	token.Eq:          {prec: precCompare},
	token.Ne:          {prec: precCompare},
	token.Lt:          {prec: precCompare},
	token.Gt:          {prec: precCompare},
	token.Le:          {prec: precCompare},
	token.Ge:          {prec: precCompare},
	token.Plus:        {prec: precAdd},
	token.Minus:       {prec: precAdd},
	token.Star:        {prec: precMul},
	token.Slash:       {prec: precMul},
	token.Special:     {prec: precSpecial},
	token.PipeOp:      {prec: precPipe},
	token.Colon:       {prec: precColon},
	token.Caret:       {prec: precPower, right: true},
}

func (p *T) expression(min int) cell.I {
	start := p.peek()
	mark := p.data.mark()

	lhs := p.unary()

	for {
		t := p.peek()

		info, ok := binary[t.Class()]
		if !ok || info.prec < min {
			return lhs
		}

		p.consume()
		p.newlines()

		next := info.prec + 1
		if info.right {
			next = info.prec
		}

		switch t.Class() {
		case token.PipeOp:
			lhs = p.pipe(lhs, t)
		case token.RightAssign:
			rhs := p.expression(next)

			op := "<-"
			if t.Value() == "->>" {
				op = "<<-"
			}

			lhs = list.Call(sym.New(op), rhs, lhs)
		default:
			rhs := p.expression(next)
			lhs = list.Call(sym.New(t.Value()), lhs, rhs)
		}

		lhs = p.reduce(mark, start, lhs)
	}
}

// Unary parses a prefix operator or a postfix-extended primary.
func (p *T) unary() cell.I {
	p.newlines()

	t := p.peek()
	mark := p.data.mark()

	var operand int

	switch t.Class() {
	case token.Minus, token.Plus:
		operand = precUnary
	case token.Not:
		operand = precNot
	case token.Tilde:
		operand = precTilde
	case token.Question:
		operand = precLowest
	default:
		return p.postfix(mark, t, p.primary())
	}

	p.consume()
	p.newlines()

	c := list.Call(sym.New(t.Value()), p.expression(operand))

	return p.reduce(mark, t, c)
}

func (p *T) postfix(mark int, start *token.T, c cell.I) cell.I {
	for {
		t := p.peek()

		switch t.Class() {
		case token.LParen:
			p.consume()

			args := p.arguments(token.RParen)
			p.expect(token.RParen)

			c = pair.Lang1(c, args)
		case token.LBracket:
			p.consume()

			args := p.arguments(token.RBracket)
			p.expect(token.RBracket)

			c = pair.Lang1(sym.New("["), pair.Cons(c, args))
		case token.LBB:
			p.consume()

			args := p.arguments(token.RBracket)
			p.expect(token.RBracket)
			p.expect(token.RBracket)

			c = pair.Lang1(sym.New("[["), pair.Cons(c, args))
		case token.Dollar, token.At:
			p.consume()

			c = list.Call(sym.New(t.Value()), c, p.selector())
		case token.NsGet, token.NsGetInt:
			p.consume()

			c = list.Call(sym.New(t.Value()), p.nsOperand(c), p.nsOperand(p.nsName()))
		default:
			return c
		}

		c = p.reduce(mark, start, c)
	}
}

//nolint:funlen,gocognit
func (p *T) primary() cell.I {
	t := p.peek()
	mark := p.data.mark()

	switch t.Class() {
	case token.Symbol, token.Placeholder:
		p.consume()

		return sym.New(t.Value())
	case token.NumConst:
		p.consume()

		return p.number(t)
	case token.StrConst:
		p.consume()

		return vec.Str(t.Value())
	case token.NullConst:
		p.consume()

		return vec.Null()
	case token.LParen:
		p.consume()

		e := p.expression(precLowest)
		p.expect(token.RParen)

		return p.reduce(mark, t, list.Call(sym.New("("), e))
	case token.LBrace:
		return p.block()
	case token.If:
		p.consume()
		p.expect(token.LParen)

		cnd := p.expression(precLowest)
		p.expect(token.RParen)

		body := p.expression(precLeft)

		if p.elseFollows() {
			p.consume()

			alt := p.expression(precLeft)

			return p.reduce(mark, t, list.Call(sym.New("if"), cnd, body, alt))
		}

		return p.reduce(mark, t, list.Call(sym.New("if"), cnd, body))
	case token.For:
		p.consume()
		p.expect(token.LParen)

		v := p.peek()
		if !v.Is(token.Symbol) {
			p.unexpected(v)
		}

		p.consume()
		p.expect(token.In)

		seq := p.expression(precLowest)
		p.expect(token.RParen)

		body := p.expression(precLeft)

		return p.reduce(mark, t, list.Call(sym.New("for"), sym.New(v.Value()), seq, body))
	case token.While:
		p.consume()
		p.expect(token.LParen)

		cnd := p.expression(precLowest)
		p.expect(token.RParen)

		body := p.expression(precLeft)

		return p.reduce(mark, t, list.Call(sym.New("while"), cnd, body))
	case token.Repeat:
		p.consume()

		body := p.expression(precLeft)

		return p.reduce(mark, t, list.Call(sym.New("repeat"), body))
	case token.Function:
		p.consume()

		return p.reduce(mark, t, p.function())
	case token.Next, token.Break:
		p.consume()

		return p.reduce(mark, t, list.Call(sym.New(t.Value())))
	default:
		p.unexpected(t)
	}

	return nil
}

// Block parses { e1; e2; ... }.
func (p *T) block() cell.I {
	t := p.peek()
	mark := p.data.mark()

	p.expect(token.LBrace)

	p.braces++
	defer func() { p.braces-- }()

	body := pair.Null

	for {
		n := p.peek()

		if n.Is(token.Newline, token.Semicolon) {
			p.consume()

			continue
		}

		if n.Is(token.RBrace) {
			p.consume()

			break
		}

		e := p.expression(precLowest)
		body = list.Append(body, e)

		if !p.peek().Is(token.Newline, token.Semicolon, token.RBrace) {
			p.unexpected(p.peek())
		}
	}

	return p.reduce(mark, t, pair.Lang1(sym.New("{"), body))
}

// Function parses the remainder of a function definition after the
// function keyword (or its backslash shorthand).
func (p *T) function() cell.I {
	p.expect(token.LParen)

	formals := pair.Null
	seen := map[string]bool{}

	for !p.peek().Is(token.RParen) {
		f := p.peek()
		if !f.Is(token.Symbol) {
			p.unexpected(f)
		}

		p.consume()

		if seen[f.Value()] {
			panic(cond.Parse("repeatedFormal",
				"repeated formal argument '"+f.Value()+"'", f.Source()))
		}

		seen[f.Value()] = true

		var value cell.I = sym.Missing

		if p.peek().Is(token.EqAssign) {
			p.consume()
			p.newlines()

			value = p.expression(precLowest)
		}

		formals = list.Join(formals,
			pair.ConsTagged(sym.New(f.Value()), value, pair.Null))

		if p.peek().Is(token.Comma) {
			p.consume()
			p.newlines()
		} else if !p.peek().Is(token.RParen) {
			p.unexpected(p.peek())
		}
	}

	p.consume()

	body := p.expression(precLeft)

	return list.Call(sym.New("function"), formals, body)
}

// Arguments parses a comma-separated argument list up to (but not
// consuming) the closing token. Empty slots become the missing marker.
func (p *T) arguments(closer token.Class) cell.I {
	args := pair.Null

	if p.peek().Is(closer) {
		return args
	}

	for {
		var tag cell.I

		var value cell.I = sym.Missing

		t := p.peek()

		if t.Is(token.Symbol, token.StrConst) && p.peek2().Is(token.EqAssign) {
			p.consume()
			p.consume()
			p.newlines()

			tag = sym.New(t.Value())

			if !p.peek().Is(token.Comma, closer) {
				value = p.expression(precLowest)
			}
		} else if !t.Is(token.Comma, closer) {
			value = p.expression(precLowest)
		}

		args = list.Join(args, pair.ConsTagged(tag, value, pair.Null))

		if p.peek().Is(token.Comma) {
			p.consume()

			continue
		}

		if p.peek().Is(closer) {
			return args
		}

		p.unexpected(p.peek())
	}
}

// Selector parses the name after $ or @.
func (p *T) selector() cell.I {
	t := p.peek()

	switch t.Class() {
	case token.Symbol:
		p.consume()

		return sym.New(t.Value())
	case token.StrConst:
		p.consume()

		return vec.Str(t.Value())
	default:
		p.unexpected(t)
	}

	return nil
}

// NsName parses the name after :: or :::.
func (p *T) nsName() cell.I {
	c := p.selector()

	return c
}

// NsOperand checks that a namespace operand is a symbol or string.
func (p *T) nsOperand(c cell.I) cell.I {
	if sym.Is(c) || vec.IsKind(c, vec.Character) {
		return c
	}

	panic(cond.Parse("notASymbol",
		"operand of :: must be a name or a string", p.last.Source()))
}

// ElseFollows reports whether an else clause follows the expression
// just parsed. Inside braces a newline may separate the two; at top
// level it may not.
func (p *T) elseFollows() bool {
	if p.peek().Is(token.Else) {
		return true
	}

	if p.braces == 0 {
		return false
	}

	// Peek past a newline without losing it if no else follows.
	if p.peek().Is(token.Newline) && p.peek2().Is(token.Else) {
		p.consume()

		return true
	}

	return false
}

// Reduce records an expression row spanning the rows consumed since
// mark and attaches a srcref to c.
func (p *T) reduce(mark int, start *token.T, c cell.I) cell.I {
	p.data.node(mark, start.Source(), p.last.End())

	if pair.Is(c) && c != pair.Null {
		pair.SetSource(c, srcref.New(start.Source(), p.last.End()))
	}

	return c
}

// Newlines skips newline tokens. Used where an operand must follow.
func (p *T) newlines() {
	for p.peek().Is(token.Newline) {
		p.consume()
	}
}

func (p *T) consume() *token.T {
	if p.ahead == 0 {
		panic("nothing to consume.")
	}

	t := p.queue[0]
	p.queue[0] = p.queue[1]
	p.ahead--

	p.last = t

	if !t.Is(token.Newline, token.End) {
		p.data.terminal(t)
	}

	return t
}

func (p *T) expect(c token.Class) {
	if p.peek().Is(c) {
		p.consume()

		return
	}

	p.unexpected(p.peek())
}

func (p *T) fill() *token.T {
	for {
		t := p.item()
		if t == nil {
			panic(ErrIncomplete)
		}

		if t.Is(token.Comment) {
			p.data.comment(t)

			continue
		}

		return t
	}
}

func (p *T) peek() *token.T {
	if p.ahead == 0 {
		p.queue[0] = p.fill()
		p.ahead = 1
	}

	return p.queue[0]
}

func (p *T) peek2() *token.T {
	p.peek()

	if p.ahead < 2 {
		p.queue[1] = p.fill()
		p.ahead = 2
	}

	return p.queue[1]
}

func (p *T) unexpected(t *token.T) {
	// Running out of input mid-expression is not a syntax error; the
	// caller may have more text to offer.
	if t.Is(token.End) {
		panic(ErrIncomplete)
	}

	msg := "unexpected " + describe(t)

	panic(cond.Parse("", msg, t.Source()))
}

func describe(t *token.T) string {
	switch t.Class() {
	case token.Newline:
		return "newline"
	case token.Symbol:
		return "symbol"
	case token.NumConst:
		return "numeric constant"
	case token.StrConst:
		return "string constant"
	default:
		return "'" + t.Value() + "'"
	}
}
