// Released under an MIT license. See LICENSE.

// Package token is shared by the rho lexer and parser.
package token

import (
	"strconv"

	"github.com/rho-lang/rho/internal/common/struct/loc"
)

// Class is a token's type.
type Class int

// T (token) is a lexical item returned by the scanner.
type T struct {
	class  Class
	value  string
	source loc.T
	end    loc.T

	id     int
	parent int
}

type token = T

// Token classes.
const (
	Error Class = iota
	End

	Newline
	Comment

	Symbol
	Placeholder
	NumConst
	StrConst
	NullConst

	If
	Else
	For
	In
	While
	Repeat
	Function
	Next
	Break

	LeftAssign  // <- and <<- and :=
	RightAssign // -> and ->>
	EqAssign    // =

	Question
	Tilde
	OrOr
	Or
	AndAnd
	And
	Not
	Eq
	Ne
	Lt
	Gt
	Le
	Ge
	Plus
	Minus
	Star
	Slash
	Special // %...%
	PipeOp  // |>
	PipeBind
	Colon
	Caret
	Dollar
	At
	LBB // [[
	LBracket
	RBracket
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Semicolon
	NsGet    // ::
	NsGetInt // :::
)

//nolint:gochecknoglobals
var names = map[Class]string{
	Error:       "ERROR",
	End:         "END_OF_INPUT",
	Newline:     "NEWLINE",
	Comment:     "COMMENT",
	Symbol:      "SYMBOL",
	Placeholder: "PLACEHOLDER",
	NumConst:    "NUM_CONST",
	StrConst:    "STR_CONST",
	NullConst:   "NULL_CONST",
	If:          "IF",
	Else:        "ELSE",
	For:         "FOR",
	In:          "IN",
	While:       "WHILE",
	Repeat:      "REPEAT",
	Function:    "FUNCTION",
	Next:        "NEXT",
	Break:       "BREAK",
	LeftAssign:  "LEFT_ASSIGN",
	RightAssign: "RIGHT_ASSIGN",
	EqAssign:    "EQ_ASSIGN",
	Question:    "'?'",
	Tilde:       "'~'",
	OrOr:        "OR2",
	Or:          "OR",
	AndAnd:      "AND2",
	And:         "AND",
	Not:         "'!'",
	Eq:          "EQ",
	Ne:          "NE",
	Lt:          "LT",
	Gt:          "GT",
	Le:          "LE",
	Ge:          "GE",
	Plus:        "'+'",
	Minus:       "'-'",
	Star:        "'*'",
	Slash:       "'/'",
	Special:     "SPECIAL",
	PipeOp:      "PIPE",
	PipeBind:    "PIPEBIND",
	Colon:       "':'",
	Caret:       "'^'",
	Dollar:      "'$'",
	At:          "'@'",
	LBB:         "LBB",
	LBracket:    "'['",
	RBracket:    "']'",
	LParen:      "'('",
	RParen:      "')'",
	LBrace:      "'{'",
	RBrace:      "'}'",
	Comma:       "','",
	Semicolon:   "';'",
	NsGet:       "NS_GET",
	NsGetInt:    "NS_GET_INT",
}

// New creates a new token spanning source to end.
func New(class Class, value string, source, end *loc.T) *token {
	return &token{
		class:  class,
		value:  value,
		source: *source,
		end:    *end,
	}
}

// String returns the name used for Class in parse data and error messages.
func (c Class) String() string {
	if s, ok := names[c]; ok {
		return s
	}

	return strconv.Itoa(int(c))
}

// Class returns the token's class.
func (t *token) Class() Class {
	return t.class
}

// End returns the location just past this token.
func (t *token) End() *loc.T {
	return &t.end
}

// ID returns the token's parse-data id.
func (t *token) ID() int {
	return t.id
}

// Is returns true if the token t is any of the classes in cs.
func (t *token) Is(cs ...Class) bool {
	if t == nil {
		return false
	}

	for _, c := range cs {
		if t.class == c {
			return true
		}
	}

	return false
}

// Parent returns the parse-data id of the token's parent.
func (t *token) Parent() int {
	return t.parent
}

// SetID sets the token's parse-data id.
func (t *token) SetID(id int) {
	t.id = id
}

// SetParent sets the parse-data id of the token's parent.
func (t *token) SetParent(id int) {
	t.parent = id
}

// Source returns the source location for this token.
func (t *token) Source() *loc.T {
	return &t.source
}

// String returns the token's string representation. Useful for debugging.
func (t *token) String() string {
	return strconv.Quote(t.value) + "(" +
		t.class.String() + "," +
		t.source.String() + ")"
}

// Value returns the token's string value.
func (t *token) Value() string {
	return t.value
}
