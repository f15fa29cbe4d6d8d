// Released under an MIT license. See LICENSE.

package bcode

// Opcodes. The instruction stream is a flat []int: an opcode followed
// by its operands, which index the constant pool or name a jump target
// unless noted otherwise.
const (
	BCMISMATCH = iota // Stream compiled for another version.

	// Control.
	RETURN
	RETURNJMP
	GOTO
	BRIFNOT
	POP
	DUP
	PRINTVALUE

	// Loop contexts, for loops containing break/next promotion hazards.
	STARTLOOPCNTXT
	ENDLOOPCNTXT
	DOLOOPNEXT
	DOLOOPBREAK

	// for loops.
	STARTFOR
	STEPFOR
	ENDFOR
	SETLOOPVAL

	// Constants.
	LDNULL
	LDTRUE
	LDFALSE
	LDCONST

	// Variables.
	GETVAR
	DDVAL
	SETVAR
	GETFUN
	GETGLOBFUN
	GETSYMFUN
	GETBUILTIN
	GETINTLBUILTIN
	CHECKFUN

	// Calls.
	MAKEPROM
	DOMISSING
	SETTAG
	DODOTS
	PUSHARG
	PUSHCONSTARG
	PUSHNULLARG
	PUSHTRUEARG
	PUSHFALSEARG
	CALL
	CALLBUILTIN
	CALLSPECIAL
	MAKECLOSURE

	// Arithmetic.
	UMINUS
	UPLUS
	ADD
	SUB
	MUL
	DIV
	EXPT
	SQRT
	EXP
	LOG
	LOGBASE
	MATH1

	// Comparison.
	EQ
	NE
	LT
	LE
	GE
	GT

	// Logic.
	AND
	OR
	NOT
	AND1ST
	AND2ND
	OR1ST
	OR2ND

	// Type predicates.
	ISNULL
	ISLOGICAL
	ISINTEGER
	ISDOUBLE
	ISCOMPLEX
	ISCHARACTER
	ISSYMBOL
	ISOBJECT
	ISNUMERIC

	// Complex assignment.
	STARTASSIGN
	ENDASSIGN
	SETVAR2
	STARTASSIGN2
	ENDASSIGN2

	// Subscripting. START* dispatches to the full operator when the
	// operand is an object; the DFLT/VEC/MAT forms handle the rest.
	STARTSUBSET
	DFLTSUBSET
	VECSUBSET
	MATSUBSET
	SUBSET_N
	STARTSUBSET2
	DFLTSUBSET2
	VECSUBSET2
	MATSUBSET2
	SUBSET2_N
	STARTSUBASSIGN
	DFLTSUBASSIGN
	VECSUBASSIGN
	MATSUBASSIGN
	SUBASSIGN_N
	STARTSUBASSIGN2
	DFLTSUBASSIGN2
	VECSUBASSIGN2
	MATSUBASSIGN2
	SUBASSIGN2_N
	DOLLAR
	DOLLARGETS

	// Sequences.
	COLON
	SEQALONG
	SEQLEN

	// switch.
	SWITCH

	// Guarded inlining of base functions.
	BASEGUARD

	// Visibility.
	INVISIBLE
	VISIBLE

	// Stack-protection bookkeeping.
	INCLNK
	DECLNK
	DECLNK_N
	INCLNKSTK
	DECLNKSTK

	// Missing-value aware variants.
	GETVAR_MISSOK
	DDVAL_MISSOK

	// Stack shuffling.
	DUP2ND
	SWAP

	// Interface calls.
	DOTCALL

	OpCount
)

// Arity gives the operand count of each opcode.
//
//nolint:gochecknoglobals
var Arity = [OpCount]int{
	BCMISMATCH: 0,

	RETURN:     0,
	RETURNJMP:  0,
	GOTO:       1,
	BRIFNOT:    2, // call-expr index, else label.
	POP:        0,
	DUP:        0,
	PRINTVALUE: 0,

	STARTLOOPCNTXT: 2, // next label, break label.
	ENDLOOPCNTXT:   1, // is-for flag.
	DOLOOPNEXT:     0,
	DOLOOPBREAK:    0,

	STARTFOR:   3, // call-expr index, symbol index, body label.
	STEPFOR:    1, // body label.
	ENDFOR:     0,
	SETLOOPVAL: 0,

	LDNULL:  0,
	LDTRUE:  0,
	LDFALSE: 0,
	LDCONST: 1,

	GETVAR:         1,
	DDVAL:          1,
	SETVAR:         1,
	GETFUN:         1,
	GETGLOBFUN:     1,
	GETSYMFUN:      1,
	GETBUILTIN:     1,
	GETINTLBUILTIN: 1,
	CHECKFUN:       0,

	MAKEPROM:     1,
	DOMISSING:    0,
	SETTAG:       1,
	DODOTS:       0,
	PUSHARG:      0,
	PUSHCONSTARG: 1,
	PUSHNULLARG:  0,
	PUSHTRUEARG:  0,
	PUSHFALSEARG: 0,
	CALL:         1,
	CALLBUILTIN:  1,
	CALLSPECIAL:  1,
	MAKECLOSURE:  1,

	UMINUS:  1,
	UPLUS:   1,
	ADD:     1,
	SUB:     1,
	MUL:     1,
	DIV:     1,
	EXPT:    1,
	SQRT:    1,
	EXP:     1,
	LOG:     1,
	LOGBASE: 1,
	MATH1:   2, // call-expr index, function index.

	EQ: 1,
	NE: 1,
	LT: 1,
	LE: 1,
	GE: 1,
	GT: 1,

	AND:    1,
	OR:     1,
	NOT:    1,
	AND1ST: 2, // call-expr index, short-circuit label.
	AND2ND: 1,
	OR1ST:  2,
	OR2ND:  1,

	ISNULL:      0,
	ISLOGICAL:   0,
	ISINTEGER:   0,
	ISDOUBLE:    0,
	ISCOMPLEX:   0,
	ISCHARACTER: 0,
	ISSYMBOL:    0,
	ISOBJECT:    0,
	ISNUMERIC:   0,

	STARTASSIGN:  1,
	ENDASSIGN:    1,
	SETVAR2:      1,
	STARTASSIGN2: 1,
	ENDASSIGN2:   1,

	STARTSUBSET:     2, // call-expr index, done label.
	DFLTSUBSET:      0,
	VECSUBSET:       1,
	MATSUBSET:       1,
	SUBSET_N:        2, // call-expr index, rank.
	STARTSUBSET2:    2,
	DFLTSUBSET2:     0,
	VECSUBSET2:      1,
	MATSUBSET2:      1,
	SUBSET2_N:       2,
	STARTSUBASSIGN:  2,
	DFLTSUBASSIGN:   0,
	VECSUBASSIGN:    1,
	MATSUBASSIGN:    1,
	SUBASSIGN_N:     2,
	STARTSUBASSIGN2: 2,
	DFLTSUBASSIGN2:  0,
	VECSUBASSIGN2:   1,
	MATSUBASSIGN2:   1,
	SUBASSIGN2_N:    2,
	DOLLAR:          2, // call-expr index, symbol index.
	DOLLARGETS:      2,

	COLON:    1,
	SEQALONG: 1,
	SEQLEN:   1,

	SWITCH: 4, // call-expr index, names index, character labels, other labels.

	BASEGUARD: 2, // call-expr index, fallthrough label.

	INVISIBLE: 0,
	VISIBLE:   0,

	INCLNK:    0,
	DECLNK:    0,
	DECLNK_N:  1, // count.
	INCLNKSTK: 0,
	DECLNKSTK: 0,

	GETVAR_MISSOK: 1,
	DDVAL_MISSOK:  1,

	DUP2ND: 0,
	SWAP:   0,

	DOTCALL: 2, // call-expr index, argument count.
}

// Names for disassembly.
//
//nolint:gochecknoglobals
var opNames = [OpCount]string{
	BCMISMATCH: "BCMISMATCH",

	RETURN:     "RETURN",
	RETURNJMP:  "RETURNJMP",
	GOTO:       "GOTO",
	BRIFNOT:    "BRIFNOT",
	POP:        "POP",
	DUP:        "DUP",
	PRINTVALUE: "PRINTVALUE",

	STARTLOOPCNTXT: "STARTLOOPCNTXT",
	ENDLOOPCNTXT:   "ENDLOOPCNTXT",
	DOLOOPNEXT:     "DOLOOPNEXT",
	DOLOOPBREAK:    "DOLOOPBREAK",

	STARTFOR:   "STARTFOR",
	STEPFOR:    "STEPFOR",
	ENDFOR:     "ENDFOR",
	SETLOOPVAL: "SETLOOPVAL",

	LDNULL:  "LDNULL",
	LDTRUE:  "LDTRUE",
	LDFALSE: "LDFALSE",
	LDCONST: "LDCONST",

	GETVAR:         "GETVAR",
	DDVAL:          "DDVAL",
	SETVAR:         "SETVAR",
	GETFUN:         "GETFUN",
	GETGLOBFUN:     "GETGLOBFUN",
	GETSYMFUN:      "GETSYMFUN",
	GETBUILTIN:     "GETBUILTIN",
	GETINTLBUILTIN: "GETINTLBUILTIN",
	CHECKFUN:       "CHECKFUN",

	MAKEPROM:     "MAKEPROM",
	DOMISSING:    "DOMISSING",
	SETTAG:       "SETTAG",
	DODOTS:       "DODOTS",
	PUSHARG:      "PUSHARG",
	PUSHCONSTARG: "PUSHCONSTARG",
	PUSHNULLARG:  "PUSHNULLARG",
	PUSHTRUEARG:  "PUSHTRUEARG",
	PUSHFALSEARG: "PUSHFALSEARG",
	CALL:         "CALL",
	CALLBUILTIN:  "CALLBUILTIN",
	CALLSPECIAL:  "CALLSPECIAL",
	MAKECLOSURE:  "MAKECLOSURE",

	UMINUS:  "UMINUS",
	UPLUS:   "UPLUS",
	ADD:     "ADD",
	SUB:     "SUB",
	MUL:     "MUL",
	DIV:     "DIV",
	EXPT:    "EXPT",
	SQRT:    "SQRT",
	EXP:     "EXP",
	LOG:     "LOG",
	LOGBASE: "LOGBASE",
	MATH1:   "MATH1",

	EQ: "EQ",
	NE: "NE",
	LT: "LT",
	LE: "LE",
	GE: "GE",
	GT: "GT",

	AND:    "AND",
	OR:     "OR",
	NOT:    "NOT",
	AND1ST: "AND1ST",
	AND2ND: "AND2ND",
	OR1ST:  "OR1ST",
	OR2ND:  "OR2ND",

	ISNULL:      "ISNULL",
	ISLOGICAL:   "ISLOGICAL",
	ISINTEGER:   "ISINTEGER",
	ISDOUBLE:    "ISDOUBLE",
	ISCOMPLEX:   "ISCOMPLEX",
	ISCHARACTER: "ISCHARACTER",
	ISSYMBOL:    "ISSYMBOL",
	ISOBJECT:    "ISOBJECT",
	ISNUMERIC:   "ISNUMERIC",

	STARTASSIGN:  "STARTASSIGN",
	ENDASSIGN:    "ENDASSIGN",
	SETVAR2:      "SETVAR2",
	STARTASSIGN2: "STARTASSIGN2",
	ENDASSIGN2:   "ENDASSIGN2",

	STARTSUBSET:     "STARTSUBSET",
	DFLTSUBSET:      "DFLTSUBSET",
	VECSUBSET:       "VECSUBSET",
	MATSUBSET:       "MATSUBSET",
	SUBSET_N:        "SUBSET_N",
	STARTSUBSET2:    "STARTSUBSET2",
	DFLTSUBSET2:     "DFLTSUBSET2",
	VECSUBSET2:      "VECSUBSET2",
	MATSUBSET2:      "MATSUBSET2",
	SUBSET2_N:       "SUBSET2_N",
	STARTSUBASSIGN:  "STARTSUBASSIGN",
	DFLTSUBASSIGN:   "DFLTSUBASSIGN",
	VECSUBASSIGN:    "VECSUBASSIGN",
	MATSUBASSIGN:    "MATSUBASSIGN",
	SUBASSIGN_N:     "SUBASSIGN_N",
	STARTSUBASSIGN2: "STARTSUBASSIGN2",
	DFLTSUBASSIGN2:  "DFLTSUBASSIGN2",
	VECSUBASSIGN2:   "VECSUBASSIGN2",
	MATSUBASSIGN2:   "MATSUBASSIGN2",
	SUBASSIGN2_N:    "SUBASSIGN2_N",
	DOLLAR:          "DOLLAR",
	DOLLARGETS:      "DOLLARGETS",

	COLON:    "COLON",
	SEQALONG: "SEQALONG",
	SEQLEN:   "SEQLEN",

	SWITCH: "SWITCH",

	BASEGUARD: "BASEGUARD",

	INVISIBLE: "INVISIBLE",
	VISIBLE:   "VISIBLE",

	INCLNK:    "INCLNK",
	DECLNK:    "DECLNK",
	DECLNK_N:  "DECLNK_N",
	INCLNKSTK: "INCLNKSTK",
	DECLNKSTK: "DECLNKSTK",

	GETVAR_MISSOK: "GETVAR_MISSOK",
	DDVAL_MISSOK:  "DDVAL_MISSOK",

	DUP2ND: "DUP2ND",
	SWAP:   "SWAP",

	DOTCALL: "DOTCALL",
}

// OpName returns the printable name of the opcode op.
func OpName(op int) string {
	if op < 0 || op >= OpCount {
		return "UNKNOWN"
	}

	return opNames[op]
}
