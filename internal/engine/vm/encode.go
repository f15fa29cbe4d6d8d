// Released under an MIT license. See LICENSE.

package vm

import (
	"github.com/rho-lang/rho/internal/common/type/bcode"
)

// The encoded form of a stream. The original swaps opcodes for
// handler addresses; here the handler table is the exec switch, so
// encoding is the one-time validation pass: opcodes and operand
// counts checked, version skew collapsed to a lone BCMISMATCH whose
// execution hands the expression back to the tree walker. The result
// is cached on the bytecode object.
type encoded struct {
	ops []int
}

func encode(code *bcode.T) []int {
	if t, ok := code.Threaded().(*encoded); ok {
		return t.ops
	}

	ops := code.Code()
	if len(ops) == 0 || ops[0] != bcode.Version || !wellFormed(ops) {
		ops = []int{bcode.Version, bcode.BCMISMATCH}
	}

	code.SetThreaded(&encoded{ops: ops})

	return ops
}

// WellFormed walks the stream once, checking that every opcode is
// known and its operands lie within the stream.
func wellFormed(ops []int) bool {
	for pc := 1; pc < len(ops); {
		op := ops[pc]
		if op < 0 || op >= bcode.OpCount {
			return false
		}

		pc += bcode.Arity[op] + 1
		if pc > len(ops) {
			return false
		}
	}

	return true
}
