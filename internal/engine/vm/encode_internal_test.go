// Released under an MIT license. See LICENSE.

package vm

import (
	"testing"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

func stream(ops ...int) *bcode.T {
	consts := []cell.I{vec.Int(0)}

	idx := make([]int32, len(ops))
	for i := range idx {
		idx[i] = -1
	}

	return bcode.New(ops, consts, idx, idx)
}

func isMismatch(ops []int) bool {
	return len(ops) == 2 && ops[0] == bcode.Version && ops[1] == bcode.BCMISMATCH
}

func TestEncodeAcceptsWellFormedStream(t *testing.T) {
	code := stream(bcode.Version, bcode.LDNULL, bcode.RETURN)

	ops := encode(code)
	if isMismatch(ops) {
		t.Fatal("well-formed stream rejected")
	}

	if len(ops) != 3 || ops[1] != bcode.LDNULL {
		t.Fatalf("encoded stream %v", ops)
	}
}

func TestEncodeCachesResult(t *testing.T) {
	code := stream(bcode.Version, bcode.LDNULL, bcode.RETURN)

	encode(code)

	cached, ok := code.Threaded().(*encoded)
	if !ok {
		t.Fatal("encoded form not cached on the code object")
	}

	ops := encode(code)
	if &ops[0] != &cached.ops[0] {
		t.Fatal("second encode did not reuse the cache")
	}
}

func TestEncodeRejectsVersionSkew(t *testing.T) {
	code := stream(bcode.Version+1, bcode.LDNULL, bcode.RETURN)

	if !isMismatch(encode(code)) {
		t.Fatal("version skew not collapsed to BCMISMATCH")
	}
}

func TestEncodeRejectsMalformedStreams(t *testing.T) {
	// Unknown opcode.
	if !isMismatch(encode(stream(bcode.Version, bcode.OpCount, bcode.RETURN))) {
		t.Fatal("unknown opcode accepted")
	}

	// Operands running past the end of the stream.
	if !isMismatch(encode(stream(bcode.Version, bcode.GETVAR))) {
		t.Fatal("truncated operand accepted")
	}

	// Empty stream.
	if !isMismatch(encode(stream())) {
		t.Fatal("empty stream accepted")
	}
}
