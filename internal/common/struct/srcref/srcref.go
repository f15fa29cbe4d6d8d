// Released under an MIT license. See LICENSE.

// Package srcref provides the record locating an expression in its source.
package srcref

import (
	"strconv"

	"github.com/rho-lang/rho/internal/common/struct/loc"
)

// T (srcref) records the span of an expression in a source file.
type T struct {
	File string

	FirstLine   int
	FirstByte   int
	LastLine    int
	LastByte    int
	FirstParsed int
	LastParsed  int
	FirstColumn int
	LastColumn  int
}

type srcref = T

// New creates a srcref spanning from first to last.
func New(first, last *loc.T) *T {
	return &srcref{
		File:        first.Name,
		FirstLine:   first.Line,
		FirstByte:   first.Byte,
		LastLine:    last.Line,
		LastByte:    last.Byte,
		FirstParsed: first.Parsed,
		LastParsed:  last.Parsed,
		FirstColumn: first.Col,
		LastColumn:  last.Col,
	}
}

// Whole creates the wrapper srcref spanning the file name, lines 1-lines.
func Whole(name string, lines int) *T {
	return &srcref{
		File:        name,
		FirstLine:   1,
		FirstByte:   1,
		LastLine:    lines,
		LastByte:    1,
		FirstParsed: 1,
		LastParsed:  lines,
		FirstColumn: 1,
		LastColumn:  1,
	}
}

// Equal reports whether a and b locate the same span of the same file.
func Equal(a, b *T) bool {
	if a == b {
		return true
	}

	if a == nil || b == nil {
		return false
	}

	return *a == *b
}

// String returns the srcref in the file#line form used by the profiler.
func (r *srcref) String() string {
	return r.File + "#" + strconv.Itoa(r.FirstLine)
}
