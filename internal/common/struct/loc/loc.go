// Released under an MIT license. See LICENSE.

// Package loc provides the type used to track positions in rho source.
// The lexer distinguishes the logical line (which #line directives may
// adjust), the parsed line (which they may not), the byte column, and
// the display column (tabs advance to multiples of eight and wide
// runes advance by their display width).
package loc

import (
	"strconv"
)

// T (loc) is a lexical location.
type T struct {
	Name   string // Label for the source of this position.
	Line   int    // Logical line number.
	Parsed int    // Parsed line number.
	Byte   int    // Byte column.
	Col    int    // Display column.
}

type loc = T

func (l *T) String() string {
	return l.Name + ":" + strconv.Itoa(l.Line) + ":" + strconv.Itoa(l.Col)
}
