// Released under an MIT license. See LICENSE.

// Package literal defines the interface for types with a source representation.
package literal

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
)

// I (literal) is the interface for types that can appear in source form.
type I interface {
	Literal() string
}

// String returns the literal representation of the cell c, if it has one.
func String(c cell.I) string {
	l, ok := c.(I)
	if !ok {
		panic(c.Name() + " has no source representation")
	}

	return l.Literal()
}
