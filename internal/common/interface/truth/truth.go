// Released under an MIT license. See LICENSE.

// Package truth defines the interface for types with a truth value.
package truth

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
)

// I (truth) is the interface for types that can be used as a condition.
type I interface {
	Bool() bool
}

// Value returns the boolean value of the cell c, if it has one.
func Value(c cell.I) bool {
	b, ok := c.(I)
	if !ok {
		panic("argument is not interpretable as logical")
	}

	return b.Bool()
}
