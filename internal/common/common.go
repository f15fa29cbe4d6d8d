// Released under an MIT license. See LICENSE.

// Package common defines interfaces and helpers shared across the core.
package common

import (
	"fmt"

	"github.com/rho-lang/rho/internal/common/interface/cell"
)

type Stringer = fmt.Stringer

// String returns the string value for a cell, if possible.
func String(c cell.I) string {
	s, ok := c.(Stringer)
	if !ok {
		panic(c.Name() + " cannot be used in a string context")
	}

	return s.String()
}
