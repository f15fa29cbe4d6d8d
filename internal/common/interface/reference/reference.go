// Released under an MIT license. See LICENSE.

// Package reference defines the interface for anything that holds a value.
package reference

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
)

// I (reference) is anything that can hold a value.
type I interface {
	Get() cell.I
	Set(cell.I)
}
