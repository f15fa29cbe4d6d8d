// Released under an MIT license. See LICENSE.

// Package cell defines the interface for all rho values.
package cell

// I (cell) is the opaque handle for a rho value. Every part of the
// core traffics in cells; concrete layouts live in the type packages.
type I interface {
	Equal(c I) bool
	Name() string
}
