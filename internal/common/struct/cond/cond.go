// Released under an MIT license. See LICENSE.

// Package cond provides structured conditions: every failure the
// interpreter raises is a record with a class chain, a message, the
// call in progress, and named extra fields. A condition doubles as a
// Go error so that it can cross package boundaries unwrapped.
package cond

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/loc"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// T (cond) is a condition record. The class chain lists the most
// specific class first and always ends with "condition".
type T struct {
	classes []string
	message string
	call    cell.I

	names  []string
	fields []cell.I
}

type cond = T

// New creates a condition with the given class chain and message.
// The chain passed in should not include the terminal classes; they
// are appended here.
func New(message string, call cell.I, classes ...string) *T {
	return &cond{
		classes: append(classes, "error", "condition"),
		message: message,
		call:    call,
	}
}

// Error creates a plain evaluation error.
func Error(message string, call cell.I) *T {
	return New(message, call, "evalError")
}

// Parse creates a parse error of the given subclass, carrying the
// filename, line, and column where scanning stopped.
func Parse(subclass, message string, at *loc.T) *T {
	c := New(message, nil, subclass, "parseError")

	c.AddField("filename", vec.Str(at.Name))
	c.AddField("lineno", vec.Int(int32(at.Line)))
	c.AddField("colno", vec.Int(int32(at.Col)))

	return c
}

// Warning creates a warning condition. Warnings are collected rather
// than propagated.
func Warning(message string, call cell.I) *T {
	return &cond{
		classes: []string{"warning", "condition"},
		message: message,
		call:    call,
	}
}

// FromError adapts a Go error into a condition. A condition passes
// through unchanged.
func FromError(err error, call cell.I) *T {
	if c, ok := err.(*cond); ok { //nolint:errorlint
		return c
	}

	return Error(err.Error(), call)
}

// Equal returns true if c is the same condition as e.
func (e *cond) Equal(c cell.I) bool {
	q, ok := c.(*cond)

	return ok && e == q
}

// Name returns the type name for the condition e.
func (e *cond) Name() string {
	return "condition"
}

// Methods specific to cond.

// AddField appends a named extra field.
func (e *cond) AddField(n string, v cell.I) {
	e.names = append(e.names, n)
	e.fields = append(e.fields, v)
}

// Call returns the call the condition was raised from, or nil.
func (e *cond) Call() cell.I {
	return e.call
}

// Classes returns the class chain, most specific first.
func (e *cond) Classes() []string {
	return e.classes
}

// Error makes a condition usable as a Go error.
func (e *cond) Error() string {
	return e.message
}

// Field returns the named extra field, or nil.
func (e *cond) Field(n string) cell.I {
	for i, fn := range e.names {
		if fn == n {
			return e.fields[i]
		}
	}

	return nil
}

// Is returns true if the condition inherits from the class n.
func (e *cond) Is(n string) bool {
	for _, c := range e.classes {
		if c == n {
			return true
		}
	}

	return false
}

// Message returns the condition's message.
func (e *cond) Message() string {
	return e.message
}

// SetCall records the call the condition was raised from, unless one
// was already recorded closer to the raise site.
func (e *cond) SetCall(call cell.I) {
	if e.call == nil {
		e.call = call
	}
}

// Is returns true if c is a condition.
func Is(c cell.I) bool {
	_, ok := c.(*cond)

	return ok
}

// To returns the condition if c is a condition; Otherwise it panics.
func To(c cell.I) *cond {
	if t, ok := c.(*cond); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a condition context")
}
