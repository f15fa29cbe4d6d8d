// Released under an MIT license. See LICENSE.

// Package sym provides rho's interned symbol type.
package sym

import (
	"strconv"
	"strings"
	"sync"

	"github.com/rho-lang/rho/internal/common/interface/cell"
)

const name = "symbol"

// T (sym) is an interned name. Two syms with the same name are the
// same pointer, so syms can be compared directly and used as map keys.
type T struct {
	s string
}

type sym = T

//nolint:gochecknoglobals
var (
	cache  = map[string]*sym{}
	cachel = &sync.RWMutex{}

	// Missing marks an absent argument. Never a valid user value.
	Missing *sym

	// Unbound marks an empty value slot. Never a valid user value.
	Unbound *sym

	// Dots is the symbol for "...".
	Dots *sym
)

// New creates (or finds) the sym for the name v.
func New(v string) *T {
	cachel.RLock()
	p, ok := cache[v]
	cachel.RUnlock()

	if ok {
		return p
	}

	cachel.Lock()
	defer cachel.Unlock()

	if p, ok = cache[v]; ok {
		return p
	}

	p = &sym{s: v}
	cache[v] = p

	return p
}

// Equal returns true if c is the same sym as s.
func (s *sym) Equal(c cell.I) bool {
	return Is(c) && s == To(c)
}

// Literal returns the literal representation of the sym s.
func (s *sym) Literal() string {
	if s == Missing {
		return ""
	}

	if quoted(s.s) {
		return "`" + s.s + "`"
	}

	return s.s
}

// Name returns the type name for the sym s.
func (s *sym) Name() string {
	return name
}

// String returns the text of the sym s.
func (s *sym) String() string {
	return s.s
}

// Functions specific to sym.

// DotDotN returns n for symbols of the form ..n, and false otherwise.
func DotDotN(s *sym) (int, bool) {
	if !strings.HasPrefix(s.s, "..") || len(s.s) < 3 {
		return 0, false
	}

	n, err := strconv.Atoi(s.s[2:])
	if err != nil || n < 1 {
		return 0, false
	}

	return n, true
}

// Is returns true if c is a sym.
func Is(c cell.I) bool {
	_, ok := c.(*sym)

	return ok
}

// To returns the sym if c is a sym; Otherwise it panics.
func To(c cell.I) *sym {
	if t, ok := c.(*sym); ok {
		return t
	}

	panic(c.Name() + " cannot be used in a symbol context")
}

// A name needs backticks if it is not a syntactically valid identifier.
func quoted(s string) bool {
	if s == "" {
		return true
	}

	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '.':
		case i > 0 && (r >= '0' && r <= '9' || r == '_'):
		default:
			return true
		}
	}

	switch s {
	case "if", "else", "for", "in", "while", "repeat", "function",
		"next", "break", "TRUE", "FALSE", "NULL", "NA", "Inf", "NaN":
		return true
	}

	return false
}

func init() { //nolint:gochecknoinits
	Missing = New("")
	Unbound = &sym{s: "<unbound>"} // Deliberately not interned.
	Dots = New("...")
}
