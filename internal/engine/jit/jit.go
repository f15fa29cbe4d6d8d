// Released under an MIT license. See LICENSE.

// Package jit decides when a closure body is worth compiling and
// remembers the results. The compiler itself is a service; this
// package is the policy around it: scoring, sighting bits, the
// bytecode cache, and the compiled-constants registry.
package jit

import (
	"errors"
	"os"
	"strconv"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/interface/literal"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
	"github.com/rho-lang/rho/internal/common/type/bcode"
	"github.com/rho-lang/rho/internal/common/type/closure"
	"github.com/rho-lang/rho/internal/common/type/env"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/engine/compiler"
)

// Compilation strategies. Small bodies are the contended ground: the
// cheaper ones only compile them on a second sighting, or never.
const (
	StrategyNeverSmall = iota
	StrategyTopSmall
	StrategyAllSmall
	StrategyNoScore
	StrategyNoCache
)

// Cache geometry.
const (
	cacheSlots = 1024
	probeLimit = 8
)

// Structural score weights. Loops dominate: a loop is where bytecode
// pays for itself.
const (
	weightCall   = 1
	weightBranch = 2
	weightLoop   = 5
	weightFn     = 10
)

// Config carries the policy knobs.
type Config struct {
	Enabled        int // 0 off, 1 closures, 2 more, 3 plus top level.
	Strategy       int
	MinScore       int
	CheckConstants int // Negative disables the registry.
}

// FromEnv builds a Config from the environment, with the defaults
// used when a variable is unset or malformed.
func FromEnv() Config {
	return Config{
		Enabled:        intEnv("R_ENABLE_JIT", 3),
		Strategy:       intEnv("R_JIT_STRATEGY", StrategyAllSmall),
		MinScore:       intEnv("R_MIN_JIT_SCORE", 50),
		CheckConstants: intEnv("R_CHECK_CONSTANTS", -1),
	}
}

func intEnv(name string, dflt int) int {
	s := os.Getenv(name)
	if s == "" {
		return dflt
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return dflt
	}

	return n
}

type entry struct {
	hash  uint64
	bc    *bcode.T
	top   *env.T
	names map[string]bool
	src   *srcref.T
}

type constRecord struct {
	bc    *bcode.T
	saved []cell.I
	next  *constRecord
}

// Policy is the compile-decision state: configuration, the bytecode
// cache, and the constants registry.
type Policy struct {
	cfg    Config
	global *env.T

	cache   [cacheSlots]*entry
	records *constRecord
}

// New creates a policy with the given configuration.
func New(cfg Config) *Policy {
	return &Policy{cfg: cfg}
}

// SetGlobal tells the policy which environment is the top level; the
// top-level-small strategy needs it.
func (p *Policy) SetGlobal(e *env.T) {
	p.global = e
}

// Consider is called as a closure is about to be applied. It may
// replace the closure's body with bytecode, mark it for compilation
// on its next sighting, or mark it as never worth compiling.
func (p *Policy) Consider(fn *closure.T) {
	if p.cfg.Enabled <= 0 || fn.NoJIT() || bcode.Is(fn.Body()) {
		return
	}

	if score(fn.Body()) < p.cfg.MinScore && !p.smallQualifies(fn) {
		return
	}

	key := hashClosure(fn)

	if p.cfg.Strategy != StrategyNoCache {
		if e := p.lookup(key, fn); e != nil {
			fn.SetBody(e.bc)

			return
		}
	}

	// Capture the source reference before SetBody replaces the AST.
	src := pair.Source(fn.Body())

	bc, err := compiler.Body(fn.Body())
	if err != nil {
		fn.SetNoJIT()

		return
	}

	fn.SetBody(bc)
	p.register(bc)

	if p.cfg.Strategy != StrategyNoCache {
		p.store(key, fn, bc, src)
	}
}

// SmallQualifies applies the per-strategy rules for bodies under the
// score threshold: compile on the second sighting, for the closures
// the strategy covers.
func (p *Policy) smallQualifies(fn *closure.T) bool {
	switch p.cfg.Strategy {
	case StrategyNeverSmall:
		return false
	case StrategyTopSmall:
		if fn.Env() != p.global {
			return false
		}
	case StrategyNoScore, StrategyNoCache:
		return true
	}

	if fn.MaybeJIT() {
		return true
	}

	fn.SetMaybeJIT(true)

	return false
}

// Top compiles a top-level expression when the policy level asks for
// it. A nil result means the tree walker should run it.
func (p *Policy) Top(expr cell.I, e *env.T) *bcode.T {
	if p.cfg.Enabled < 3 {
		return nil
	}

	if p.cfg.Strategy < StrategyNoScore && score(expr) < p.cfg.MinScore {
		return nil
	}

	bc, err := compiler.Compile(expr)
	if err != nil {
		return nil
	}

	p.register(bc)

	return bc
}

func (p *Policy) lookup(key uint64, fn *closure.T) *entry {
	for i := 0; i < probeLimit; i++ {
		e := p.cache[(key+uint64(i))%cacheSlots]
		if e == nil {
			return nil
		}

		if e.hash == key && p.accepts(e, fn) {
			return e
		}
	}

	return nil
}

// Accepts checks that cached bytecode can serve this closure: same
// top-level environment, every name visible to the candidate known to
// the snapshot, and matching source references.
func (p *Policy) accepts(e *entry, fn *closure.T) bool {
	if e.top != topOf(fn.Env()) {
		return false
	}

	for f := fn.Formals(); f != pair.Null; f = pair.Cdr(f) {
		if t := pair.Tag(f); t != nil && !e.names[sym.To(t).String()] {
			return false
		}
	}

	for _, name := range fn.Env().Names() {
		if !e.names[name] {
			return false
		}
	}

	src := pair.Source(fn.Body())

	return src == e.src || srcref.Equal(src, e.src)
}

func (p *Policy) store(key uint64, fn *closure.T, bc *bcode.T, src *srcref.T) {
	names := map[string]bool{}

	for f := fn.Formals(); f != pair.Null; f = pair.Cdr(f) {
		if t := pair.Tag(f); t != nil {
			names[sym.To(t).String()] = true
		}
	}

	for _, name := range fn.Env().Names() {
		names[name] = true
	}

	e := &entry{
		hash:  key,
		bc:    bc,
		top:   topOf(fn.Env()),
		names: names,
		src:   src,
	}

	at := key % cacheSlots

	for i := 0; i < probeLimit; i++ {
		j := (key + uint64(i)) % cacheSlots
		if p.cache[j] == nil {
			p.cache[j] = e

			return
		}
	}

	// Probe run full: evict the home slot.
	p.cache[at] = e
}

// TopOf walks to the last real frame of an environment chain.
func topOf(e *env.T) *env.T {
	for e != nil && e.Enclosing() != nil && e.Enclosing() != env.Empty {
		e = e.Enclosing()
	}

	return e
}

// Register snapshots a bytecode object's constants so CheckConstants
// can detect compiler constants mutated at run time.
func (p *Policy) register(bc *bcode.T) {
	if p.cfg.CheckConstants < 0 {
		return
	}

	consts := bc.Consts()
	saved := make([]cell.I, len(consts))

	for i, c := range consts {
		if w, ok := c.(*vec.T); ok {
			saved[i] = w.Copy()
		}
	}

	p.records = &constRecord{bc: bc, saved: saved, next: p.records}
}

// ErrConstantsModified reports a mutated compiler constant.
var ErrConstantsModified = errors.New("compiler constants were modified")

// CheckConstants compares registered constant pools against their
// snapshots. It is a debugging aid; a mismatch means something wrote
// through a value the compiler owns.
func (p *Policy) CheckConstants() error {
	for r := p.records; r != nil; r = r.next {
		live := r.bc.Consts()

		for i, saved := range r.saved {
			if saved == nil {
				continue
			}

			if !saved.Equal(live[i]) {
				return ErrConstantsModified
			}
		}
	}

	return nil
}

// Score weighs an expression's structure. Loops and branches raise
// the score; flat arithmetic barely registers.
func score(e cell.I) int {
	if !pair.IsLang(e) {
		return 0
	}

	total := weightCall
	head := pair.Car(e)

	if sym.Is(head) {
		switch sym.To(head).String() {
		case "for", "while", "repeat":
			total += weightLoop
		case "if", "switch", "&&", "||":
			total += weightBranch
		case "function":
			total += weightFn
		}
	}

	for a := pair.Cdr(e); a != pair.Null && pair.Is(a); a = pair.Cdr(a) {
		total += score(pair.Car(a))
	}

	return total
}

func hashClosure(fn *closure.T) uint64 {
	h := uint64(5381)

	hashCell(&h, fn.Body(), 0)

	if src := pair.Source(fn.Body()); src != nil {
		hashString(&h, src.String())
	}

	return h
}

const hashDepthLimit = 64

func hashCell(h *uint64, c cell.I, depth int) {
	if depth > hashDepthLimit {
		return
	}

	switch {
	case c == nil:
		hashString(h, "\x00")
	case sym.Is(c):
		hashString(h, sym.To(c).String())
	case c == pair.Null:
		hashString(h, "()")
	case pair.Is(c):
		hashString(h, "(")
		hashCell(h, pair.Tag(c), depth+1)
		hashCell(h, pair.Car(c), depth+1)
		hashCell(h, pair.Cdr(c), depth+1)
		hashString(h, ")")
	default:
		if l, ok := c.(literal.I); ok {
			hashString(h, l.Literal())
		} else {
			hashString(h, c.Name())
		}
	}
}

func hashString(h *uint64, s string) {
	for i := 0; i < len(s); i++ {
		*h = *h*33 + uint64(s[i])
	}
}
