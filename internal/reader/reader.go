// Released under an MIT license. See LICENSE.

// Package reader encapsulates the rho lexer and parser.
package reader

import (
	"errors"
	"strings"

	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/struct/srcref"
	"github.com/rho-lang/rho/internal/common/struct/token"
	"github.com/rho-lang/rho/internal/common/type/vec"
	"github.com/rho-lang/rho/internal/reader/lexer"
	"github.com/rho-lang/rho/internal/reader/parser"
)

// T (reader) accumulates input lines and parses them once they form
// one or more complete expressions.
type T struct {
	name     string
	lines    []string
	pipeBind bool
}

type reader = T

// New creates a new reader for name.
func New(name string) *T {
	return &reader{name: name}
}

// EnablePipeBind allows the => pipe-bind form in parsed input.
func (r *reader) EnablePipeBind() {
	r.pipeBind = true
}

// Pending returns true if the reader is waiting for the rest of an
// expression.
func (r *reader) Pending() bool {
	return len(r.lines) > 0
}

// Scan adds a line of input. It returns an expression vector when the
// accumulated input parses completely, nil when more input is needed,
// and an error when the input cannot parse.
func (r *reader) Scan(line string) (cell.I, error) {
	r.lines = append(r.lines, line)

	source := strings.Join(r.lines, "\n")

	v, err := Parse(r.name, source, r.pipeBind)
	if err != nil {
		if errors.Is(err, parser.ErrIncomplete) {
			return nil, nil
		}

		r.lines = nil

		return nil, err
	}

	r.lines = nil

	return v, nil
}

// Parse parses a complete source text into an expression vector with
// srcfile, wholeSrcref, and parseData attributes attached.
func Parse(name, source string, pipeBind bool) (*vec.T, error) {
	l := lexer.New(name)
	l.Scan(source)
	l.Done()

	p := parser.New(func() *token.T {
		t := l.Token()
		if t.Is(token.Error) {
			panic(l.Err())
		}

		return t
	})

	if pipeBind {
		p.EnablePipeBind()
	}

	exprs, err := p.Parse()
	if err != nil {
		return nil, err
	}

	v := vec.FromElts(vec.Expr, exprs)

	v.SetAttr("srcfile", vec.Str(name))
	v.SetAttr("wholeSrcref", wholeSrcref(name, source))
	v.SetAttr("parseData", parseData(p.Data()))

	return v, nil
}

// ParseData shapes the parse-data table the way user code sees it: an
// 8xN integer matrix with parallel tokens and text vectors.
func parseData(d *parser.Data) *vec.T {
	m := d.Matrix()

	m.SetAttr("tokens", d.TokenNames())
	m.SetAttr("text", d.Text())
	m.SetAttr("class", vec.Str("parseData"))

	return m
}

func wholeSrcref(name, source string) *vec.T {
	lines := strings.Count(source, "\n")
	if !strings.HasSuffix(source, "\n") {
		lines++
	}

	r := srcref.Whole(name, lines)

	v := vec.New(vec.Integer, 6)
	ints := v.Integers()
	ints[0] = int32(r.FirstLine)
	ints[1] = int32(r.FirstByte)
	ints[2] = int32(r.LastLine)
	ints[3] = int32(r.LastByte)
	ints[4] = int32(r.FirstColumn)
	ints[5] = int32(r.LastColumn)

	return v
}
