// Released under an MIT license. See LICENSE.

package parser

import (
	"github.com/rho-lang/rho/internal/common/struct/loc"
	"github.com/rho-lang/rho/internal/common/struct/token"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

// Unclaimed marks a row whose parent has not been discovered yet.
const unclaimed = -1

// Row is one entry in the parse-data table.
type Row struct {
	Line1, Col1 int
	Line2, Col2 int
	Terminal    int
	Token       int
	ID          int
	Parent      int

	Name string
	Text string
}

// Data collects one row per token plus one per reduced expression.
type Data struct {
	rows []Row
	next int

	comments []int // Row indexes of comments awaiting a parent.
}

// Rows returns the collected rows.
func (d *Data) Rows() []Row {
	return d.rows
}

// Matrix returns the 8xN integer matrix form of the table: line1,
// col1, line2, col2, terminal, token, id, parent per column.
func (d *Data) Matrix() *vec.T {
	n := len(d.rows)
	m := vec.New(vec.Integer, 8*n)
	ints := m.Integers()

	for i, r := range d.rows {
		ints[i*8+0] = int32(r.Line1)
		ints[i*8+1] = int32(r.Col1)
		ints[i*8+2] = int32(r.Line2)
		ints[i*8+3] = int32(r.Col2)
		ints[i*8+4] = int32(r.Terminal)
		ints[i*8+5] = int32(r.Token)
		ints[i*8+6] = int32(r.ID)
		ints[i*8+7] = int32(r.Parent)
	}

	dim := vec.New(vec.Integer, 2)
	dim.Integers()[0] = 8
	dim.Integers()[1] = int32(n)
	m.SetAttr("dim", dim)

	return m
}

// TokenNames returns the parallel vector of token class names.
func (d *Data) TokenNames() *vec.T {
	v := vec.New(vec.Character, len(d.rows))
	chr := v.Strings()

	for i, r := range d.rows {
		chr[i] = r.Name
	}

	return v
}

// Text returns the parallel vector of token text.
func (d *Data) Text() *vec.T {
	v := vec.New(vec.Character, len(d.rows))
	chr := v.Strings()

	for i, r := range d.rows {
		chr[i] = r.Text
	}

	return v
}

// Comment records a comment token. Its parent is the next top-level
// expression, or 0 if there is none.
func (d *Data) comment(t *token.T) {
	d.comments = append(d.comments, len(d.rows))
	d.add(t.Source(), t.End(), 1, int(t.Class()), t.Class().String(), t.Value(), 0)
}

// Finish resolves all still-pending parents to the top level.
func (d *Data) finish() {
	for i := range d.rows {
		if d.rows[i].Parent == unclaimed {
			d.rows[i].Parent = 0
		}
	}

	d.comments = nil
}

// Mark returns a position for a later node() call.
func (d *Data) mark() int {
	return len(d.rows)
}

// Node adds an expression row spanning rows[start:] and claims every
// row in that range whose parent is still undiscovered.
func (d *Data) node(start int, first, last *loc.T) int {
	id := d.add(first, last, 0, 0, "expr", "", unclaimed)

	for i := start; i < len(d.rows)-1; i++ {
		if d.rows[i].Parent == unclaimed {
			d.rows[i].Parent = id
		}
	}

	return id
}

// Pending reports whether the final row is an expression that spans
// rows[start:] and is still unparented. Used to avoid stacking a
// second identical expression node on top of a reduction.
func (d *Data) pending(start int) (int, bool) {
	n := len(d.rows)
	if n == 0 || n <= start {
		return 0, false
	}

	r := d.rows[n-1]
	if r.Terminal != 0 || r.Parent != unclaimed {
		return 0, false
	}

	for i := start; i < n-1; i++ {
		if d.rows[i].Parent == unclaimed {
			return 0, false
		}
	}

	return r.ID, true
}

// Terminal records a consumed token.
func (d *Data) terminal(t *token.T) int {
	return d.add(t.Source(), t.End(), 1, int(t.Class()), t.Class().String(), t.Value(), unclaimed)
}

// TopLevel attaches pending comments to the top-level expression id.
func (d *Data) topLevel(id int) {
	for _, i := range d.comments {
		d.rows[i].Parent = id
	}

	d.comments = nil
}

func (d *Data) add(first, last *loc.T, terminal, tok int, name, text string, parent int) int {
	d.next++

	col2 := last.Byte - 1
	line2 := last.Line

	if col2 < 1 {
		// The token ended exactly at a line break.
		line2--
		col2 = first.Byte
	}

	d.rows = append(d.rows, Row{
		Line1:    first.Line,
		Col1:     first.Byte,
		Line2:    line2,
		Col2:     col2,
		Terminal: terminal,
		Token:    tok,
		ID:       d.next,
		Parent:   parent,
		Name:     name,
		Text:     text,
	})

	return d.next
}
