// Package filetable holds the rendered line tables of a paste, one table per
// file, and implements highlight.Document over them.
package filetable

import (
	"html/template"
	"strings"

	"github.com/ziadkadry99/pastemark/internal/highlight"
)

// Row is one rendered source line.
type Row struct {
	Index       int
	Code        template.HTML
	Highlighted bool
}

// Number is the 1-based line number shown in the gutter.
func (r Row) Number() int { return r.Index + 1 }

// Table is the rendered rows of one file.
type Table struct {
	Name  string
	Lexer string
	Rows  []Row
}

// Position addresses one row.
type Position struct {
	File int
	Row  int
}

// Document is an in-memory page: the tables plus an address bar and the
// last scroll position. Setting a different address queues a hashchange
// that NextEvent hands back, like a browser would after the current task.
type Document struct {
	Tables []*Table

	address  string
	scrolled *Position
	queue    []highlight.HashChange
}

var _ highlight.Navigator = (*Document)(nil)

// NewDocument wraps tables with an empty address bar.
func NewDocument(tables []*Table) *Document {
	return &Document{Tables: tables}
}

// Layout returns the row count of every table.
func (d *Document) Layout() highlight.Layout {
	layout := make(highlight.Layout, len(d.Tables))
	for i, t := range d.Tables {
		layout[i] = len(t.Rows)
	}
	return layout
}

// LineCount returns the total number of rows across all tables.
func (d *Document) LineCount() int {
	n := 0
	for _, t := range d.Tables {
		n += len(t.Rows)
	}
	return n
}

// Clone returns a copy whose rows and address can change independently.
func (d *Document) Clone() *Document {
	out := &Document{Tables: make([]*Table, len(d.Tables)), address: d.address}
	for i, t := range d.Tables {
		rows := make([]Row, len(t.Rows))
		copy(rows, t.Rows)
		out.Tables[i] = &Table{Name: t.Name, Lexer: t.Lexer, Rows: rows}
	}
	return out
}

// ToggleHighlight flips the highlight of one row. References outside the
// document are ignored.
func (d *Document) ToggleHighlight(file, row int) {
	if file < 0 || file >= len(d.Tables) {
		return
	}
	rows := d.Tables[file].Rows
	if row < 0 || row >= len(rows) {
		return
	}
	rows[row].Highlighted = !rows[row].Highlighted
}

// SetAddress replaces the fragment, dropping a leading '#'.
func (d *Document) SetAddress(fragment string) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == d.address {
		return
	}
	d.queue = append(d.queue, highlight.HashChange{Old: d.address, New: fragment})
	d.address = fragment
}

// ScrollTo records row as the one brought into view.
func (d *Document) ScrollTo(file, row int) {
	d.scrolled = &Position{File: file, Row: row}
}

// NextEvent pops the oldest queued hashchange.
func (d *Document) NextEvent() (highlight.Event, bool) {
	if len(d.queue) == 0 {
		return nil, false
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	return ev, true
}

// Address returns the current fragment without '#'.
func (d *Document) Address() string { return d.address }

// Scrolled returns the row last scrolled into view.
func (d *Document) Scrolled() (Position, bool) {
	if d.scrolled == nil {
		return Position{}, false
	}
	return *d.scrolled, true
}

// Highlighted returns the highlighted row indices of one table.
func (d *Document) Highlighted(file int) []int {
	if file < 0 || file >= len(d.Tables) {
		return nil
	}
	var out []int
	for _, r := range d.Tables[file].Rows {
		if r.Highlighted {
			out = append(out, r.Index)
		}
	}
	return out
}

// Open loads fragment into a fresh controller for d, highlighting the rows
// it names, and returns the controller for further events.
func (d *Document) Open(fragment string) *highlight.Controller {
	d.address = strings.TrimPrefix(fragment, "#")
	c := highlight.New(d.Layout())
	highlight.Dispatch(c, d, highlight.Load{Fragment: d.address})
	return c
}
