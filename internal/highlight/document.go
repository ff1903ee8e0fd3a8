package highlight

import (
	"strconv"
	"strings"
)

// Document is the rendered page the effects act on.
type Document interface {
	ToggleHighlight(file, row int)
	SetAddress(fragment string)
	ScrollTo(file, row int)
}

// Navigator is a Document that queues the navigation events caused by
// SetAddress, the way a browser queues hashchange after the current task.
type Navigator interface {
	Document
	NextEvent() (Event, bool)
}

// Apply carries out effects against doc in order.
func Apply(doc Document, effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectToggle:
			doc.ToggleHighlight(e.File, e.Row)
		case EffectWriteAddress:
			doc.SetAddress(e.Fragment)
		case EffectScroll:
			doc.ScrollTo(e.File, e.Row)
		}
	}
}

// Dispatch handles ev, applies its effects and then every event doc queued
// in response, until the queue is empty. Each event completes before the
// next one is handled.
func Dispatch(c *Controller, doc Document, ev Event) {
	nav, queues := doc.(Navigator)
	for {
		Apply(doc, c.Handle(ev))
		if !queues {
			return
		}
		var ok bool
		if ev, ok = nav.NextEvent(); !ok {
			return
		}
	}
}

// gutterClass marks the line number cell of a row.
const gutterClass = "linenos"

// Target describes the element a click landed on.
type Target struct {
	Classes []string `json:"classes"`
	// LineNumber is the element's own data-line-number, if any.
	LineNumber string `json:"line_number"`
	// ChildLineNumber is the data-line-number of its first child element.
	ChildLineNumber string `json:"child_line_number"`
}

// LineIndex resolves the zero-based line index the click refers to. A
// gutter cell carries the number on its first child; any other element
// must carry it itself.
func (t Target) LineIndex() (int, bool) {
	raw := t.LineNumber
	for _, c := range t.Classes {
		if c == gutterClass {
			raw = t.ChildLineNumber
			break
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// ClickOn builds the Click event for a click on target inside file, or
// reports false when the target is not a line.
func ClickOn(file int, target Target, shift bool) (Click, bool) {
	line, ok := target.LineIndex()
	if !ok {
		return Click{}, false
	}
	return Click{File: file, Line: line, Shift: shift}, true
}
