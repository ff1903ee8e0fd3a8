// Package highlight keeps line highlighting of a rendered paste in sync with
// the address fragment. The logic is a reducer over page events that emits
// explicit side effects, so it runs the same in a browser session, a static
// export or a test.
package highlight

import (
	"github.com/ziadkadry99/pastemark/internal/address"
)

// Layout holds the row count of every rendered file table, in page order.
type Layout []int

// Rows returns the row count of file, or 0 for a file that is not rendered.
func (l Layout) Rows(file int) int {
	if file < 0 || file >= len(l) {
		return 0
	}
	return l[file]
}

// State is everything the controller remembers between events.
type State struct {
	// Spec is the live selection.
	Spec address.Spec
	// Address is the fragment currently in the address bar.
	Address string
	// ChangedByClick is set right before the controller writes the address
	// and cleared by the next HashChange.
	ChangedByClick bool
}

// Reduce applies ev to s and returns the new state with the effects to run,
// in order. s is not modified.
func Reduce(s State, layout Layout, ev Event) (State, []Effect) {
	next := State{Spec: s.Spec.Clone(), Address: s.Address, ChangedByClick: s.ChangedByClick}
	if next.Spec == nil {
		next.Spec = address.Spec{}
	}

	switch ev := ev.(type) {
	case Load:
		return reduceLoad(next, layout, ev)
	case Click:
		return reduceClick(next, layout, ev)
	case HashChange:
		return reduceHashChange(next, layout, ev)
	}
	return next, nil
}

func reduceLoad(s State, layout Layout, ev Load) (State, []Effect) {
	if ev.Fragment == "" {
		return s, nil
	}
	spec := address.Decode(ev.Fragment)
	s.Spec = spec
	s.Address = ev.Fragment

	effects := toggles(nil, layout, spec)
	if first, ok := firstRow(layout, spec); ok {
		effects = append(effects, first)
	}
	return s, effects
}

func reduceClick(s State, layout Layout, ev Click) (State, []Effect) {
	if ev.Line < 0 || ev.Line >= layout.Rows(ev.File) {
		return s, nil
	}

	if existing, ok := s.Spec[ev.File]; ok && ev.Shift {
		s.Spec[ev.File] = existing.Extend(ev.Line)
	} else {
		s.Spec[ev.File] = address.Line(ev.Line)
	}

	fragment, err := address.Encode(s.Spec)
	if err != nil || fragment == s.Address {
		// Rewriting an identical fragment fires no navigation, so the
		// self-originated flag must not be set.
		return s, nil
	}
	s.ChangedByClick = true
	return s, []Effect{WriteAddress(fragment)}
}

func reduceHashChange(s State, layout Layout, ev HashChange) (State, []Effect) {
	byClick := s.ChangedByClick
	s.ChangedByClick = false

	prev := address.Decode(ev.Old)
	spec := address.Decode(ev.New)

	effects := toggles(nil, layout, prev)
	effects = toggles(effects, layout, spec)
	if !byClick {
		if first, ok := firstRow(layout, spec); ok {
			effects = append(effects, first)
		}
	}

	s.Spec = spec
	s.Address = ev.New
	return s, effects
}

// toggles appends one toggle per rendered row of spec, files ascending.
func toggles(effects []Effect, layout Layout, spec address.Spec) []Effect {
	for _, f := range spec.Files() {
		r, ok := spec[f].Clamp(layout.Rows(f))
		if !ok {
			continue
		}
		for row := r.Start; row <= r.End; row++ {
			effects = append(effects, Toggle(f, row))
		}
	}
	return effects
}

func firstRow(layout Layout, spec address.Spec) (Effect, bool) {
	for _, f := range spec.Files() {
		if r, ok := spec[f].Clamp(layout.Rows(f)); ok {
			return ScrollTo(f, r.Start), true
		}
	}
	return Effect{}, false
}

// Controller owns the highlight state of one page for its lifetime.
type Controller struct {
	layout Layout
	state  State
}

// New creates a controller for a page with the given tables.
func New(layout Layout) *Controller {
	return &Controller{
		layout: append(Layout(nil), layout...),
		state:  State{Spec: address.Spec{}},
	}
}

// Handle applies one event and returns the effects to carry out.
func (c *Controller) Handle(ev Event) []Effect {
	var effects []Effect
	c.state, effects = Reduce(c.state, c.layout, ev)
	return effects
}

// Spec returns a copy of the live selection.
func (c *Controller) Spec() address.Spec { return c.state.Spec.Clone() }

// Address returns the fragment the controller believes is current.
func (c *Controller) Address() string { return c.state.Address }

// Layout returns the row counts the controller was built with.
func (c *Controller) Layout() Layout { return append(Layout(nil), c.layout...) }
