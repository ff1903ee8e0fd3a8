package highlight

import "fmt"

// Event is an input to the controller.
type Event interface {
	event()
}

// Load is the initial page load with the fragment currently in the address bar.
type Load struct {
	Fragment string
}

// Click is a click inside file table File. Line is the zero-based line
// index; use Target to resolve it from the clicked element first.
type Click struct {
	File  int
	Line  int
	Shift bool
}

// HashChange is a change of the address fragment for any reason: the
// controller's own write, back/forward or manual edits.
type HashChange struct {
	Old string
	New string
}

func (Load) event()       {}
func (Click) event()      {}
func (HashChange) event() {}

// EffectKind names a side effect command.
type EffectKind string

const (
	EffectToggle       EffectKind = "toggle"
	EffectWriteAddress EffectKind = "write_address"
	EffectScroll       EffectKind = "scroll"
)

// Effect is a side effect the caller must carry out against the document.
type Effect struct {
	Kind     EffectKind `json:"kind"`
	File     int        `json:"file"`
	Row      int        `json:"row"`
	Fragment string     `json:"fragment,omitempty"`
}

// Toggle flips the highlight marker of one row.
func Toggle(file, row int) Effect { return Effect{Kind: EffectToggle, File: file, Row: row} }

// WriteAddress replaces the address fragment.
func WriteAddress(fragment string) Effect {
	return Effect{Kind: EffectWriteAddress, Fragment: fragment}
}

// ScrollTo brings one row into view.
func ScrollTo(file, row int) Effect { return Effect{Kind: EffectScroll, File: file, Row: row} }

func (e Effect) String() string {
	switch e.Kind {
	case EffectWriteAddress:
		return fmt.Sprintf("write_address(%q)", e.Fragment)
	default:
		return fmt.Sprintf("%s(%d,%d)", e.Kind, e.File, e.Row)
	}
}
