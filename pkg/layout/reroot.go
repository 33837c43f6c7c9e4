package layout

import (
	"sync"

	"github.com/matzehuels/kintree/pkg/family"
)

// Controller remembers the focus person between layouts of the same family,
// as an interactive viewer does when the user picks a person to centre on.
//
// The focus only changes which person seeds generation assignment; the
// input people are never modified. A Controller is safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	focus string
	opts  []Option
}

// NewController returns a Controller that applies opts to every layout.
// A [WithFocus] option sets the initial focus.
func NewController(opts ...Option) *Controller {
	return &Controller{
		focus: newEngine(opts...).focus,
		opts:  opts,
	}
}

// Layout lays out people around the current focus, or from the default
// roots when there is none.
func (c *Controller) Layout(people []family.Person) Result {
	c.mu.Lock()
	focus := c.focus
	c.mu.Unlock()
	return Compute(people, c.options(focus)...)
}

// Reroot makes focusID the current focus and lays out people around it. An
// id not present in people is not remembered; the result then uses the
// default roots and reports Diagnostics.UnresolvedFocus.
func (c *Controller) Reroot(people []family.Person, focusID string) Result {
	res := Compute(people, c.options(focusID)...)
	if !res.Diagnostics.UnresolvedFocus {
		c.mu.Lock()
		c.focus = res.Focus
		c.mu.Unlock()
	}
	return res
}

// Focus returns the current focus id, or "" when none is set.
func (c *Controller) Focus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// Reset clears the focus.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.focus = ""
	c.mu.Unlock()
}

func (c *Controller) options(focus string) []Option {
	opts := make([]Option, 0, len(c.opts)+1)
	opts = append(opts, c.opts...)
	return append(opts, WithFocus(focus))
}
