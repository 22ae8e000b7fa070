package browse

import "strings"

// Coordinator owns the query state and the scroll offset. UI handlers are
// its only callers; each mutator reports whether the view must be
// recomputed, and every recompute starts back at the top.
type Coordinator struct {
	q      Query
	offset float64
	// autoTitle is set when grid search flipped random to title on the
	// user's behalf, so clearing the search can flip it back.
	autoTitle bool
}

func NewCoordinator(q Query) *Coordinator {
	if q.Sort == "" {
		q.Sort = SortTitle
	}
	if q.View == "" {
		q.View = ViewList
	}
	if q.Match == "" {
		q.Match = MatchContains
	}
	return &Coordinator{q: q}
}

func (c *Coordinator) Query() Query    { return c.q }
func (c *Coordinator) Offset() float64 { return c.offset }
func (c *Coordinator) SetOffset(o float64) {
	if o < 0 {
		o = 0
	}
	c.offset = o
}

// ToggleView switches between list and grid.
func (c *Coordinator) ToggleView() bool {
	if c.q.View == ViewGrid {
		return c.SetView(ViewList)
	}
	return c.SetView(ViewGrid)
}

// SetView enters a view mode, adjusting the sort to that mode's default:
// grid browses in random order, list does not.
func (c *Coordinator) SetView(v ViewMode) bool {
	if c.q.View == v {
		return false
	}
	c.q.View = v
	c.autoTitle = false
	switch {
	case v == ViewGrid && c.q.Sort != SortRandom:
		c.q.Sort = SortRandom
	case v == ViewList && c.q.Sort == SortRandom:
		c.q.Sort = SortTitle
	}
	return c.changed()
}

// SetSearch updates the search text. In grid mode a search moves random
// order to title order, and clearing it moves back if that switch was
// automatic.
func (c *Coordinator) SetSearch(text string) bool {
	if text == c.q.Search {
		return false
	}
	was := strings.TrimSpace(c.q.Search) != ""
	now := strings.TrimSpace(text) != ""
	c.q.Search = text

	if c.q.View == ViewGrid {
		switch {
		case !was && now && c.q.Sort == SortRandom:
			c.q.Sort = SortTitle
			c.autoTitle = true
		case was && !now && c.q.Sort == SortTitle && c.autoTitle:
			c.q.Sort = SortRandom
			c.autoTitle = false
		}
	}
	return c.changed()
}

func (c *Coordinator) SetConsole(console string) bool {
	if console == c.q.Console {
		return false
	}
	c.q.Console = console
	return c.changed()
}

// SetSort is an explicit user choice and forgets any automatic switch.
// Random is always recomputed so a reshuffle is just re-selecting it.
func (c *Coordinator) SetSort(s SortMode) bool {
	c.autoTitle = false
	if s == c.q.Sort && s != SortRandom {
		return false
	}
	c.q.Sort = s
	return c.changed()
}

func (c *Coordinator) CycleSort() bool { return c.SetSort(c.q.Sort.Next()) }

func (c *Coordinator) SetMatch(m MatchMode) bool {
	if m == c.q.Match {
		return false
	}
	c.q.Match = m
	return c.changed()
}

func (c *Coordinator) changed() bool {
	c.offset = 0
	return true
}
