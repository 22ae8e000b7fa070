package virtual

import "slices"

// Target is an item waiting for its deferred content (cover art) to load.
type Target struct {
	ID          int
	Top, Bottom float64
	// Eager marks targets already inside the first visible range; they
	// load on the next Update no matter where the viewport is.
	Eager bool
}

// Observer reports when observed targets come near the viewport. Each
// target is reported at most once until Reset.
type Observer interface {
	Observe(t Target)
	Update(viewTop, viewBottom float64) []int
	Reset()
}

// MarginObserver reports targets intersecting the viewport grown by Margin
// on both sides.
type MarginObserver struct {
	Margin  float64
	pending map[int]Target
	done    map[int]bool
}

func NewMarginObserver(margin float64) *MarginObserver {
	return &MarginObserver{Margin: margin, pending: map[int]Target{}, done: map[int]bool{}}
}

func (o *MarginObserver) Observe(t Target) {
	if o.done[t.ID] {
		return
	}
	o.pending[t.ID] = t
}

func (o *MarginObserver) Update(viewTop, viewBottom float64) []int {
	top, bottom := viewTop-o.Margin, viewBottom+o.Margin
	var ready []int
	for id, t := range o.pending {
		if t.Eager || (t.Bottom > top && t.Top < bottom) {
			ready = append(ready, id)
		}
	}
	for _, id := range ready {
		delete(o.pending, id)
		o.done[id] = true
	}
	slices.Sort(ready)
	return ready
}

func (o *MarginObserver) Reset() {
	o.pending = map[int]Target{}
	o.done = map[int]bool{}
}

// EagerObserver is the fallback for presenters without viewport tracking:
// everything observed is reported straight away.
type EagerObserver struct {
	pending []int
	done    map[int]bool
}

func NewEagerObserver() *EagerObserver { return &EagerObserver{done: map[int]bool{}} }

func (o *EagerObserver) Observe(t Target) {
	if o.done[t.ID] {
		return
	}
	o.done[t.ID] = true
	o.pending = append(o.pending, t.ID)
}

func (o *EagerObserver) Update(float64, float64) []int {
	ready := o.pending
	o.pending = nil
	slices.Sort(ready)
	return ready
}

func (o *EagerObserver) Reset() {
	o.pending = nil
	o.done = map[int]bool{}
}
