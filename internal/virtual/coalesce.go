package virtual

import "time"

// FrameInterval is the paint cadence scroll and resize recomputes are
// coalesced to.
const FrameInterval = time.Second / 60

// Coalescer keeps at most one recompute pending. Requests made while one is
// pending fold into it; the recompute then sees the latest state.
type Coalescer struct {
	pending bool
	merged  int
}

// Request returns true when the caller must schedule a new frame.
func (c *Coalescer) Request() bool {
	if c.pending {
		c.merged++
		return false
	}
	c.pending = true
	return true
}

// Fire consumes the pending request. It returns false for a stale frame
// (nothing pending, e.g. after Reset).
func (c *Coalescer) Fire() bool {
	if !c.pending {
		return false
	}
	c.pending = false
	c.merged = 0
	return true
}

func (c *Coalescer) Pending() bool { return c.pending }

// Merged counts requests folded into the pending frame.
func (c *Coalescer) Merged() int { return c.merged }

// Reset drops any pending request.
func (c *Coalescer) Reset() {
	c.pending = false
	c.merged = 0
}
