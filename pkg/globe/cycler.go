package globe

import "time"

// AdvanceInterval is the period of the auto-advance timer.
const AdvanceInterval = 5000 * time.Millisecond

// LocationCycler owns the current-city index.
type LocationCycler struct {
	count    int
	current  int
	busy     func() bool
	onChange func(index int)

	// manual is set by Select and consumed by the next Tick.
	manual bool
}

// NewLocationCycler returns a cycler over count locations starting at 0. busy is
// consulted before auto-advancing; onChange runs whenever the index changes.
func NewLocationCycler(count int, busy func() bool, onChange func(index int)) *LocationCycler {
	return &LocationCycler{count: count, busy: busy, onChange: onChange}
}

func (c *LocationCycler) Current() int { return c.current }

func (c *LocationCycler) Count() int { return c.count }

// Tick is the auto-advance timer body. It moves to the next location unless a camera
// transition is running or a manual selection happened since the previous tick. It
// reports whether the index changed.
func (c *LocationCycler) Tick() bool {
	if c.manual {
		c.manual = false
		return false
	}
	if c.count == 0 || (c.busy != nil && c.busy()) {
		return false
	}
	c.set((c.current + 1) % c.count)
	return true
}

// Select jumps to index n. Out-of-range indices are rejected.
func (c *LocationCycler) Select(n int) bool {
	if n < 0 || n >= c.count {
		return false
	}
	c.manual = true
	if n != c.current {
		c.set(n)
	}
	return true
}

func (c *LocationCycler) set(n int) {
	c.current = n
	if c.onChange != nil {
		c.onChange(n)
	}
}
