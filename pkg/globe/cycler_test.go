package globe

import "testing"

func TestLocationCyclerWrapsAround(t *testing.T) {
	for _, count := range []int{1, 2, 7} {
		var changes []int
		c := NewLocationCycler(count, nil, func(i int) { changes = append(changes, i) })
		for n := 1; n <= 3*count+2; n++ {
			c.Tick()
			if c.Current() != n%count {
				t.Fatalf("count=%d: after %d ticks current=%d; want %d", count, n, c.Current(), n%count)
			}
		}
		if len(changes) != 3*count+2 {
			t.Errorf("count=%d: onChange ran %d times", count, len(changes))
		}
	}
}

func TestLocationCyclerSkipsWhileBusy(t *testing.T) {
	busy := true
	changed := 0
	c := NewLocationCycler(3, func() bool { return busy }, func(int) { changed++ })

	if c.Tick() {
		t.Errorf("Tick advanced while busy")
	}
	if c.Current() != 0 || changed != 0 {
		t.Errorf("state changed while busy: current=%d changed=%d", c.Current(), changed)
	}

	busy = false
	if !c.Tick() || c.Current() != 1 {
		t.Errorf("Tick did not advance once idle, current=%d", c.Current())
	}
}

func TestLocationCyclerSelect(t *testing.T) {
	var changes []int
	c := NewLocationCycler(4, nil, func(i int) { changes = append(changes, i) })

	tests := []struct {
		n       int
		ok      bool
		current int
	}{
		{-1, false, 0},
		{4, false, 0},
		{2, true, 2},
		{2, true, 2},
		{0, true, 0},
		{3, true, 3},
	}
	for _, tt := range tests {
		if got := c.Select(tt.n); got != tt.ok {
			t.Errorf("Select(%d) = %v; want %v", tt.n, got, tt.ok)
		}
		if c.Current() != tt.current {
			t.Errorf("after Select(%d) current=%d; want %d", tt.n, c.Current(), tt.current)
		}
	}
	// Re-selecting the current index is accepted but does not fire onChange.
	want := []int{2, 0, 3}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v; want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("changes = %v; want %v", changes, want)
		}
	}
}

func TestLocationCyclerManualSelectionConsumesNextTick(t *testing.T) {
	c := NewLocationCycler(5, nil, nil)
	c.Select(3)

	if c.Tick() {
		t.Errorf("first tick after a manual selection should not advance")
	}
	if c.Current() != 3 {
		t.Errorf("current = %d; want 3", c.Current())
	}
	if !c.Tick() || c.Current() != 4 {
		t.Errorf("second tick should advance to 4, got %d", c.Current())
	}
	c.Tick()
	if c.Current() != 0 {
		t.Errorf("expected wrap to 0, got %d", c.Current())
	}
}
