// Package host provides the cooperative, single-threaded environment a scene runs in.
// It plays the part a browser plays for a web page: per-frame callbacks, repeating
// timers and resize listeners, all dispatched from one goroutine via Step. Other
// goroutines hand work in through Post.
package host

import (
	"context"
	"sync"
	"time"
)

// Handle identifies a registration made against an Env. The zero Handle is never issued.
type Handle uint64

type frameSub struct {
	id        Handle
	fn        func(now time.Time)
	cancelled bool
}

type interval struct {
	id        Handle
	period    time.Duration
	next      time.Time
	armed     bool
	fn        func()
	cancelled bool
}

type resizeSub struct {
	id        Handle
	fn        func(width, height int)
	cancelled bool
}

// Env is the scheduler. All methods except Post must be called from the goroutine that
// calls Step.
type Env struct {
	postMu sync.Mutex
	posted []func()

	lastID  Handle
	frames  []*frameSub
	timers  []*interval
	resizes []*resizeSub

	width, height int
	now           time.Time
}

func NewEnv(width, height int) *Env {
	return &Env{width: width, height: height}
}

func (e *Env) nextHandle() Handle {
	e.lastID++
	return e.lastID
}

// OnFrame registers fn to be called once per Step until cancelled.
func (e *Env) OnFrame(fn func(now time.Time)) Handle {
	sub := &frameSub{id: e.nextHandle(), fn: fn}
	e.frames = append(e.frames, sub)
	return sub.id
}

// SetInterval registers fn to run every period. The first run happens one period after
// the Step following registration.
func (e *Env) SetInterval(period time.Duration, fn func()) Handle {
	t := &interval{id: e.nextHandle(), period: period, fn: fn}
	if !e.now.IsZero() {
		t.next = e.now.Add(period)
		t.armed = true
	}
	e.timers = append(e.timers, t)
	return t.id
}

// OnResize registers fn to be called whenever the viewport size changes.
func (e *Env) OnResize(fn func(width, height int)) Handle {
	sub := &resizeSub{id: e.nextHandle(), fn: fn}
	e.resizes = append(e.resizes, sub)
	return sub.id
}

// Cancel removes the registration behind h. Cancelling an unknown or already cancelled
// handle is a no-op, so it is safe to call from inside the callback being cancelled.
func (e *Env) Cancel(h Handle) {
	if h == 0 {
		return
	}
	for i, s := range e.frames {
		if s.id == h {
			s.cancelled = true
			e.frames = append(e.frames[:i:i], e.frames[i+1:]...)
			return
		}
	}
	for i, t := range e.timers {
		if t.id == h {
			t.cancelled = true
			e.timers = append(e.timers[:i:i], e.timers[i+1:]...)
			return
		}
	}
	for i, r := range e.resizes {
		if r.id == h {
			r.cancelled = true
			e.resizes = append(e.resizes[:i:i], e.resizes[i+1:]...)
			return
		}
	}
}

// Pending reports how many frame callbacks, timers and resize listeners are registered.
func (e *Env) Pending() int {
	return len(e.frames) + len(e.timers) + len(e.resizes)
}

// Post queues fn to run at the start of the next Step. Safe for concurrent use.
func (e *Env) Post(fn func()) {
	e.postMu.Lock()
	e.posted = append(e.posted, fn)
	e.postMu.Unlock()
}

// Size returns the current viewport size.
func (e *Env) Size() (int, int) { return e.width, e.height }

// Now returns the timestamp of the most recent Step.
func (e *Env) Now() time.Time { return e.now }

// Resize updates the viewport and notifies listeners if the size changed.
func (e *Env) Resize(width, height int) {
	if width == e.width && height == e.height {
		return
	}
	e.width, e.height = width, height
	for _, r := range append([]*resizeSub(nil), e.resizes...) {
		if !r.cancelled {
			r.fn(width, height)
		}
	}
}

// Step runs one turn of the loop: posted work, due timers, then frame callbacks. Every
// callback runs to completion before the next one starts. Frame callbacks registered
// during a Step first run on the following one.
func (e *Env) Step(now time.Time) {
	e.now = now
	frames := append([]*frameSub(nil), e.frames...)

	e.postMu.Lock()
	posted := e.posted
	e.posted = nil
	e.postMu.Unlock()
	for _, fn := range posted {
		fn()
	}

	for _, t := range append([]*interval(nil), e.timers...) {
		if t.cancelled {
			continue
		}
		if !t.armed {
			t.next = now.Add(t.period)
			t.armed = true
			continue
		}
		if now.Before(t.next) {
			continue
		}
		t.next = t.next.Add(t.period)
		if !now.Before(t.next) {
			// Fell more than a period behind; coalesce like a browser would.
			t.next = now.Add(t.period)
		}
		t.fn()
	}

	for _, s := range frames {
		if !s.cancelled {
			s.fn(now)
		}
	}
}

// Run steps the environment at the given rate until ctx is cancelled.
func (e *Env) Run(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Step(now)
		}
	}
}
