package interp

import (
	"sync"
	"time"
)

// Clock supplies the animation time, in seconds.
type Clock interface {
	Elapsed() float32
}

// WallClock runs freely from the moment it is created.
type WallClock struct {
	start time.Time
}

// NewWallClock returns a clock starting now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Elapsed returns the seconds since the clock was created.
func (c *WallClock) Elapsed() float32 {
	return float32(time.Since(c.start).Seconds())
}

// ManualClock only moves when told to. Use it for tests and
// deterministic replays.
type ManualClock struct {
	mu sync.Mutex
	t  float32
}

// NewManualClock returns a clock reading t seconds.
func NewManualClock(t float32) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Elapsed() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t seconds.
func (c *ManualClock) Set(t float32) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t += float32(d.Seconds())
	c.mu.Unlock()
}
