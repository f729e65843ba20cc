package lib

import (
	"sync"
	"time"
)

// Clock is the time source of the node. The escrow logic never reads
// time.Now directly so tests can drive the termination window.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock for tests, advanced explicitly and never moving
// backwards.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if d < 0 {
		panic("clock cannot move backwards")
	}
	c.now = c.now.Add(d)
}
