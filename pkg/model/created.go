package model

import (
	"sync"
	"time"
)

// CreationClock stamps createdAt values that never repeat or go backwards,
// even when the wall clock does. The zero value is ready to use.
type CreationClock struct {
	mu   sync.Mutex
	last int64
}

// Next returns now in epoch ms, raised above every value seen so far
func (c *CreationClock) Next(now time.Time) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := now.UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Observe raises the floor to the newest createdAt of memories written by
// anyone else
func (c *CreationClock) Observe(memories []*Memory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range memories {
		if m != nil && m.CreatedAt > c.last {
			c.last = m.CreatedAt
		}
	}
}
