// Package counter holds the click counter shown by the view.
package counter

import "sync/atomic"

// Counter is a non-negative integer that only ever grows by one. The zero
// value is ready to use and starts at 0.
type Counter struct {
	value atomic.Int64
}

// New returns a counter at 0.
func New() *Counter {
	return &Counter{}
}

// Increment adds exactly one and returns the new value.
func (c *Counter) Increment() int64 {
	return c.value.Add(1)
}

// Value returns the current value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}
