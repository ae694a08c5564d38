// internal/state/errors.go
package state

import "sync/atomic"

// ErrorCounter is the process-wide failed-operation counter surfaced in
// health reports. Any component may increment it; it only ever grows.
type ErrorCounter struct {
	n atomic.Uint64
}

// Inc records one failed operation.
func (c *ErrorCounter) Inc() {
	c.n.Add(1)
}

// Value returns the total so far.
func (c *ErrorCounter) Value() uint64 {
	return c.n.Load()
}
