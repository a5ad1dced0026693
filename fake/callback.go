// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/wsflush/api"
)

// Callback records its outcome and trips on double completion.
type Callback struct {
	mu        sync.Mutex
	completed bool
	double    bool
	err       error
	done      chan struct{}
}

// NewCallback returns an unfired Callback.
func NewCallback() *Callback {
	return &Callback{done: make(chan struct{})}
}

// Succeeded implements api.Callback.
func (c *Callback) Succeeded() { c.complete(nil) }

// Failed implements api.Callback.
func (c *Callback) Failed(err error) { c.complete(err) }

func (c *Callback) complete(err error) {
	c.mu.Lock()
	if c.completed {
		c.double = true
		c.mu.Unlock()
		return
	}
	c.completed = true
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

// Done is closed on first completion.
func (c *Callback) Done() <-chan struct{} { return c.done }

// Completed reports whether the callback has fired.
func (c *Callback) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Err returns the recorded failure, nil after success.
func (c *Callback) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DoubleCompleted reports whether the callback fired more than once.
func (c *Callback) DoubleCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.double
}

var _ api.Callback = (*Callback)(nil)
