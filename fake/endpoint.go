// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the core interfaces.

package fake

import (
	"sync"

	"github.com/momentics/wsflush/api"
)

// Endpoint is a controllable api.Endpoint that records every gather write.
//
// In the default mode each write completes successfully on the calling
// goroutine. Scripted failures fail writes in submission order. In manual
// mode completions are held until the test fires them, which is how tests
// park the flusher in its pending state.
type Endpoint struct {
	mu      sync.Mutex
	writes  [][][]byte
	pending []api.Callback
	manual  bool
	failErr []error
}

// NewEndpoint returns an Endpoint completing every write immediately.
func NewEndpoint() *Endpoint {
	return &Endpoint{}
}

// SetManual switches completion to manual control.
func (e *Endpoint) SetManual(manual bool) {
	e.mu.Lock()
	e.manual = manual
	e.mu.Unlock()
}

// FailWith appends errs to the failure script; each subsequent write
// consumes one error until the script is exhausted.
func (e *Endpoint) FailWith(errs ...error) {
	e.mu.Lock()
	e.failErr = append(e.failErr, errs...)
	e.mu.Unlock()
}

// Write implements api.Endpoint.
func (e *Endpoint) Write(cb api.Callback, bufs ...[]byte) {
	rec := make([][]byte, len(bufs))
	for i, b := range bufs {
		c := make([]byte, len(b))
		copy(c, b)
		rec[i] = c
	}

	e.mu.Lock()
	e.writes = append(e.writes, rec)
	if e.manual {
		e.pending = append(e.pending, cb)
		e.mu.Unlock()
		return
	}
	var fail error
	if len(e.failErr) > 0 {
		fail, e.failErr = e.failErr[0], e.failErr[1:]
	}
	e.mu.Unlock()

	if fail != nil {
		cb.Failed(fail)
		return
	}
	cb.Succeeded()
}

// CompleteNext fires the oldest held completion successfully.
// Returns false when nothing is pending.
func (e *Endpoint) CompleteNext() bool {
	cb := e.takePending()
	if cb == nil {
		return false
	}
	cb.Succeeded()
	return true
}

// FailNext fires the oldest held completion with err.
func (e *Endpoint) FailNext(err error) bool {
	cb := e.takePending()
	if cb == nil {
		return false
	}
	cb.Failed(err)
	return true
}

func (e *Endpoint) takePending() api.Callback {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return nil
	}
	cb := e.pending[0]
	e.pending = e.pending[1:]
	return cb
}

// WriteCount reports how many gather writes were issued.
func (e *Endpoint) WriteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.writes)
}

// PendingCount reports completions held in manual mode.
func (e *Endpoint) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Writes returns the recorded gather lists.
func (e *Endpoint) Writes() [][][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][][]byte, len(e.writes))
	copy(out, e.writes)
	return out
}

// Bytes concatenates every range of write i.
func (e *Endpoint) Bytes(i int) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []byte
	for _, b := range e.writes[i] {
		out = append(out, b...)
	}
	return out
}

var _ api.Endpoint = (*Endpoint)(nil)
