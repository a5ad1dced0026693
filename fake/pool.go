// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/wsflush/api"
	"github.com/momentics/wsflush/pool"
)

// Pool wraps a real slab pool with an injectable acquire failure and
// release accounting.
type Pool struct {
	mu         sync.Mutex
	inner      *pool.SlabPool
	acquireErr error
	acquires   int
	releases   int
}

// NewPool returns a Pool backed by a fresh slab pool.
func NewPool() *Pool {
	return &Pool{inner: pool.New()}
}

// FailAcquire makes every subsequent Acquire return err (nil restores).
func (p *Pool) FailAcquire(err error) {
	p.mu.Lock()
	p.acquireErr = err
	p.mu.Unlock()
}

// Acquire implements api.BufferPool.
func (p *Pool) Acquire(n int) ([]byte, error) {
	p.mu.Lock()
	err := p.acquireErr
	if err == nil {
		p.acquires++
	}
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return p.inner.Acquire(n)
}

// Release implements api.BufferPool.
func (p *Pool) Release(buf []byte) {
	p.mu.Lock()
	p.releases++
	p.mu.Unlock()
	p.inner.Release(buf)
}

// Stats implements api.BufferPool.
func (p *Pool) Stats() api.BufferPoolStats {
	return p.inner.Stats()
}

// Acquires reports successful acquisitions.
func (p *Pool) Acquires() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires
}

// Releases reports release calls.
func (p *Pool) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

var _ api.BufferPool = (*Pool)(nil)
