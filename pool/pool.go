// File: pool/pool.go
// Package pool implements size-classed byte buffer pooling.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffers are binned by power-of-two capacity classes with a bounded
// free list per class. Requests above the largest class are allocated
// directly and dropped to the GC on release.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/wsflush/api"
)

// Predefined buffer size classes (bytes). The smallest class covers frame
// headers, the larger ones write aggregates.
var sizeClasses = [...]int{
	64,
	256,
	1 * 1024,
	4 * 1024,
	16 * 1024,
	64 * 1024,
	256 * 1024,
	1 * 1024 * 1024,
}

const defaultClassCapacity = 256

// sizeClassUpperBound returns the smallest class >= size, or -1 when the
// request exceeds the largest class.
func sizeClassUpperBound(size int) int {
	for _, c := range sizeClasses {
		if size <= c {
			return c
		}
	}
	return -1
}

// SlabPool is a size-classed buffer pool. The zero value is not usable;
// construct with New.
type SlabPool struct {
	mu      sync.Mutex
	classes map[int]chan []byte

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
}

// New returns an empty SlabPool.
func New() *SlabPool {
	return &SlabPool{classes: make(map[int]chan []byte, len(sizeClasses))}
}

// Acquire returns a zero-length slice with capacity of at least n.
func (p *SlabPool) Acquire(n int) ([]byte, error) {
	clz := sizeClassUpperBound(n)
	if clz < 0 {
		// Oversized request: allocate directly, never pooled.
		p.totalAlloc.Add(1)
		return make([]byte, 0, n), nil
	}
	select {
	case buf := <-p.class(clz):
		p.totalAlloc.Add(1)
		return buf[:0], nil
	default:
		p.totalAlloc.Add(1)
		return make([]byte, 0, clz), nil
	}
}

// Release returns buf to its class. Buffers whose capacity does not match
// a class exactly are dropped to the GC rather than mis-binned.
func (p *SlabPool) Release(buf []byte) {
	if buf == nil {
		return
	}
	p.totalFree.Add(1)
	clz := sizeClassUpperBound(cap(buf))
	if clz != cap(buf) {
		return
	}
	select {
	case p.class(clz) <- buf:
	default:
		// Class full, drop.
	}
}

// Stats reports allocation and reuse counters.
func (p *SlabPool) Stats() api.BufferPoolStats {
	alloc := p.totalAlloc.Load()
	free := p.totalFree.Load()
	return api.BufferPoolStats{
		TotalAlloc: alloc,
		TotalFree:  free,
		InUse:      alloc - free,
	}
}

func (p *SlabPool) class(clz int) chan []byte {
	p.mu.Lock()
	ch, ok := p.classes[clz]
	if !ok {
		ch = make(chan []byte, defaultClassCapacity)
		p.classes[clz] = ch
	}
	p.mu.Unlock()
	return ch
}

var _ api.BufferPool = (*SlabPool)(nil)
