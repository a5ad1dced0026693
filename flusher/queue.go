// File: flusher/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Two-lane submission queue. PINGs get their own lane that drains first,
// which gives deque-head-insertion semantics while keeping FIFO order
// within each class. Not safe for concurrent use; the flusher guards it
// with its own mutex.

package flusher

import "github.com/eapache/queue"

type submitQueue struct {
	pings  *queue.Queue
	frames *queue.Queue
}

func newSubmitQueue() *submitQueue {
	return &submitQueue{
		pings:  queue.New(),
		frames: queue.New(),
	}
}

// pushPing enqueues ahead of all non-PING entries.
func (q *submitQueue) pushPing(e *entry) { q.pings.Add(e) }

// push enqueues at the tail.
func (q *submitQueue) push(e *entry) { q.frames.Add(e) }

// pop removes the next entry, PING lane first.
func (q *submitQueue) pop() (*entry, bool) {
	if q.pings.Length() > 0 {
		return q.pings.Remove().(*entry), true
	}
	if q.frames.Length() > 0 {
		return q.frames.Remove().(*entry), true
	}
	return nil, false
}

func (q *submitQueue) size() int {
	return q.pings.Length() + q.frames.Length()
}

// drain removes and returns every pending entry in drain order.
func (q *submitQueue) drain() []*entry {
	out := make([]*entry, 0, q.size())
	for q.pings.Length() > 0 {
		out = append(out, q.pings.Remove().(*entry))
	}
	for q.frames.Length() > 0 {
		out = append(out, q.frames.Remove().(*entry))
	}
	return out
}
