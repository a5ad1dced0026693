// File: flusher/flusher.go
// Package flusher implements the outbound WebSocket frame flusher.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The flusher is a single-writer batching serializer between frame
// submitters and a byte-oriented gather-write endpoint. Any number of
// goroutines may submit; an iterating engine drains bounded slices of the
// queue, aggregates small frames into a pooled buffer or gather-writes
// large ones zero-copy, and completes every submission's callback exactly
// once, in drain order.

package flusher

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/momentics/wsflush/api"
	"github.com/momentics/wsflush/internal/iterating"
	"github.com/momentics/wsflush/protocol"
)

// FlushFrame is the sentinel frame whose submission forces a flush of any
// pending aggregated bytes. It produces no bytes of its own; its callback
// fires once the prior aggregate has been written. Matched by identity.
var FlushFrame = &protocol.Frame{Fin: true, Opcode: protocol.OpBinary}

// Option configures a Flusher.
type Option func(*Flusher)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Flusher) { f.log = log }
}

// Flusher serializes outgoing frames onto an endpoint.
type Flusher struct {
	generator  *protocol.Generator
	endpoint   api.Endpoint
	bufferSize int
	maxGather  int
	log        zerolog.Logger

	mu      sync.Mutex
	queue   *submitQueue
	closed  bool
	failure error

	ic *iterating.Callback

	// Engine-owned state. Touched only by the goroutine currently holding
	// the engine baton; mu does not guard it.
	entries          []*entry
	aggregate        []byte
	flushedAggregate bool
	batchMode        api.BatchMode
}

// New returns a Flusher writing to endpoint.
//
// bufferSize is the capacity of the write aggregate; a frame whose
// approximate on-wire size exceeds bufferSize/4 is never copied into it.
// maxGather bounds the entries drained per engine step.
func New(gen *protocol.Generator, endpoint api.Endpoint, bufferSize, maxGather int, opts ...Option) *Flusher {
	f := &Flusher{
		generator:  gen,
		endpoint:   endpoint,
		bufferSize: bufferSize,
		maxGather:  maxGather,
		log:        zerolog.Nop(),
		queue:      newSubmitQueue(),
		entries:    make([]*entry, 0, maxGather),
		batchMode:  api.BatchOff,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ic = iterating.New((*engine)(f))
	return f
}

// Submit enqueues frame for writing and kicks the engine. Non-blocking:
// it either accepts the frame or fails cb synchronously. cb fires exactly
// once — on success (when the frame's bytes are written or, for a frame
// aggregated into the batch buffer, when they are copied into it), on
// failure, or with ErrClosed when the flusher is closed first.
//
// PING frames jump ahead of queued non-PING entries. A CLOSE frame is
// accepted and closes the flusher to later submissions.
func (f *Flusher) Submit(frame *protocol.Frame, cb api.Callback, mode api.BatchMode) {
	ent := &entry{frame: frame, callback: cb, mode: mode}

	var rejected error
	f.mu.Lock()
	switch {
	case f.closed:
		rejected = api.ErrClosed
	case f.ic.IsFailed():
		rejected = api.LatchedError(f.failure)
	default:
		switch frame.Opcode {
		case protocol.OpPing:
			// Prepend PINGs so they are processed first.
			f.queue.pushPing(ent)
		case protocol.OpClose:
			// Frames racing in after this flip are failed at submit time;
			// anything already accepted is still honored.
			f.closed = true
			f.queue.push(ent)
		default:
			f.queue.push(ent)
		}
	}
	f.mu.Unlock()

	if rejected != nil {
		f.log.Debug().Err(rejected).Stringer("opcode", frame.Opcode).Msg("submission rejected")
		f.notifyFailure(cb, rejected)
		return
	}

	f.log.Debug().Stringer("opcode", frame.Opcode).Stringer("batch", mode).Msg("queued")
	f.ic.Iterate()
}

// Close cancels every pending submission with ErrClosed and moves the
// flusher to its terminal state. Idempotent. A write already in flight
// races the cancellation; its callbacks report whichever outcome wins.
func (f *Flusher) Close() {
	// A CLOSE frame may already have set closed; the queue is still drained
	// and the engine failed. A repeated call finds an empty queue and an
	// engine that ignores the second failure.
	f.mu.Lock()
	f.closed = true
	snapshot := f.queue.drain()
	f.mu.Unlock()

	f.log.Debug().Int("pending", len(snapshot)).Msg("closing")

	// Notify outside the lock.
	f.ic.Failed(api.ErrClosed)
	pool := f.generator.Pool()
	for _, ent := range snapshot {
		f.notifyFailure(ent.callback, api.ErrClosed)
		ent.release(pool)
	}
}

// engine adapts Flusher to iterating.Processor without exporting the
// processor methods on the public type.
type engine Flusher

func (e *engine) Process() (iterating.Action, error) { return (*Flusher)(e).process() }
func (e *engine) OnSuccess()                         { (*Flusher)(e).onWriteSuccess() }
func (e *engine) OnCompleteFailure(err error)        { (*Flusher)(e).onCompleteFailure(err) }

// process drains one bounded slice of the queue and decides between
// aggregating it and gather-writing it.
func (f *Flusher) process() (iterating.Action, error) {
	current := api.BatchAuto

	f.mu.Lock()
	space := f.bufferSize
	if f.aggregate != nil {
		space = cap(f.aggregate) - len(f.aggregate)
	}
	for len(f.entries) < f.maxGather {
		ent, ok := f.queue.pop()
		if !ok {
			break
		}
		current = current.Max(ent.mode)

		// Force flush if we need to.
		if ent.frame == FlushFrame {
			current = api.BatchOff
		}

		approx := protocol.MaxHeaderLength + len(ent.frame.Payload)

		// A "big" frame is not worth copying into the aggregate.
		if approx > f.bufferSize>>2 {
			current = api.BatchOff
		}

		// Do not batch past the aggregate's capacity.
		space -= approx
		if space <= 0 {
			current = api.BatchOff
		}

		f.entries = append(f.entries, ent)
	}
	f.mu.Unlock()

	if len(f.entries) == 0 {
		if f.batchMode != api.BatchAuto {
			// Nothing more to do. Releasing here rather than on completion
			// allows the aggregate to be reused across steps.
			f.releaseAggregate()
			return iterating.ActionIdle, nil
		}
		f.log.Debug().Msg("auto flushing")
		return f.flush()
	}

	f.batchMode = current
	if current == api.BatchOff {
		return f.flush()
	}
	return f.batch()
}

// batch renders the drained entries into the aggregate and completes the
// step synthetically: no transport write is issued.
func (f *Flusher) batch() (iterating.Action, error) {
	if f.aggregate == nil {
		buf, err := f.generator.Pool().Acquire(f.bufferSize)
		if err != nil {
			return iterating.ActionIdle, err
		}
		f.aggregate = buf
		f.log.Debug().Int("capacity", cap(buf)).Msg("acquired aggregate buffer")
	}

	for _, ent := range f.entries {
		f.aggregate = f.generator.AppendHeader(f.aggregate, ent.frame)
		if len(ent.frame.Payload) > 0 {
			f.aggregate = append(f.aggregate, ent.frame.Payload...)
		}
	}
	f.log.Debug().Int("frames", len(f.entries)).Int("aggregated", len(f.aggregate)).Msg("aggregated")

	f.ic.Succeeded()
	return iterating.ActionScheduled, nil
}

// flush issues one gather write: the aggregate (if non-empty) followed by
// each entry's freshly rendered header and original payload buffer.
func (f *Flusher) flush() (iterating.Action, error) {
	bufs := make([][]byte, 0, 2*len(f.entries)+1)

	if len(f.aggregate) > 0 {
		bufs = append(bufs, f.aggregate)
		f.flushedAggregate = true
		f.log.Debug().Int("bytes", len(f.aggregate)).Msg("flushing aggregate")
	}

	for _, ent := range f.entries {
		// Skip the synthetic frame used for flushing.
		if ent.frame == FlushFrame {
			continue
		}
		hdr, err := ent.renderHeader(f.generator)
		if err != nil {
			return iterating.ActionIdle, err
		}
		bufs = append(bufs, hdr)
		if len(ent.frame.Payload) > 0 {
			bufs = append(bufs, ent.frame.Payload)
		}
	}

	f.log.Debug().Int("frames", len(f.entries)).Int("buffers", len(bufs)).Msg("flushing")

	if len(bufs) == 0 {
		f.releaseAggregate()
		// We may have the flush sentinel to notify.
		f.succeedEntries()
		return iterating.ActionIdle, nil
	}

	f.endpoint.Write(f.ic, bufs...)
	return iterating.ActionScheduled, nil
}

func (f *Flusher) releaseAggregate() {
	if f.aggregate != nil && len(f.aggregate) == 0 {
		f.generator.Pool().Release(f.aggregate)
		f.aggregate = nil
	}
}

// onWriteSuccess completes the just-written slice in drain order.
func (f *Flusher) onWriteSuccess() {
	if f.flushedAggregate {
		f.flushedAggregate = false
		f.aggregate = f.aggregate[:0]
	}
	f.succeedEntries()
}

func (f *Flusher) succeedEntries() {
	pool := f.generator.Pool()
	for _, ent := range f.entries {
		f.notifySuccess(ent.callback)
		ent.release(pool)
	}
	f.entries = f.entries[:0]
}

// onCompleteFailure fails the current slice and everything still queued,
// then latches the failure for later submissions.
func (f *Flusher) onCompleteFailure(err error) {
	f.log.Warn().Err(err).Msg("flusher failed")

	pool := f.generator.Pool()
	for _, ent := range f.entries {
		f.notifyFailure(ent.callback, err)
		ent.release(pool)
	}
	f.entries = f.entries[:0]

	f.mu.Lock()
	if f.failure == nil {
		f.failure = err
	}
	queued := f.queue.drain()
	f.mu.Unlock()

	for _, ent := range queued {
		f.notifyFailure(ent.callback, err)
		ent.release(pool)
	}
}

// notifySuccess invokes cb.Succeeded, swallowing panics so a misbehaving
// callback cannot corrupt engine state.
func (f *Flusher) notifySuccess(cb api.Callback) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.log.Debug().Interface("panic", r).Msg("callback panicked in Succeeded")
		}
	}()
	cb.Succeeded()
}

// notifyFailure invokes cb.Failed, swallowing panics.
func (f *Flusher) notifyFailure(cb api.Callback, err error) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.log.Debug().Interface("panic", r).Msg("callback panicked in Failed")
		}
	}()
	cb.Failed(err)
}
