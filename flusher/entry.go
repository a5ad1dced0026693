// File: flusher/entry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package flusher

import (
	"github.com/momentics/wsflush/api"
	"github.com/momentics/wsflush/protocol"
)

// entry is one pending submission: the frame, its completion callback and
// batch hint, plus the header buffer lazily acquired when the engine chose
// a gather write over aggregation.
type entry struct {
	frame    *protocol.Frame
	callback api.Callback
	mode     api.BatchMode

	header []byte
}

// renderHeader acquires a header buffer from the generator's pool and
// renders the frame header into it. The buffer is retained on the entry
// until release.
func (e *entry) renderHeader(g *protocol.Generator) ([]byte, error) {
	hdr, err := g.HeaderBytes(e.frame)
	if err != nil {
		return nil, err
	}
	e.header = hdr
	return hdr, nil
}

// release returns the header buffer, if any, to the pool. Called after the
// entry's callback has been invoked, on both success and failure paths.
func (e *entry) release(pool api.BufferPool) {
	if e.header != nil {
		pool.Release(e.header)
		e.header = nil
	}
}
