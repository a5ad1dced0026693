// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Byte-oriented transport abstraction driven by the flush engine.

package api

// Endpoint is the write side of a byte-oriented transport.
//
// Write issues a single logical gather write: all supplied byte ranges are
// written in order, and exactly one of cb.Succeeded or cb.Failed fires when
// the write completes. Write must not be called again until the previous
// completion has fired; the flusher guarantees this.
type Endpoint interface {
	Write(cb Callback, bufs ...[]byte)
}
