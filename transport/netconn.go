// File: transport/netconn.go
// Package transport provides api.Endpoint implementations.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ConnEndpoint adapts a net.Conn to the asynchronous gather-write endpoint
// the flusher drives. The flusher guarantees at most one write in flight,
// so each write runs on its own goroutine and completes via the callback.

package transport

import (
	"net"

	"github.com/momentics/wsflush/api"
)

// ConnEndpoint writes gather lists to a net.Conn.
type ConnEndpoint struct {
	conn net.Conn
}

// NewConnEndpoint wraps conn.
func NewConnEndpoint(conn net.Conn) *ConnEndpoint {
	return &ConnEndpoint{conn: conn}
}

// Write implements api.Endpoint. net.Buffers issues writev on platforms
// that support it; the buffer slice is copied first because WriteTo
// consumes its argument.
func (e *ConnEndpoint) Write(cb api.Callback, bufs ...[]byte) {
	nb := make(net.Buffers, len(bufs))
	copy(nb, bufs)
	go func() {
		if _, err := nb.WriteTo(e.conn); err != nil {
			cb.Failed(err)
			return
		}
		cb.Succeeded()
	}()
}

// Close closes the underlying connection.
func (e *ConnEndpoint) Close() error {
	return e.conn.Close()
}

var _ api.Endpoint = (*ConnEndpoint)(nil)
