// transport/fd_linux.go
//go:build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FDEndpoint drives a raw connected socket with writev, bypassing the
// net.Conn layer for event-loop integrations that own file descriptors.

package transport

import (
	"github.com/momentics/wsflush/api"
	"golang.org/x/sys/unix"
)

// FDEndpoint writes gather lists to a connected file descriptor.
type FDEndpoint struct {
	fd int
}

// NewFDEndpoint wraps a connected, blocking socket descriptor.
func NewFDEndpoint(fd int) *FDEndpoint {
	return &FDEndpoint{fd: fd}
}

// Write implements api.Endpoint via unix.Writev, retrying on EINTR and
// resuming after partial writes until the whole gather list is on the wire.
func (e *FDEndpoint) Write(cb api.Callback, bufs ...[]byte) {
	iov := make([][]byte, len(bufs))
	copy(iov, bufs)
	go func() {
		for len(iov) > 0 {
			n, err := unix.Writev(e.fd, iov)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				cb.Failed(err)
				return
			}
			iov = advance(iov, n)
		}
		cb.Succeeded()
	}()
}

// Close closes the descriptor.
func (e *FDEndpoint) Close() error {
	return unix.Close(e.fd)
}

// advance drops n written bytes from the front of the gather list.
func advance(iov [][]byte, n int) [][]byte {
	for len(iov) > 0 && n >= len(iov[0]) {
		n -= len(iov[0])
		iov = iov[1:]
	}
	if len(iov) > 0 && n > 0 {
		iov[0] = iov[0][n:]
	}
	return iov
}

var _ api.Endpoint = (*FDEndpoint)(nil)
