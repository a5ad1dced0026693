// transport/fd_stub.go
//go:build !linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "github.com/momentics/wsflush/api"

// FDEndpoint is unavailable on this platform; every write fails with
// api.ErrNotSupported. Use ConnEndpoint instead.
type FDEndpoint struct {
	fd int
}

// NewFDEndpoint wraps a descriptor on a platform without writev support.
func NewFDEndpoint(fd int) *FDEndpoint {
	return &FDEndpoint{fd: fd}
}

// Write implements api.Endpoint.
func (e *FDEndpoint) Write(cb api.Callback, _ ...[]byte) {
	cb.Failed(api.ErrNotSupported)
}

// Close is a no-op on this platform.
func (e *FDEndpoint) Close() error { return nil }

var _ api.Endpoint = (*FDEndpoint)(nil)
