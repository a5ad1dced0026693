// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error kinds shared across the library.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	// ErrClosed is the end-of-stream error reported for every submission
	// accepted after (or cancelled by) a local close.
	ErrClosed = errors.New("connection has been closed locally")

	// ErrFlusherFailed is reported for submissions after the engine entered
	// its terminal failed state without a recorded cause.
	ErrFlusherFailed = errors.New("flusher failed")

	// ErrNotSupported is returned by platform stubs.
	ErrNotSupported = errors.New("operation not supported")
)

// LatchedError wraps the first terminal failure so that submissions rejected
// afterwards still carry the original cause through errors.Is/As.
func LatchedError(cause error) error {
	if cause == nil {
		return ErrFlusherFailed
	}
	return fmt.Errorf("%w: %w", ErrFlusherFailed, cause)
}
