// File: internal/iterating/iterating.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Callback is an iterating callback: a state machine that coalesces many
// producer wake-ups into a single in-flight asynchronous operation without
// holding a lock across I/O. A processor performs one bounded step per
// Process call; the machine loops until a step reports Idle with no kick
// pending, parks while an async operation is in flight, and terminates on
// the first failure.

package iterating

import "sync"

// Action is the outcome of one processor step.
type Action int

const (
	// ActionIdle means the step found no work.
	ActionIdle Action = iota

	// ActionScheduled means the step started an asynchronous operation whose
	// completion will be signaled via Succeeded or Failed. A step that
	// completed its work synchronously calls Succeeded before returning
	// ActionScheduled.
	ActionScheduled
)

// Processor performs the work driven by a Callback.
//
// Process, OnSuccess and OnCompleteFailure are never invoked concurrently
// with each other: the machine hands the logical engine baton to exactly one
// goroutine at a time.
type Processor interface {
	// Process performs one bounded step. A non-nil error is terminal.
	Process() (Action, error)

	// OnSuccess is invoked after the operation scheduled by the preceding
	// step completed successfully, before the next step runs.
	OnSuccess()

	// OnCompleteFailure is invoked exactly once when the machine enters its
	// terminal failed state.
	OnCompleteFailure(err error)
}

type state int

const (
	stateIdle state = iota
	stateProcessing
	stateCalled
	statePending
	stateFailed
)

// Callback drives a Processor. It satisfies the completion-callback shape
// expected by asynchronous transports, so a pending operation may complete
// directly into it.
type Callback struct {
	mu    sync.Mutex
	st    state
	kick  bool
	abort error

	proc Processor
}

// New returns an idle Callback driving proc.
func New(proc Processor) *Callback {
	return &Callback{proc: proc}
}

// Iterate signals that there may be work. If the machine is idle the calling
// goroutine runs the processing loop; a failed machine ignores the call;
// otherwise a kick flag is set for the current engine goroutine to observe
// at its next step boundary.
func (c *Callback) Iterate() {
	c.mu.Lock()
	switch c.st {
	case stateIdle:
		c.st = stateProcessing
		c.mu.Unlock()
		c.loop()
	case stateFailed:
		c.mu.Unlock()
	default:
		c.kick = true
		c.mu.Unlock()
	}
}

// Succeeded reports completion of the scheduled operation. When the machine
// is parked the calling goroutine takes over the processing loop; a stale
// completion after failure is ignored.
func (c *Callback) Succeeded() {
	c.mu.Lock()
	switch c.st {
	case stateProcessing:
		// Completed synchronously inside Process; the engine goroutine
		// resumes when Process returns.
		c.st = stateCalled
		c.mu.Unlock()
	case statePending:
		c.st = stateProcessing
		c.mu.Unlock()
		c.proc.OnSuccess()
		c.loop()
	default:
		c.mu.Unlock()
	}
}

// Failed reports failure of the scheduled operation, or aborts the machine
// from outside. The first terminal error wins. If the engine goroutine is
// mid-step the failure is deferred to the step boundary so that the engine
// goroutine itself runs the failure path.
func (c *Callback) Failed(err error) {
	c.mu.Lock()
	switch c.st {
	case stateProcessing, stateCalled:
		if c.abort == nil {
			c.abort = err
		}
		c.mu.Unlock()
	case stateFailed:
		c.mu.Unlock()
	default:
		c.st = stateFailed
		c.mu.Unlock()
		c.proc.OnCompleteFailure(err)
	}
}

// IsFailed reports whether the machine has reached its terminal state.
func (c *Callback) IsFailed() bool {
	c.mu.Lock()
	failed := c.st == stateFailed
	c.mu.Unlock()
	return failed
}

func (c *Callback) loop() {
	for {
		action, err := c.proc.Process()

		c.mu.Lock()
		if err == nil && c.abort != nil {
			err, c.abort = c.abort, nil
		}
		if err != nil {
			c.st = stateFailed
			c.mu.Unlock()
			c.proc.OnCompleteFailure(err)
			return
		}

		switch action {
		case ActionScheduled:
			if c.st == stateCalled {
				c.st = stateProcessing
				c.mu.Unlock()
				c.proc.OnSuccess()
				continue
			}
			c.st = statePending
			c.mu.Unlock()
			return
		default: // ActionIdle
			if c.kick {
				c.kick = false
				c.mu.Unlock()
				continue
			}
			c.st = stateIdle
			c.mu.Unlock()
			return
		}
	}
}
