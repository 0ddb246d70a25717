package store

import (
	"fmt"
	"sync/atomic"
)

type State int32

const (
	StateIdle State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Lifecycle tracks a handle's state. Backends embed it.
type Lifecycle struct {
	state atomic.Int32
}

func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// Open moves idle to open. Opening an open handle is a no-op; reopening a
// closed one is an error.
func (l *Lifecycle) Open() error {
	if l.state.CompareAndSwap(int32(StateIdle), int32(StateOpen)) {
		return nil
	}
	if l.State() == StateOpen {
		return nil
	}
	return fmt.Errorf("%w: cannot reopen a closed handle", ErrNotReady)
}

// Shut moves the handle to closed and reports whether it was open.
func (l *Lifecycle) Shut() bool {
	return State(l.state.Swap(int32(StateClosed))) == StateOpen
}

// Ready returns ErrNotReady unless the handle is open.
func (l *Lifecycle) Ready() error {
	if s := l.State(); s != StateOpen {
		return fmt.Errorf("%w (state %s)", ErrNotReady, s)
	}
	return nil
}
