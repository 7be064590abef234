package bplustree

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDeadlock is returned when a bounded latch acquisition times out.
	// It signals a lock ordering bug and is never retried.
	ErrDeadlock = errors.New("bplustree: latch acquisition timed out (deadlock)")

	// ErrUseAfterFinalize is returned when a latch of a retired node is acquired.
	ErrUseAfterFinalize = errors.New("bplustree: latch used after finalize")

	// ErrInvariantViolation is returned when a split or insert reaches a state
	// the tree structure does not allow.
	ErrInvariantViolation = errors.New("bplustree: invariant violation")

	// ErrInvalidOption is returned by New for an unusable configuration.
	ErrInvalidOption = errors.New("bplustree: invalid option")
)

// LatchState is a snapshot of a latch used for diagnosis.
type LatchState struct {
	WriteHeld bool
	ReadHeld  bool
	Readers   int64
	Finalized bool
}

func (s LatchState) String() string {
	return fmt.Sprintf("write_held=%t read_held=%t readers=%d finalized=%t",
		s.WriteHeld, s.ReadHeld, s.Readers, s.Finalized)
}

// DeadlockError carries the state of the latch a timed out acquisition was waiting on.
//
// errors.Is(err, ErrDeadlock) reports true for it.
type DeadlockError struct {
	Latch  string
	Mode   string
	Waited time.Duration
	State  LatchState
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("%s: %s lock on %s after %s (%s)", ErrDeadlock, e.Mode, e.Latch, e.Waited, e.State)
}

func (e *DeadlockError) Unwrap() error { return ErrDeadlock }

func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
