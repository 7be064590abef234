package bplustree

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// maxReaders 是读许可的总数，写锁一次性拿走全部许可
const maxReaders = 1 << 30

// Latch is a fair reader/writer latch guarding one node or link.
//
// Readers take one permit and writers take all of them from the same FIFO
// semaphore, so a waiting writer holds back every reader that arrives after it
// and readers queued before it are admitted first. Every blocking acquisition
// is bounded by the configured timeout.
type Latch struct {
	sem     *semaphore.Weighted
	readers atomic.Int64
	writer  atomic.Bool

	// done 在 Finalize 时被取消，所有等待者立即失败
	done    context.Context
	retire  context.CancelFunc
	timeout time.Duration

	kind  string
	owner any
}

// NewLatch creates a latch. kind and owner are only used in diagnostics.
func NewLatch(kind string, owner any, timeout time.Duration) *Latch {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	done, retire := context.WithCancel(context.Background())
	return &Latch{
		sem:     semaphore.NewWeighted(maxReaders),
		done:    done,
		retire:  retire,
		timeout: timeout,
		kind:    kind,
		owner:   owner,
	}
}

func (l *Latch) String() string {
	if l.owner == nil {
		return fmt.Sprintf("%s@%p", l.kind, l)
	}
	return fmt.Sprintf("%s@%p", l.kind, l.owner)
}

// LockRead blocks until no writer holds or waits ahead of the caller.
func (l *Latch) LockRead() error {
	if err := l.acquire(1, "read"); err != nil {
		return err
	}
	l.readers.Add(1)
	return nil
}

// UnlockRead releases one read hold.
func (l *Latch) UnlockRead() {
	if l.readers.Add(-1) < 0 {
		panic(fmt.Sprintf("bplustree: UnlockRead of unlocked latch %s", l))
	}
	l.sem.Release(1)
}

// LockWrite blocks until every outstanding read is released and grants exclusive access.
func (l *Latch) LockWrite() error {
	if err := l.acquire(maxReaders, "write"); err != nil {
		return err
	}
	l.writer.Store(true)
	return nil
}

// UnlockWrite releases the exclusive hold.
func (l *Latch) UnlockWrite() {
	if !l.writer.CompareAndSwap(true, false) {
		panic(fmt.Sprintf("bplustree: UnlockWrite of unlocked latch %s", l))
	}
	l.sem.Release(maxReaders)
}

// Finalize marks the latch as belonging to a retired node. Current and future
// blocked acquisitions fail with ErrUseAfterFinalize. A hold taken before
// Finalize is still released normally.
func (l *Latch) Finalize() {
	l.retire()
}

// Finalized reports whether Finalize was called.
func (l *Latch) Finalized() bool {
	return l.done.Err() != nil
}

// State returns a snapshot of the latch for diagnosis.
func (l *Latch) State() LatchState {
	readers := l.readers.Load()
	return LatchState{
		WriteHeld: l.writer.Load(),
		ReadHeld:  readers > 0,
		Readers:   readers,
		Finalized: l.Finalized(),
	}
}

func (l *Latch) acquire(n int64, mode string) error {
	if l.Finalized() {
		return fmt.Errorf("%w: %s lock on %s", ErrUseAfterFinalize, mode, l)
	}

	if !l.sem.TryAcquire(n) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(l.done, l.timeout)
		defer cancel()

		if err := l.sem.Acquire(ctx, n); err != nil {
			if l.Finalized() {
				return fmt.Errorf("%w: %s lock on %s", ErrUseAfterFinalize, mode, l)
			}
			return &DeadlockError{
				Latch:  l.String(),
				Mode:   mode,
				Waited: time.Since(start),
				State:  l.State(),
			}
		}
	}

	// Finalize 可能发生在检查之后、拿到许可之前
	if l.Finalized() {
		l.sem.Release(n)
		return fmt.Errorf("%w: %s lock on %s", ErrUseAfterFinalize, mode, l)
	}
	return nil
}
