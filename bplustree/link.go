package bplustree

import (
	"cmp"
	"fmt"
	"sync/atomic"
)

// link sits between two adjacent leaves. The leaf on its left holds it as
// rightLink and the leaf on its right holds it as leftLink.
//
// Anyone who write-locks across the link, a split crossing it or a scan
// stepping over it, must hold the gate first. Sides are rebound only while
// the gate is held.
type link[K cmp.Ordered, V any] struct {
	gate  *Latch
	left  atomic.Pointer[leaf[K, V]]
	right atomic.Pointer[leaf[K, V]]
}

func newLink[K cmp.Ordered, V any](opts *options) *link[K, V] {
	lk := &link[K, V]{}
	lk.gate = NewLatch("link", lk, opts.lockTimeout)
	return lk
}

func (lk *link[K, V]) String() string {
	return fmt.Sprintf("link@%p", lk)
}

func (lk *link[K, V]) acquire(op *operation) error {
	op.logf(lk, "acquiring gate")
	if err := lk.gate.LockWrite(); err != nil {
		return err
	}
	op.logf(lk, "ACQUIRED gate")
	return nil
}

func (lk *link[K, V]) release() {
	lk.gate.UnlockWrite()
}

// lockLeftWrite write-locks the leaf on the left side, if any, and returns
// its latch so the caller can unlock exactly what it locked even if the side
// is rebound in between.
func (lk *link[K, V]) lockLeftWrite(op *operation) (*Latch, error) {
	return lk.lockSideWrite(op, lk.left.Load(), "left")
}

// lockRightWrite is lockLeftWrite for the right side.
func (lk *link[K, V]) lockRightWrite(op *operation) (*Latch, error) {
	return lk.lockSideWrite(op, lk.right.Load(), "right")
}

func (lk *link[K, V]) lockSideWrite(op *operation, side *leaf[K, V], name string) (*Latch, error) {
	if side == nil {
		return nil, nil
	}
	op.logf(lk, "locking %s %s", name, side)
	if err := side.latch.LockWrite(); err != nil {
		return nil, err
	}
	op.logf(lk, "LOCKED %s %s", name, side)
	return side.latch, nil
}

func (lk *link[K, V]) setLeft(l *leaf[K, V])  { lk.left.Store(l) }
func (lk *link[K, V]) setRight(l *leaf[K, V]) { lk.right.Store(l) }

func (lk *link[K, V]) getLeft() *leaf[K, V]  { return lk.left.Load() }
func (lk *link[K, V]) getRight() *leaf[K, V] { return lk.right.Load() }
