package bplustree

import (
	"cmp"
	"fmt"
	"slices"
)

// leaf holds up to capacity sorted entries and sits between two links.
// leftLink and rightLink never change; a split replaces the whole leaf.
type leaf[K cmp.Ordered, V any] struct {
	latch     *Latch
	entries   []Entry[K, V]
	leftLink  *link[K, V]
	rightLink *link[K, V]
}

func newLeaf[K cmp.Ordered, V any](opts *options, entries []Entry[K, V], left, right *link[K, V]) *leaf[K, V] {
	l := &leaf[K, V]{
		entries:   make([]Entry[K, V], len(entries), opts.capacity),
		leftLink:  left,
		rightLink: right,
	}
	copy(l.entries, entries)
	l.latch = NewLatch("leaf", l, opts.lockTimeout)
	return l
}

// newRootLeaf creates the single empty leaf of a fresh tree together with
// the two chain-end links.
func newRootLeaf[K cmp.Ordered, V any](opts *options) *leaf[K, V] {
	left, right := newLink[K, V](opts), newLink[K, V](opts)
	l := newLeaf[K, V](opts, nil, left, right)
	left.setRight(l)
	right.setLeft(l)
	return l
}

func (l *leaf[K, V]) String() string {
	return fmt.Sprintf("leaf@%p", l)
}

func (l *leaf[K, V]) nodeLatch() *Latch { return l.latch }

func (l *leaf[K, V]) isFull() bool {
	return len(l.entries) == cap(l.entries)
}

func (l *leaf[K, V]) search(key K) (int, bool) {
	return slices.BinarySearchFunc(l.entries, key, func(e Entry[K, V], k K) int {
		return cmp.Compare(e.Key, k)
	})
}

func (l *leaf[K, V]) lockForWrite(op *operation) error {
	return l.lockLeafWrite(op)
}

// lockLeafWrite takes, in this order, the left gate, the right gate, the left
// neighbor, this leaf and the right neighbor. Gates go left before right so
// two neighbors running the same protocol cannot wait on each other.
func (l *leaf[K, V]) lockLeafWrite(op *operation) error {
	if err := l.leftLink.acquire(op); err != nil {
		return err
	}
	if err := l.rightLink.acquire(op); err != nil {
		l.leftLink.release()
		return err
	}

	leftNeighbor, err := l.leftLink.lockLeftWrite(op)
	if err != nil {
		l.rightLink.release()
		l.leftLink.release()
		return err
	}

	op.logf(l, "locking self")
	if err := l.latch.LockWrite(); err != nil {
		unlockWrite(leftNeighbor)
		l.rightLink.release()
		l.leftLink.release()
		return err
	}
	op.logf(l, "LOCKED self")

	rightNeighbor, err := l.rightLink.lockRightWrite(op)
	if err != nil {
		l.latch.UnlockWrite()
		unlockWrite(leftNeighbor)
		l.rightLink.release()
		l.leftLink.release()
		return err
	}

	leftLink, rightLink, self := l.leftLink, l.rightLink, l.latch
	op.stack.push(l, func() {
		unlockWrite(rightNeighbor)
		self.UnlockWrite()
		unlockWrite(leftNeighbor)
		rightLink.release()
		leftLink.release()
	})
	return nil
}

func unlockWrite(l *Latch) {
	if l != nil {
		l.UnlockWrite()
	}
}

func (l *leaf[K, V]) get(op *operation, key K) (V, bool, error) {
	var zero V
	if err := l.latch.LockRead(); err != nil {
		return zero, false, err
	}
	depth := op.stack.push(l, l.latch.UnlockRead)
	op.stack.releaseAncestors(depth)

	i, found := l.search(key)
	value := zero
	if found {
		value = l.entries[i].Value
	}
	op.stack.pop()
	return value, found, nil
}

// getRange walks the leaf chain to the right starting at l.
//
// A leaf is read only while both of its gates are held. The right gate is
// carried over to the next leaf, where it is the left gate, so no split can
// slip a leaf in between two visited leaves.
func (l *leaf[K, V]) getRange(op *operation, start, end K) ([]Entry[K, V], error) {
	cur := l
	if err := cur.leftLink.acquire(op); err != nil {
		return nil, err
	}
	if err := cur.rightLink.acquire(op); err != nil {
		cur.leftLink.release()
		return nil, err
	}
	if err := cur.latch.LockRead(); err != nil {
		cur.rightLink.release()
		cur.leftLink.release()
		return nil, err
	}
	// 第一个叶子已读锁定，祖先可以释放
	op.stack.releaseAll()

	var out []Entry[K, V]
	for {
		done := false
		for _, e := range cur.entries {
			if e.Key < start {
				continue
			}
			if e.Key > end {
				done = true
				break
			}
			out = append(out, e)
		}

		cur.latch.UnlockRead()
		cur.leftLink.release()

		held := cur.rightLink
		next := held.getRight()
		if done || next == nil {
			held.release()
			return out, nil
		}
		if next.leftLink != held {
			held.release()
			return nil, invariantf("%s: right neighbor %s is not linked back through %s", cur, next, held)
		}

		op.logf(next, "scan stepping over %s", held)
		if err := next.rightLink.acquire(op); err != nil {
			held.release()
			return nil, err
		}
		if err := next.latch.LockRead(); err != nil {
			next.rightLink.release()
			held.release()
			return nil, err
		}
		cur = next
	}
}

// put expects lockLeafWrite to be on top of op.stack.
func (l *leaf[K, V]) put(op *operation, e Entry[K, V]) (putResult[K, V], error) {
	depth := op.stack.top()

	i, found := l.search(e.Key)
	if found {
		// 覆盖不会分裂，当前节点安全
		op.stack.releaseAncestors(depth)
		l.entries[i] = e
		op.stack.pop()
		return success[K, V](false), nil
	}

	if !l.isFull() {
		op.logf(l, "safe leaf, releasing ancestors")
		op.stack.releaseAncestors(depth)
		l.entries = slices.Insert(l.entries, i, e)
		op.stack.pop()
		return success[K, V](true), nil
	}

	left, right := l.split(op, i, e)
	op.stack.pop()
	return putResult[K, V]{
		status:   putNodeFull,
		inserted: true,
		promoted: right.entries[0].Key,
		left:     left,
		right:    right,
		split:    l,
	}, nil
}

// split replaces l by two new leaves holding l's entries plus e (to be
// placed at index i). The old outer links are rebound to the new leaves; a
// new link is created between them. All three leaves and both gates must be
// held.
func (l *leaf[K, V]) split(op *operation, i int, e Entry[K, V]) (*leaf[K, V], *leaf[K, V]) {
	l.latch.Finalize()
	op.logf(l, "splitting")

	capacity := cap(l.entries)
	sorted := make([]Entry[K, V], 0, capacity+1)
	sorted = append(sorted, l.entries[:i]...)
	sorted = append(sorted, e)
	sorted = append(sorted, l.entries[i:]...)

	half := (capacity + 1) / 2
	middle := newLink[K, V](op.opts)
	left := newLeaf(op.opts, sorted[:half], l.leftLink, middle)
	right := newLeaf(op.opts, sorted[half:], middle, l.rightLink)

	middle.setLeft(left)
	middle.setRight(right)
	l.leftLink.setRight(left)
	l.rightLink.setLeft(right)
	return left, right
}
