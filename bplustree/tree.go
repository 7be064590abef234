package bplustree

import (
	"cmp"
	"fmt"
	"sync/atomic"
)

// Tree is an ordered map safe for concurrent use by multiple goroutines.
//
// The root reference is guarded by its own latch: readers and writers enter
// through it and release it by lock coupling once the root itself is latched
// (and, for writers, known not to split).
type Tree[K cmp.Ordered, V any] struct {
	opts      options
	rootLatch *Latch
	root      node[K, V]
	size      atomic.Int64
}

// New creates an empty tree.
func New[K cmp.Ordered, V any](opts ...Option) (*Tree[K, V], error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	t := &Tree[K, V]{opts: o}
	t.rootLatch = NewLatch("root", t, o.lockTimeout)
	t.root = newRootLeaf[K, V](&t.opts)
	return t, nil
}

func (t *Tree[K, V]) String() string {
	return fmt.Sprintf("tree@%p", t)
}

// Capacity returns the configured node capacity.
func (t *Tree[K, V]) Capacity() int {
	return t.opts.capacity
}

// Len returns the number of keys in the tree.
func (t *Tree[K, V]) Len() int {
	return int(t.size.Load())
}

// Get returns the value stored for key. The boolean is false if key is absent.
func (t *Tree[K, V]) Get(key K) (V, bool, error) {
	op := newOperation(&t.opts)
	defer op.stack.releaseAll()

	if err := t.rootLatch.LockRead(); err != nil {
		var zero V
		return zero, false, err
	}
	op.stack.push(t.rootLatch, t.rootLatch.UnlockRead)
	return t.root.get(op, key)
}

// GetRange returns all entries with start <= key <= end in ascending order.
func (t *Tree[K, V]) GetRange(start, end K) ([]Entry[K, V], error) {
	if start > end {
		return nil, nil
	}

	op := newOperation(&t.opts)
	defer op.stack.releaseAll()

	if err := t.rootLatch.LockRead(); err != nil {
		return nil, err
	}
	op.stack.push(t.rootLatch, t.rootLatch.UnlockRead)
	return t.root.getRange(op, start, end)
}

// Put inserts key with value, overwriting any previous value.
//
// A non-nil error is a lock protocol failure (ErrDeadlock,
// ErrUseAfterFinalize) or ErrInvariantViolation; the tree must be considered
// broken afterwards.
func (t *Tree[K, V]) Put(key K, value V) error {
	op := newOperation(&t.opts)
	defer op.stack.releaseAll()

	if err := t.rootLatch.LockWrite(); err != nil {
		return err
	}
	op.stack.push(t.rootLatch, t.rootLatch.UnlockWrite)

	root := t.root
	if err := root.lockForWrite(op); err != nil {
		return err
	}

	res, err := root.put(op, Entry[K, V]{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("put %v: %w", key, err)
	}
	if res.inserted {
		t.size.Add(1)
	}

	if res.status == putNodeFull {
		// 根节点分裂：新根从未被锁过，只需释放根引用的锁
		t.root = newInode(&t.opts, []K{res.promoted}, []node[K, V]{res.left, res.right})
		op.logf(t, "new root %s", t.root)
		op.stack.pop()
	}
	return nil
}
