package bplustree

import (
	"cmp"
	"fmt"
	"slices"
)

// inode routes keys to children. children[i] holds keys in
// [keys[i-1], keys[i]); a key equal to a separator lives to its right, which
// matches the leaf split promoting the first key of the right half.
type inode[K cmp.Ordered, V any] struct {
	latch    *Latch
	keys     []K
	children []node[K, V]
}

func newInode[K cmp.Ordered, V any](opts *options, keys []K, children []node[K, V]) *inode[K, V] {
	in := &inode[K, V]{
		keys:     make([]K, len(keys), opts.capacity),
		children: make([]node[K, V], len(children), opts.capacity+1),
	}
	copy(in.keys, keys)
	copy(in.children, children)
	in.latch = NewLatch("inode", in, opts.lockTimeout)
	return in
}

func (in *inode[K, V]) String() string {
	return fmt.Sprintf("inode@%p", in)
}

func (in *inode[K, V]) nodeLatch() *Latch { return in.latch }

func (in *inode[K, V]) isFull() bool {
	return len(in.keys) == cap(in.keys)
}

// childIndex returns the index of the first separator greater than key, or
// one past a separator equal to key.
func (in *inode[K, V]) childIndex(key K) int {
	i, found := slices.BinarySearch(in.keys, key)
	if found {
		return i + 1
	}
	return i
}

func (in *inode[K, V]) lockForWrite(op *operation) error {
	op.logf(in, "locking write")
	if err := in.latch.LockWrite(); err != nil {
		return err
	}
	op.logf(in, "LOCKED write")
	op.stack.push(in, in.latch.UnlockWrite)
	return nil
}

func (in *inode[K, V]) lockRead(op *operation) error {
	if err := in.latch.LockRead(); err != nil {
		return err
	}
	depth := op.stack.push(in, in.latch.UnlockRead)
	op.stack.releaseAncestors(depth)
	return nil
}

func (in *inode[K, V]) get(op *operation, key K) (V, bool, error) {
	if err := in.lockRead(op); err != nil {
		var zero V
		return zero, false, err
	}
	return in.children[in.childIndex(key)].get(op, key)
}

func (in *inode[K, V]) getRange(op *operation, start, end K) ([]Entry[K, V], error) {
	if err := in.lockRead(op); err != nil {
		return nil, err
	}
	return in.children[in.childIndex(start)].getRange(op, start, end)
}

// put expects this node's write lock on top of op.stack.
func (in *inode[K, V]) put(op *operation, e Entry[K, V]) (putResult[K, V], error) {
	depth := op.stack.top()
	child := in.children[in.childIndex(e.Key)]

	if err := child.lockForWrite(op); err != nil {
		return putResult[K, V]{}, err
	}

	// 有空位就不会分裂，上层的锁可以提前释放
	if !in.isFull() {
		op.logf(in, "releasing write ancestors early")
		op.stack.releaseAncestors(depth)
	}

	res, err := child.put(op, e)
	if err != nil || res.status == putSuccess {
		return res, err
	}

	res, err = in.insertPromoted(op, res)
	if err != nil {
		return res, err
	}
	if res.status == putSuccess {
		op.logf(in, "inserted promoted, releasing write")
	}
	op.stack.pop()
	return res, nil
}

// insertPromoted replaces the split child by its two halves. When this node
// is full it is split as well and the result is reported upward.
func (in *inode[K, V]) insertPromoted(op *operation, child putResult[K, V]) (putResult[K, V], error) {
	p := child.promoted

	if !in.isFull() {
		i, found := slices.BinarySearch(in.keys, p)
		if found {
			return putResult[K, V]{}, invariantf("%s: promoted key %v already a separator", in, p)
		}
		if in.children[i] != child.split {
			return putResult[K, V]{}, invariantf("%s: promoted key %v does not route to split child %s", in, p, child.split)
		}
		in.keys = slices.Insert(in.keys, i, p)
		in.children[i] = child.left
		in.children = slices.Insert(in.children, i+1, child.right)
		return success[K, V](child.inserted), nil
	}

	capacity := len(in.keys)
	half := capacity / 2
	last := in.keys[capacity-1]

	var (
		keys     []K
		children []node[K, V]
		left     *inode[K, V]
		right    *inode[K, V]
		up       K
		at       int
	)
	switch {
	case p < in.keys[0]:
		at = 0
		keys = append(append(keys, p), in.keys[:half-1]...)
		children = append(append(children, child.left, child.right), in.children[1:half]...)
		left = newInode(op.opts, keys, children)
		right = newInode(op.opts, in.keys[half:], in.children[half:])
		up = in.keys[half-1]

	case p > in.keys[0] && p < last:
		i, found := slices.BinarySearch(in.keys, p)
		if found {
			return putResult[K, V]{}, invariantf("%s: promoted key %v already a separator", in, p)
		}
		at = i
		children = append(append(children, in.children[:i]...), child.left)
		left = newInode(op.opts, in.keys[:i], children)
		children = append(append([]node[K, V]{}, child.right), in.children[i+1:]...)
		right = newInode(op.opts, in.keys[i:], children)
		up = p

	case p > last:
		at = capacity
		left = newInode(op.opts, in.keys[:half], in.children[:half+1])
		keys = append(append(keys, in.keys[half+1:]...), p)
		children = append(append(children, in.children[half+1:capacity]...), child.left, child.right)
		right = newInode(op.opts, keys, children)
		up = in.keys[half]

	default:
		return putResult[K, V]{}, invariantf("%s: promoted key %v equals a boundary separator", in, p)
	}

	if in.children[at] != child.split {
		return putResult[K, V]{}, invariantf("%s: promoted key %v does not route to split child %s", in, p, child.split)
	}

	in.latch.Finalize()
	op.logf(in, "split on promoted key %v, promoting %v", p, up)
	return putResult[K, V]{
		status:   putNodeFull,
		inserted: child.inserted,
		promoted: up,
		left:     left,
		right:    right,
		split:    in,
	}, nil
}
