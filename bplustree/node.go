package bplustree

import (
	"cmp"
	"fmt"
)

// node is either a *leaf or an *inode.
type node[K cmp.Ordered, V any] interface {
	fmt.Stringer

	// lockForWrite takes the node's write lock the way a writer must before
	// calling put and pushes it on the operation's guard stack.
	lockForWrite(op *operation) error

	// get, getRange and put expect the caller's latches on op.stack and
	// release them through the stack as soon as they are no longer needed.
	get(op *operation, key K) (V, bool, error)
	getRange(op *operation, start, end K) ([]Entry[K, V], error)
	put(op *operation, e Entry[K, V]) (putResult[K, V], error)

	nodeLatch() *Latch
}

// putResult is what a node reports to its parent after put.
//
// On putNodeFull the node has been finalized, released, and replaced by
// left and right; promoted is the separator between them.
type putResult[K cmp.Ordered, V any] struct {
	status   putStatus
	inserted bool // 新 key（而不是覆盖）

	promoted K
	left     node[K, V]
	right    node[K, V]
	split    node[K, V]
}

func success[K cmp.Ordered, V any](inserted bool) putResult[K, V] {
	return putResult[K, V]{status: putSuccess, inserted: inserted}
}
