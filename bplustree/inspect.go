package bplustree

import (
	"cmp"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// The helpers in this file walk the tree without per-node latches. They hold
// the root latch in write mode, which keeps new operations out, but they must
// not run while a Put is still in flight below the root.

func (t *Tree[K, V]) quiesce() (func(), error) {
	if err := t.rootLatch.LockWrite(); err != nil {
		return nil, err
	}
	return t.rootLatch.UnlockWrite, nil
}

// Height returns the number of levels, 1 for a tree that is a single leaf.
func (t *Tree[K, V]) Height() (int, error) {
	unlock, err := t.quiesce()
	if err != nil {
		return 0, err
	}
	defer unlock()

	height := 1
	for n := t.root; ; height++ {
		in, ok := n.(*inode[K, V])
		if !ok {
			return height, nil
		}
		n = in.children[0]
	}
}

func (t *Tree[K, V]) leftmostLeaf() *leaf[K, V] {
	n := t.root
	for {
		switch x := n.(type) {
		case *inode[K, V]:
			n = x.children[0]
		case *leaf[K, V]:
			return x
		}
	}
}

// Utilization returns the average leaf fill in percent.
func (t *Tree[K, V]) Utilization() (float64, error) {
	unlock, err := t.quiesce()
	if err != nil {
		return 0, err
	}
	defer unlock()

	leaves, used := 0, 0
	for l := t.leftmostLeaf(); l != nil; l = l.rightLink.getRight() {
		leaves++
		used += len(l.entries)
	}
	return float64(used) / float64(leaves*t.opts.capacity) * 100.0, nil
}

// Checksum returns an xxhash64 digest of the contents in key order. Two
// trees holding the same entries produce the same checksum regardless of
// their shape.
func (t *Tree[K, V]) Checksum() (uint64, error) {
	unlock, err := t.quiesce()
	if err != nil {
		return 0, err
	}
	defer unlock()

	d := xxhash.New()
	for l := t.leftmostLeaf(); l != nil; l = l.rightLink.getRight() {
		for _, e := range l.entries {
			fmt.Fprintf(d, "%v=%v;", e.Key, e.Value)
		}
	}
	return d.Sum64(), nil
}

// Verify checks the structural invariants: sorted separators and entries,
// keys within the bounds their parents route to, all leaves at one depth,
// a leaf chain matching the in-order leaves with consistent links, no
// finalized node reachable, and Len matching the stored entries.
func (t *Tree[K, V]) Verify() error {
	unlock, err := t.quiesce()
	if err != nil {
		return err
	}
	defer unlock()

	v := verifier[K, V]{capacity: t.opts.capacity, leafDepth: -1}
	if err := v.check(t.root, nil, nil, 0); err != nil {
		return err
	}

	// 叶子链必须与中序遍历得到的叶子完全一致
	i := 0
	var prev *leaf[K, V]
	for l := t.leftmostLeaf(); l != nil; l = l.rightLink.getRight() {
		if i >= len(v.leaves) || v.leaves[i] != l {
			return invariantf("leaf chain diverges from tree order at leaf %d (%s)", i, l)
		}
		if l.leftLink.getRight() != l || l.rightLink.getLeft() != l {
			return invariantf("%s: links do not point back", l)
		}
		if prev == nil && l.leftLink.getLeft() != nil {
			return invariantf("%s: first leaf has a left neighbor", l)
		}
		if prev != nil && prev.rightLink != l.leftLink {
			return invariantf("%s and %s do not share a link", prev, l)
		}
		if prev != nil && len(prev.entries) > 0 && len(l.entries) > 0 &&
			prev.entries[len(prev.entries)-1].Key >= l.entries[0].Key {
			return invariantf("%s and %s overlap", prev, l)
		}
		prev = l
		i++
	}
	if i != len(v.leaves) {
		return invariantf("leaf chain has %d leaves, tree has %d", i, len(v.leaves))
	}
	if v.entries != t.Len() {
		return invariantf("tree holds %d entries, Len reports %d", v.entries, t.Len())
	}
	return nil
}

type verifier[K cmp.Ordered, V any] struct {
	capacity  int
	leafDepth int
	leaves    []*leaf[K, V]
	entries   int
}

// check verifies the subtree n whose keys must lie in [lo, hi); nil means unbounded.
func (v *verifier[K, V]) check(n node[K, V], lo, hi *K, depth int) error {
	if n.nodeLatch().Finalized() {
		return invariantf("%s: finalized node is reachable", n)
	}
	inBounds := func(k K) bool {
		return (lo == nil || k >= *lo) && (hi == nil || k < *hi)
	}

	switch x := n.(type) {
	case *leaf[K, V]:
		if v.leafDepth == -1 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return invariantf("%s: leaf at depth %d, expected %d", x, depth, v.leafDepth)
		}
		if len(x.entries) > v.capacity {
			return invariantf("%s: %d entries exceed capacity %d", x, len(x.entries), v.capacity)
		}
		if depth > 0 && len(x.entries) == 0 {
			return invariantf("%s: empty non-root leaf", x)
		}
		for i, e := range x.entries {
			if i > 0 && x.entries[i-1].Key >= e.Key {
				return invariantf("%s: entries not strictly ascending at %d", x, i)
			}
			if !inBounds(e.Key) {
				return invariantf("%s: key %v outside its parent's range", x, e.Key)
			}
		}
		v.leaves = append(v.leaves, x)
		v.entries += len(x.entries)

	case *inode[K, V]:
		if len(x.keys) == 0 || len(x.keys) > v.capacity {
			return invariantf("%s: %d separators", x, len(x.keys))
		}
		if len(x.children) != len(x.keys)+1 {
			return invariantf("%s: %d separators but %d children", x, len(x.keys), len(x.children))
		}
		for i, k := range x.keys {
			if i > 0 && x.keys[i-1] >= k {
				return invariantf("%s: separators not strictly ascending at %d", x, i)
			}
			if !inBounds(k) {
				return invariantf("%s: separator %v outside its parent's range", x, k)
			}
		}
		for i, child := range x.children {
			childLo, childHi := lo, hi
			if i > 0 {
				childLo = &x.keys[i-1]
			}
			if i < len(x.keys) {
				childHi = &x.keys[i]
			}
			if err := v.check(child, childLo, childHi, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dump writes the tree structure to w.
func (t *Tree[K, V]) Dump(w io.Writer) error {
	unlock, err := t.quiesce()
	if err != nil {
		return err
	}
	defer unlock()

	fmt.Fprintln(w, "BPlusTree Structure:")
	dumpNode(w, t.root, "", true)
	return nil
}

func dumpNode[K cmp.Ordered, V any](w io.Writer, n node[K, V], prefix string, isTail bool) {
	switch x := n.(type) {
	case *inode[K, V]:
		fmt.Fprintf(w, "%s%s INode(keys=%v)\n", prefix, leafConnector(isTail), x.keys)
		for i, child := range x.children {
			dumpNode(w, child, prefix+nextLevelPrefix(isTail), i == len(x.children)-1)
		}
	case *leaf[K, V]:
		keys := make([]K, len(x.entries))
		for i, e := range x.entries {
			keys[i] = e.Key
		}
		fmt.Fprintf(w, "%s%s Leaf(count=%d) %v\n", prefix, leafConnector(isTail), len(x.entries), keys)
	}
}

func leafConnector(isTail bool) string {
	if isTail {
		return "└──"
	}
	return "├──"
}

func nextLevelPrefix(isTail bool) string {
	if isTail {
		return "    "
	}
	return "│   "
}
