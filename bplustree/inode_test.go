package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullInode builds an internal node with separators 10, 20, 30, 40 over five empty leaves.
func fullInode(opts *options) (*inode[int, string], []node[int, string]) {
	children := make([]node[int, string], 5)
	for i := range children {
		children[i] = newLeaf[int, string](opts, nil, nil, nil)
	}
	return newInode(opts, []int{10, 20, 30, 40}, children), children
}

func splitOf(opts *options, split node[int, string], promoted int) (putResult[int, string], node[int, string], node[int, string]) {
	l := newLeaf[int, string](opts, nil, nil, nil)
	r := newLeaf[int, string](opts, nil, nil, nil)
	return putResult[int, string]{
		status:   putNodeFull,
		inserted: true,
		promoted: promoted,
		left:     l,
		right:    r,
		split:    split,
	}, l, r
}

func TestInodeChildIndexIsRightBiased(t *testing.T) {
	opts := newTestOptions(4)
	in, _ := fullInode(opts)

	tests := []struct {
		key  int
		want int
	}{
		{5, 0},
		{10, 1}, // equal goes right
		{15, 1},
		{20, 2},
		{39, 3},
		{40, 4},
		{100, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, in.childIndex(tt.key), "key %d", tt.key)
	}
}

func TestInodeInsertPromotedWithRoom(t *testing.T) {
	opts := newTestOptions(4)
	c := []node[int, string]{
		newLeaf[int, string](opts, nil, nil, nil),
		newLeaf[int, string](opts, nil, nil, nil),
		newLeaf[int, string](opts, nil, nil, nil),
	}
	in := newInode(opts, []int{10, 30}, c)

	child, l, r := splitOf(opts, c[1], 20)
	res, err := in.insertPromoted(newOperation(opts), child)
	require.NoError(t, err)
	assert.Equal(t, putSuccess, res.status)
	assert.True(t, res.inserted)
	assert.Equal(t, []int{10, 20, 30}, in.keys)
	assert.Equal(t, []node[int, string]{c[0], l, r, c[2]}, in.children)
	assert.False(t, in.latch.Finalized())
}

func TestInodeSplitPromotedBeforeFirst(t *testing.T) {
	opts := newTestOptions(4)
	in, c := fullInode(opts)

	child, l, r := splitOf(opts, c[0], 5)
	res, err := in.insertPromoted(newOperation(opts), child)
	require.NoError(t, err)
	require.Equal(t, putNodeFull, res.status)
	assert.Equal(t, 20, res.promoted)
	assert.True(t, in.latch.Finalized())

	left := res.left.(*inode[int, string])
	right := res.right.(*inode[int, string])
	assert.Equal(t, []int{5, 10}, left.keys)
	assert.Equal(t, []node[int, string]{l, r, c[1]}, left.children)
	assert.Equal(t, []int{30, 40}, right.keys)
	assert.Equal(t, []node[int, string]{c[2], c[3], c[4]}, right.children)
}

func TestInodeSplitPromotedInMiddle(t *testing.T) {
	opts := newTestOptions(4)
	in, c := fullInode(opts)

	child, l, r := splitOf(opts, c[2], 25)
	res, err := in.insertPromoted(newOperation(opts), child)
	require.NoError(t, err)
	require.Equal(t, putNodeFull, res.status)
	assert.Equal(t, 25, res.promoted)

	left := res.left.(*inode[int, string])
	right := res.right.(*inode[int, string])
	assert.Equal(t, []int{10, 20}, left.keys)
	assert.Equal(t, []node[int, string]{c[0], c[1], l}, left.children)
	assert.Equal(t, []int{30, 40}, right.keys)
	assert.Equal(t, []node[int, string]{r, c[3], c[4]}, right.children)
}

func TestInodeSplitPromotedAfterLast(t *testing.T) {
	opts := newTestOptions(4)
	in, c := fullInode(opts)

	child, l, r := splitOf(opts, c[4], 45)
	res, err := in.insertPromoted(newOperation(opts), child)
	require.NoError(t, err)
	require.Equal(t, putNodeFull, res.status)
	assert.Equal(t, 30, res.promoted)

	left := res.left.(*inode[int, string])
	right := res.right.(*inode[int, string])
	assert.Equal(t, []int{10, 20}, left.keys)
	assert.Equal(t, []node[int, string]{c[0], c[1], c[2]}, left.children)
	assert.Equal(t, []int{40, 45}, right.keys)
	assert.Equal(t, []node[int, string]{c[3], l, r}, right.children)
}

func TestInodeSplitOddCapacity(t *testing.T) {
	opts := newTestOptions(3)
	c := make([]node[int, string], 4)
	for i := range c {
		c[i] = newLeaf[int, string](opts, nil, nil, nil)
	}

	for _, tt := range []struct {
		promoted int
		at       int
	}{{5, 0}, {25, 2}, {35, 3}} {
		in := newInode(opts, []int{10, 20, 30}, c)
		child, _, _ := splitOf(opts, c[tt.at], tt.promoted)
		res, err := in.insertPromoted(newOperation(opts), child)
		require.NoError(t, err)

		left := res.left.(*inode[int, string])
		right := res.right.(*inode[int, string])
		assert.Len(t, left.children, len(left.keys)+1)
		assert.Len(t, right.children, len(right.keys)+1)
		assert.Equal(t, 3, len(left.keys)+len(right.keys), "promoted %d", tt.promoted)
		assert.NotEmpty(t, left.keys)
		assert.NotEmpty(t, right.keys)
	}
}

func TestInodeDuplicateSeparatorIsInvariantViolation(t *testing.T) {
	opts := newTestOptions(4)

	in, c := fullInode(opts)
	child, _, _ := splitOf(opts, c[1], 10)
	_, err := in.insertPromoted(newOperation(opts), child)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.False(t, in.latch.Finalized(), "a rejected split must not retire the node")

	in, c = fullInode(opts)
	child, _, _ = splitOf(opts, c[3], 30)
	_, err = in.insertPromoted(newOperation(opts), child)
	assert.ErrorIs(t, err, ErrInvariantViolation)

	c2 := []node[int, string]{
		newLeaf[int, string](opts, nil, nil, nil),
		newLeaf[int, string](opts, nil, nil, nil),
	}
	room := newInode(opts, []int{10}, c2)
	child, _, _ = splitOf(opts, c2[1], 10)
	_, err = room.insertPromoted(newOperation(opts), child)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestInodeSplitChildMismatchIsInvariantViolation(t *testing.T) {
	opts := newTestOptions(4)
	in, c := fullInode(opts)

	// 25 routes to c[2], not c[1]
	child, _, _ := splitOf(opts, c[1], 25)
	_, err := in.insertPromoted(newOperation(opts), child)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
