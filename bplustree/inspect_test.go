package bplustree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumIgnoresInsertOrder(t *testing.T) {
	asc := newTestTree(t, WithCapacity(3))
	desc := newTestTree(t, WithCapacity(5))
	for k := 0; k < 200; k++ {
		require.NoError(t, asc.Put(k, "v"))
		require.NoError(t, desc.Put(199-k, "v"))
	}

	a, err := asc.Checksum()
	require.NoError(t, err)
	d, err := desc.Checksum()
	require.NoError(t, err)
	assert.Equal(t, a, d)

	empty, err := newTestTree(t).Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, a, empty)
}

func TestUtilization(t *testing.T) {
	tree := newTestTree(t, WithCapacity(4))
	u, err := tree.Utilization()
	require.NoError(t, err)
	assert.Zero(t, u)

	for k := 1; k <= 4; k++ {
		require.NoError(t, tree.Put(k, "v"))
	}
	u, err = tree.Utilization()
	require.NoError(t, err)
	assert.InDelta(t, 100.0, u, 1e-9)

	require.NoError(t, tree.Put(5, "v"))
	u, err = tree.Utilization()
	require.NoError(t, err)
	assert.InDelta(t, 62.5, u, 1e-9)
}

func TestDump(t *testing.T) {
	tree := newTestTree(t, WithCapacity(4))
	for k := 1; k <= 5; k++ {
		require.NoError(t, tree.Put(k, "v"))
	}

	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "BPlusTree Structure:", lines[0])
	assert.Equal(t, "└── INode(keys=[3])", lines[1])
	assert.Equal(t, "    ├── Leaf(count=2) [1 2]", lines[2])
	assert.Equal(t, "    └── Leaf(count=3) [3 4 5]", lines[3])
}

func TestVerifyDetectsBrokenStructure(t *testing.T) {
	tree := newTestTree(t, WithCapacity(4))
	for k := 1; k <= 12; k++ {
		require.NoError(t, tree.Put(k, "v"))
	}
	require.NoError(t, tree.Verify())

	root := tree.root.(*inode[int, string])
	l := root.children[1].(*leaf[int, string])

	l.entries[0], l.entries[1] = l.entries[1], l.entries[0]
	assert.ErrorIs(t, tree.Verify(), ErrInvariantViolation)
	l.entries[0], l.entries[1] = l.entries[1], l.entries[0]
	require.NoError(t, tree.Verify())

	saved := root.keys[0]
	root.keys[0] = 100
	assert.ErrorIs(t, tree.Verify(), ErrInvariantViolation)
	root.keys[0] = saved

	l.latch.Finalize()
	err := tree.Verify()
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "finalized")
}

func TestVerifyDetectsBrokenChain(t *testing.T) {
	tree := newTestTree(t, WithCapacity(4))
	for k := 1; k <= 12; k++ {
		require.NoError(t, tree.Put(k, "v"))
	}
	root := tree.root.(*inode[int, string])
	first := root.children[0].(*leaf[int, string])

	second := first.rightLink.getRight()
	first.rightLink.setRight(nil)
	assert.ErrorIs(t, tree.Verify(), ErrInvariantViolation)
	first.rightLink.setRight(second)
	require.NoError(t, tree.Verify())
}
