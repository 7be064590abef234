package bplustree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type named string

func (n named) String() string { return string(n) }

func TestGuardStackCoupling(t *testing.T) {
	var released []string
	s := guardStack{}
	push := func(name string) int {
		return s.push(named(name), func() { released = append(released, name) })
	}

	push("root")
	push("a")
	depth := push("b")
	assert.Equal(t, 3, s.held())
	assert.Equal(t, depth, s.top())

	// b is safe: everything above it goes
	s.releaseAncestors(depth)
	assert.Equal(t, []string{"root", "a"}, released)
	assert.Equal(t, 1, s.held())

	// releasing the same prefix twice is a no-op
	s.releaseAncestors(depth)
	assert.Equal(t, []string{"root", "a"}, released)

	child := push("c")
	s.releaseAncestors(child)
	assert.Equal(t, []string{"root", "a", "b"}, released)

	s.pop()
	assert.Equal(t, []string{"root", "a", "b", "c"}, released)
	assert.Equal(t, 0, s.held())

	s.releaseAll()
	assert.Len(t, released, 4)
}

func TestGuardStackReleaseAllDeepestFirst(t *testing.T) {
	var released []string
	s := guardStack{}
	for _, name := range []string{"root", "a", "b"} {
		name := name
		s.push(named(name), func() { released = append(released, name) })
	}

	s.releaseAll()
	assert.Equal(t, []string{"b", "a", "root"}, released)
	assert.Equal(t, 0, s.held())
	assert.Equal(t, -1, s.top())

	s.pop()
	assert.Len(t, released, 3)
}
