package bplustree

import "fmt"

// guard is one held lock (or group of locks acquired as a unit, such as a
// leaf write lock with its neighbor gates).
type guard struct {
	what   fmt.Stringer
	unlock func()
}

// guardStack records the latches a traversal currently holds, root first.
//
// Lock coupling releases a prefix of the stack (the ancestors of a node that
// turned out to be safe) or pops the top (a node that finished its work).
// guards[:base] have already been released.
type guardStack struct {
	op     *operation
	guards []guard
	base   int
}

// push records a held lock and returns its depth.
func (s *guardStack) push(what fmt.Stringer, unlock func()) int {
	s.guards = append(s.guards, guard{what: what, unlock: unlock})
	return len(s.guards) - 1
}

// releaseAncestors releases every guard above depth (closer to the root).
func (s *guardStack) releaseAncestors(depth int) {
	if depth > len(s.guards) {
		depth = len(s.guards)
	}
	for i := s.base; i < depth; i++ {
		s.release(i)
	}
	if depth > s.base {
		s.base = depth
	}
}

// pop releases the top guard.
func (s *guardStack) pop() {
	top := len(s.guards) - 1
	if top < 0 {
		return
	}
	if top >= s.base {
		s.release(top)
	}
	s.guards = s.guards[:top]
	if s.base > top {
		s.base = top
	}
}

// releaseAll releases everything still held, deepest first.
func (s *guardStack) releaseAll() {
	for i := len(s.guards) - 1; i >= s.base; i-- {
		s.release(i)
	}
	s.guards = s.guards[:0]
	s.base = 0
}

// top returns the depth of the most recently pushed guard.
func (s *guardStack) top() int {
	return len(s.guards) - 1
}

// held returns the number of guards not yet released.
func (s *guardStack) held() int {
	return len(s.guards) - s.base
}

func (s *guardStack) release(i int) {
	g := s.guards[i]
	if g.unlock == nil {
		return
	}
	if s.op != nil {
		s.op.logf(g.what, "releasing")
	}
	g.unlock()
	s.guards[i].unlock = nil
}
