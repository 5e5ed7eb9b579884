// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import "sync"

// chunkSlots is the fixed capacity of one evaluation-stack chunk.
const chunkSlots = 13

// entryKind discriminates the kinds of stack entry.
type entryKind uint8

const (
	entryCont entryKind = iota
	entryRedeem
	entryFinalizer
	entryGuard
)

// stackEntry is a continuation, a Redeem frame (carrying both an error and a
// success handler), a finalizer marker (a full IO run exactly once on every
// exit path), or a guard (a lightweight Go closure run on every exit path,
// used for bookkeeping — Uninterruptible's unmask, Supervise's scope pop —
// that never itself needs to suspend on an async boundary).
type stackEntry struct {
	kind entryKind

	cont func(Erased) *ioNode // entryCont

	onErr func(Erased) *ioNode // entryRedeem
	onOk  func(Erased) *ioNode // entryRedeem

	fin *ioNode // entryFinalizer

	guard func(cause Erased, failed bool) // entryGuard
}

// stackChunk is a fixed-size array of entries. When it fills, evalStack
// allocates a new chunk and links the old one via prev, preserving locality
// for the common (shallow) case while remaining unbounded. A typed prev
// pointer keeps the O(1) amortized push/pop bound without threading the
// outgoing chunk through one of its own entry slots.
type stackChunk struct {
	entries [chunkSlots]stackEntry
	n       int
	prev    *stackChunk
}

var chunkPool = sync.Pool{New: func() any { return new(stackChunk) }}

func acquireChunk() *stackChunk {
	c := chunkPool.Get().(*stackChunk)
	c.n = 0
	c.prev = nil
	return c
}

func releaseChunk(c *stackChunk) {
	for i := range c.entries[:c.n] {
		c.entries[i] = stackEntry{}
	}
	c.n = 0
	c.prev = nil
	chunkPool.Put(c)
}

// evalStack is the per-fiber chunked evaluation stack. It is owned
// exclusively by the fiber's current worker goroutine; interruptors never
// touch it directly.
type evalStack struct {
	top *stackChunk
}

func newEvalStack() *evalStack {
	return &evalStack{top: acquireChunk()}
}

// push appends an entry, allocating a new chunk if the current one is full.
func (s *evalStack) push(e stackEntry) {
	if s.top.n == chunkSlots {
		next := acquireChunk()
		next.prev = s.top
		s.top = next
	}
	s.top.entries[s.top.n] = e
	s.top.n++
}

func (s *evalStack) pushCont(f func(Erased) *ioNode) {
	s.push(stackEntry{kind: entryCont, cont: f})
}

func (s *evalStack) pushRedeem(onErr, onOk func(Erased) *ioNode) {
	s.push(stackEntry{kind: entryRedeem, onErr: onErr, onOk: onOk})
}

func (s *evalStack) pushFinalizer(fin *ioNode) {
	s.push(stackEntry{kind: entryFinalizer, fin: fin})
}

func (s *evalStack) pushGuard(guard func(cause Erased, failed bool)) {
	s.push(stackEntry{kind: entryGuard, guard: guard})
}

// pop removes and returns the top entry. The second return is false when the
// stack is empty (in which case the first return is the zero stackEntry).
func (s *evalStack) pop() (stackEntry, bool) {
	for s.top.n == 0 {
		if s.top.prev == nil {
			return stackEntry{}, false
		}
		drained := s.top
		s.top = s.top.prev
		releaseChunk(drained)
	}
	s.top.n--
	e := s.top.entries[s.top.n]
	s.top.entries[s.top.n] = stackEntry{}
	return e, true
}

func (s *evalStack) empty() bool {
	c := s.top
	for c != nil {
		if c.n > 0 {
			return false
		}
		c = c.prev
	}
	return true
}

// release returns every chunk owned by the stack to the pool. Called once a
// fiber reaches Done; the stack is never touched again afterward.
func (s *evalStack) release() {
	c := s.top
	s.top = nil
	for c != nil {
		prev := c.prev
		releaseChunk(c)
		c = prev
	}
}
