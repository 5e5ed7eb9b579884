// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// FiberID is a stable, loggable identity for a Fiber, independent of the
// process's in-memory representation. Assigned from github.com/google/uuid
// at creation so external supervisors and
// log aggregation can correlate a fiber across log lines without holding a
// reference to the Go value.
type FiberID = uuid.UUID

// Fiber is the per-fiber mutable context: the evaluation stack, supervision
// scopes, interrupt bookkeeping, and atomic status cell. It is created on
// Fork/Run or a top-level UnsafeRun entry point, and is immutable once its
// status reaches Done.
type Fiber struct {
	id FiberID

	host *RTS

	stack *evalStack

	// noInterrupt is the nesting depth of Uninterruptible regions.
	noInterrupt atomic.Int32

	// supervisionScopes is innermost-first; Fork consults the innermost
	// scope (if any) to register the new child.
	supervisionMu     sync.Mutex
	supervisionScopes []*supervisionScope

	// the scopes (in any ancestor fiber, or this one) this fiber itself was
	// registered into, so it can unlink itself from all of them on Done
	// without waiting for a GC cycle to drop the weak pointer.
	registeredIn []*supervisionScope

	unhandled func(defect any) *ioNode

	// onSettle, when non-nil, is an additional direct notification of the
	// fiber's exitResult, used by evaluateToExit for fibers that exist only
	// to synchronously service a finalizer, an effectful canceler or an
	// AsyncEffect registration and have no real joiner of their own to
	// register via join.
	onSettle func(exitResult)

	opCount int

	status atomic.Pointer[fiberStatus]
}

func newFiber(host *RTS, unhandled func(defect any) *ioNode) *Fiber {
	f := &Fiber{
		id:        uuid.New(),
		host:      host,
		stack:     newEvalStack(),
		unhandled: unhandled,
	}
	f.status.Store(initialStatus())
	return f
}

// ID returns the fiber's stable identity.
func (f *Fiber) ID() FiberID { return f.id }

// cancelAsync invokes the innermost registered canceler, if any, reporting
// host exceptions (recovered panics) from within it to the unhandled
// handler rather than letting them escape the kill path.
func (f *Fiber) cancelAsync(canceler func(any), defect any) {
	if canceler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.host.reportUnhandled(f, r)
		}
	}()
	canceler(defect)
}

// finishInterrupt unwinds the stack (running any guards/finalizers found)
// on a host worker goroutine, then notifies joiners/killers. Scheduling the
// unwind onto the pool, rather than running it inline on whatever goroutine
// called kill, keeps an external caller's Interrupt non-blocking regardless
// of how much cleanup the killed fiber has registered.
func (f *Fiber) finishInterrupt(joiners []func(exitResult), killers []func(), defect any, killCb func()) {
	allKillers := append(append([]func(){}, killers...), killCb)
	f.host.submit(func() {
		f.unwindForDefect(defect)
		f.stack.release()
		f.unlinkFromSupervisionScopes()
		fanout(f.host, allKillers, joiners, exitResult{kind: exitTerminated, defect: defect})
	})
}

// FiberHandle is the typed, caller-facing handle to a forked fiber, returned
// by Fork and by Race's finisher combinators. It exposes Join and Interrupt
// without leaking the interpreter's internal Fiber representation.
type FiberHandle[E, A any] struct {
	fiber *Fiber
}

// ID returns the underlying fiber's identity.
func (h *FiberHandle[E, A]) ID() FiberID { return h.fiber.ID() }

// Join returns an IO that completes with the fiber's ExitResult once it
// settles (Completed, Failed, or Terminated never propagates as a raised
// error/defect of the Join itself — that is the point of Join vs awaiting
// the fiber's raw result).
func (h *FiberHandle[E, A]) Join() IO[E, ExitResult[E, A]] {
	fiber := h.fiber
	return Async(func(resume func(ExitResult[E, ExitResult[E, A]])) AsyncDescriptor[E, ExitResult[E, A]] {
		fiber.join(func(exit exitResult) {
			resume(Completed[E, ExitResult[E, A]](fromErasedExit[E, A](exit)))
		})
		return AsyncLater[E, ExitResult[E, A]](func(any) {})
	})
}

// Interrupt requests that the fiber terminate with the given defect. The
// returned IO completes once the fiber has reacted to this interrupt (or at
// once if it is already Done); use Join to observe its ExitResult.
func (h *FiberHandle[E, A]) Interrupt(defect any) IO[Nothing, struct{}] {
	fiber := h.fiber
	return Async(func(resume func(ExitResult[Nothing, struct{}])) AsyncDescriptor[Nothing, struct{}] {
		fiber.kill(defect, func() {
			resume(Completed[Nothing, struct{}](struct{}{}))
		})
		return AsyncLater[Nothing, struct{}](func(any) {})
	})
}
