// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"runtime"
	"time"
)

// nodeForExit translates a settled exitResult back into the node shape the
// main interpreter dispatch already knows how to continue from, so async
// resumption and AsyncNow need no dispatch logic of their own.
func nodeForExit(e exitResult) *ioNode {
	switch e.kind {
	case exitCompleted:
		return &ioNode{tag: tagPure, value: e.value}
	case exitFailed:
		return &ioNode{tag: tagFail, failErr: e.err}
	default:
		return &ioNode{tag: tagTerminate, defect: e.defect}
	}
}

// registerChildInScope adds child to f's innermost open Supervise block, if
// any.
func (f *Fiber) registerChildInScope(child *Fiber) {
	if scope := f.innermostSupervisionScope(); scope != nil {
		scope.register(child)
	}
}

// doFork creates and schedules node's child fiber, returning the raw *Fiber
// boxed through forkWrap into the statically-typed *FiberHandle the caller
// asked for.
func (f *Fiber) doFork(node *ioNode) Erased {
	handler := f.unhandled
	if node.forkHandler != nil {
		handler = func(defect any) *ioNode { return node.forkHandler(defect) }
	}
	child := newFiber(f.host, handler)
	f.registerChildInScope(child)
	logFork(f.host.logger, child.ID(), f.ID())
	f.host.submit(func() { child.evaluate(node.forkChild) })
	return node.forkWrap(child)
}

// doRun forks node's child, then suspends this fiber on the child's Join,
// resuming with the child's ExitResult wrapped via runWrap.
// A running child is never auto-interrupted by its parent's own interrupt —
// the same "independent unless Supervised" rule as Fork.
func (f *Fiber) doRun(node *ioNode) {
	child := newFiber(f.host, f.unhandled)
	f.registerChildInScope(child)
	f.host.submit(func() { child.evaluate(node.runChild) })

	id := f.enterAsyncStart()
	child.join(func(exit exitResult) {
		if !f.shouldResumeAsync() {
			return
		}
		f.enterAsyncEnd()
		wrapped := node.runWrap(exit)
		f.host.submit(func() { f.resumeWith(exitResult{kind: exitCompleted, value: wrapped}) })
	})
	f.awaitAsync(id, func(any) {})
}

// doSleep suspends the fiber for d using a stdlib timer, resuming with Unit
// unless cancelled by an interrupt first.
func (f *Fiber) doSleep(d time.Duration) {
	id := f.enterAsyncStart()
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		if !f.shouldResumeAsync() {
			return
		}
		f.enterAsyncEnd()
		f.host.submit(func() { f.resumeWith(exitResult{kind: exitCompleted, value: struct{}{}}) })
	})
	f.awaitAsync(id, func(any) { timer.Stop() })
}

// beginAsync registers node's callback-style async action.
func (f *Fiber) beginAsync(register func(resume func(Erased)) asyncDescriptor) (next *ioNode, suspended bool) {
	id := f.enterAsyncStart()
	resume := func(v Erased) {
		if !f.shouldResumeAsync() {
			return
		}
		f.enterAsyncEnd()
		exit := v.(exitResult)
		f.host.submit(func() { f.resumeWith(exit) })
	}
	desc, defect, panicked := safeRegister(register, resume)
	if panicked {
		f.enterAsyncEnd()
		return f.enterDefect(defect)
	}
	switch desc.kind {
	case asyncNow:
		if !f.shouldResumeAsync() {
			return nil, true
		}
		f.enterAsyncEnd()
		return nodeForExit(desc.now), false
	case asyncMaybeLater:
		f.awaitAsync(id, desc.canceler)
		return nil, true
	case asyncMaybeLaterIO:
		canceler := desc.pureCanceler
		f.awaitAsync(id, func(defect any) {
			f.host.submit(func() {
				exit := f.evaluateToExit(canceler)
				if exit.kind == exitTerminated {
					f.host.reportUnhandled(f, exit.defect)
				}
			})
		})
		return nil, true
	default:
		panic("iort: internal: unknown asyncDescriptorKind")
	}
}

// beginAsyncIO runs node's registration effect uninterruptibly before
// entering the async wait. AsyncEffect
// offers no canceler of its own: the registration effect is the only setup
// step the caller controls.
func (f *Fiber) beginAsyncIO(registerEffect func(resume func(Erased)) *ioNode) (next *ioNode, suspended bool) {
	id := f.enterAsyncStart()
	resume := func(v Erased) {
		if !f.shouldResumeAsync() {
			return
		}
		f.enterAsyncEnd()
		exit := v.(exitResult)
		f.host.submit(func() { f.resumeWith(exit) })
	}
	regNode := registerEffect(resume)
	regExit := f.evaluateToExit(regNode)
	if regExit.kind != exitCompleted {
		f.enterAsyncEnd()
		if regExit.kind == exitFailed {
			return f.enterFail(regExit.err)
		}
		return f.enterDefect(regExit.defect)
	}
	f.awaitAsync(id, nil)
	return nil, true
}

func safeRegister(register func(resume func(Erased)) asyncDescriptor, resume func(Erased)) (desc asyncDescriptor, defect Erased, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(runtime.Error); fatal {
				panic(r)
			}
			defect, panicked = r, true
		}
	}()
	desc = register(resume)
	return
}
