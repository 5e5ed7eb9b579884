// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import "runtime"

// evaluate drives the fiber forward from node, synchronously on the calling
// goroutine, until it either settles (calls Fiber.done) or suspends on an
// async boundary — at which point it returns, releasing the goroutine back
// to the pool. Resumption re-enters evaluate from a fresh stack frame via
// resumeWith, submitted back onto the host pool by whatever triggers it.
//
// Every iteration first checks for a deferred interrupt: kill records its
// defect on the status cell rather than acting on it directly whenever the
// fiber is uninterruptible or mid-async-entry, and this is where that
// deferral is redeemed — the loop swaps in a synthetic Terminate node the
// moment noInterrupt next reads zero, so the interrupt takes effect at the
// fiber's next interruptible step rather than being silently dropped.
//
// The Sequence fast path — apply the bind function directly instead of
// constructing and immediately tearing down a frame — is the tagSeq case
// peeking at its inner node's tag: a Pure value, or the result of running a
// Lazy/Sync thunk inline, is applied to bind with no stack push at all; anything else
// falls back to pushing a continuation and descending, recovered later by
// advance.
func (f *Fiber) evaluate(start *ioNode) {
	node := start
	for {
		if status := f.status.Load(); status.hasErr && f.noInterrupt.Load() == 0 {
			node = &ioNode{tag: tagTerminate, defect: status.errVal}
			f.noInterrupt.Add(1)
		}

		if limit := f.host.config.YieldMaxOpCount; limit > 0 {
			f.opCount++
			if f.opCount >= limit {
				f.opCount = 0
				next := node
				f.host.submit(func() { f.evaluate(next) })
				return
			}
		}

		switch node.tag {
		case tagPure:
			next, stop := f.advance(node.value)
			if stop {
				return
			}
			node = next

		case tagLazy, tagSync:
			v, defect, panicked := safeThunk(node.thunk)
			if panicked {
				f.enterDefect(defect)
				return
			}
			next, stop := f.advance(v)
			if stop {
				return
			}
			node = next

		case tagSeq:
			// Fast path: when the immediate producer is already a value
			// (Pure) or a thunk that yields one synchronously (Lazy/Sync),
			// apply bind directly instead of pushing a continuation only to
			// pop and apply it on the very next loop iteration.
			switch node.inner.tag {
			case tagPure:
				n, defect, panicked := safeInvoke(node.bind, node.inner.value)
				if panicked {
					f.enterDefect(defect)
					return
				}
				node = n
			case tagLazy, tagSync:
				v, defect, panicked := safeThunk(node.inner.thunk)
				if panicked {
					f.enterDefect(defect)
					return
				}
				n, defect, panicked := safeInvoke(node.bind, v)
				if panicked {
					f.enterDefect(defect)
					return
				}
				node = n
			default:
				f.stack.pushCont(node.bind)
				node = node.inner
			}

		case tagRedeem:
			f.stack.pushRedeem(node.onErr, node.onOk)
			node = node.inner

		case tagFail:
			next, stop := f.enterFail(node.failErr)
			if stop {
				return
			}
			node = next

		case tagTerminate:
			f.enterDefect(node.defect)
			return

		case tagSuspend:
			next, defect, panicked := safeSuspend(node.suspend)
			if panicked {
				f.enterDefect(defect)
				return
			}
			node = next

		case tagUninterruptible:
			f.noInterrupt.Add(1)
			f.stack.pushGuard(func(Erased, bool) { f.noInterrupt.Add(-1) })
			node = node.inner

		case tagSupervise:
			scope := f.enterSupervision()
			cause := node.cause
			f.stack.pushGuard(func(Erased, bool) { f.exitSupervision(scope, cause) })
			node = node.inner

		case tagEnsuring:
			f.stack.pushFinalizer(node.finalizer)
			node = node.inner

		case tagSupervisor:
			next, stop := f.advance(f.currentUnhandled())
			if stop {
				return
			}
			node = next

		case tagFork:
			handle, defect, panicked := safeFork(func() Erased { return f.doFork(node) })
			if panicked {
				f.enterDefect(defect)
				return
			}
			next, stop := f.advance(handle)
			if stop {
				return
			}
			node = next

		case tagRun:
			f.doRun(node)
			return

		case tagRace:
			f.doRace(node)
			return

		case tagSleep:
			f.doSleep(node.sleep)
			return

		case tagAsync:
			next, suspended := f.beginAsync(node.register)
			if suspended {
				return
			}
			node = next

		case tagAsyncIO:
			next, suspended := f.beginAsyncIO(node.registerEffect)
			if suspended {
				return
			}
			node = next

		default:
			panic("iort: internal: unknown ioTag")
		}
	}
}

// advance pops the next stack entry and applies it to value, the result of
// whatever just completed successfully. Guards and finalizers run inline and
// are skipped over; the two value-producing entries (plain continuations and
// a Redeem's success handler) return the next node to execute. An empty
// stack means the fiber is done.
func (f *Fiber) advance(value Erased) (next *ioNode, stop bool) {
	for {
		entry, ok := f.stack.pop()
		if !ok {
			f.done(exitResult{kind: exitCompleted, value: value})
			return nil, true
		}
		switch entry.kind {
		case entryCont:
			n, defect, panicked := safeInvoke(entry.cont, value)
			if panicked {
				return f.enterDefect(defect)
			}
			return n, false
		case entryRedeem:
			n, defect, panicked := safeInvoke(entry.onOk, value)
			if panicked {
				return f.enterDefect(defect)
			}
			return n, false
		case entryGuard:
			entry.guard(nil, false)
		case entryFinalizer:
			f.runFinalizerOne(entry.fin, nil)
		}
	}
}

// enterFail drains the stack for a Redeem able to catch cause, running any
// guard/finalizer frames it passes along the way, and either resumes with
// the handler's result or settles the fiber Failed with cause.
func (f *Fiber) enterFail(cause Erased) (next *ioNode, stop bool) {
	handler, handled := f.unwindForFail(cause)
	if !handled {
		f.done(exitResult{kind: exitFailed, err: cause})
		return nil, true
	}
	n, defect, panicked := safeInvoke(handler, cause)
	if panicked {
		return f.enterDefect(defect)
	}
	return n, false
}

// enterDefect drains the remainder of the stack (finalizers and guards
// only — no Redeem ever catches a defect) and settles the fiber Terminated.
func (f *Fiber) enterDefect(defect Erased) (next *ioNode, stop bool) {
	f.unwindForDefect(defect)
	f.done(exitResult{kind: exitTerminated, defect: defect})
	return nil, true
}

// resumeWith restarts evaluation after an async resumption, translating the
// erased exitResult the resumer supplied back into ordinary control flow by
// reusing the tagPure/tagFail/tagTerminate dispatch (via nodeForExit) rather
// than duplicating advance/enterFail/enterDefect a second time.
func (f *Fiber) resumeWith(exit exitResult) {
	f.evaluate(nodeForExit(exit))
}

// currentUnhandled packages the fiber's installed unhandled-error handler as
// the concrete value Supervisor's result type expects. IO[Nothing,struct{}]
// is a fixed concrete instantiation regardless of the caller's E, so this
// can be built directly here with no typed-boundary wrapper needed (compare
// forkWrap/runWrap, which exist only because *FiberHandle[E,A] and
// ExitResult[E,A] genuinely vary by caller-supplied type parameters).
func (f *Fiber) currentUnhandled() Erased {
	h := f.unhandled
	return func(defect any) IO[Nothing, struct{}] {
		return IO[Nothing, struct{}]{node: h(defect)}
	}
}

// evaluateToExit runs node to settlement on a fresh child fiber (with its own
// evaluation stack) submitted to the host pool, and blocks the calling
// goroutine until that fiber settles, for contexts that need a synchronous
// result — finalizers, an AsyncLaterEffect canceler, and an AsyncEffect
// registration. These call sites are expected to be comparatively shallow,
// bracket-shaped computations rather than long-lived work.
func (f *Fiber) evaluateToExit(node *ioNode) exitResult {
	done := make(chan exitResult, 1)
	child := newFiber(f.host, f.unhandled)
	child.onSettle = func(v exitResult) { done <- v }
	f.host.submit(func() { child.evaluate(node) })
	return <-done
}

// safeThunk, safeSuspend, safeInvoke, and safeFork each recover a panic from
// user-supplied code, converting it to a defect — except a runtime.Error,
// which is re-panicked so it still crashes the process the way an
// out-of-bounds slice access or nil dereference normally would.
func safeThunk(thunk func() Erased) (value Erased, defect Erased, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(runtime.Error); fatal {
				panic(r)
			}
			defect, panicked = r, true
		}
	}()
	value = thunk()
	return
}

func safeSuspend(suspend func() *ioNode) (node *ioNode, defect Erased, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(runtime.Error); fatal {
				panic(r)
			}
			defect, panicked = r, true
		}
	}()
	node = suspend()
	return
}

func safeInvoke(f func(Erased) *ioNode, value Erased) (node *ioNode, defect Erased, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(runtime.Error); fatal {
				panic(r)
			}
			defect, panicked = r, true
		}
	}()
	node = f(value)
	return
}

func safeFork(f func() Erased) (value Erased, defect Erased, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, fatal := r.(runtime.Error); fatal {
				panic(r)
			}
			defect, panicked = r, true
		}
	}()
	value = f()
	return
}
