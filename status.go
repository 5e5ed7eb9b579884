// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

// statusKind discriminates the three Fiber Status variants.
type statusKind uint8

const (
	statusExecuting statusKind = iota
	statusAsyncRegion
	statusDone
)

// fiberStatus is the immutable payload swapped atomically via CAS on
// Fiber.status, an atomic.Pointer[fiberStatus]: every transition allocates a
// fresh status and compare-and-swaps it in, so readers never observe a
// torn state.
type fiberStatus struct {
	kind statusKind

	// Executing / AsyncRegion: deferred interrupt cause, present once an
	// interrupt has been requested while uninterruptible or mid-async-entry.
	hasErr bool
	errVal any

	// AsyncRegion only.
	reentrancy int
	resume     int
	canceler   func(defect any)

	// Executing / AsyncRegion: pending callbacks.
	joiners []func(exitResult)
	killers []func()

	// Done only.
	value exitResult
}

func initialStatus() *fiberStatus {
	return &fiberStatus{kind: statusExecuting}
}

// clone returns a shallow copy suitable as the basis for the next CAS
// attempt; joiners/killers slices are shared read-only with the previous
// snapshot, and join/kill build a fresh copy before appending to them.
func (s *fiberStatus) clone() *fiberStatus {
	n := *s
	return &n
}

// enterAsyncStart records the start of an async registration and returns the
// new reentrancy count (used as the registration's id).
func (f *Fiber) enterAsyncStart() int {
	for {
		old := f.status.Load()
		next := old.clone()
		switch old.kind {
		case statusExecuting:
			next.kind = statusAsyncRegion
			next.reentrancy = 1
			next.resume = 1
			next.canceler = nil
		case statusAsyncRegion:
			next.reentrancy = old.reentrancy + 1
			next.resume = old.resume + 1
		default:
			// Done: nothing meaningful to enter. A Done status carries a
			// zero reentrancy, so this returns 0; awaitAsync ignores every
			// id once the fiber is Done.
			return old.reentrancy
		}
		if f.status.CompareAndSwap(old, next) {
			return next.reentrancy
		}
	}
}

// awaitAsync records canceler against id, the reentrancy value returned by
// the matching enterAsyncStart. Stale calls (the region has since advanced
// past id) are silently ignored.
func (f *Fiber) awaitAsync(id int, canceler func(defect any)) {
	for {
		old := f.status.Load()
		if old.kind != statusAsyncRegion || old.reentrancy != id {
			return
		}
		next := old.clone()
		next.canceler = canceler
		if f.status.CompareAndSwap(old, next) {
			return
		}
	}
}

// enterAsyncEnd is the counterpart of enterAsyncStart. It silently no-ops on
// non-AsyncRegion status: the fiber may have already raced to Done via a
// concurrent kill; this is intended.
func (f *Fiber) enterAsyncEnd() {
	for {
		old := f.status.Load()
		if old.kind != statusAsyncRegion {
			return
		}
		next := old.clone()
		if old.reentrancy == 1 {
			next.kind = statusExecuting
			next.reentrancy = 0
			next.resume = 0
			next.canceler = nil
		} else {
			next.reentrancy = old.reentrancy - 1
		}
		if f.status.CompareAndSwap(old, next) {
			return
		}
	}
}

// shouldResumeAsync attempts to consume one pending resumption. It returns
// false when the fiber has already been interrupted and resolved, meaning
// this resumption must be discarded.
func (f *Fiber) shouldResumeAsync() bool {
	for {
		old := f.status.Load()
		if old.kind != statusAsyncRegion || old.resume == 0 {
			return false
		}
		next := old.clone()
		if old.reentrancy == 0 && old.resume == 1 {
			// No transition in this file produces an AsyncRegion with
			// reentrancy==0: enterAsyncStart sets it to at least 1, and
			// enterAsyncEnd moves a region at reentrancy 1 straight to
			// Executing with the canceler cleared. This branch mirrors that
			// transition and drops the canceler slot.
			next.kind = statusExecuting
			next.resume = 0
		} else {
			next.resume = old.resume - 1
			next.canceler = nil
		}
		if f.status.CompareAndSwap(old, next) {
			return true
		}
	}
}

// done transitions Executing/AsyncRegion to Done(v) and fans out to
// joiners/killers. Done is terminal and is never overwritten.
func (f *Fiber) done(v exitResult) {
	var joiners []func(exitResult)
	var killers []func()
	for {
		old := f.status.Load()
		if old.kind == statusDone {
			return
		}
		joiners, killers = old.joiners, old.killers
		next := &fiberStatus{kind: statusDone, value: v}
		if f.status.CompareAndSwap(old, next) {
			break
		}
	}
	f.stack.release()
	f.unlinkFromSupervisionScopes()
	if f.onSettle != nil {
		f.onSettle(v)
	}
	fanout(f.host, killers, joiners, v)
}

// fanout submits killer callbacks (each observing a synthetic Completed(())
// signaling "the kill has taken effect"), then joiner callbacks carrying v,
// each on a pool worker.
func fanout(host *RTS, killers []func(), joiners []func(exitResult), v exitResult) {
	for _, k := range killers {
		k := k
		host.submit(func() { k() })
	}
	for _, j := range joiners {
		j := j
		host.submit(func() { j(v) })
	}
}

// join registers cb to receive the fiber's final ExitResult. If the fiber is
// already Done, cb fires immediately with the stored result.
func (f *Fiber) join(cb func(exitResult)) {
	for {
		old := f.status.Load()
		if old.kind == statusDone {
			cb(old.value)
			return
		}
		next := old.clone()
		next.joiners = append(append([]func(exitResult){}, old.joiners...), cb)
		if f.status.CompareAndSwap(old, next) {
			return
		}
	}
}

// kill requests interruption of the fiber. cb observes completion of
// this externally-initiated interrupt specifically (not the fiber's final
// value) — it fires once the fiber has reacted to this kill, immediately if
// the fiber is already Done.
func (f *Fiber) kill(defect any, cb func()) {
	for {
		old := f.status.Load()
		switch old.kind {
		case statusDone:
			cb()
			return
		case statusExecuting:
			next := old.clone()
			if !next.hasErr {
				next.hasErr = true
				next.errVal = defect
			}
			next.killers = append(append([]func(){}, old.killers...), cb)
			if f.status.CompareAndSwap(old, next) {
				return
			}
		case statusAsyncRegion:
			if !old.hasErr && old.resume > 0 && f.noInterrupt.Load() == 0 {
				next := &fiberStatus{kind: statusDone, value: exitResult{kind: exitTerminated, defect: defect}}
				if !f.status.CompareAndSwap(old, next) {
					continue
				}
				f.cancelAsync(old.canceler, defect)
				f.finishInterrupt(old.joiners, old.killers, defect, cb)
				return
			}
			next := old.clone()
			if !next.hasErr {
				next.hasErr = true
				next.errVal = defect
			}
			next.killers = append(append([]func(){}, old.killers...), cb)
			if f.status.CompareAndSwap(old, next) {
				return
			}
		}
	}
}
