// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import "sync/atomic"

// doRace forks both sides of node as independent fibers and resumes this
// fiber with whichever settles first, applying the matching finisher
// combinator. The loser keeps running in the background — there is no
// implicit cross-interrupt; callers that want the loser stopped call
// Interrupt on the *FiberHandle the finisher combinator receives, exactly as
// Timeout does.
//
// winner is a single atomic.Bool CAS gate: the first side to settle, by
// either success or failure, claims the race. A three-state protocol
// (separately distinguishing "first side failed" from "first side
// completed") was considered and dropped — both outcomes resolve the race
// identically as far as the loser is concerned, so one CAS suffices.
func (f *Fiber) doRace(node *ioNode) {
	left := newFiber(f.host, f.unhandled)
	right := newFiber(f.host, f.unhandled)
	f.registerChildInScope(left)
	f.registerChildInScope(right)

	var winner atomic.Bool
	id := f.enterAsyncStart()

	settle := func(exit exitResult, finish func(Erased, *Fiber) *ioNode, loser *Fiber) {
		if !winner.CompareAndSwap(false, true) {
			return
		}
		if !f.shouldResumeAsync() {
			return
		}
		f.enterAsyncEnd()
		switch exit.kind {
		case exitCompleted:
			f.host.submit(func() {
				next, defect, panicked := safeInvoke(func(v Erased) *ioNode { return finish(v, loser) }, exit.value)
				if panicked {
					f.enterDefect(defect)
					return
				}
				f.evaluate(next)
			})
		default:
			f.host.submit(func() { f.resumeWith(exit) })
		}
	}

	left.join(func(exit exitResult) { settle(exit, node.raceFinishLeft, right) })
	right.join(func(exit exitResult) { settle(exit, node.raceFinishRight, left) })

	f.host.submit(func() { left.evaluate(node.raceLeft) })
	f.host.submit(func() { right.evaluate(node.raceRight) })

	f.awaitAsync(id, func(any) {})
}
