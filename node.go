// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import "time"

// ioTag identifies the variant of an ioNode. Dispatch on tag, never on type
// assertions against ioNode itself — the interpreter hoists the tag into a
// local before the switch to help the compiler keep it in a register.
type ioTag uint8

const (
	tagPure ioTag = iota
	tagLazy
	tagSync
	tagSeq
	tagRedeem
	tagFail
	tagTerminate
	tagAsync
	tagAsyncIO
	tagFork
	tagRun
	tagRace
	tagSuspend
	tagUninterruptible
	tagSleep
	tagSupervise
	tagSupervisor
	tagEnsuring
)

// ioNode is the type-erased, interpreter-facing representation of an IO[E,A]
// description. IO[E,A] is a thin generic facade over *ioNode; the interpreter
// itself never sees E or A, only Erased (any) values recovered by type
// assertion at the boundary where a typed continuation is invoked.
//
// Only the fields relevant to tag are populated; the rest are zero: a
// defunctionalized representation of a recursive effect AST, one struct
// shape standing in for what would otherwise be eighteen node types.
type ioNode struct {
	tag ioTag

	// tagPure
	value Erased

	// tagLazy / tagSync: thunk producing a value (tagSync additionally may
	// have visible side effects; the interpreter treats both identically,
	// the distinction exists purely to document intent at the call site).
	thunk func() Erased

	// tagSeq: inner, bind
	// tagRedeem: inner, onErr, onOk
	// tagUninterruptible / tagSupervise / tagEnsuring: inner
	inner *ioNode
	bind  func(Erased) *ioNode
	onErr func(Erased) *ioNode
	onOk  func(Erased) *ioNode

	// tagFail
	failErr Erased

	// tagTerminate
	defect Erased

	// tagAsync: register returns an asyncDescriptor describing how resumption
	// will happen; resume is invoked by the registering side with the result.
	register func(resume func(Erased)) asyncDescriptor

	// tagAsyncIO: like tagAsync, but the registration itself runs as an IO
	// producing Unit (registerEffect's result IO is run uninterruptibly by
	// the interpreter before the async wait begins).
	registerEffect func(resume func(Erased)) *ioNode

	// tagFork: forkWrap recovers the statically-typed *FiberHandle[E,A] from
	// the raw *Fiber the interpreter creates; the interpreter itself never
	// names E or A, so the typed boundary (Fork, in io.go) supplies this
	// closure instead of the interpreter constructing the value directly.
	forkChild   *ioNode
	forkHandler func(Erased) *ioNode // optional unhandled-error override
	forkWrap    func(*Fiber) Erased

	// tagRun: runWrap recovers the statically-typed ExitResult[E,A] from the
	// erased exitResult the interpreter produces, for the same reason as
	// forkWrap above.
	runChild *ioNode
	runWrap  func(exitResult) Erased

	// tagRace
	raceLeft, raceRight     *ioNode
	raceFinishLeft          func(Erased, *Fiber) *ioNode
	raceFinishRight         func(Erased, *Fiber) *ioNode

	// tagSuspend
	suspend func() *ioNode

	// tagSleep
	sleep time.Duration

	// tagSupervise
	cause Erased

	// tagSupervisor: no payload, produces the current unhandled handler.

	// tagEnsuring
	finalizer *ioNode
}

// Erased is the type-erased value flowing through the interpreter's
// evaluation loop. Concrete types are recovered by assertion at the typed
// IO[E,A] boundary.
type Erased = any
