// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import "time"

// IO represents an effect description: a program that, when interpreted by
// the RTS, either completes with a value of type A, fails with a typed error
// of type E, or terminates with an untyped defect.
//
// IO is opaque to callers; the interpreter is the only consumer of its
// internal node representation. IO is a defunctionalized, data-first
// representation of an effect description: a recursive AST carrying its
// own error channel, rather than a closure chain.
type IO[E, A any] struct {
	node *ioNode
}

// Pure lifts an already-computed value into IO with no effects.
func Pure[E, A any](a A) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagPure, value: a}}
}

// Lazy defers computation of a value until the IO is interpreted.
func Lazy[E, A any](f func() A) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagLazy, thunk: func() Erased { return f() }}}
}

// Sync wraps a side-effecting thunk. Distinguished from Lazy only by intent;
// the interpreter evaluates both identically.
func Sync[E, A any](f func() A) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagSync, thunk: func() Erased { return f() }}}
}

// Seq sequences m then f, feeding m's result to f. This is IO's monadic bind.
func Seq[E, A, B any](m IO[E, A], f func(A) IO[E, B]) IO[E, B] {
	return IO[E, B]{node: &ioNode{
		tag:   tagSeq,
		inner: m.node,
		bind: func(v Erased) *ioNode {
			return f(v.(A)).node
		},
	}}
}

// FlatMap is an alias for Seq in the conventional monadic-bind spelling.
func FlatMap[E, A, B any](m IO[E, A], f func(A) IO[E, B]) IO[E, B] {
	return Seq(m, f)
}

// Map transforms the success value of m without introducing new effects.
func Map[E, A, B any](m IO[E, A], f func(A) B) IO[E, B] {
	return Seq(m, func(a A) IO[E, B] { return Pure[E, B](f(a)) })
}

// Then sequences m before n, discarding m's result.
func Then[E, A, B any](m IO[E, A], n IO[E, B]) IO[E, B] {
	return Seq(m, func(A) IO[E, B] { return n })
}

// Redeem installs both an error handler and a success handler for m. It acts
// both as a stack frame (while m runs) and a value producer (once m settles).
func Redeem[E1, E2, A, B any](m IO[E1, A], onErr func(E1) IO[E2, B], onOk func(A) IO[E2, B]) IO[E2, B] {
	return IO[E2, B]{node: &ioNode{
		tag:   tagRedeem,
		inner: m.node,
		onErr: func(v Erased) *ioNode { return onErr(v.(E1)).node },
		onOk:  func(v Erased) *ioNode { return onOk(v.(A)).node },
	}}
}

// Fail raises a typed, recoverable error.
func Fail[E, A any](e E) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagFail, failErr: e}}
}

// Terminate raises an untyped, unrecoverable defect.
func Terminate[E, A any](defect any) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagTerminate, defect: defect}}
}

// Async describes a computation suspended on a foreign callback-style
// registration. register is called with a resume callback; its return value
// (an AsyncDescriptor) tells the interpreter whether the result is already
// available, or pending behind a canceler.
func Async[E, A any](register func(resume func(ExitResult[E, A])) AsyncDescriptor[E, A]) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagAsync, register: func(resume func(Erased)) asyncDescriptor {
		return register(func(exit ExitResult[E, A]) { resume(exit) }).desc
	}}}
}

// AsyncEffect is like Async, but the registration itself runs as an effect
// (IO[E, Unit]) rather than a raw function — useful when registering requires
// fallible, typed-error-producing setup.
func AsyncEffect[E, A any](register func(resume func(ExitResult[E, A])) IO[E, struct{}]) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagAsyncIO, registerEffect: func(resume func(Erased)) *ioNode {
		return register(func(exit ExitResult[E, A]) { resume(exit) }).node
	}}}
}

// Fork starts child as an independent fiber and returns a handle to it
// without blocking. An optional unhandled-error override can be supplied as
// the unhandled argument; pass nil to inherit the parent's handler.
func Fork[E, A any](child IO[E, A], unhandled func(defect any) IO[Nothing, struct{}]) IO[E, *FiberHandle[E, A]] {
	n := &ioNode{
		tag:       tagFork,
		forkChild: child.node,
		forkWrap:  func(cf *Fiber) Erased { return &FiberHandle[E, A]{fiber: cf} },
	}
	if unhandled != nil {
		n.forkHandler = func(v Erased) *ioNode { return unhandled(v).node }
	}
	return IO[E, *FiberHandle[E, A]]{node: n}
}

// Run is like Fork, but the value observed by the caller is the child's
// ExitResult rather than its raised value.
func Run[E, A any](child IO[E, A]) IO[E, ExitResult[E, A]] {
	return IO[E, ExitResult[E, A]]{node: &ioNode{
		tag:      tagRun,
		runChild: child.node,
		runWrap:  func(e exitResult) Erased { return fromErasedExit[E, A](e) },
	}}
}

// Race runs left and right concurrently; the first to settle "wins" and its
// finisher combinator is applied to produce the race's result. The loser
// continues running in the background — there is no automatic
// cross-interrupt; callers that want the loser stopped call Interrupt on it.
func Race[E, A, B, C any](
	left IO[E, A], right IO[E, B],
	finishLeft func(A, *FiberHandle[E, B]) IO[E, C],
	finishRight func(B, *FiberHandle[E, A]) IO[E, C],
) IO[E, C] {
	return IO[E, C]{node: &ioNode{
		tag:       tagRace,
		raceLeft:  left.node,
		raceRight: right.node,
		raceFinishLeft: func(v Erased, f *Fiber) *ioNode {
			return finishLeft(v.(A), &FiberHandle[E, B]{fiber: f}).node
		},
		raceFinishRight: func(v Erased, f *Fiber) *ioNode {
			return finishRight(v.(B), &FiberHandle[E, A]{fiber: f}).node
		},
	}}
}

// Suspend defers construction of the next IO until interpretation reaches
// this point — the effect-world analogue of a thunk that itself produces IO.
func Suspend[E, A any](f func() IO[E, A]) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagSuspend, suspend: func() *ioNode { return f().node }}}
}

// Uninterruptible masks interruption for the duration of io.
func Uninterruptible[E, A any](io IO[E, A]) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagUninterruptible, inner: io.node}}
}

// Sleep suspends the fiber for d, then resumes with Unit.
func Sleep[E any](d time.Duration) IO[E, struct{}] {
	return IO[E, struct{}]{node: &ioNode{tag: tagSleep, sleep: d}}
}

// Supervise runs io inside a new supervision scope; on any exit from io,
// every still-running child forked inside the scope is interrupted with cause.
func Supervise[E, A any](io IO[E, A], cause any) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagSupervise, inner: io.node, cause: cause}}
}

// Supervisor reads the fiber's currently installed unhandled-error handler.
func Supervisor[E any]() IO[E, func(defect any) IO[Nothing, struct{}]] {
	return IO[E, func(defect any) IO[Nothing, struct{}]]{node: &ioNode{tag: tagSupervisor}}
}

// Ensuring registers fin as a finalizer: guaranteed to run, exactly once, on
// every exit path (success, Fail, Terminate, or interrupt) through io's scope.
func Ensuring[E, A any](io IO[E, A], fin IO[Nothing, struct{}]) IO[E, A] {
	return IO[E, A]{node: &ioNode{tag: tagEnsuring, inner: io.node, finalizer: fin.node}}
}

// Nothing is the uninhabited error type used for IOs that are statically
// known never to fail (e.g. finalizers). It is never constructed.
type Nothing struct{ _ [0]func() }

// Timeout races work against a Sleep(d) that interrupts it on expiry. This is
// sugar over Race + Sleep + interrupt; the core has no timeout primitive of
// its own.
func Timeout[E, A any](work IO[E, A], d time.Duration) IO[E, ExitResult[E, A]] {
	return Race(
		work, Sleep[E](d),
		func(a A, sleeper *FiberHandle[E, struct{}]) IO[E, ExitResult[E, A]] {
			return Then(
				unsafeDiscardNothing[E, struct{}](sleeper.Interrupt(TimeoutDefect{Duration: d})),
				Pure[E, ExitResult[E, A]](Completed[E, A](a)),
			)
		},
		func(_ struct{}, worker *FiberHandle[E, A]) IO[E, ExitResult[E, A]] {
			return Then(
				unsafeDiscardNothing[E, struct{}](worker.Interrupt(TimeoutDefect{Duration: d})),
				Pure[E, ExitResult[E, A]](Terminated[E, A](TimeoutDefect{Duration: d})),
			)
		},
	)
}

// unsafeDiscardNothing widens an IO known never to fail (error channel
// Nothing) to any caller's error type E, so it can be sequenced with Then
// inside a combinator generic over E. Safe because Nothing is uninhabited —
// the resulting IO can never actually take the Fail path.
func unsafeDiscardNothing[E, A any](io IO[Nothing, A]) IO[E, A] {
	return Redeem(io,
		func(n Nothing) IO[E, A] { panic("iort: internal: Nothing inhabited") },
		func(a A) IO[E, A] { return Pure[E, A](a) },
	)
}
