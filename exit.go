// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

// exitKind discriminates the three variants of ExitResult.
type exitKind uint8

const (
	exitCompleted exitKind = iota
	exitFailed
	exitTerminated
)

// exitResult is the type-erased counterpart of ExitResult[E,A], used
// internally by the interpreter and fiber status machinery where E and A are
// not statically known (joiners/killers operate on Erased values).
type exitResult struct {
	kind   exitKind
	value  Erased // exitCompleted
	err    Erased // exitFailed
	defect Erased // exitTerminated
}

// ExitResult is the outcome of running an IO[E,A] to completion: it
// completed with a value, failed with a typed (recoverable) error, or
// terminated with an untyped (fatal) defect.
//
// Invariant: Failed is produced only by Fail; Terminated only by Terminate,
// by recovered host panics inside the interpreter, and by interruption.
type ExitResult[E, A any] struct {
	exit exitResult
}

// Completed constructs a successful ExitResult.
func Completed[E, A any](a A) ExitResult[E, A] {
	return ExitResult[E, A]{exit: exitResult{kind: exitCompleted, value: a}}
}

// Failed constructs a typed-failure ExitResult.
func Failed[E, A any](e E) ExitResult[E, A] {
	return ExitResult[E, A]{exit: exitResult{kind: exitFailed, err: e}}
}

// Terminated constructs a defect ExitResult.
func Terminated[E, A any](defect any) ExitResult[E, A] {
	return ExitResult[E, A]{exit: exitResult{kind: exitTerminated, defect: defect}}
}

// IsCompleted reports whether the fiber produced a value.
func (r ExitResult[E, A]) IsCompleted() bool { return r.exit.kind == exitCompleted }

// IsFailed reports whether the fiber raised a typed error.
func (r ExitResult[E, A]) IsFailed() bool { return r.exit.kind == exitFailed }

// IsTerminated reports whether the fiber terminated with a defect.
func (r ExitResult[E, A]) IsTerminated() bool { return r.exit.kind == exitTerminated }

// Value returns the completed value and true, or the zero value and false.
func (r ExitResult[E, A]) Value() (A, bool) {
	if r.exit.kind == exitCompleted {
		return r.exit.value.(A), true
	}
	var zero A
	return zero, false
}

// Err returns the typed error and true, or the zero value and false.
func (r ExitResult[E, A]) Err() (E, bool) {
	if r.exit.kind == exitFailed {
		return r.exit.err.(E), true
	}
	var zero E
	return zero, false
}

// Defect returns the defect and true, or nil and false.
func (r ExitResult[E, A]) Defect() (any, bool) {
	if r.exit.kind == exitTerminated {
		return r.exit.defect, true
	}
	return nil, false
}

// Either converts a settled-or-failed ExitResult to Either, collapsing
// Terminated into a panic — callers who need to observe defects should use
// Defect/IsTerminated directly; Either models only the recoverable half of
// the outcome space.
func (r ExitResult[E, A]) Either() Either[E, A] {
	switch r.exit.kind {
	case exitCompleted:
		return Right[E, A](r.exit.value.(A))
	case exitFailed:
		return Left[E, A](r.exit.err.(E))
	default:
		panic("iort: Either called on a Terminated ExitResult")
	}
}

// Match pattern matches on the three variants.
func Match[E, A, T any](r ExitResult[E, A], onOk func(A) T, onErr func(E) T, onDefect func(any) T) T {
	switch r.exit.kind {
	case exitCompleted:
		return onOk(r.exit.value.(A))
	case exitFailed:
		return onErr(r.exit.err.(E))
	default:
		return onDefect(r.exit.defect)
	}
}

func toErasedExit[E, A any](r ExitResult[E, A]) exitResult { return r.exit }

func fromErasedExit[E, A any](e exitResult) ExitResult[E, A] { return ExitResult[E, A]{exit: e} }
