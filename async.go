// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

// asyncDescriptorKind discriminates the three shapes a registration function
// may report back to the interpreter.
type asyncDescriptorKind uint8

const (
	// asyncNow: the result was already available at registration time.
	asyncNow asyncDescriptorKind = iota
	// asyncMaybeLater: pending, with a canceler to invoke on interrupt.
	asyncMaybeLater
	// asyncMaybeLaterIO: pending, with an effectful (IO-valued) canceler.
	asyncMaybeLaterIO
)

// asyncDescriptor is the type-erased registration result consumed by the
// interpreter's Async-register step.
type asyncDescriptor struct {
	kind         asyncDescriptorKind
	now          exitResult
	canceler     func(defect Erased)
	pureCanceler *ioNode // IO[Nothing, struct{}]
}

// AsyncDescriptor is the typed facade over asyncDescriptor returned by an
// Async registration function. Exactly one of the three constructors below
// produces a well-formed value; the zero value is not meaningful.
type AsyncDescriptor[E, A any] struct {
	desc asyncDescriptor
}

// AsyncNow reports that the result is already known; the interpreter injects
// it immediately (subject to shouldResumeAsync winning the race against a
// concurrent interrupt).
func AsyncNow[E, A any](exit ExitResult[E, A]) AsyncDescriptor[E, A] {
	return AsyncDescriptor[E, A]{desc: asyncDescriptor{kind: asyncNow, now: toErasedExit(exit)}}
}

// AsyncLater reports that the result is pending; canceler is invoked with
// the interrupting defect if the fiber is killed while awaiting resumption.
func AsyncLater[E, A any](canceler func(defect any)) AsyncDescriptor[E, A] {
	return AsyncDescriptor[E, A]{desc: asyncDescriptor{kind: asyncMaybeLater, canceler: canceler}}
}

// AsyncLaterEffect is like AsyncLater, but the canceler itself is an effect
// run on a fresh top-level fiber rather than a plain function.
func AsyncLaterEffect[E, A any](canceler IO[Nothing, struct{}]) AsyncDescriptor[E, A] {
	return AsyncDescriptor[E, A]{desc: asyncDescriptor{kind: asyncMaybeLaterIO, pureCanceler: canceler.node}}
}
