// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

// unwindForFail drains the stack looking for the next Redeem frame able to
// handle a typed Fail. Guards and finalizers encountered along the
// way run immediately, in the order they are popped (innermost first);
// plain continuations are discarded — a continuation frame mid-unwind is
// never invoked.
//
// Walks frame-by-frame for a matching handler the way a chained-frame
// unwind does, generalized to also run guard/finalizer markers along the
// way rather than discarding everything that isn't the handler itself.
func (f *Fiber) unwindForFail(cause Erased) (handler func(Erased) *ioNode, handled bool) {
	for {
		entry, ok := f.stack.pop()
		if !ok {
			return nil, false
		}
		switch entry.kind {
		case entryRedeem:
			if entry.onErr != nil {
				return entry.onErr, true
			}
		case entryGuard:
			entry.guard(cause, true)
		case entryFinalizer:
			f.runFinalizerOne(entry.fin, cause)
		}
	}
}

// unwindForDefect drains the entire remaining stack, running every guard
// and finalizer found. Unlike unwindForFail it never looks for a Redeem
// handler: a defect (Terminate, a recovered host panic, or an external
// Interrupt) always bypasses the typed error channel.
func (f *Fiber) unwindForDefect(defect Erased) {
	for {
		entry, ok := f.stack.pop()
		if !ok {
			return
		}
		switch entry.kind {
		case entryGuard:
			entry.guard(defect, true)
		case entryFinalizer:
			f.runFinalizerOne(entry.fin, defect)
		}
	}
}

// runFinalizerOne evaluates fin to completion via evaluateToExit, blocking
// the calling goroutine until it settles.
// Finalizers are IO[Nothing, struct{}] — statically incapable of raising a
// typed Fail — so the only outcomes are a settled value (discarded) or a
// defect, which is reported to the unhandled handler rather than allowed to
// shadow the original cause that triggered this unwind.
func (f *Fiber) runFinalizerOne(fin *ioNode, cause Erased) {
	exit := f.evaluateToExit(fin)
	if exit.kind == exitTerminated {
		f.host.reportUnhandled(f, exit.defect)
	}
}
