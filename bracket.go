// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

// Resource safety primitives for exception-safe resource management,
// expressed over IO[E,A]'s own error channel and finalizer primitive
// (Ensuring).

// Bracket acquires a resource, runs use with it, and guarantees release runs
// afterward regardless of how use exits — success, typed Fail, defect, or
// interrupt (see Ensuring). release itself must not fail (Nothing); any
// panic it raises surfaces as a defect like any other finalizer.
func Bracket[E, R, A any](
	acquire IO[E, R],
	release func(R) IO[Nothing, struct{}],
	use func(R) IO[E, A],
) IO[E, A] {
	return Seq(acquire, func(resource R) IO[E, A] {
		return Ensuring(use(resource), release(resource))
	})
}

// OnError runs cleanup only if body raises a typed error, then re-raises the
// same error. It does not run on success, nor on a defect (use Ensuring for
// unconditional cleanup).
func OnError[E, A any](
	body IO[E, A],
	cleanup func(E) IO[Nothing, struct{}],
) IO[E, A] {
	return Redeem(body,
		func(e E) IO[E, A] {
			return Seq(unsafeDiscardNothing[E, struct{}](cleanup(e)), func(struct{}) IO[E, A] { return Fail[E, A](e) })
		},
		func(a A) IO[E, A] { return Pure[E, A](a) },
	)
}
