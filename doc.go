// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package iort provides a fiber-based cooperative runtime for describing and
// executing concurrent effectful programs in Go.
//
// The core type [IO] represents an effect description: a program that, once
// interpreted by a [RTS], completes with a value, fails with a typed error,
// or terminates with an untyped defect. Unlike a goroutine, an IO is data —
// constructing one has no effect until something runs it — and unlike a
// blocking call, the interpreter that runs it is a single-threaded trampoline
// per fiber, hopping between a bounded pool of OS threads at explicit
// suspension points (Async, Sleep, Race, Run) rather than parking one.
//
// # Design Philosophy
//
// iort provides:
//   - A minimal set of effect constructors closed under composition (Pure,
//     Seq, Redeem, Async, Fork) with everything else (Map, Then, Bracket,
//     Timeout) as sugar over them
//   - A single type-erased interpreter loop driving every fiber, so adding a
//     combinator means adding one ioTag case rather than N
//   - Cooperative scheduling: fibers yield back to the pool on their own
//     schedule (an op-count budget, or a genuine async boundary), never
//     preempted mid-step
//
// # Core Operations
//
// Effect construction:
//
//   - [Pure]: Lift an already-computed value
//   - [Lazy], [Sync]: Defer a thunk's evaluation to interpretation time
//   - [Seq], [FlatMap]: Monadic bind
//   - [Map]: Transform a success value with no new effects
//   - [Then]: Sequence, discarding the first result
//   - [Suspend]: Defer construction of the next IO itself
//
// Error handling:
//
//   - [Fail]: Raise a typed, recoverable error
//   - [Terminate]: Raise an untyped, unrecoverable defect
//   - [Redeem]: Install both an error handler and a success handler
//   - [Bracket]: Guaranteed acquire/use/release
//   - [OnError]: Run cleanup only on a typed failure, then re-raise
//   - [Ensuring]: Register a finalizer that runs on every exit path
//
// Concurrency:
//
//   - [Fork]: Start an independent fiber, returning a [FiberHandle]
//   - [Run]: Like Fork, but observe the child's [ExitResult] directly
//   - [Race]: Run two IOs concurrently, react to whichever settles first
//   - [Timeout]: Race work against a deadline
//   - [Sleep]: Suspend for a duration
//   - [Uninterruptible]: Mask interruption for a region
//   - [Supervise]: Open a scope whose still-running children are interrupted
//     together on exit
//   - [Supervisor]: Read the fiber's installed unhandled-error handler
//
// Foreign interop:
//
//   - [Async]: Suspend on a callback-style registration function
//   - [AsyncEffect]: Like Async, but registration itself is an effect
//
// # Execution
//
// A [RTS] owns the worker pool every fiber's continuations are submitted to.
// [NewRTS] constructs one from a [Config]; the free functions [UnsafeRun],
// [UnsafeRunSync] and [UnsafeRunAsync] take it as their first argument,
// start a top-level fiber and either block for its result or deliver it to a
// callback.
//
// # Fiber Lifecycle
//
// A [Fiber] is Executing, in an AsyncRegion (suspended, awaiting a foreign
// callback), or Done. [FiberHandle.Join] observes the final [ExitResult];
// [FiberHandle.Interrupt] requests early termination, honored immediately
// unless the fiber is inside an [Uninterruptible] region, in which case it is
// deferred until the mask lifts.
//
// # Either Type
//
// [Either] represents success (Right) or failure (Left):
//
//   - [Left], [Right]: Constructors
//   - [Either.IsLeft], [Either.IsRight]: Predicates
//   - [Either.GetLeft], [Either.GetRight]: Accessors
package iort
