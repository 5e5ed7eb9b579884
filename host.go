// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

// RTS is the runtime system a top-level program constructs once: the
// fixed-size worker pool every Fiber submits continuations to, the installed
// logger, and the default unhandled-defect handler new top-level fibers
// inherit.
type RTS struct {
	config Config
	logger *Logger

	queue chan func()

	group   *errgroup.Group
	closeMu sync.Mutex
	closed  bool
}

// NewRTS constructs a worker pool sized and tuned by cfg. maxprocs.Set
// reconciles GOMAXPROCS with the container CPU quota for the duration of
// this call (the previous value is restored on return), so a Workers of zero
// or less is sized from the quota-adjusted runtime.GOMAXPROCS. A Workers
// value already filled in by DefaultConfig was read before this adjustment.
func NewRTS(cfg Config, logger *Logger) *RTS {
	undo, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	if err == nil {
		defer undo()
	}
	if logger == nil {
		logger = defaultLogger()
	}

	var queue chan func()
	if cfg.QueueCapacity > 0 {
		queue = make(chan func(), cfg.QueueCapacity)
	} else {
		queue = make(chan func())
	}

	h := &RTS{
		config: cfg,
		logger: logger,
		queue:  queue,
		group:  &errgroup.Group{},
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	for i := 0; i < workers; i++ {
		h.group.Go(h.worker)
	}
	return h
}

// worker drains the submit queue until the host is shut down.
func (h *RTS) worker() error {
	for task := range h.queue {
		task()
	}
	return nil
}

// submit schedules task to run on a pool worker goroutine. Used throughout
// the interpreter (evaluate, fanout, async resumption) instead of `go task()`
// directly, so every continuation runs on a bounded, observable pool rather
// than spawning unboundedly.
func (h *RTS) submit(task func()) {
	h.queue <- task
}

// reportUnhandled is the last-resort sink for a defect that escaped a
// fiber's unhandled chain entirely (e.g. a panic from within a canceler or
// from the top-level unhandled handler itself).
func (h *RTS) reportUnhandled(f *Fiber, defect any) {
	logUnhandled(h.logger, f.ID(), defect)
}

// shutdown closes the submit queue and waits for every worker to drain,
// idempotently.
func (h *RTS) shutdown() {
	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.queue)
	_ = h.group.Wait()
}

// defaultUnhandled is the handler installed on a top-level fiber constructed
// by UnsafeRun/UnsafeRunSync/UnsafeRunAsync: when called, it logs the defect
// at error level and otherwise does nothing. The interpreter does not call
// the installed handler when a fiber settles Failed or Terminated; it is
// reached only through Supervisor (and is inherited by forked children).
func defaultUnhandled(h *RTS, id FiberID) func(defect any) *ioNode {
	return func(defect any) *ioNode {
		logTerminated(h.logger, id, defect)
		return &ioNode{tag: tagPure, value: struct{}{}}
	}
}

// UnsafeRunAsync starts program on a fresh top-level fiber against h,
// delivering its ExitResult to onExit on a pool goroutine once it settles,
// without blocking the calling goroutine. Free function (not a method)
// because Go forbids generic methods on RTS.
func UnsafeRunAsync[E, A any](h *RTS, program IO[E, A], onExit func(ExitResult[E, A])) *Fiber {
	var f *Fiber
	f = newFiber(h, func(defect any) *ioNode { return defaultUnhandled(h, f.ID())(defect) })
	if onExit != nil {
		f.join(func(exit exitResult) { onExit(fromErasedExit[E, A](exit)) })
	}
	h.submit(func() { f.evaluate(program.node) })
	return f
}

// UnsafeRunSync runs program on a fresh top-level fiber against h and blocks
// the calling goroutine until it settles, returning its raw ExitResult.
func UnsafeRunSync[E, A any](h *RTS, program IO[E, A]) ExitResult[E, A] {
	done := make(chan ExitResult[E, A], 1)
	UnsafeRunAsync(h, program, func(exit ExitResult[E, A]) { done <- exit })
	return <-done
}

// UnsafeRun runs program to completion, returning its value on Completed,
// panicking with the wrapped UnhandledError on Failed, or re-panicking the
// raw defect on Terminated.
func UnsafeRun[E, A any](h *RTS, program IO[E, A]) A {
	exit := UnsafeRunSync(h, program)
	switch {
	case exit.IsCompleted():
		a, _ := exit.Value()
		return a
	case exit.IsFailed():
		e, _ := exit.Err()
		panic(&UnhandledError{Cause: e})
	default:
		defect, _ := exit.Defect()
		panic(defect)
	}
}

// Shutdown stops accepting new work and waits, up to ctx's deadline, for
// every in-flight worker to finish its current task. If the deadline
// elapses first it returns a deadline-exceeded error without forcibly
// killing in-flight goroutines — doing so would violate exactly-once
// finalization.
func (h *RTS) Shutdown(ctx context.Context) error {
	group, _ := errgroup.WithContext(ctx)
	drained := make(chan struct{})
	group.Go(func() error {
		h.shutdown()
		close(drained)
		return nil
	})
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("iort: shutdown: %w", ctx.Err())
	}
}
