// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"sync"
	"weak"
)

// supervisionScope tracks the children forked within a Supervise block so
// that the block's defect (if any) can be fanned out to still-living
// children on the way out.
//
// Grounded on the registry type in
// code.hybscloud.com/go-utilpkg/eventloop (registry.go): that registry holds
// weak.Pointer[T] entries and periodically scavenges dead ones. This scope
// follows the same weak-pointer-slice shape, but additionally has each child
// unlink itself eagerly on Done (Fiber.unlinkFromSupervisionScopes) rather
// than waiting for the next scavenge, since a scope's lifetime here is
// bounded by a single Supervise block rather than being long-lived.
type supervisionScope struct {
	mu       sync.Mutex
	children []weak.Pointer[Fiber]
}

func newSupervisionScope() *supervisionScope {
	return &supervisionScope{}
}

// register adds child to the scope and records the scope on child so it can
// remove itself later without a scavenge pass.
func (s *supervisionScope) register(child *Fiber) {
	s.mu.Lock()
	s.children = append(s.children, weak.Make(child))
	s.mu.Unlock()
	child.registeredIn = append(child.registeredIn, s)
}

// unregister drops dead or matching weak pointers for child.
func (s *supervisionScope) unregister(child *Fiber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.children[:0]
	for _, wp := range s.children {
		if p := wp.Value(); p != nil && p != child {
			kept = append(kept, wp)
		}
	}
	s.children = kept
}

// interruptAll kills every still-living child with defect, not waiting for
// the kill to finish (fire-and-forget, matching Supervise's "best effort"
// cleanup semantics).
func (s *supervisionScope) interruptAll(defect any) {
	s.mu.Lock()
	snapshot := append([]weak.Pointer[Fiber]{}, s.children...)
	s.mu.Unlock()
	for _, wp := range snapshot {
		if child := wp.Value(); child != nil {
			child.kill(defect, func() {})
		}
	}
}

// enterSupervision pushes a fresh scope as the fiber's innermost supervision
// scope, returning it so the caller can later call exitSupervision.
func (f *Fiber) enterSupervision() *supervisionScope {
	scope := newSupervisionScope()
	f.supervisionMu.Lock()
	f.supervisionScopes = append(f.supervisionScopes, scope)
	f.supervisionMu.Unlock()
	return scope
}

// exitSupervision pops scope (which must be the innermost scope) and, if
// defect is non-nil, interrupts every child still registered in it.
func (f *Fiber) exitSupervision(scope *supervisionScope, defect any) {
	f.supervisionMu.Lock()
	if n := len(f.supervisionScopes); n > 0 && f.supervisionScopes[n-1] == scope {
		f.supervisionScopes = f.supervisionScopes[:n-1]
	}
	f.supervisionMu.Unlock()
	if defect != nil {
		scope.interruptAll(defect)
	}
}

// innermostSupervisionScope returns the scope a freshly Fork'd child should
// register into, or nil if this fiber has no open Supervise block.
func (f *Fiber) innermostSupervisionScope() *supervisionScope {
	f.supervisionMu.Lock()
	defer f.supervisionMu.Unlock()
	if n := len(f.supervisionScopes); n > 0 {
		return f.supervisionScopes[n-1]
	}
	return nil
}

// unlinkFromSupervisionScopes removes this fiber from every scope it was
// registered into. Called once, from Fiber.done, so a settled fiber's weak
// pointer never has to wait for a scavenge pass or a GC cycle to be dropped
// from its parent's bookkeeping.
func (f *Fiber) unlinkFromSupervisionScopes() {
	for _, scope := range f.registeredIn {
		scope.unregister(f)
	}
	f.registeredIn = nil
}
