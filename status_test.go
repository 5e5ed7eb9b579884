// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusTestFiber() *Fiber {
	h := NewRTS(Config{Workers: 1, YieldMaxOpCount: 256}, nil)
	return newFiber(h, func(defect any) *ioNode { return &ioNode{tag: tagPure, value: struct{}{}} })
}

func TestEnterAsyncStartAndEnd(t *testing.T) {
	f := statusTestFiber()
	id := f.enterAsyncStart()
	assert.Equal(t, 1, id)
	assert.Equal(t, statusAsyncRegion, f.status.Load().kind)

	f.enterAsyncEnd()
	assert.Equal(t, statusExecuting, f.status.Load().kind)
}

func TestEnterAsyncStartReentrant(t *testing.T) {
	f := statusTestFiber()
	id1 := f.enterAsyncStart()
	id2 := f.enterAsyncStart()
	assert.Equal(t, 1, id1)
	assert.Equal(t, 2, id2)

	f.enterAsyncEnd()
	assert.Equal(t, statusAsyncRegion, f.status.Load().kind)
	f.enterAsyncEnd()
	assert.Equal(t, statusExecuting, f.status.Load().kind)
}

func TestAwaitAsyncIgnoresStaleID(t *testing.T) {
	f := statusTestFiber()
	id := f.enterAsyncStart()
	f.enterAsyncEnd()

	f.awaitAsync(id, func(any) { t.Fatal("stale canceler must not be recorded") })
	assert.Nil(t, f.status.Load().canceler)
}

func TestShouldResumeAsyncConsumesOnePending(t *testing.T) {
	f := statusTestFiber()
	f.enterAsyncStart()
	assert.True(t, f.shouldResumeAsync())
	assert.False(t, f.shouldResumeAsync())
}

func TestDoneIsTerminalAndFiresJoiners(t *testing.T) {
	f := statusTestFiber()
	received := make(chan exitResult, 1)
	f.join(func(e exitResult) { received <- e })

	f.done(exitResult{kind: exitCompleted, value: 1})
	got := <-received
	assert.Equal(t, exitCompleted, got.kind)

	f.done(exitResult{kind: exitCompleted, value: 2})
	assert.Equal(t, 1, f.status.Load().value.value)
}

func TestJoinFiresImmediatelyWhenAlreadyDone(t *testing.T) {
	f := statusTestFiber()
	f.done(exitResult{kind: exitCompleted, value: 7})

	fired := false
	f.join(func(e exitResult) {
		fired = true
		assert.Equal(t, 7, e.value)
	})
	assert.True(t, fired)
}

func TestKillOnExecutingQueuesDeferredInterrupt(t *testing.T) {
	f := statusTestFiber()
	cbCalled := false
	f.kill("stop", func() { cbCalled = true })

	st := f.status.Load()
	require.Equal(t, statusExecuting, st.kind)
	assert.True(t, st.hasErr)
	assert.False(t, cbCalled)
}

func TestKillOnAlreadyDoneFiresImmediately(t *testing.T) {
	f := statusTestFiber()
	f.done(exitResult{kind: exitCompleted, value: 1})

	fired := false
	f.kill("stop", func() { fired = true })
	assert.True(t, fired)
}

// TestEvaluateConsumesDeferredKillOnNextStep proves the defect kill records
// on statusExecuting is not write-only: the next call to evaluate must
// redeem it by settling the fiber Terminated, rather than running the given
// node to its own, unrelated completion.
func TestEvaluateConsumesDeferredKillOnNextStep(t *testing.T) {
	f := statusTestFiber()
	killed := make(chan struct{})
	f.kill("stop", func() { close(killed) })

	f.evaluate(&ioNode{tag: tagPure, value: 1})

	st := f.status.Load()
	require.Equal(t, statusDone, st.kind)
	assert.Equal(t, exitTerminated, st.value.kind)
	assert.Equal(t, "stop", st.value.defect)

	select {
	case <-killed:
	case <-time.After(time.Second):
		t.Fatal("kill callback never fired")
	}
}

// TestDeferredKillDuringUninterruptibleAsyncRegionTakesEffectAfterMaskLifts
// covers the scenario where kill cannot take the AsyncRegion immediate-kill
// path because the fiber is inside Uninterruptible: the defect it latches
// must still be delivered once noInterrupt drops back to zero and the
// fiber's next evaluate call observes it, rather than staying stuck forever
// behind the once-set hasErr flag.
func TestDeferredKillDuringUninterruptibleAsyncRegionTakesEffectAfterMaskLifts(t *testing.T) {
	f := statusTestFiber()
	f.noInterrupt.Add(1)
	f.enterAsyncStart()

	killed := make(chan struct{})
	f.kill("stop", func() { close(killed) })

	st := f.status.Load()
	require.Equal(t, statusAsyncRegion, st.kind)
	assert.True(t, st.hasErr)

	f.noInterrupt.Add(-1)
	f.enterAsyncEnd()

	f.evaluate(&ioNode{tag: tagPure, value: 1})

	select {
	case <-killed:
	case <-time.After(time.Second):
		t.Fatal("deferred kill was never delivered after the mask lifted")
	}
	assert.Equal(t, statusDone, f.status.Load().kind)
}
