// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort_test

import (
	"testing"
	"time"

	"code.hybscloud.com/iort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRTS() *iort.RTS {
	return iort.NewRTS(iort.Config{Workers: 2, YieldMaxOpCount: 256}, nil)
}

func TestPureCompletes(t *testing.T) {
	h := testRTS()
	got := iort.UnsafeRun(h, iort.Pure[string, int](5))
	assert.Equal(t, 5, got)
}

func TestSeqChainsEffects(t *testing.T) {
	h := testRTS()
	program := iort.Seq(iort.Pure[string, int](1), func(a int) iort.IO[string, int] {
		return iort.Pure[string, int](a + 1)
	})
	assert.Equal(t, 2, iort.UnsafeRun(h, program))
}

func TestMapTransformsValue(t *testing.T) {
	h := testRTS()
	program := iort.Map(iort.Pure[string, int](3), func(a int) string { return "n=3" })
	assert.Equal(t, "n=3", iort.UnsafeRun(h, program))
}

func TestFailProducesFailedExit(t *testing.T) {
	h := testRTS()
	exit := iort.UnsafeRunSync(h, iort.Fail[string, int]("bad"))
	assert.True(t, exit.IsFailed())
	e, _ := exit.Err()
	assert.Equal(t, "bad", e)
}

func TestRedeemCatchesFail(t *testing.T) {
	h := testRTS()
	program := iort.Redeem(
		iort.Fail[string, int]("bad"),
		func(e string) iort.IO[string, string] { return iort.Pure[string, string]("caught:" + e) },
		func(a int) iort.IO[string, string] { return iort.Pure[string, string]("ok") },
	)
	assert.Equal(t, "caught:bad", iort.UnsafeRun(h, program))
}

func TestTerminateProducesTerminatedExit(t *testing.T) {
	h := testRTS()
	exit := iort.UnsafeRunSync(h, iort.Terminate[string, int]("boom"))
	assert.True(t, exit.IsTerminated())
	d, _ := exit.Defect()
	assert.Equal(t, "boom", d)
}

func TestUnsafeRunPanicsWithUnhandledErrorOnFail(t *testing.T) {
	h := testRTS()
	assert.PanicsWithValue(t, &iort.UnhandledError{Cause: "bad"}, func() {
		iort.UnsafeRun(h, iort.Fail[string, int]("bad"))
	})
}

func TestForkAndJoin(t *testing.T) {
	h := testRTS()
	program := iort.Seq(
		iort.Fork(iort.Pure[string, int](9), nil),
		func(handle *iort.FiberHandle[string, int]) iort.IO[string, int] {
			return iort.Seq(handle.Join(), func(exit iort.ExitResult[string, int]) iort.IO[string, int] {
				v, _ := exit.Value()
				return iort.Pure[string, int](v)
			})
		},
	)
	assert.Equal(t, 9, iort.UnsafeRun(h, program))
}

func TestRunReturnsChildExitResult(t *testing.T) {
	h := testRTS()
	program := iort.Run(iort.Fail[string, int]("child failed"))
	exit := iort.UnsafeRun(h, program)
	assert.True(t, exit.IsFailed())
}

func TestSleepResumes(t *testing.T) {
	h := testRTS()
	start := time.Now()
	iort.UnsafeRun(h, iort.Sleep[string](20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRaceFirstCompletionWins(t *testing.T) {
	h := testRTS()
	fast := iort.Then(iort.Sleep[string](5*time.Millisecond), iort.Pure[string, string]("fast"))
	slow := iort.Then(iort.Sleep[string](200*time.Millisecond), iort.Pure[string, string]("slow"))

	program := iort.Race(fast, slow,
		func(a string, loser *iort.FiberHandle[string, string]) iort.IO[string, string] {
			return iort.Pure[string, string]("left:" + a)
		},
		func(b string, loser *iort.FiberHandle[string, string]) iort.IO[string, string] {
			return iort.Pure[string, string]("right:" + b)
		},
	)
	assert.Equal(t, "left:fast", iort.UnsafeRun(h, program))
}

func TestTimeoutCompletesInTime(t *testing.T) {
	h := testRTS()
	fast := iort.Pure[string, string]("done")
	exit := iort.UnsafeRun(h, iort.Timeout(fast, 50*time.Millisecond))
	assert.True(t, exit.IsCompleted())
}

func TestTimeoutExceeded(t *testing.T) {
	h := testRTS()
	slow := iort.Then(iort.Sleep[string](200*time.Millisecond), iort.Pure[string, string]("too slow"))
	exit := iort.UnsafeRun(h, iort.Timeout(slow, 20*time.Millisecond))
	assert.True(t, exit.IsTerminated())
	d, ok := exit.Defect()
	require.True(t, ok)
	_, ok = d.(iort.TimeoutDefect)
	assert.True(t, ok)
}

func TestEnsuringRunsFinalizerOnSuccess(t *testing.T) {
	h := testRTS()
	ran := make(chan struct{}, 1)
	program := iort.Ensuring(
		iort.Pure[string, int](1),
		iort.Sync[iort.Nothing, struct{}](func() struct{} { ran <- struct{}{}; return struct{}{} }),
	)
	iort.UnsafeRun(h, program)
	select {
	case <-ran:
	default:
		t.Fatal("finalizer did not run")
	}
}

func TestEnsuringRunsFinalizerOnFail(t *testing.T) {
	h := testRTS()
	ran := make(chan struct{}, 1)
	program := iort.Ensuring(
		iort.Fail[string, int]("x"),
		iort.Sync[iort.Nothing, struct{}](func() struct{} { ran <- struct{}{}; return struct{}{} }),
	)
	iort.UnsafeRunSync(h, program)
	select {
	case <-ran:
	default:
		t.Fatal("finalizer did not run")
	}
}

func TestSuspendDefersConstruction(t *testing.T) {
	h := testRTS()
	built := false
	program := iort.Suspend(func() iort.IO[string, int] {
		built = true
		return iort.Pure[string, int](1)
	})
	assert.False(t, built)
	iort.UnsafeRun(h, program)
	assert.True(t, built)
}

func TestSupervisorReadsUnhandledHandler(t *testing.T) {
	h := testRTS()
	program := iort.Supervisor[string]()
	handler := iort.UnsafeRun(h, program)
	assert.NotNil(t, handler)
}

func TestDeepSeqChainStaysStackBounded(t *testing.T) {
	h := testRTS()
	const depth = 1_000_000
	program := iort.Pure[string, int](0)
	for i := 0; i < depth; i++ {
		program = iort.Seq(program, func(a int) iort.IO[string, int] {
			return iort.Pure[string, int](a + 1)
		})
	}
	assert.Equal(t, depth, iort.UnsafeRun(h, program))
}

func TestSyncPanicConvertsToTerminated(t *testing.T) {
	h := testRTS()
	program := iort.Sync[string, int](func() int { panic("boom") })
	exit := iort.UnsafeRunSync(h, program)
	assert.True(t, exit.IsTerminated())
	d, ok := exit.Defect()
	require.True(t, ok)
	assert.Equal(t, "boom", d)
}

func TestContinuationPanicConvertsToTerminated(t *testing.T) {
	h := testRTS()
	program := iort.Seq(iort.Pure[string, int](1), func(a int) iort.IO[string, int] {
		panic("continuation boom")
	})
	exit := iort.UnsafeRunSync(h, program)
	assert.True(t, exit.IsTerminated())
	d, ok := exit.Defect()
	require.True(t, ok)
	assert.Equal(t, "continuation boom", d)
}
