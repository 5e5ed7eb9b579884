// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort_test

import (
	"testing"

	"code.hybscloud.com/iort"
	"github.com/stretchr/testify/assert"
)

func TestBracketReleasesOnSuccess(t *testing.T) {
	h := testRTS()
	released := false
	program := iort.Bracket(
		iort.Pure[string, int](1),
		func(int) iort.IO[iort.Nothing, struct{}] {
			return iort.Sync[iort.Nothing, struct{}](func() struct{} { released = true; return struct{}{} })
		},
		func(r int) iort.IO[string, int] { return iort.Pure[string, int](r + 1) },
	)
	assert.Equal(t, 2, iort.UnsafeRun(h, program))
	assert.True(t, released)
}

func TestBracketReleasesOnFail(t *testing.T) {
	h := testRTS()
	released := false
	program := iort.Bracket(
		iort.Pure[string, int](1),
		func(int) iort.IO[iort.Nothing, struct{}] {
			return iort.Sync[iort.Nothing, struct{}](func() struct{} { released = true; return struct{}{} })
		},
		func(r int) iort.IO[string, int] { return iort.Fail[string, int]("use failed") },
	)
	exit := iort.UnsafeRunSync(h, program)
	assert.True(t, exit.IsFailed())
	assert.True(t, released)
}

func TestOnErrorRunsCleanupAndReraises(t *testing.T) {
	h := testRTS()
	cleaned := false
	program := iort.OnError(
		iort.Fail[string, int]("original"),
		func(e string) iort.IO[iort.Nothing, struct{}] {
			return iort.Sync[iort.Nothing, struct{}](func() struct{} { cleaned = true; return struct{}{} })
		},
	)
	exit := iort.UnsafeRunSync(h, program)
	assert.True(t, exit.IsFailed())
	e, _ := exit.Err()
	assert.Equal(t, "original", e)
	assert.True(t, cleaned)
}

func TestOnErrorSkipsCleanupOnSuccess(t *testing.T) {
	h := testRTS()
	cleaned := false
	program := iort.OnError(
		iort.Pure[string, int](1),
		func(e string) iort.IO[iort.Nothing, struct{}] {
			return iort.Sync[iort.Nothing, struct{}](func() struct{} { cleaned = true; return struct{}{} })
		},
	)
	iort.UnsafeRun(h, program)
	assert.False(t, cleaned)
}
