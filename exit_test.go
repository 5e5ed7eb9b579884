// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort_test

import (
	"testing"

	"code.hybscloud.com/iort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitResultCompleted(t *testing.T) {
	r := iort.Completed[string, int](42)
	assert.True(t, r.IsCompleted())
	assert.False(t, r.IsFailed())
	assert.False(t, r.IsTerminated())

	v, ok := r.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = r.Err()
	assert.False(t, ok)
	_, ok = r.Defect()
	assert.False(t, ok)
}

func TestExitResultFailed(t *testing.T) {
	r := iort.Failed[string, int]("boom")
	assert.True(t, r.IsFailed())

	e, ok := r.Err()
	require.True(t, ok)
	assert.Equal(t, "boom", e)

	_, ok = r.Value()
	assert.False(t, ok)
}

func TestExitResultTerminated(t *testing.T) {
	r := iort.Terminated[string, int]("oops")
	assert.True(t, r.IsTerminated())

	d, ok := r.Defect()
	require.True(t, ok)
	assert.Equal(t, "oops", d)
}

func TestExitResultEither(t *testing.T) {
	ok := iort.Completed[string, int](7).Either()
	assert.True(t, ok.IsRight())
	v, _ := ok.GetRight()
	assert.Equal(t, 7, v)

	failed := iort.Failed[string, int]("nope").Either()
	assert.True(t, failed.IsLeft())
	e, _ := failed.GetLeft()
	assert.Equal(t, "nope", e)
}

func TestExitResultEitherPanicsOnTerminated(t *testing.T) {
	assert.Panics(t, func() {
		iort.Terminated[string, int]("defect").Either()
	})
}

func TestMatch(t *testing.T) {
	toString := func(r iort.ExitResult[string, int]) string {
		return iort.Match(r,
			func(a int) string { return "ok" },
			func(e string) string { return "err:" + e },
			func(d any) string { return "defect" },
		)
	}
	assert.Equal(t, "ok", toString(iort.Completed[string, int](1)))
	assert.Equal(t, "err:bad", toString(iort.Failed[string, int]("bad")))
	assert.Equal(t, "defect", toString(iort.Terminated[string, int]("d")))
}
