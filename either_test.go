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

func TestEitherRight(t *testing.T) {
	e := iort.Right[string, int](10)
	assert.True(t, e.IsRight())
	assert.False(t, e.IsLeft())

	v, ok := e.GetRight()
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = e.GetLeft()
	assert.False(t, ok)
}

func TestEitherLeft(t *testing.T) {
	e := iort.Left[string, int]("bad")
	assert.True(t, e.IsLeft())

	l, ok := e.GetLeft()
	require.True(t, ok)
	assert.Equal(t, "bad", l)
}

func TestMatchEither(t *testing.T) {
	describe := func(e iort.Either[string, int]) string {
		return iort.MatchEither(e,
			func(s string) string { return "left:" + s },
			func(i int) string { return "right" },
		)
	}
	assert.Equal(t, "right", describe(iort.Right[string, int](1)))
	assert.Equal(t, "left:x", describe(iort.Left[string, int]("x")))
}

func TestMapEither(t *testing.T) {
	doubled := iort.MapEither(iort.Right[string, int](4), func(i int) int { return i * 2 })
	v, ok := doubled.GetRight()
	require.True(t, ok)
	assert.Equal(t, 8, v)

	untouched := iort.MapEither(iort.Left[string, int]("err"), func(i int) int { return i * 2 })
	assert.True(t, untouched.IsLeft())
}

func TestEitherToExitResultRoundTrips(t *testing.T) {
	completed := iort.Completed[string, int](3)
	assert.Equal(t, completed, completed.Either().ToExitResult())

	failed := iort.Failed[string, int]("bad")
	assert.Equal(t, failed, failed.Either().ToExitResult())

	right := iort.Right[string, int](5)
	assert.True(t, right.ToExitResult().IsCompleted())

	left := iort.Left[string, int]("oops")
	exit := left.ToExitResult()
	assert.True(t, exit.IsFailed())
	e, ok := exit.Err()
	require.True(t, ok)
	assert.Equal(t, "oops", e)
}
