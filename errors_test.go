// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/iort"
	"github.com/stretchr/testify/assert"
)

func TestUnhandledErrorMessage(t *testing.T) {
	err := &iort.UnhandledError{Cause: "bad input"}
	assert.Contains(t, err.Error(), "bad input")
}

func TestUnhandledErrorUnwrapsErrorCause(t *testing.T) {
	inner := errors.New("inner failure")
	err := &iort.UnhandledError{Cause: inner}
	assert.ErrorIs(t, err, inner)
}

func TestUnhandledErrorUnwrapNilForNonError(t *testing.T) {
	err := &iort.UnhandledError{Cause: 42}
	assert.Nil(t, err.Unwrap())
}

func TestTimeoutDefectMessage(t *testing.T) {
	d := iort.TimeoutDefect{Duration: 5 * time.Second}
	assert.Contains(t, d.Error(), "5s")
}
