// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"fmt"
	"time"
)

// UnhandledError wraps the typed error of a fiber that settled Failed
// because a Fail reached the bottom of its stack with no Redeem able to
// catch it. UnsafeRun panics with it, carrying the typed error as Cause.
type UnhandledError struct {
	Cause any
}

func (e *UnhandledError) Error() string {
	return fmt.Sprintf("iort: unhandled error: %v", e.Cause)
}

// Unwrap exposes Cause to errors.As/errors.Is when Cause is itself an error.
func (e *UnhandledError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// TimeoutDefect is the defect a Timeout-wrapped IO terminates with when its
// body is interrupted after Duration elapses.
type TimeoutDefect struct {
	Duration time.Duration
}

func (e TimeoutDefect) Error() string {
	return fmt.Sprintf("iort: timed out after %s", e.Duration)
}
