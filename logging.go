// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the type every RTS logs through: a logiface.Logger fixed to the
// logiface.Event interface, so a host can swap backends (stumpy, zerolog,
// logrus, slog — anything logiface.L.New accepts) without iort caring which
// one is wired up. Grounded on the usage idiom of
// joeycumines-go-utilpkg/sql/export.Exporter.Logger, which carries the same
// field type for the same reason.
type Logger = logiface.Logger[logiface.Event]

// defaultLogger builds the RTS logger used when NewRTS is given a nil logger: a
// stumpy-backed JSON logger writing to stderr, stumpy being the pack's own
// "model" logiface backend (see logiface-stumpy/doc.go).
func defaultLogger() *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
	).Logger()
}

// logFork records a Fork at debug level.
func logFork(l *Logger, child FiberID, parent FiberID) {
	l.Debug().
		Str(`fiber`, child.String()).
		Str(`parent`, parent.String()).
		Log(`fork`)
}

// logTerminated records a defect reported for a fiber at error level; it is
// what defaultUnhandled does with the defect it is called with.
func logTerminated(l *Logger, id FiberID, defect any) {
	l.Err().
		Str(`fiber`, id.String()).
		Interface(`defect`, defect).
		Log(`fiber terminated`)
}

// logUnhandled records a defect that reached the top of a fiber's unhandled
// chain with nowhere left to report to.
func logUnhandled(l *Logger, id FiberID, defect any) {
	l.Emerg().
		Str(`fiber`, id.String()).
		Interface(`defect`, defect).
		Log(`unhandled defect`)
}
