// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iort

import (
	"fmt"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config tunes a RTS's worker pool and cooperative scheduling. Grounded on
// the toml-decoded project manifest pattern in
// chazu-maggie/manifest/manifest.go: a plain struct with toml tags, loaded
// with github.com/BurntSushi/toml and defaulted afterward.
type Config struct {
	// Workers is the number of goroutines in the host pool. Zero means use
	// GOMAXPROCS, which NewRTS reads while automaxprocs has it adjusted to
	// the container's CPU quota.
	Workers int `toml:"workers"`

	// YieldMaxOpCount bounds how many node-evaluation steps a fiber runs on
	// one goroutine before voluntarily rescheduling itself onto the host
	// pool, for cooperative fairness. Zero disables yielding entirely — a
	// single fiber may then run forever without ever giving up its
	// goroutine, appropriate only for tests exercising a single fiber.
	YieldMaxOpCount int `toml:"yield_max_op_count"`

	// QueueCapacity sizes the host's submit channel. Zero means an
	// unbuffered channel: submit blocks until a worker goroutine is free to
	// receive, a direct handoff rather than a queue.
	QueueCapacity int `toml:"queue_capacity"`
}

// DefaultConfig returns the default configuration: one worker per logical
// CPU as reported by runtime.GOMAXPROCS at call time, a yield budget of 2^20
// steps, and an unbuffered submit channel.
func DefaultConfig() Config {
	return Config{
		Workers:         runtime.GOMAXPROCS(0),
		YieldMaxOpCount: 1 << 20,
		QueueCapacity:   0,
	}
}

// LoadConfig reads a TOML-encoded Config from path. Fields absent from the
// file keep DefaultConfig's values, and a Workers value of zero or less is
// replaced with runtime.GOMAXPROCS.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("iort: cannot read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("iort: parse error in %s: %w", path, err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}
