// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

// Config holds the engine configuration.
type Config struct {
	// Timings are the protocol delays in microseconds.
	Timings Timings

	// Logger receives mode transitions and detection results (optional).
	Logger Logger
}

func defaultConfig() Config {
	return Config{
		Timings: DefaultTimings(),
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithTimings replaces the protocol delays.
//
// Example:
//
//	t := icsp.DefaultTimings()
//	t.Settle = 100
//	eng := icsp.New(hw, icsp.WithTimings(t))
func WithTimings(t Timings) Option {
	return func(c *Config) {
		c.Timings = t
	}
}

// WithLogger attaches a logger to the engine.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
