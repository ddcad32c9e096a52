// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

// Logger is an optional logging hook. It allows integration with any
// logging framework without this package importing one.
//
// Example with the standard log package:
//
//	type stdLogger struct{}
//	func (stdLogger) Debug(msg string, kv ...interface{}) { log.Println("DEBUG:", msg, kv) }
//	func (stdLogger) Info(msg string, kv ...interface{})  { log.Println("INFO:", msg, kv) }
//
//	eng := icsp.New(hw, icsp.WithLogger(stdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})
}
