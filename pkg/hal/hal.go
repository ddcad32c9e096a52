// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package hal abstracts the five programmer signal lines behind a small
// interface so the protocol engine never touches GPIO directly. Backends:
// rpio (Raspberry Pi memory-mapped GPIO), periph (portable periph.io
// drivers), and sim (an in-memory PIC target for tests and demo mode).
package hal

import "fmt"

// Line identifies one of the programmer's signal lines.
type Line int

const (
	LineMCLR     Line = iota // target reset, driven to VPP to program
	LineVDD                  // target supply switch
	LineData                 // ICSPDAT, bidirectional
	LineClock                // ICSPCLK
	LineActivity             // operator-facing activity LED
)

// Level is a logical line level. VPP is meaningful only on LineMCLR: the
// high-voltage generator is keyed from that line, so hardware backends
// drive it like High.
type Level int

const (
	Low Level = iota
	High
	VPP
)

// Direction selects whether a line is driven or floated for reading.
// Only LineData and LineClock ever change direction.
type Direction int

const (
	Output Direction = iota
	Input
)

// Pins maps signal lines to GPIO numbers (BCM numbering on the Pi).
type Pins struct {
	MCLR     int `yaml:"mclr"`
	VDD      int `yaml:"vdd"`
	Data     int `yaml:"data"`
	Clock    int `yaml:"clock"`
	Activity int `yaml:"activity"`
}

// Interface is the hardware access capability consumed by the protocol
// engine. Level and direction operations have no failure path: once a
// backend opens successfully, pin writes are assumed to stick, exactly as
// the target protocol assumes a sound electrical link.
type Interface interface {
	// SetLevel drives a line to the given level.
	SetLevel(line Line, level Level)

	// SetDirection switches a line between driven output and floating
	// input.
	SetDirection(line Line, dir Direction)

	// ReadLevel samples a line. Meaningful only while the line is an
	// input.
	ReadLevel(line Line) Level

	// DelayMicroseconds blocks for at least the given number of
	// microseconds.
	DelayMicroseconds(us int)

	// Close releases the underlying hardware.
	Close() error
}

// Open opens the named backend. Recognized drivers: "rpio", "periph",
// "sim".
func Open(driver string, pins Pins) (Interface, error) {
	switch driver {
	case "rpio":
		return OpenRPIO(pins)
	case "periph":
		return OpenPeriph(pins)
	case "sim":
		return NewSimTarget(), nil
	default:
		return nil, fmt.Errorf("unknown GPIO driver %q", driver)
	}
}

func (l Line) String() string {
	switch l {
	case LineMCLR:
		return "MCLR"
	case LineVDD:
		return "VDD"
	case LineData:
		return "DATA"
	case LineClock:
		return "CLOCK"
	case LineActivity:
		return "ACTIVITY"
	default:
		return "UNKNOWN"
	}
}
