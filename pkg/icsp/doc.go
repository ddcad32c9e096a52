// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package icsp drives mid-range PIC microcontrollers over their in-circuit
// serial programming interface.
//
// # Overview
//
// The package bit-bangs the two-wire protocol through a hal.Interface and
// layers the addressing model of the target family on top of it:
//
//   - high-voltage programming mode entry and exit with the datasheet
//     timing sequence
//   - the shared program counter, advanced by increment pulses and moved
//     between the program, configuration, and data memory spaces
//   - device detection against the built-in descriptor registry
//   - streamed memory reads with chunked delivery
//
// # Basic Usage
//
//	hw, err := hal.Open("rpio", pins)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer hw.Close()
//
//	eng := icsp.New(hw)
//	res := eng.DetectDevice()
//	if res.Outcome == icsp.Identified {
//	    fmt.Println(res.Device.Name)
//	}
//
// # Hardware Independence
//
// The engine never touches GPIO directly. Any hal.Interface works,
// including hal.SimTarget, which emulates a target chip in memory and
// backs this package's tests.
//
// # Logging
//
// An optional Logger can be attached with WithLogger to observe mode
// transitions and detection results. The engine is silent by default.
//
// The engine is not safe for concurrent use: the target chip has a single
// program counter, so callers serialize access at the command level.
package icsp
