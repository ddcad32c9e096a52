// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import "github.com/varlow/wpps/pkg/hal"

// frameWord wraps a 14-bit word in the start and stop bits of a 16-bit
// transfer frame.
func frameWord(w uint16) uint16 {
	return (w << 1) & 0x7FFE
}

// frameByte wraps an 8-bit data memory value the same way.
func frameByte(b uint16) uint16 {
	return (b << 1) & 0x01FE
}

// stripWord removes the framing bits from a program or config read.
func stripWord(f uint16) uint16 {
	return (f >> 1) & WordMask
}

// stripByte removes the framing bits from a data memory read.
func stripByte(f uint16) uint16 {
	return (f >> 1) & DataMask
}

// sendInstruction clocks a 6-bit instruction out, least significant bit
// first. The target latches each bit on the falling clock edge.
func (e *Engine) sendInstruction(code uint8) {
	for bit := 0; bit < 6; bit++ {
		e.hw.SetLevel(hal.LineClock, hal.High)
		if code&1 != 0 {
			e.hw.SetLevel(hal.LineData, hal.High)
		} else {
			e.hw.SetLevel(hal.LineData, hal.Low)
		}
		e.delay(e.cfg.Timings.BitSet)
		e.hw.SetLevel(hal.LineClock, hal.Low)
		e.delay(e.cfg.Timings.BitHold)
		code >>= 1
	}
}

// sendSimple issues an instruction that carries no payload.
func (e *Engine) sendSimple(code uint8) {
	e.sendInstruction(code)
	e.delay(e.cfg.Timings.Command)
}

// sendWrite issues an instruction followed by a 16-bit payload. The
// payload is transferred as given; callers frame memory words with
// frameWord or frameByte first.
func (e *Engine) sendWrite(code uint8, data uint16) {
	e.sendInstruction(code)
	e.delay(e.cfg.Timings.Command)
	for bit := 0; bit < 16; bit++ {
		e.hw.SetLevel(hal.LineClock, hal.High)
		if data&1 != 0 {
			e.hw.SetLevel(hal.LineData, hal.High)
		} else {
			e.hw.SetLevel(hal.LineData, hal.Low)
		}
		e.delay(e.cfg.Timings.BitSet)
		e.hw.SetLevel(hal.LineClock, hal.Low)
		e.delay(e.cfg.Timings.BitHold)
		data >>= 1
	}
	e.delay(e.cfg.Timings.Command)
}

// sendRead issues an instruction and clocks back a 16-bit frame, sampling
// each bit while the clock is high. The data line is floated for the
// transfer and re-driven afterwards.
func (e *Engine) sendRead(code uint8) uint16 {
	e.sendInstruction(code)
	e.hw.SetLevel(hal.LineData, hal.Low)
	e.hw.SetDirection(hal.LineData, hal.Input)
	e.delay(e.cfg.Timings.Command)

	var data uint16
	for bit := 0; bit < 16; bit++ {
		data >>= 1
		e.hw.SetLevel(hal.LineClock, hal.High)
		e.delay(e.cfg.Timings.ReadSetup)
		if e.hw.ReadLevel(hal.LineData) == hal.High {
			data |= 0x8000
		}
		e.hw.SetLevel(hal.LineClock, hal.Low)
		e.delay(e.cfg.Timings.BitHold)
	}

	e.hw.SetDirection(hal.LineData, hal.Output)
	e.delay(e.cfg.Timings.Command)
	return data
}
