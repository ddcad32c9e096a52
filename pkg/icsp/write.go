// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import "github.com/varlow/wpps/pkg/device"

// Write support stops at the word primitive for now. No network command
// drives it; the daemon's command set is read-only until the image upload
// path lands.

// writeWord programs one word at a flat address and verifies it by
// reading back. Data window addresses program data memory; everything
// else programs program or configuration memory.
func (e *Engine) writeWord(addr uint32, word uint16) bool {
	e.SetProgramCounter(addr)
	if e.mem.InData(addr) {
		word &= DataMask
		e.sendWrite(OpLoadData, frameByte(word))
		e.beginProgramCycle(addr)
		return stripByte(e.sendRead(OpReadData)) == word
	}
	word &= WordMask
	e.sendWrite(OpLoadProgram, frameWord(word))
	e.beginProgramCycle(addr)
	return stripWord(e.sendRead(OpReadProgram)) == word
}

// beginProgramCycle runs the flash-type-specific commit sequence for the
// word currently held in the target's write latch.
func (e *Engine) beginProgramCycle(addr uint32) {
	flashType := e.mem.ProgramFlash
	if e.mem.InData(addr) {
		flashType = e.mem.DataFlash
	}

	switch flashType {
	case device.Flash4:
		// Self-timed write, no erase cycle.
		e.sendSimple(OpBeginProgram)
		e.delay(e.cfg.Timings.Program)
	case device.Flash5:
		// Externally timed window bounded by the begin-only/end-only
		// pair.
		e.sendSimple(OpBeginProgramOnly)
		e.delay(e.cfg.Timings.Program5)
		e.sendSimple(OpEndProgramOnly)
	default:
		// EEPROM data memory and the older flash parts erase and write
		// in one long internally timed cycle.
		e.sendSimple(OpBeginProgram)
		e.delay(e.cfg.Timings.DataProgram)
	}
}
