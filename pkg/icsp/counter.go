// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

// SetProgramCounter walks the target's program counter to the given flat
// address. The counter only moves forward, one increment pulse at a time,
// so going backwards or crossing memory spaces costs a power-cycle:
//
//   - data window: counted relative to the window base, in program
//     addressing state; reset when powered off, in config state, or past
//     the target
//   - config window: counted relative to the window base after a
//     load-configuration instruction; going backwards resets and
//     re-enters config addressing
//   - anything else is program memory, counted flat; reset when powered
//     off, in config state, or past the target
func (e *Engine) SetProgramCounter(addr uint32) {
	switch {
	case e.mem.InData(addr):
		addr -= e.mem.DataStart
		if e.state != AddressingProgram || addr < e.pc {
			e.ExitProgramMode()
			e.EnterProgramMode()
		}
	case e.mem.InConfig(addr):
		addr -= e.mem.ConfigStart
		switch {
		case e.state == PoweredOff:
			e.EnterProgramMode()
			e.enterConfig(0)
		case e.state == AddressingProgram:
			e.enterConfig(0)
		case addr < e.pc:
			e.ExitProgramMode()
			e.EnterProgramMode()
			e.enterConfig(0)
		}
	default:
		if e.state != AddressingProgram || addr < e.pc {
			e.ExitProgramMode()
			e.EnterProgramMode()
		}
	}

	for e.pc < addr {
		e.sendSimple(OpIncrementAddress)
		e.pc++
	}
}

// SetEraseProgramCounter force-resets the target and loads the erase
// sentinel into configuration location 0, arming the bulk erase that also
// clears code protection.
func (e *Engine) SetEraseProgramCounter() {
	e.ExitProgramMode()
	e.EnterProgramMode()
	e.enterConfig(EraseSentinel)
}

// enterConfig issues a load-configuration instruction, which switches the
// target's program counter to the base of configuration memory with the
// given word in the write latch.
func (e *Engine) enterConfig(word uint16) {
	e.sendWrite(OpLoadConfig, frameWord(word))
	e.state = AddressingConfig
	e.pc = 0
}

// readConfigWord reads a configuration word by its offset within the
// config space rather than by flat address. Detection uses it while the
// target's layout is still unknown.
func (e *Engine) readConfigWord(offset uint32) uint16 {
	switch {
	case e.state == PoweredOff:
		e.EnterProgramMode()
		e.enterConfig(0)
	case e.state == AddressingProgram:
		e.enterConfig(0)
	case offset < e.pc:
		e.ExitProgramMode()
		e.EnterProgramMode()
		e.enterConfig(0)
	}
	for e.pc < offset {
		e.sendSimple(OpIncrementAddress)
		e.pc++
	}
	return stripWord(e.sendRead(OpReadProgram))
}
