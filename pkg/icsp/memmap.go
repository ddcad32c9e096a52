// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import "github.com/varlow/wpps/pkg/device"

// MemoryMap describes the flat address layout of the attached target. All
// window bounds are inclusive, so an empty reserved window has its start
// above its end.
type MemoryMap struct {
	ProgramEnd    uint32
	ConfigStart   uint32
	ConfigEnd     uint32
	DataStart     uint32
	DataEnd       uint32
	ReservedStart uint32
	ReservedEnd   uint32
	ConfigSave    uint32
	ProgramFlash  device.FlashType
	DataFlash     device.FlashType
}

// DefaultMap returns the layout assumed before a device has been
// identified: the PIC16F628A's.
func DefaultMap() MemoryMap {
	return MemoryMap{
		ProgramEnd:    0x07FF,
		ConfigStart:   0x2000,
		ConfigEnd:     0x2007,
		DataStart:     0x2100,
		DataEnd:       0x217F,
		ReservedStart: 0x0800,
		ReservedEnd:   0x07FF,
		ConfigSave:    0x0000,
		ProgramFlash:  device.Flash4,
		DataFlash:     device.EEPROM,
	}
}

// MapForDescriptor derives the flat layout from a registry descriptor.
func MapForDescriptor(d *device.Descriptor) MemoryMap {
	programEnd := d.ProgramSize - 1
	return MemoryMap{
		ProgramEnd:    programEnd,
		ConfigStart:   d.ConfigStart,
		ConfigEnd:     d.ConfigStart + d.ConfigSize - 1,
		DataStart:     d.DataStart,
		DataEnd:       d.DataStart + d.DataSize - 1,
		ReservedStart: programEnd - d.ReservedWords + 1,
		ReservedEnd:   programEnd,
		ConfigSave:    d.ConfigSave,
		ProgramFlash:  d.ProgramFlash,
		DataFlash:     d.DataFlash,
	}
}

// HasReserved reports whether the map carries a non-empty reserved window
// at the top of program memory.
func (m MemoryMap) HasReserved() bool {
	return m.ReservedStart <= m.ReservedEnd
}

// InData reports whether addr falls inside the data memory window.
func (m MemoryMap) InData(addr uint32) bool {
	return addr >= m.DataStart && addr <= m.DataEnd
}

// InConfig reports whether addr falls inside the configuration window.
func (m MemoryMap) InConfig(addr uint32) bool {
	return addr >= m.ConfigStart && addr <= m.ConfigEnd
}
