// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package device holds the built-in descriptor table for the PIC targets
// the programmer knows how to identify.
package device

// FlashType tags the write/erase behavior of a memory plane. The write
// path selects programming sequences and delays from these.
type FlashType uint8

const (
	EEPROM FlashType = iota // byte-programmable data memory
	Flash                   // single-word program, needs bulk erase first
	Flash4                  // self-erasing program writes, 4-word rows
	Flash5                  // 16F87/88 style, END_PROGRAMMING terminated
)

// NoDeviceID marks descriptors for parts without an ID register. A read
// identifier can never match it: unidentifiable-but-present hardware is
// reported as such rather than misattributed to a legacy part.
const NoDeviceID = -1

// IDMask clears the die-revision bits of a device-ID word before registry
// lookup.
const IDMask = 0xFFE0

// Descriptor describes one supported part: its masked identifier and the
// memory geometry the programmer must apply once the part is identified.
// Sizes are in words; Start fields are flat addresses.
type Descriptor struct {
	Name          string
	DeviceID      int32 // masked identifier, or NoDeviceID
	ProgramSize   uint32
	ConfigStart   uint32
	ConfigSize    uint32
	DataStart     uint32
	DataSize      uint32
	ReservedWords uint32
	ConfigSave    uint32
	ProgramFlash  FlashType
	DataFlash     FlashType
}

// Builtin is the supported-device table. Order matters: identification
// scans linearly and the first masked-ID match wins.
var Builtin = []Descriptor{
	{"pic16f84", NoDeviceID, 1024, 0x2000, 8, 0x2100, 64, 0, 0x0000, Flash, EEPROM},
	{"pic16f84a", 0x0560, 1024, 0x2000, 8, 0x2100, 64, 0, 0x0000, Flash, EEPROM},
	{"pic16f87", 0x0720, 4096, 0x2000, 9, 0x2100, 256, 0, 0x0000, Flash5, EEPROM},
	{"pic16f88", 0x0760, 4096, 0x2000, 9, 0x2100, 256, 0, 0x0000, Flash5, EEPROM},
	{"pic16f627", 0x07A0, 1024, 0x2000, 8, 0x2100, 128, 0, 0x0000, Flash, EEPROM},
	{"pic16f627a", 0x1040, 1024, 0x2000, 8, 0x2100, 128, 0, 0x0000, Flash4, EEPROM},
	{"pic16f628", 0x07C0, 2048, 0x2000, 8, 0x2100, 128, 0, 0x0000, Flash, EEPROM},
	{"pic16f628a", 0x1060, 2048, 0x2000, 8, 0x2100, 128, 0, 0x0000, Flash4, EEPROM},
	{"pic16f648a", 0x1100, 4096, 0x2000, 8, 0x2100, 256, 0, 0x0000, Flash4, EEPROM},
}

// Find looks up a raw device-ID word in the table. The ID is masked with
// IDMask before comparison. Returns nil if no entry matches.
func Find(deviceID uint16) *Descriptor {
	masked := int32(uint32(deviceID) & IDMask)
	for i := range Builtin {
		if Builtin[i].DeviceID == NoDeviceID {
			continue
		}
		if Builtin[i].DeviceID == masked {
			return &Builtin[i]
		}
	}
	return nil
}

// ByName looks up a descriptor by its display name. Returns nil if the
// name is unknown.
func ByName(name string) *Descriptor {
	for i := range Builtin {
		if Builtin[i].Name == name {
			return &Builtin[i]
		}
	}
	return nil
}

// String returns the human-readable flash type tag.
func (f FlashType) String() string {
	switch f {
	case EEPROM:
		return "EEPROM"
	case Flash:
		return "FLASH"
	case Flash4:
		return "FLASH4"
	case Flash5:
		return "FLASH5"
	default:
		return "UNKNOWN"
	}
}
