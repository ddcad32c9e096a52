// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

// Serial programming instructions for the mid-range PIC family. Each is
// clocked in as 6 bits, least significant first.
const (
	OpLoadConfig       uint8 = 0x00
	OpLoadProgram      uint8 = 0x02
	OpLoadData         uint8 = 0x03
	OpReadProgram      uint8 = 0x04
	OpReadData         uint8 = 0x05
	OpIncrementAddress uint8 = 0x06
	OpBeginProgram     uint8 = 0x08
	OpBulkEraseProgram uint8 = 0x09
	OpBulkEraseData    uint8 = 0x0B
	OpEndProgramOnly   uint8 = 0x17
	OpBeginProgramOnly uint8 = 0x18
	OpChipErase        uint8 = 0x1F
)

// Word offsets inside the configuration memory space, relative to its
// base address.
const (
	ConfigOffsetUserID   = 0 // first of four consecutive user ID words
	ConfigOffsetDeviceID = 6
	ConfigOffsetConfig   = 7
)

const (
	// WordMask selects the 14 data bits of a program or config word.
	WordMask = 0x3FFF

	// DataMask selects the 8 data bits of a data memory byte.
	DataMask = 0x00FF

	// EraseSentinel is the value loaded into configuration location 0 to
	// arm the bulk erase of code-protected parts.
	EraseSentinel = 0x3FFF
)
