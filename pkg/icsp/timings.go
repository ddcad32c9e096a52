// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

// Timings holds the protocol delays in microseconds. The defaults satisfy
// every part in the registry; the names in parentheses are the datasheet
// symbols.
type Timings struct {
	// Settle is the line settle time after forcing the powered-off
	// posture.
	Settle int

	// VppRise (TPPDP) runs between raising MCLR to VPP and raising VDD.
	VppRise int

	// PowerSettle (THLD0) runs after raising VDD before the first
	// instruction.
	PowerSettle int

	// BitSet (TSET1) is the data setup time before each falling clock
	// edge.
	BitSet int

	// BitHold (THLD1) is the data hold time after each falling clock
	// edge.
	BitHold int

	// Command (TDLY2) separates an instruction from its payload and one
	// instruction from the next.
	Command int

	// ReadSetup (TDLY3) runs between the rising clock edge and sampling
	// a read-back bit.
	ReadSetup int

	// Program (TPROG) is the internally timed flash write cycle of the
	// 4ms parts.
	Program int

	// DataProgram (TDPROG) is the erase-and-write cycle of EEPROM data
	// memory and the older flash parts.
	DataProgram int

	// Erase (TERA) is the bulk erase cycle.
	Erase int

	// Program5 (TPROG5) is the externally timed write window of the
	// parts programmed with the begin-only/end-only pair.
	Program5 int

	// FullErase (TFULLERA) is the chip erase cycle of those same parts.
	FullErase int

	// FullErase84 (TFULL84) is the multi-cycle erase time of the
	// original 16F84.
	FullErase84 int
}

// DefaultTimings returns the stock delays.
func DefaultTimings() Timings {
	return Timings{
		Settle:      50,
		VppRise:     5,
		PowerSettle: 5,
		BitSet:      1,
		BitHold:     1,
		Command:     1,
		ReadSetup:   1,
		Program:     4000,
		DataProgram: 6000,
		Erase:       6000,
		Program5:    1000,
		FullErase:   50000,
		FullErase84: 20000,
	}
}
