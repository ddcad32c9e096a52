// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package hal

// Target instruction set, as latched by the simulated part. These mirror
// the serial programming opcodes of the midrange PIC family.
const (
	opLoadConfig       = 0x00
	opLoadProgram      = 0x02
	opLoadData         = 0x03
	opReadProgram      = 0x04
	opReadData         = 0x05
	opIncrementAddress = 0x06
	opBeginProgram     = 0x08
	opBulkEraseProgram = 0x09
	opBulkEraseData    = 0x0B
	opEndProgramOnly   = 0x17
	opBeginProgramOnly = 0x18
	opChipErase        = 0x1F
)

const (
	simErasedWord    = 0x3FFF
	simErasedByte    = 0xFF
	simDeviceIDIndex = 6 // word offset of the device ID in the config plane
	simConfigIndex   = 7 // word offset of the primary config word

	// DefaultSimDeviceID is the identifier reported by a fresh simulated
	// target: a PIC16F628A at silicon revision 0.
	DefaultSimDeviceID = 0x1060
)

const (
	simModeProgram = iota
	simModeConfig
)

const (
	simPhaseInstruction = iota
	simPhasePayload
	simPhaseSend
)

// SimTarget is an in-memory midrange PIC behind the five programmer
// lines. It decodes the serial programming protocol edge by edge: data is
// latched on clock falling edges, and during read-back the target presents
// each frame bit while the clock is high. Delays are accounted virtually,
// so a full device read completes in microseconds of wall time.
//
// A fresh target behaves like an erased PIC16F628A: 2048 blank program
// words, 128 blank data bytes, blank user IDs, and a factory device ID of
// DefaultSimDeviceID. Fixture methods adjust the planes before a test
// drives the lines.
type SimTarget struct {
	level map[Line]Level
	dir   map[Line]Direction

	present bool
	powered bool
	mode    int
	pc      uint32

	phase      int
	bitCount   uint
	shiftIn    uint16
	shiftOut   uint16
	txIndex    uint
	pendingOp  uint8
	writeLatch uint16

	program []uint16
	config  []uint16
	data    []uint8

	powerCycles     int
	opCounts        map[uint8]int
	configLoads     []uint16
	activityToggles int
	elapsedUS       int64
}

// NewSimTarget returns a powered-down simulated target with erased user
// memory and the 628A's plane sizes.
func NewSimTarget() *SimTarget {
	return NewSimTargetWithSize(2048, 128)
}

// NewSimTargetWithSize returns a simulated target with the given program
// and data plane sizes, for emulating other family members.
func NewSimTargetWithSize(programWords, dataBytes int) *SimTarget {
	s := &SimTarget{
		level: map[Line]Level{
			LineMCLR: Low, LineVDD: Low, LineData: Low,
			LineClock: Low, LineActivity: Low,
		},
		dir: map[Line]Direction{
			LineMCLR: Output, LineVDD: Output, LineActivity: Output,
			LineData: Input, LineClock: Input,
		},
		present:  true,
		mode:     simModeProgram,
		program:  make([]uint16, programWords),
		config:   make([]uint16, 16),
		data:     make([]uint8, dataBytes),
		opCounts: make(map[uint8]int),
	}
	for i := range s.program {
		s.program[i] = simErasedWord
	}
	for i := range s.config {
		s.config[i] = simErasedWord
	}
	for i := range s.data {
		s.data[i] = simErasedByte
	}
	s.config[simDeviceIDIndex] = DefaultSimDeviceID
	return s
}

// NewAbsentTarget returns a simulator for an empty socket: the data line
// is never driven and reads back low, so every frame arrives as zeros.
func NewAbsentTarget() *SimTarget {
	s := NewSimTarget()
	s.present = false
	return s
}

// SetLevel implements Interface.
func (s *SimTarget) SetLevel(line Line, level Level) {
	prev := s.level[line]
	s.level[line] = level

	switch line {
	case LineActivity:
		if (prev == Low) != (level == Low) {
			s.activityToggles++
		}
	case LineMCLR, LineVDD:
		s.updatePower()
	case LineClock:
		if prev != Low && level == Low {
			s.clockFall()
		}
	}
}

// SetDirection implements Interface.
func (s *SimTarget) SetDirection(line Line, dir Direction) {
	s.dir[line] = dir
}

// ReadLevel implements Interface. An input line reads high unless the
// target is actively driving a read-back bit; an absent target's data line
// reads low.
func (s *SimTarget) ReadLevel(line Line) Level {
	if s.dir[line] == Output {
		if s.level[line] == Low {
			return Low
		}
		return High
	}
	if line != LineData {
		return High
	}
	if !s.present {
		return Low
	}
	if s.powered && s.phase == simPhaseSend && s.txIndex < 16 {
		if (s.shiftOut>>s.txIndex)&1 == 1 {
			return High
		}
		return Low
	}
	return High
}

// DelayMicroseconds implements Interface. Time is accounted, not slept.
func (s *SimTarget) DelayMicroseconds(us int) {
	s.elapsedUS += int64(us)
}

// Close implements Interface.
func (s *SimTarget) Close() error {
	return nil
}

// Programming mode is entered when VDD comes up with MCLR already at the
// programming voltage, and lost the instant either condition drops. Any
// partially shifted state is discarded on both transitions.
func (s *SimTarget) updatePower() {
	on := s.level[LineMCLR] == VPP && s.level[LineVDD] == High
	if on == s.powered {
		return
	}
	s.powered = on
	s.pc = 0
	s.mode = simModeProgram
	s.phase = simPhaseInstruction
	s.bitCount = 0
	s.shiftIn = 0
	s.txIndex = 0
	if on {
		s.powerCycles++
	}
}

func (s *SimTarget) clockFall() {
	if !s.powered {
		return
	}
	switch s.phase {
	case simPhaseSend:
		s.txIndex++
		if s.txIndex >= 16 {
			s.phase = simPhaseInstruction
			s.bitCount = 0
			s.shiftIn = 0
		}
	default:
		if s.dataLineHigh() {
			s.shiftIn |= 1 << s.bitCount
		}
		s.bitCount++
		if s.phase == simPhaseInstruction && s.bitCount == 6 {
			s.execute(uint8(s.shiftIn & 0x3F))
		} else if s.phase == simPhasePayload && s.bitCount == 16 {
			s.latchPayload((s.shiftIn >> 1) & simErasedWord)
		}
	}
}

func (s *SimTarget) dataLineHigh() bool {
	if s.dir[LineData] == Output {
		return s.level[LineData] != Low
	}
	return true // floating
}

func (s *SimTarget) execute(op uint8) {
	s.opCounts[op]++
	s.shiftIn = 0
	s.bitCount = 0

	switch op {
	case opLoadConfig, opLoadProgram, opLoadData:
		s.pendingOp = op
		s.phase = simPhasePayload
	case opReadProgram:
		s.shiftOut = (s.currentWord() & simErasedWord) << 1
		s.txIndex = 0
		s.phase = simPhaseSend
	case opReadData:
		s.shiftOut = uint16(s.dataAt(s.pc)) << 1
		s.txIndex = 0
		s.phase = simPhaseSend
	case opIncrementAddress:
		s.pc++
	case opBeginProgram, opBeginProgramOnly:
		s.commit()
	case opEndProgramOnly:
		// closes a BeginProgramOnly window; the commit already happened
	case opBulkEraseProgram:
		s.eraseProgram()
	case opBulkEraseData:
		s.eraseData()
	case opChipErase:
		s.eraseProgram()
		s.eraseConfig()
		s.eraseData()
	}
}

func (s *SimTarget) latchPayload(word uint16) {
	s.phase = simPhaseInstruction
	switch s.pendingOp {
	case opLoadConfig:
		s.mode = simModeConfig
		s.pc = 0
		s.writeLatch = word
		s.configLoads = append(s.configLoads, word)
	case opLoadProgram:
		s.writeLatch = word
	case opLoadData:
		s.writeLatch = word & 0xFF
	}
}

func (s *SimTarget) currentWord() uint16 {
	if s.mode == simModeConfig {
		if int(s.pc) < len(s.config) {
			return s.config[s.pc]
		}
		return simErasedWord
	}
	if int(s.pc) < len(s.program) {
		return s.program[s.pc]
	}
	return simErasedWord
}

func (s *SimTarget) dataAt(pc uint32) uint8 {
	if int(pc) < len(s.data) {
		return s.data[pc]
	}
	return simErasedByte
}

func (s *SimTarget) commit() {
	switch {
	case s.mode == simModeConfig:
		if s.pc == simDeviceIDIndex {
			return // factory word, not writable
		}
		if int(s.pc) < len(s.config) {
			s.config[s.pc] = s.writeLatch & simErasedWord
		}
	case s.pendingOp == opLoadData:
		if int(s.pc) < len(s.data) {
			s.data[s.pc] = uint8(s.writeLatch)
		}
	default:
		if int(s.pc) < len(s.program) {
			s.program[s.pc] = s.writeLatch & simErasedWord
		}
	}
}

func (s *SimTarget) eraseProgram() {
	for i := range s.program {
		s.program[i] = simErasedWord
	}
	// Bulk erase issued from the config plane also wipes the ID locations
	// and the config word.
	if s.mode == simModeConfig {
		s.eraseConfig()
	}
}

func (s *SimTarget) eraseConfig() {
	for _, i := range []int{0, 1, 2, 3, simConfigIndex} {
		s.config[i] = simErasedWord
	}
}

func (s *SimTarget) eraseData() {
	for i := range s.data {
		s.data[i] = simErasedByte
	}
}

// ==================== Fixture and inspection helpers ====================

// SetDeviceID replaces the factory device ID word.
func (s *SimTarget) SetDeviceID(id uint16) {
	s.config[simDeviceIDIndex] = id & simErasedWord
}

// SetConfigWord replaces the primary configuration word.
func (s *SimTarget) SetConfigWord(w uint16) {
	s.config[simConfigIndex] = w & simErasedWord
}

// SetUserIDs replaces the four user ID words.
func (s *SimTarget) SetUserIDs(ids [4]uint16) {
	for i, id := range ids {
		s.config[i] = id & simErasedWord
	}
}

// LoadProgramImage copies words into the program plane starting at addr.
func (s *SimTarget) LoadProgramImage(addr int, words []uint16) {
	for i, w := range words {
		if addr+i >= len(s.program) {
			break
		}
		s.program[addr+i] = w & simErasedWord
	}
}

// LoadDataImage copies bytes into the data plane starting at addr.
func (s *SimTarget) LoadDataImage(addr int, bytes []uint8) {
	for i, b := range bytes {
		if addr+i >= len(s.data) {
			break
		}
		s.data[addr+i] = b
	}
}

// ProgramWord returns the program plane word at addr.
func (s *SimTarget) ProgramWord(addr int) uint16 {
	if addr < 0 || addr >= len(s.program) {
		return simErasedWord
	}
	return s.program[addr]
}

// DataByte returns the data plane byte at addr.
func (s *SimTarget) DataByte(addr int) uint8 {
	if addr < 0 || addr >= len(s.data) {
		return simErasedByte
	}
	return s.data[addr]
}

// Powered reports whether the target is currently in programming mode.
func (s *SimTarget) Powered() bool {
	return s.powered
}

// PC returns the target's program counter.
func (s *SimTarget) PC() uint32 {
	return s.pc
}

// PowerCycles returns how many times programming mode has been entered.
func (s *SimTarget) PowerCycles() int {
	return s.powerCycles
}

// InstructionCount returns how many times the given opcode has been
// latched since the target was created.
func (s *SimTarget) InstructionCount(op uint8) int {
	return s.opCounts[op]
}

// ConfigLoads returns the stripped payloads of every load-configuration
// instruction received, in order.
func (s *SimTarget) ConfigLoads() []uint16 {
	return s.configLoads
}

// ActivityToggles returns how many times the activity line has changed
// level.
func (s *SimTarget) ActivityToggles() int {
	return s.activityToggles
}

// ElapsedMicroseconds returns the virtual time consumed by delay calls.
func (s *SimTarget) ElapsedMicroseconds() int64 {
	return s.elapsedUS
}
