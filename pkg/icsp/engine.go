// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import "github.com/varlow/wpps/pkg/hal"

// State is the engine's view of the target.
type State int

const (
	// PoweredOff: the target is unpowered and the lines float.
	PoweredOff State = iota

	// AddressingProgram: programming mode, program counter in program
	// (or data) memory.
	AddressingProgram

	// AddressingConfig: programming mode, program counter in
	// configuration memory.
	AddressingConfig
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "powered-off"
	case AddressingProgram:
		return "addressing-program"
	case AddressingConfig:
		return "addressing-config"
	default:
		return "unknown"
	}
}

// Engine sequences the programming protocol over a hal.Interface. It
// tracks the target's program counter and memory layout so that flat
// addresses can be resolved into the minimal pulse sequence.
//
// Engine is not safe for concurrent use.
type Engine struct {
	hw  hal.Interface
	cfg Config

	state State
	pc    uint32
	mem   MemoryMap
}

// New creates an Engine over the given hardware lines. The memory map
// starts at the registry default and is replaced by DetectDevice.
func New(hw hal.Interface, opts ...Option) *Engine {
	if hw == nil {
		panic("icsp: nil hardware interface")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		hw:  hw,
		cfg: cfg,
		mem: DefaultMap(),
	}
}

// State returns the current powering/addressing state.
func (e *Engine) State() State {
	return e.state
}

// Map returns the memory layout currently in effect.
func (e *Engine) Map() MemoryMap {
	return e.mem
}

// EnterProgramMode powers the target into high-voltage programming mode.
// No-op when already entered.
func (e *Engine) EnterProgramMode() {
	if e.state != PoweredOff {
		return
	}
	// Force the powered-off reset posture first in case the lines are
	// mid-flight.
	e.hw.SetLevel(hal.LineMCLR, hal.Low)
	e.hw.SetLevel(hal.LineVDD, hal.Low)
	e.hw.SetLevel(hal.LineData, hal.Low)
	e.hw.SetLevel(hal.LineClock, hal.Low)
	e.delay(e.cfg.Timings.Settle)

	e.hw.SetDirection(hal.LineData, hal.Output)
	e.hw.SetDirection(hal.LineClock, hal.Output)

	// VPP before VDD: the part must wake up with the programming voltage
	// already present or it starts executing code instead.
	e.hw.SetLevel(hal.LineMCLR, hal.VPP)
	e.delay(e.cfg.Timings.VppRise)
	e.hw.SetLevel(hal.LineVDD, hal.High)
	e.delay(e.cfg.Timings.PowerSettle)

	e.state = AddressingProgram
	e.pc = 0
	e.logDebug("entered programming mode")
}

// ExitProgramMode powers the target down and floats the data and clock
// lines, releasing it into reset. No-op when already powered off.
func (e *Engine) ExitProgramMode() {
	if e.state == PoweredOff {
		return
	}
	e.hw.SetLevel(hal.LineMCLR, hal.Low)
	e.hw.SetLevel(hal.LineVDD, hal.Low)
	e.hw.SetLevel(hal.LineData, hal.Low)
	e.hw.SetLevel(hal.LineClock, hal.Low)

	e.hw.SetDirection(hal.LineData, hal.Input)
	e.hw.SetDirection(hal.LineClock, hal.Input)

	e.state = PoweredOff
	e.pc = 0
	e.logDebug("exited programming mode")
}

func (e *Engine) delay(us int) {
	e.hw.DelayMicroseconds(us)
}

func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug(msg, keysAndValues...)
	}
}

func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Info(msg, keysAndValues...)
	}
}
