// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import (
	"errors"
	"fmt"

	"github.com/varlow/wpps/pkg/device"
)

// ErrNotDetected reports that detection found no identifiable target.
// Clients map the corresponding wire status back to it.
var ErrNotDetected = errors.New("no target device detected")

// Outcome classifies what detection found in the socket.
type Outcome int

const (
	// Identified: a readable device ID matched a registry descriptor.
	Identified Outcome = iota

	// PresentUnidentifiable: something is wired up and readable, but
	// either the ID register is blank (pre-ID silicon, or code
	// protection) or no descriptor matches it.
	PresentUnidentifiable

	// NotPresent: every probed location read as zero; the socket is
	// empty or VPP is missing.
	NotPresent
)

func (o Outcome) String() string {
	switch o {
	case Identified:
		return "identified"
	case PresentUnidentifiable:
		return "present-unidentifiable"
	case NotPresent:
		return "not-present"
	default:
		return "unknown"
	}
}

// Readings are the raw configuration words detection works from.
type Readings struct {
	UserIDs    [4]uint16
	DeviceID   uint16
	ConfigWord uint16
}

// DetectResult is the complete outcome of a detection pass.
type DetectResult struct {
	Outcome Outcome

	// Device is the matched registry descriptor, nil unless Identified.
	Device *device.Descriptor

	// DeviceID is the effective identifier: the raw ID register, or 0
	// when presence was inferred from other memory.
	DeviceID uint16

	ConfigWord uint16
	UserIDs    [4]uint16
}

// Classify applies the presence heuristic to one set of readings.
//
// An ID register reading of all-zeroes or all-ones is ambiguous: it can
// mean an empty socket, missing VPP, code protection, or a part old
// enough to predate ID registers. The user IDs and config word are OR-ed
// together to break the tie; if they are all zero too, probe is invoked
// for the first 16 program words, lazily, until one reads non-zero.
// A completely zero target is NotPresent; otherwise the ID is forced to 0
// and the registry is consulted as usual, where 0 can never match.
//
// Classify performs no hardware access beyond calling probe.
func Classify(r Readings, probe func(addr uint32) uint16) (Outcome, uint16, *device.Descriptor) {
	id := r.DeviceID
	if id == 0 || id == WordMask {
		word := r.UserIDs[0] | r.UserIDs[1] | r.UserIDs[2] | r.UserIDs[3] | r.ConfigWord
		var addr uint32
		for word == 0 && addr < 16 {
			word |= probe(addr)
			addr++
		}
		if word == 0 {
			return NotPresent, 0, nil
		}
		id = 0
	}

	if d := device.Find(id); d != nil {
		return Identified, id, d
	}
	return PresentUnidentifiable, id, nil
}

// DetectDevice probes the socket and classifies what it finds. On an
// Identified outcome the engine's memory map is switched to the matched
// descriptor's layout; on any other outcome it is reset to the default
// layout. The target is powered down before returning either way.
func (e *Engine) DetectDevice() DetectResult {
	// Start from reset so the config-relative reads see a known counter.
	e.ExitProgramMode()

	var r Readings
	for i := range r.UserIDs {
		r.UserIDs[i] = e.readConfigWord(uint32(ConfigOffsetUserID + i))
	}
	r.DeviceID = e.readConfigWord(ConfigOffsetDeviceID)
	r.ConfigWord = e.readConfigWord(ConfigOffsetConfig)

	outcome, id, desc := Classify(r, func(addr uint32) uint16 {
		return e.ReadWord(addr)
	})

	if outcome == Identified {
		e.mem = MapForDescriptor(desc)
		e.logInfo("device identified",
			"name", desc.Name,
			"device_id", fmt.Sprintf("0x%04X", id),
			"config_word", fmt.Sprintf("0x%04X", r.ConfigWord),
		)
	} else {
		e.mem = DefaultMap()
		e.logInfo("no device identified",
			"outcome", outcome.String(),
			"device_id", fmt.Sprintf("0x%04X", r.DeviceID),
		)
	}

	e.ExitProgramMode()

	return DetectResult{
		Outcome:    outcome,
		Device:     desc,
		DeviceID:   id,
		ConfigWord: r.ConfigWord,
		UserIDs:    r.UserIDs,
	}
}
