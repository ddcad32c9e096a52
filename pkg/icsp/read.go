// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import (
	"encoding/binary"

	"github.com/varlow/wpps/pkg/hal"
)

const (
	// chunkWords is the number of words accumulated before a read chunk
	// is handed to the sink.
	chunkWords = 256

	// activityStride is how many words pass between activity LED
	// toggles.
	activityStride = 32
)

// Sink receives each flushed chunk of a streamed read. The chunk is only
// valid until the sink returns. A Sink that blocks holds the target
// powered and addressed until it returns; its error aborts the read.
type Sink func(chunk []byte) error

// ReadWord reads one word at a flat address, seeking the program counter
// first. Addresses inside the data window read data memory (8 bits);
// everything else reads program or configuration memory (14 bits).
func (e *Engine) ReadWord(addr uint32) uint16 {
	e.SetProgramCounter(addr)
	if e.mem.InData(addr) {
		return stripByte(e.sendRead(OpReadData))
	}
	return stripWord(e.sendRead(OpReadProgram))
}

// ReadRange streams the words from start through end inclusive. Words are
// serialized as big-endian uint32 into chunks of up to chunkWords*4 bytes;
// every full chunk is flushed to the sink and the accumulator reset, and a
// final partial chunk is flushed after the last word. An empty range
// (end < start) produces no sink calls.
//
// The activity line toggles every activityStride words so long reads are
// visible on the board.
func (e *Engine) ReadRange(start, end uint32, sink Sink) error {
	if end < start {
		return nil
	}
	e.logDebug("reading range",
		"start", start,
		"end", end,
		"words", end-start+1,
	)

	buf := make([]byte, chunkWords*4)
	count := 0
	total := 0
	activity := true

	for addr := start; ; addr++ {
		word := e.ReadWord(addr)
		binary.BigEndian.PutUint32(buf[count*4:], uint32(word))
		count++
		total++

		if count == chunkWords {
			if err := sink(buf); err != nil {
				return err
			}
			count = 0
		}
		if total%activityStride == 0 {
			activity = !activity
			e.setActivity(activity)
		}

		if addr == end {
			break
		}
	}

	if count > 0 {
		if err := sink(buf[:count*4]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) setActivity(on bool) {
	if on {
		e.hw.SetLevel(hal.LineActivity, hal.High)
	} else {
		e.hw.SetLevel(hal.LineActivity, hal.Low)
	}
}
