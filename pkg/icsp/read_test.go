// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package icsp

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/varlow/wpps/pkg/hal"
)

// collectSink accumulates copies of every flushed chunk.
type collectSink struct {
	chunks [][]byte
}

func (c *collectSink) sink(chunk []byte) error {
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	c.chunks = append(c.chunks, cp)
	return nil
}

func (c *collectSink) words() []uint16 {
	var out []uint16
	for _, chunk := range c.chunks {
		for i := 0; i+4 <= len(chunk); i += 4 {
			out = append(out, uint16(binary.BigEndian.Uint32(chunk[i:])))
		}
	}
	return out
}

// rampTarget returns a sim whose first n program words are 0, 1, 2, ...
func rampTarget(n int) *hal.SimTarget {
	sim := hal.NewSimTarget()
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(i)
	}
	sim.LoadProgramImage(0, words)
	return sim
}

// ==================== Single words ====================

func TestReadWordDomains(t *testing.T) {
	sim := hal.NewSimTarget()
	sim.LoadProgramImage(5, []uint16{0x1234})
	sim.LoadDataImage(2, []uint8{0xA5})
	eng := New(sim)

	if got := eng.ReadWord(5); got != 0x1234 {
		t.Errorf("program word = 0x%04X, want 0x1234", got)
	}
	if got := eng.ReadWord(0x2006); got != hal.DefaultSimDeviceID {
		t.Errorf("config word = 0x%04X, want 0x%04X", got, hal.DefaultSimDeviceID)
	}
	if got := eng.ReadWord(0x2102); got != 0x00A5 {
		t.Errorf("data word = 0x%04X, want 0x00A5", got)
	}
}

// ==================== Chunking ====================

func TestReadRangeSingleChunk(t *testing.T) {
	eng := New(rampTarget(16))
	var c collectSink

	if err := eng.ReadRange(0, 9, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	if len(c.chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(c.chunks))
	}
	if got := len(c.chunks[0]); got != 40 {
		t.Errorf("chunk size = %d, want 40", got)
	}
	words := c.words()
	for i, w := range words {
		if w != uint16(i) {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, w, i)
		}
	}
}

func TestReadRangeExactChunk(t *testing.T) {
	eng := New(rampTarget(256))
	var c collectSink

	if err := eng.ReadRange(0, 255, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	// 256 words fill exactly one chunk; no empty trailing flush.
	if len(c.chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(c.chunks))
	}
	if got := len(c.chunks[0]); got != 1024 {
		t.Errorf("chunk size = %d, want 1024", got)
	}
}

func TestReadRangeTwoExactChunks(t *testing.T) {
	eng := New(rampTarget(512))
	var c collectSink

	if err := eng.ReadRange(0, 511, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	if len(c.chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(c.chunks))
	}
	for i, chunk := range c.chunks {
		if len(chunk) != 1024 {
			t.Errorf("chunk %d size = %d, want 1024", i, len(chunk))
		}
	}
	words := c.words()
	for i, w := range words {
		if w != uint16(i) {
			t.Fatalf("word %d = 0x%04X, want 0x%04X", i, w, i)
		}
	}
}

func TestReadRangePartialTail(t *testing.T) {
	eng := New(rampTarget(300))
	var c collectSink

	if err := eng.ReadRange(0, 299, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	if len(c.chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(c.chunks))
	}
	if got := len(c.chunks[0]); got != 1024 {
		t.Errorf("first chunk size = %d, want 1024", got)
	}
	if got := len(c.chunks[1]); got != 176 {
		t.Errorf("tail chunk size = %d, want 176", got)
	}

	words := c.words()
	if len(words) != 300 {
		t.Fatalf("words = %d, want 300", len(words))
	}
	// The accumulator reset between chunks must not repeat or skip.
	for i, w := range words {
		if w != uint16(i) {
			t.Fatalf("word %d = 0x%04X, want 0x%04X", i, w, i)
		}
	}
}

func TestReadRangeSingleWord(t *testing.T) {
	eng := New(rampTarget(8))
	var c collectSink

	if err := eng.ReadRange(7, 7, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(c.chunks) != 1 || len(c.chunks[0]) != 4 {
		t.Fatalf("chunks = %v, want one 4-byte chunk", c.chunks)
	}
	if got := c.words()[0]; got != 7 {
		t.Errorf("word = 0x%04X, want 0x0007", got)
	}
}

func TestReadRangeEmpty(t *testing.T) {
	eng, sim := newTestEngine(t)
	var c collectSink

	if err := eng.ReadRange(10, 2, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(c.chunks) != 0 {
		t.Errorf("chunks = %d, want 0", len(c.chunks))
	}
	if got := sim.InstructionCount(OpReadProgram); got != 0 {
		t.Errorf("read instructions = %d, want 0", got)
	}
}

func TestReadRangeSinkError(t *testing.T) {
	eng := New(rampTarget(1024))
	sinkErr := errors.New("session gone")
	calls := 0
	sink := func(chunk []byte) error {
		calls++
		return sinkErr
	}

	err := eng.ReadRange(0, 1023, sink)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("err = %v, want %v", err, sinkErr)
	}
	// The read stops at the first failed flush.
	if calls != 1 {
		t.Errorf("sink calls = %d, want 1", calls)
	}
}

// ==================== Activity and domains ====================

func TestReadRangeActivityCadence(t *testing.T) {
	sim := rampTarget(256)
	eng := New(sim)
	var c collectSink

	if err := eng.ReadRange(0, 255, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	// One toggle per 32 words.
	if got := sim.ActivityToggles(); got != 8 {
		t.Errorf("ActivityToggles() = %d, want 8", got)
	}
}

func TestReadRangeAcrossDomains(t *testing.T) {
	sim := hal.NewSimTarget()
	sim.SetConfigWord(0x2007)
	eng := New(sim)
	var c collectSink

	// 0x2006-0x2007 are config words; 0x2008-0x2009 fall outside every
	// window and read as flat program addresses.
	if err := eng.ReadRange(0x2006, 0x2009, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}

	words := c.words()
	want := []uint16{hal.DefaultSimDeviceID, 0x2007, 0x3FFF, 0x3FFF}
	if len(words) != len(want) {
		t.Fatalf("words = %d, want %d", len(words), len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, words[i], want[i])
		}
	}
}

func TestReadRangeDataWindow(t *testing.T) {
	sim := hal.NewSimTarget()
	sim.LoadDataImage(0, []uint8{0x11, 0x22, 0x33})
	eng := New(sim)
	var c collectSink

	if err := eng.ReadRange(0x2100, 0x2102, c.sink); err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	words := c.words()
	want := []uint16{0x11, 0x22, 0x33}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = 0x%04X, want 0x%04X", i, words[i], want[i])
		}
	}
}
