// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// ============================================================
// Test Helpers
// ============================================================

// buildFrame assembles a raw wire frame: command + BE length + body
func buildFrame(command uint8, body []byte) []byte {
	frame := make([]byte, HeaderSize+len(body))
	frame[0] = command
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(body)))
	copy(frame[HeaderSize:], body)
	return frame
}

// decodeAll feeds a byte slice to a fresh decoder and collects packets
func decodeAll(t *testing.T, data []byte) []*Packet {
	t.Helper()
	d := NewDecoder()
	packets, err := d.Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return packets
}

// ============================================================
// Packet Tests
// ============================================================

func TestNewPacket(t *testing.T) {
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	p := NewPacket(CmdEcho, body)

	if p.Command() != CmdEcho {
		t.Errorf("Command mismatch: expected 0x%02X, got 0x%02X", CmdEcho, p.Command())
	}
	if p.BodyLength() != 4 {
		t.Errorf("BodyLength mismatch: expected 4, got %d", p.BodyLength())
	}
	if !bytes.Equal(p.Body(), body) {
		t.Errorf("Body mismatch: expected %x, got %x", body, p.Body())
	}
}

func TestPacket_IsError(t *testing.T) {
	tests := []struct {
		name    string
		command uint8
		want    bool
	}{
		{"OK is not an error", StatusOK, false},
		{"invalid command is an error", StatusErrInvalidCommand, true},
		{"request length is an error", StatusErrRequestLength, true},
		{"not detected is an error", StatusErrNotDetected, true},
		{"read more is not an error", StatusReadMore, false},
		{"read done is not an error", StatusReadDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacket(tt.command, nil)
			if p.IsError() != tt.want {
				t.Errorf("IsError() = %v, want %v", p.IsError(), tt.want)
			}
		})
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func TestEncodePacketFromValues(t *testing.T) {
	tests := []struct {
		name    string
		command uint8
		body    []byte
		want    []byte
	}{
		{
			name:    "empty body",
			command: CmdDetectDevice,
			body:    nil,
			want:    []byte{0x02, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:    "echo with body",
			command: CmdEcho,
			body:    []byte("hi"),
			want:    []byte{0x01, 0x00, 0x00, 0x00, 0x02, 'h', 'i'},
		},
		{
			name:    "length is big-endian",
			command: StatusReadMore,
			body:    make([]byte, 0x0102),
			want:    append([]byte{0x05, 0x00, 0x00, 0x01, 0x02}, make([]byte, 0x0102)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePacketFromValues(tt.command, tt.body)
			if err != nil {
				t.Fatalf("EncodePacketFromValues failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("frame mismatch:\n  got  %x\n  want %x", got, tt.want)
			}
		})
	}
}

func TestEncode_BodyTooLarge(t *testing.T) {
	_, err := EncodePacketFromValues(CmdEcho, make([]byte, MaxBodyLength+1))
	if err == nil {
		t.Error("Expected error for oversized body")
	}
}

func TestMustEncodePacket_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustEncodePacket should panic on oversized body")
		}
	}()

	p := NewPacket(CmdEcho, make([]byte, MaxBodyLength+1))
	MustEncodePacket(p) // Should panic
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_EmptyBodyFrame(t *testing.T) {
	packets := decodeAll(t, buildFrame(CmdDetectDevice, nil))

	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}
	p := packets[0]
	if p.Command() != CmdDetectDevice {
		t.Errorf("Command = 0x%02X, want 0x%02X", p.Command(), CmdDetectDevice)
	}
	if p.BodyLength() != 0 {
		t.Errorf("BodyLength = %d, want 0", p.BodyLength())
	}
}

func TestDecoder_BodyFrame(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00, 0x10, 0, 0, 0, 0, 0x00, 0x00, 0x01, 0xFF}
	packets := decodeAll(t, buildFrame(CmdReadMemory, body))

	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet, got %d", len(packets))
	}
	if !bytes.Equal(packets[0].Body(), body) {
		t.Errorf("Body mismatch: got %x, want %x", packets[0].Body(), body)
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	frame := buildFrame(CmdEcho, []byte("split across calls"))
	d := NewDecoder()

	for i, b := range frame {
		packet, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("DecodeByte(%d) error: %v", i, err)
		}
		if i < len(frame)-1 && packet != nil {
			t.Fatalf("Premature packet at byte %d", i)
		}
		if i == len(frame)-1 {
			if packet == nil {
				t.Fatal("Expected packet at final byte, got nil")
			}
			if string(packet.Body()) != "split across calls" {
				t.Errorf("Body = %q", packet.Body())
			}
		}
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	stream := append(buildFrame(CmdEcho, []byte("one")), buildFrame(CmdDetectDevice, nil)...)
	stream = append(stream, buildFrame(StatusReadDone, nil)...)

	packets := decodeAll(t, stream)
	if len(packets) != 3 {
		t.Fatalf("Expected 3 packets, got %d", len(packets))
	}
	if string(packets[0].Body()) != "one" {
		t.Errorf("First body = %q, want %q", packets[0].Body(), "one")
	}
	if packets[1].Command() != CmdDetectDevice {
		t.Errorf("Second command = 0x%02X, want 0x%02X", packets[1].Command(), CmdDetectDevice)
	}
	if packets[2].Command() != StatusReadDone {
		t.Errorf("Third command = 0x%02X, want 0x%02X", packets[2].Command(), StatusReadDone)
	}
}

func TestDecoder_BodyTooLong(t *testing.T) {
	frame := []byte{CmdEcho, 0xFF, 0xFF, 0xFF, 0xFF}
	d := NewDecoder()

	var decodeErr error
	for _, b := range frame {
		_, decodeErr = d.DecodeByte(b)
	}
	if !errors.Is(decodeErr, ErrBodyTooLong) {
		t.Fatalf("Expected ErrBodyTooLong for oversized body length, got %v", decodeErr)
	}

	// Decoder must have reset and accept a clean frame afterwards.
	packets, err := d.Decode(buildFrame(CmdDetectDevice, nil))
	if err != nil {
		t.Fatalf("Decode after reset: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("Expected 1 packet after reset, got %d", len(packets))
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	// Feed a partial frame, then reset.
	d.DecodeByte(CmdEcho)
	d.DecodeByte(0x00)
	d.Reset()

	packets, err := d.Decode(buildFrame(CmdEcho, []byte("x")))
	if err != nil {
		t.Fatalf("Decode after Reset: %v", err)
	}
	if len(packets) != 1 || string(packets[0].Body()) != "x" {
		t.Fatalf("Reset did not restore header state: %v", packets)
	}
}

// ============================================================
// Round-Trip Tests
// ============================================================

func TestRoundTrip_AllCommands(t *testing.T) {
	tests := []struct {
		name   string
		packet *Packet
	}{
		{"echo", NewEchoCommand([]byte("payload"))},
		{"detect", NewDetectDeviceCommand()},
		{"read", NewReadMemoryCommand(0x0000, 0x07FF)},
		{"ok with name", NewResponse(StatusOK, []byte("pic16f628a"))},
		{"not detected", NewResponse(StatusErrNotDetected, nil)},
		{"read more", NewResponse(StatusReadMore, make([]byte, ChunkBytes))},
		{"read done", NewResponse(StatusReadDone, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := MustEncodePacket(tt.packet)
			packets := decodeAll(t, wire)
			if len(packets) != 1 {
				t.Fatalf("Expected 1 packet, got %d", len(packets))
			}
			got := packets[0]
			if got.Command() != tt.packet.Command() {
				t.Errorf("Command = 0x%02X, want 0x%02X", got.Command(), tt.packet.Command())
			}
			if !bytes.Equal(got.Body(), tt.packet.Body()) {
				t.Errorf("Body mismatch: got %x, want %x", got.Body(), tt.packet.Body())
			}
		})
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatStatus(t *testing.T) {
	tests := []struct {
		status uint8
		want   string
	}{
		{StatusOK, "OK"},
		{StatusErrInvalidCommand, "ERR_INVALID_COMMAND"},
		{StatusErrRequestLength, "ERR_REQ_LEN"},
		{StatusErrNotDetected, "ERR_NOT_DETECTED"},
		{StatusReadMore, "READ_MORE"},
		{StatusReadDone, "READ_DONE"},
		{0xFE, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := FormatStatus(tt.status); got != tt.want {
			t.Errorf("FormatStatus(0x%02X) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestFormatPacket_ReadMemory(t *testing.T) {
	p := NewReadMemoryCommand(0x2100, 0x217F)
	out := FormatPacket(p)
	if !bytes.Contains([]byte(out), []byte("0x2100-0x217F")) {
		t.Errorf("FormatPacket missing range: %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("128 words")) {
		t.Errorf("FormatPacket missing word count: %q", out)
	}
}
