// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"encoding/binary"
	"fmt"
)

// Encoder encodes SP packets for transmission.
type Encoder struct{}

// NewEncoder creates a new SP packet encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode encodes a Packet to wire format.
func (e *Encoder) Encode(p *Packet) ([]byte, error) {
	return EncodePacketFromValues(p.Command(), p.Body())
}

// EncodePacketFromValues creates a complete wire-formatted SP frame:
// the command byte, a big-endian 32-bit body length, then the body.
func EncodePacketFromValues(command uint8, body []byte) ([]byte, error) {
	if len(body) > MaxBodyLength {
		return nil, fmt.Errorf("body too large: %d bytes (max %d)", len(body), MaxBodyLength)
	}

	frame := make([]byte, HeaderSize+len(body))
	frame[0] = command
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(body)))
	copy(frame[HeaderSize:], body)

	return frame, nil
}

// MustEncodePacket encodes an existing Packet struct to wire format.
// Panics on encoding error (use Encoder.Encode for error handling).
func MustEncodePacket(p *Packet) []byte {
	data, err := EncodePacketFromValues(p.Command(), p.Body())
	if err != nil {
		panic(fmt.Sprintf("sp: encode error: %v", err))
	}
	return data
}
