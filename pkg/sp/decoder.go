// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"fmt"
	"time"
)

// Decoder implements the SP protocol frame decoder state machine.
//
// SP frames carry no sync marker: the stream is a strict sequence of
// header+body frames, so the decoder is positional. A body length above
// MaxBodyLength is the only detectable desynchronization and resets the
// decoder to the start of a header.
type Decoder struct {
	state       int
	command     uint8
	lengthBytes int    // count of length bytes consumed (0-3)
	bodyLength  uint32 // accumulated big-endian body length
	body        []byte
}

// NewDecoder creates a new protocol decoder.
func NewDecoder() *Decoder {
	return &Decoder{state: stateCommand}
}

// Reset resets the decoder to expect the start of a new frame.
func (d *Decoder) Reset() {
	d.state = stateCommand
	d.command = 0
	d.lengthBytes = 0
	d.bodyLength = 0
	d.body = nil
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed packet, or nil if the frame is incomplete.
// Returns an error if decoding fails; the decoder is then reset.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch d.state {
	case stateCommand:
		d.command = b
		d.lengthBytes = 0
		d.bodyLength = 0
		d.state = stateLength
		return nil, nil

	case stateLength:
		d.bodyLength = d.bodyLength<<8 | uint32(b)
		d.lengthBytes++
		if d.lengthBytes < 4 {
			return nil, nil
		}
		if d.bodyLength > MaxBodyLength {
			length := d.bodyLength
			d.Reset()
			return nil, fmt.Errorf("%w: %d (max %d)", ErrBodyTooLong, length, MaxBodyLength)
		}
		if d.bodyLength == 0 {
			packet := d.complete(nil)
			return packet, nil
		}
		d.body = make([]byte, 0, d.bodyLength)
		d.state = stateBody
		return nil, nil

	case stateBody:
		d.body = append(d.body, b)
		if uint32(len(d.body)) < d.bodyLength {
			return nil, nil
		}
		packet := d.complete(d.body)
		return packet, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// Decode processes a byte slice and returns all packets completed by it.
// Decode errors are returned after any packets decoded before the error.
func (d *Decoder) Decode(data []byte) ([]*Packet, error) {
	var packets []*Packet
	for _, b := range data {
		packet, err := d.DecodeByte(b)
		if err != nil {
			return packets, err
		}
		if packet != nil {
			packets = append(packets, packet)
		}
	}
	return packets, nil
}

func (d *Decoder) complete(body []byte) *Packet {
	packet := &Packet{
		command:   d.command,
		body:      body,
		timestamp: time.Now(),
	}
	d.Reset()
	return packet
}
