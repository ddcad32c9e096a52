// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import "time"

// Packet represents a decoded SP protocol frame. The same shape carries
// commands (client → daemon) and status responses (daemon → client); the
// leading byte is a command code in one direction and a status code in the
// other.
type Packet struct {
	command   uint8
	body      []byte
	timestamp time.Time
}

// NewPacket creates a new packet with the given command byte and body.
// The body is used as-is, not copied.
func NewPacket(command uint8, body []byte) *Packet {
	return &Packet{
		command:   command,
		body:      body,
		timestamp: time.Now(),
	}
}

// Command returns the packet's command (or status) byte.
func (p *Packet) Command() uint8 {
	return p.command
}

// Body returns the packet's raw body bytes (nil for empty bodies).
func (p *Packet) Body() []byte {
	return p.body
}

// BodyLength returns the length of the packet body in bytes.
func (p *Packet) BodyLength() uint32 {
	return uint32(len(p.body))
}

// Timestamp returns the packet's decode timestamp.
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}

// IsError returns true if the packet carries one of the error statuses.
func (p *Packet) IsError() bool {
	switch p.command {
	case StatusErrInvalidCommand, StatusErrRequestLength, StatusErrNotDetected:
		return true
	}
	return false
}
