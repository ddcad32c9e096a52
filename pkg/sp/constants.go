// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package sp provides a Go implementation of the SP serial-programmer protocol.
//
// SP is the binary request/response protocol spoken between WPPS clients and
// the programmer daemon. Every frame is a 5-byte header (command or status
// byte, then a big-endian 32-bit body length) followed by the body. This
// package provides packet encoding/decoding, request validation, and
// human-readable formatting.
package sp

// Version is the SP protocol version announced by the daemon.
const Version = "0.1.0a"

// Wire framing sizes
const (
	HeaderSize = 5 // command byte + 4-byte big-endian body length

	// MaxBodyLength bounds the decoder's body allocation. Command bodies are
	// tiny and response chunks are fixed at ChunkBytes, so anything near this
	// limit is a desynchronized or hostile stream.
	MaxBodyLength = 1 << 20
)

// Read-memory body layout and response chunking
const (
	ReadBodySize    = 12 // start u32 @ 0, reserved @ 4, end u32 @ 8
	ReadStartOffset = 0
	ReadEndOffset   = 8

	ChunkWords = 256
	ChunkBytes = ChunkWords * 4
)

// Commands (client → daemon)
const (
	CmdEcho         = 0x01
	CmdDetectDevice = 0x02
	CmdReadMemory   = 0x03
)

// Statuses (daemon → client)
const (
	StatusOK                = 0x01
	StatusErrInvalidCommand = 0x02
	StatusErrRequestLength  = 0x03
	StatusErrNotDetected    = 0x04
	StatusReadMore          = 0x05
	StatusReadDone          = 0x06
)

// Decoder states (internal)
const (
	stateCommand = iota
	stateLength
	stateBody
)
