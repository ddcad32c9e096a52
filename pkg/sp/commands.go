// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"encoding/binary"
	"fmt"
)

// Command builder functions create Packet structs ready for encoding.
// These are convenience wrappers around NewPacket that lay out command
// bodies exactly the way the programmer firmware expects them.

// NewEchoCommand creates an ECHO command (0x01). The daemon responds with
// STATUS_OK carrying the body back verbatim.
func NewEchoCommand(body []byte) *Packet {
	return NewPacket(CmdEcho, body)
}

// NewDetectDeviceCommand creates a DETECT_DEVICE command (0x02).
// The daemon responds with STATUS_OK and the detected device name, or
// STATUS_ERR_NOT_DETECTED with an empty body.
func NewDetectDeviceCommand() *Packet {
	return NewPacket(CmdDetectDevice, nil)
}

// NewReadMemoryCommand creates a READ_MEMORY command (0x03) covering the
// inclusive flat address range [start, end]. The daemon responds with zero
// or more STATUS_READ_MORE frames of ChunkBytes bytes (the last may be
// shorter), then one empty STATUS_READ_DONE frame.
func NewReadMemoryCommand(start, end uint32) *Packet {
	body := make([]byte, ReadBodySize)
	binary.BigEndian.PutUint32(body[ReadStartOffset:], start)
	binary.BigEndian.PutUint32(body[ReadEndOffset:], end)
	return NewPacket(CmdReadMemory, body)
}

// NewResponse creates a status response packet.
func NewResponse(status uint8, body []byte) *Packet {
	return NewPacket(status, body)
}

// ParseReadMemoryBody extracts the start and end addresses from a
// READ_MEMORY command body. The four bytes between the two addresses are
// reserved and ignored.
func ParseReadMemoryBody(body []byte) (start, end uint32, err error) {
	if len(body) < ReadBodySize {
		return 0, 0, fmt.Errorf("%w: read body is %d bytes (need %d)", ErrShortBody, len(body), ReadBodySize)
	}
	start = binary.BigEndian.Uint32(body[ReadStartOffset:])
	end = binary.BigEndian.Uint32(body[ReadEndOffset:])
	return start, end, nil
}

// ChunkWordCount returns how many big-endian words a READ_MORE body holds.
func ChunkWordCount(body []byte) int {
	return len(body) / 4
}

// ChunkWord extracts the i'th big-endian word from a READ_MORE body.
func ChunkWord(body []byte, i int) uint32 {
	return binary.BigEndian.Uint32(body[i*4:])
}
