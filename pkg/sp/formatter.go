// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"encoding/binary"
	"fmt"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.Timestamp().Format("15:04:05.000")
	name := FormatCommand(p.Command())

	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, name, p.Command(), p.BodyLength())
	result += FormatBody(p.Command(), p.Body())

	return result
}

// FormatCommand returns the human-readable name for a command or status byte.
// Commands and statuses share the code space; requests and responses are
// distinguished by direction, not value, so collisions (ECHO/OK) render as
// the command name.
func FormatCommand(command uint8) string {
	switch command {
	case CmdEcho: // == StatusOK
		return "ECHO/OK"
	case CmdDetectDevice: // == StatusErrInvalidCommand
		return "DETECT_DEVICE/ERR_INVALID_COMMAND"
	case CmdReadMemory: // == StatusErrRequestLength
		return "READ_MEMORY/ERR_REQ_LEN"
	case StatusErrNotDetected:
		return "ERR_NOT_DETECTED"
	case StatusReadMore:
		return "READ_MORE"
	case StatusReadDone:
		return "READ_DONE"
	default:
		return "UNKNOWN"
	}
}

// FormatStatus returns the human-readable name for a status byte
func FormatStatus(status uint8) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusErrInvalidCommand:
		return "ERR_INVALID_COMMAND"
	case StatusErrRequestLength:
		return "ERR_REQ_LEN"
	case StatusErrNotDetected:
		return "ERR_NOT_DETECTED"
	case StatusReadMore:
		return "READ_MORE"
	case StatusReadDone:
		return "READ_DONE"
	default:
		return "UNKNOWN"
	}
}

// FormatBody formats a packet body based on the command byte
func FormatBody(command uint8, body []byte) string {
	switch command {
	case CmdReadMemory:
		if len(body) < ReadBodySize {
			return fmt.Sprintf("  (short body: %d bytes)\n", len(body))
		}
		start := binary.BigEndian.Uint32(body[ReadStartOffset:])
		end := binary.BigEndian.Uint32(body[ReadEndOffset:])
		return fmt.Sprintf("  Range: 0x%04X-0x%04X (%d words)\n", start, end, rangeWords(start, end))

	case StatusReadMore:
		return fmt.Sprintf("  Chunk: %d words\n", ChunkWordCount(body))

	case StatusReadDone:
		return "  (read complete)\n"
	}

	if len(body) == 0 {
		return "  (no body)\n"
	}
	if len(body) <= 32 {
		return fmt.Sprintf("  Body: %x\n", body)
	}
	return fmt.Sprintf("  Body: %x... (%d bytes)\n", body[:32], len(body))
}

func rangeWords(start, end uint32) uint64 {
	if end < start {
		return 0
	}
	return uint64(end) - uint64(start) + 1
}
