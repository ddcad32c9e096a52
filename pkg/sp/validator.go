// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"encoding/binary"
	"fmt"
)

// AnomalyType represents different types of command anomalies
type AnomalyType int

const (
	AnomalyUnknownCommand AnomalyType = iota
	AnomalyLengthMismatch
	AnomalyRangeReversed
)

// ValidationError represents a command validation finding. Status is the
// SP error status the daemon must answer with, or 0 for an advisory that
// does not reject the command.
type ValidationError struct {
	Type    AnomalyType
	Status  uint8
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateCommand checks an inbound command packet against the SP command
// set. Returns a slice of validation findings (empty if the command is
// well-formed); the first finding with a non-zero Status decides the
// rejection status.
func ValidateCommand(p *Packet) []ValidationError {
	errors := []ValidationError{}

	switch p.Command() {
	case CmdEcho:
		// Any body, including empty, echoes back.
	case CmdDetectDevice:
		// Body is ignored.
	case CmdReadMemory:
		errors = append(errors, validateReadMemory(p)...)
	default:
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownCommand,
			Status:  StatusErrInvalidCommand,
			Message: fmt.Sprintf("Unknown command 0x%02X", p.Command()),
			Details: map[string]interface{}{"command": p.Command()},
		})
	}

	return errors
}

// RejectionStatus returns the SP status a daemon must answer with, or 0 if
// every finding is advisory.
func RejectionStatus(errors []ValidationError) uint8 {
	for _, err := range errors {
		if err.Status != 0 {
			return err.Status
		}
	}
	return 0
}

// validateReadMemory validates a READ_MEMORY command body
func validateReadMemory(p *Packet) []ValidationError {
	body := p.Body()

	if len(body) < ReadBodySize {
		return []ValidationError{{
			Type:    AnomalyLengthMismatch,
			Status:  StatusErrRequestLength,
			Message: fmt.Sprintf("READ_MEMORY body too short (%d bytes, expected %d)", len(body), ReadBodySize),
			Details: map[string]interface{}{"length": len(body), "expected": ReadBodySize},
		}}
	}

	errors := []ValidationError{}

	start := binary.BigEndian.Uint32(body[ReadStartOffset:])
	end := binary.BigEndian.Uint32(body[ReadEndOffset:])
	if end < start {
		// Legal per the protocol: the daemon answers with a bare READ_DONE.
		// Flagged so clients can warn before sending.
		errors = append(errors, ValidationError{
			Type:    AnomalyRangeReversed,
			Message: fmt.Sprintf("Read range is reversed (start=0x%04X, end=0x%04X)", start, end),
			Details: map[string]interface{}{"start": start, "end": end},
		})
	}

	return errors
}
