// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"fmt"
	"time"

	"github.com/varlow/wpps/pkg/sp"
)

// Statistics tracks per-session command counts and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalCommands    uint64
	EchoCommands     uint64
	DetectCommands   uint64
	ReadCommands     uint64
	RejectedCommands uint64
	DecodeErrors     uint64
	BytesIn          uint64
	BytesOut         uint64
	WordsStreamed    uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one inbound command packet and its validation outcome.
// Decode errors are counted separately by RecordDecodeError since they
// never produce a packet.
func (s *Statistics) Update(packet *sp.Packet, validationErrors []sp.ValidationError) {
	s.TotalCommands++

	if sp.RejectionStatus(validationErrors) != 0 {
		s.RejectedCommands++
		s.LastUpdateTime = time.Now()
		return
	}

	switch packet.Command() {
	case sp.CmdEcho:
		s.EchoCommands++
	case sp.CmdDetectDevice:
		s.DetectCommands++
	case sp.CmdReadMemory:
		s.ReadCommands++
	}

	s.LastUpdateTime = time.Now()
}

// RecordDecodeError counts a framing failure on the inbound stream.
func (s *Statistics) RecordDecodeError() {
	s.DecodeErrors++
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates command and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.CommandRate = float64(s.TotalCommands) / elapsed
		errorCount := s.RejectedCommands + s.DecodeErrors
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var rejectedPercent float64
	if s.TotalCommands > 0 {
		rejectedPercent = float64(s.RejectedCommands) * 100.0 / float64(s.TotalCommands)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Session statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Commands:  %8d\n", s.TotalCommands)
	if s.EchoCommands > 0 {
		result += fmt.Sprintf("  Echo:             %5d\n", s.EchoCommands)
	}
	if s.DetectCommands > 0 {
		result += fmt.Sprintf("  Detect Device:    %5d\n", s.DetectCommands)
	}
	if s.ReadCommands > 0 {
		result += fmt.Sprintf("  Read Memory:      %5d\n", s.ReadCommands)
	}
	if s.RejectedCommands > 0 {
		result += fmt.Sprintf("Rejected:        %8d (%.1f%%)\n", s.RejectedCommands, rejectedPercent)
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}
	result += fmt.Sprintf("Bytes In:        %8d\n", s.BytesIn)
	result += fmt.Sprintf("Bytes Out:       %8d\n", s.BytesOut)
	if s.WordsStreamed > 0 {
		result += fmt.Sprintf("Words Streamed:  %8d\n", s.WordsStreamed)
	}
	result += fmt.Sprintf("Command Rate:    %8.1f cmds/sec\n", s.CommandRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "========================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalCommands = 0
	s.EchoCommands = 0
	s.DetectCommands = 0
	s.ReadCommands = 0
	s.RejectedCommands = 0
	s.DecodeErrors = 0
	s.BytesIn = 0
	s.BytesOut = 0
	s.WordsStreamed = 0
	s.CommandRate = 0
	s.ErrorRate = 0
}
