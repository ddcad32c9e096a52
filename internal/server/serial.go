// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"fmt"

	"go.bug.st/serial"
)

// startSerial opens the configured port and serves a single fixed SP
// session on it, 8N1 at the configured baud rate. Serial has no accept
// loop: one port, one session, for benches wired over a USB adapter
// instead of the network.
func (s *Server) startSerial() error {
	mode := &serial.Mode{
		BaudRate: s.cfg.Server.SerialBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.cfg.Server.SerialPort, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.cfg.Server.SerialPort, err)
	}

	s.logger.Printf("listening (serial=%s baud=%d)", s.cfg.Server.SerialPort, s.cfg.Server.SerialBaud)
	s.startSession(port, fmt.Sprintf("serial %s", s.cfg.Server.SerialPort))
	return nil
}
