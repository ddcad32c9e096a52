// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"github.com/varlow/wpps/pkg/icsp"
	"github.com/varlow/wpps/pkg/sp"
)

// handlePacket validates and dispatches one inbound command. Returned
// errors are transport failures and end the session; protocol problems
// are answered with error statuses instead.
func (s *Server) handlePacket(sess *session, p *sp.Packet) error {
	if s.drainingNow() {
		return errDraining
	}

	findings := sp.ValidateCommand(p)
	sess.stats.Update(p, findings)

	if status := sp.RejectionStatus(findings); status != 0 {
		s.logger.Printf("command rejected (id=%d peer=%s): %s", sess.id, sess.name, findings[0].Message)
		return sess.respond(status, nil)
	}

	switch p.Command() {
	case sp.CmdEcho:
		return s.handleEcho(sess, p)
	case sp.CmdDetectDevice:
		return s.handleDetect(sess)
	case sp.CmdReadMemory:
		return s.handleRead(sess, p)
	}
	// Unreachable: the validator rejects unknown commands.
	return sess.respond(sp.StatusErrInvalidCommand, nil)
}

func (s *Server) handleEcho(sess *session, p *sp.Packet) error {
	return sess.respond(sp.StatusOK, p.Body())
}

func (s *Server) handleDetect(sess *session) error {
	s.hw.Lock()
	res := s.engine.DetectDevice()
	s.hw.Unlock()

	if res.Outcome == icsp.Identified {
		s.setDevice(res.Device.Name)
		return sess.respond(sp.StatusOK, []byte(res.Device.Name))
	}
	return sess.respond(sp.StatusErrNotDetected, nil)
}

// handleRead streams the requested range as READ_MORE chunks, then a
// terminal READ_DONE. The hardware stays powered and addressed between
// read commands, the way the firmware leaves it, so sequential reads keep
// their program-counter position.
func (s *Server) handleRead(sess *session, p *sp.Packet) error {
	start, end, err := sp.ParseReadMemoryBody(p.Body())
	if err != nil {
		// Unreachable: the validator already rejected short bodies.
		return sess.respond(sp.StatusErrRequestLength, nil)
	}

	s.hw.Lock()
	readErr := s.engine.ReadRange(start, end, func(chunk []byte) error {
		if err := sess.respond(sp.StatusReadMore, chunk); err != nil {
			return err
		}
		sess.stats.WordsStreamed += uint64(len(chunk) / 4)
		return nil
	})
	s.hw.Unlock()

	if readErr != nil {
		// The sink's transport write failed; the session is gone.
		return readErr
	}
	return sess.respond(sp.StatusReadDone, nil)
}
