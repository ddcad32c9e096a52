// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"errors"
	"io"
	"time"

	"github.com/varlow/wpps/pkg/sp"
)

// errDraining ends a session loop when the daemon is shutting down.
var errDraining = errors.New("server draining")

// writeTimeout bounds every response write. A client that stops draining
// its socket mid-stream loses the session instead of pinning the
// hardware mutex forever.
const writeTimeout = 30 * time.Second

// session is one client connection speaking SP over any byte transport.
type session struct {
	id    uint64
	name  string
	conn  io.ReadWriteCloser
	dec   *sp.Decoder
	stats *Statistics
}

func newSession(id uint64, name string, conn io.ReadWriteCloser) *session {
	return &session{
		id:    id,
		name:  name,
		conn:  conn,
		dec:   sp.NewDecoder(),
		stats: NewStatistics(),
	}
}

// respond encodes and writes one status frame to the client.
func (sess *session) respond(status uint8, body []byte) error {
	frame, err := sp.EncodePacketFromValues(status, body)
	if err != nil {
		return err
	}
	if d, ok := sess.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		d.SetWriteDeadline(time.Now().Add(writeTimeout))
	}
	n, err := sess.conn.Write(frame)
	sess.stats.BytesOut += uint64(n)
	return err
}

// serveSession runs a session's read loop until the transport fails, the
// inbound stream desynchronizes, or the daemon drains. The session
// statistics are logged on the way out.
func (s *Server) serveSession(sess *session) {
	s.logger.Printf("session open (id=%d peer=%s)", sess.id, sess.name)

	buf := make([]byte, 4096)
	for {
		n, err := sess.conn.Read(buf)
		if n > 0 {
			sess.stats.BytesIn += uint64(n)
			if herr := s.consume(sess, buf[:n]); herr != nil {
				if !errors.Is(herr, errDraining) {
					s.logger.Printf("session error (id=%d peer=%s): %v", sess.id, sess.name, herr)
				}
				break
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("session read failed (id=%d peer=%s): %v", sess.id, sess.name, err)
			}
			break
		}
	}

	s.logger.Printf("session closed (id=%d peer=%s)\n%s", sess.id, sess.name, sess.stats)
}

// consume feeds inbound bytes through the decoder and dispatches every
// completed command. A decode error means the positional stream can no
// longer be trusted and is fatal to the session.
func (s *Server) consume(sess *session, data []byte) error {
	packets, derr := sess.dec.Decode(data)
	for _, p := range packets {
		if err := s.handlePacket(sess, p); err != nil {
			return err
		}
	}
	if derr != nil {
		sess.stats.RecordDecodeError()
		return derr
	}
	return nil
}
