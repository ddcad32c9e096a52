// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Bench clients are CLI tools and scripts, not browser pages; origin
	// checks would only get in their way.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) newWSServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/sp", s.handleWS)
	return &http.Server{Handler: mux}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="wpps"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade failed (peer=%s): %v", r.RemoteAddr, err)
		return
	}

	s.startSession(&wsConn{conn: conn}, fmt.Sprintf("ws %s", conn.RemoteAddr()))
}

// authorize checks HTTP Basic credentials when the config sets them.
// Without configured credentials the endpoint is open.
func (s *Server) authorize(r *http.Request) bool {
	user := s.cfg.Server.WSUsername
	if user == "" {
		return true
	}
	gotUser, gotPass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(gotPass), []byte(s.cfg.Server.WSPassword)) == 1
	return userOK && passOK
}

// wsConn adapts a WebSocket connection to the byte stream the session
// loop expects. SP is positional, so message boundaries carry no meaning:
// inbound binary messages are buffered and drained like a stream, and
// each outbound write becomes one binary message.
type wsConn struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *wsConn) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetWriteDeadline lets the session layer bound response writes the same
// way it does for plain TCP.
func (w *wsConn) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// ErrConnectionClosed is returned when reading from a WebSocket session
// that already failed.
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")
