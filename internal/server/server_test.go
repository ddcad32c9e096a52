// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/varlow/wpps/internal/config"
	"github.com/varlow/wpps/pkg/hal"
	"github.com/varlow/wpps/pkg/icsp"
	"github.com/varlow/wpps/pkg/sp"
)

// ==================== Test Helpers ====================

func testConfig() *config.Config {
	off := false
	cfg := &config.Config{}
	cfg.Server.Listen = "127.0.0.1:0"
	cfg.Server.WSListen = "127.0.0.1:0"
	cfg.MDNS.Enabled = &off
	cfg.GPIO.Driver = "sim"
	return cfg
}

func newTestServer(t *testing.T, target *hal.SimTarget) *Server {
	t.Helper()
	return New(testConfig(), icsp.New(target), log.New(io.Discard, "", 0))
}

// startServer runs the daemon until test cleanup and waits for both
// listeners to bind.
func startServer(t *testing.T, srv *Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil || srv.WSAddr() == nil {
		select {
		case err := <-done:
			t.Fatalf("server exited early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not start in time")
		}
		time.Sleep(2 * time.Millisecond)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down in time")
		}
	})
}

// testClient speaks SP over any net.Conn and queues decoded responses.
type testClient struct {
	t     *testing.T
	conn  net.Conn
	dec   *sp.Decoder
	queue []*sp.Packet
}

func clientOn(t *testing.T, conn net.Conn) *testClient {
	t.Helper()
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, dec: sp.NewDecoder()}
}

func dialServer(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return clientOn(t, conn)
}

func (c *testClient) send(p *sp.Packet) {
	c.t.Helper()
	if _, err := c.conn.Write(sp.MustEncodePacket(p)); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

func (c *testClient) next() *sp.Packet {
	c.t.Helper()
	buf := make([]byte, 4096)
	for len(c.queue) == 0 {
		c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := c.conn.Read(buf)
		if err != nil {
			c.t.Fatalf("read: %v", err)
		}
		packets, derr := c.dec.Decode(buf[:n])
		if derr != nil {
			c.t.Fatalf("decode: %v", derr)
		}
		c.queue = append(c.queue, packets...)
	}
	p := c.queue[0]
	c.queue = c.queue[1:]
	return p
}

func (c *testClient) expect(status uint8) *sp.Packet {
	c.t.Helper()
	p := c.next()
	if p.Command() != status {
		c.t.Fatalf("status = %s (0x%02X), want %s (0x%02X)",
			sp.FormatStatus(p.Command()), p.Command(), sp.FormatStatus(status), status)
	}
	return p
}

// ==================== Echo ====================

func TestEchoRoundTrip(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	body := []byte("hello wpps")
	c.send(sp.NewEchoCommand(body))
	p := c.expect(sp.StatusOK)
	if !bytes.Equal(p.Body(), body) {
		t.Errorf("body = %q, want %q", p.Body(), body)
	}
}

func TestEchoEmptyBody(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewEchoCommand(nil))
	p := c.expect(sp.StatusOK)
	if len(p.Body()) != 0 {
		t.Errorf("body length = %d, want 0", len(p.Body()))
	}
}

// ==================== Detect ====================

func TestDetectDeviceOverTCP(t *testing.T) {
	target := hal.NewSimTarget()
	target.SetDeviceID(0x1066) // 628A with die revision 6
	srv := newTestServer(t, target)
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewDetectDeviceCommand())
	p := c.expect(sp.StatusOK)
	if got := string(p.Body()); got != "pic16f628a" {
		t.Errorf("device name = %q, want %q", got, "pic16f628a")
	}
}

func TestDetectDeviceAbsent(t *testing.T) {
	srv := newTestServer(t, hal.NewAbsentTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewDetectDeviceCommand())
	p := c.expect(sp.StatusErrNotDetected)
	if len(p.Body()) != 0 {
		t.Errorf("body length = %d, want 0", len(p.Body()))
	}
}

// ==================== Validation ====================

func TestUnknownCommandRejected(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewPacket(0x7F, nil))
	c.expect(sp.StatusErrInvalidCommand)

	// The session survives a rejected command.
	c.send(sp.NewEchoCommand([]byte("still here")))
	c.expect(sp.StatusOK)
}

func TestShortReadBodyRejected(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewPacket(sp.CmdReadMemory, []byte{0, 0, 0, 4}))
	c.expect(sp.StatusErrRequestLength)
}

// ==================== Read streaming ====================

func TestReadMemoryStream(t *testing.T) {
	target := hal.NewSimTarget()
	words := make([]uint16, 300)
	for i := range words {
		words[i] = uint16(i) & icsp.WordMask
	}
	target.LoadProgramImage(0, words)

	srv := newTestServer(t, target)
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewReadMemoryCommand(0, 299))

	first := c.expect(sp.StatusReadMore)
	if first.BodyLength() != sp.ChunkBytes {
		t.Fatalf("first chunk = %d bytes, want %d", first.BodyLength(), sp.ChunkBytes)
	}
	second := c.expect(sp.StatusReadMore)
	if second.BodyLength() != (300-sp.ChunkWords)*4 {
		t.Fatalf("final chunk = %d bytes, want %d", second.BodyLength(), (300-sp.ChunkWords)*4)
	}
	c.expect(sp.StatusReadDone)

	all := append(append([]byte{}, first.Body()...), second.Body()...)
	for i := 0; i < 300; i++ {
		got := binary.BigEndian.Uint32(all[i*4:])
		if got != uint32(i) {
			t.Fatalf("word[%d] = 0x%04X, want 0x%04X", i, got, i)
		}
	}
}

func TestReadMemoryReversedRange(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)
	c := dialServer(t, srv)

	c.send(sp.NewReadMemoryCommand(10, 2))
	p := c.expect(sp.StatusReadDone)
	if len(p.Body()) != 0 {
		t.Errorf("body length = %d, want 0", len(p.Body()))
	}
}

// Reads leave the target powered and addressed, so back-to-back reads
// resume from the retained program counter instead of re-entering
// programming mode.
func TestReadMemoryLeavesTargetPowered(t *testing.T) {
	target := hal.NewSimTarget()
	target.LoadProgramImage(0, []uint16{1, 2, 3, 4})

	srv := newTestServer(t, target)
	serverEnd, clientEnd := net.Pipe()
	srv.startSession(serverEnd, "pipe test")
	c := clientOn(t, clientEnd)

	c.send(sp.NewReadMemoryCommand(0, 3))
	c.expect(sp.StatusReadMore)
	c.expect(sp.StatusReadDone)

	if !target.Powered() {
		t.Error("target powered down after read, want left powered")
	}
	cycles := target.PowerCycles()

	c.send(sp.NewReadMemoryCommand(4, 4))
	c.expect(sp.StatusReadMore)
	c.expect(sp.StatusReadDone)

	if target.PowerCycles() != cycles {
		t.Errorf("PowerCycles = %d after sequential read, want %d", target.PowerCycles(), cycles)
	}
}

// ==================== Multiple sessions ====================

func TestTwoSessionsInterleave(t *testing.T) {
	target := hal.NewSimTarget()
	target.SetDeviceID(0x1060)
	srv := newTestServer(t, target)
	startServer(t, srv)

	a := dialServer(t, srv)
	b := dialServer(t, srv)

	a.send(sp.NewEchoCommand([]byte("a")))
	b.send(sp.NewEchoCommand([]byte("b")))

	if got := string(a.expect(sp.StatusOK).Body()); got != "a" {
		t.Errorf("session a echo = %q, want %q", got, "a")
	}
	if got := string(b.expect(sp.StatusOK).Body()); got != "b" {
		t.Errorf("session b echo = %q, want %q", got, "b")
	}

	b.send(sp.NewDetectDeviceCommand())
	if got := string(b.expect(sp.StatusOK).Body()); got != "pic16f628a" {
		t.Errorf("session b detect = %q, want %q", got, "pic16f628a")
	}
}

// ==================== WebSocket ====================

func wsURL(srv *Server) string {
	return fmt.Sprintf("ws://%s/sp", srv.WSAddr())
}

// wsClientConn adapts a client-side gorilla connection for testClient.
type wsClientConn struct {
	net.Conn // deadline plumbing only; Read/Write overridden below
	ws       *websocket.Conn
	buf      []byte
	off      int
}

func newWSClientConn(ws *websocket.Conn) *wsClientConn {
	return &wsClientConn{Conn: ws.UnderlyingConn(), ws: ws}
}

func (w *wsClientConn) Read(p []byte) (int, error) {
	if w.off < len(w.buf) {
		n := copy(p, w.buf[w.off:])
		w.off += n
		return n, nil
	}
	for {
		mt, data, err := w.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		w.buf = data
		w.off = copy(p, data)
		return w.off, nil
	}
}

func (w *wsClientConn) Write(p []byte) (int, error) {
	if err := w.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsClientConn) Close() error { return w.ws.Close() }

func TestWebSocketEcho(t *testing.T) {
	srv := newTestServer(t, hal.NewSimTarget())
	startServer(t, srv)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := clientOn(t, newWSClientConn(ws))

	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	c.send(sp.NewEchoCommand(body))
	p := c.expect(sp.StatusOK)
	if !bytes.Equal(p.Body(), body) {
		t.Errorf("body = %x, want %x", p.Body(), body)
	}
}

func TestWebSocketAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Server.WSUsername = "pic"
	cfg.Server.WSPassword = "hunter2"
	srv := New(cfg, icsp.New(hal.NewSimTarget()), log.New(io.Discard, "", 0))
	startServer(t, srv)

	// No credentials: the handshake is refused.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err == nil {
		t.Fatal("handshake succeeded without credentials")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("handshake response = %v, want 401", resp)
	}

	// Correct credentials: a working session.
	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("pic:hunter2")))
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err != nil {
		t.Fatalf("authenticated dial: %v", err)
	}
	c := clientOn(t, newWSClientConn(ws))

	c.send(sp.NewEchoCommand([]byte("authed")))
	if got := string(c.expect(sp.StatusOK).Body()); got != "authed" {
		t.Errorf("body = %q, want %q", got, "authed")
	}
}

// ==================== Shutdown ====================

func TestShutdownPowersDownTarget(t *testing.T) {
	target := hal.NewSimTarget()
	target.LoadProgramImage(0, []uint16{1, 2, 3})

	srv := newTestServer(t, target)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("server did not start in time")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// Leave the target mid-session, the way a read does.
	c := dialServer(t, srv)
	c.send(sp.NewReadMemoryCommand(0, 2))
	c.expect(sp.StatusReadMore)
	c.expect(sp.StatusReadDone)
	if !target.Powered() {
		t.Fatal("target should be powered after a read")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	if target.Powered() {
		t.Error("target still powered after shutdown")
	}
}
