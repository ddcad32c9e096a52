// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package server implements the WPPS programmer daemon: TCP, WebSocket
// and serial SP sessions, per-session statistics, and the mDNS
// announcement.
//
// Any number of client sessions may be open at once, but exactly one
// command executes at a time across all of them. The ICSP engine drives a
// single physical target and is not goroutine-safe, so every handler runs
// under the server's hardware mutex and sessions interleave at command
// granularity only.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/varlow/wpps/internal/config"
	"github.com/varlow/wpps/pkg/icsp"
)

// Server is the programmer daemon.
type Server struct {
	cfg    *config.Config
	engine *icsp.Engine
	logger *log.Logger

	// hw serializes command execution across every session. Handlers hold
	// it for the full duration of a command, including a streamed read.
	hw sync.Mutex

	mu       sync.Mutex
	tcpAddr  net.Addr
	wsAddr   net.Addr
	conns    map[io.Closer]struct{}
	device   string
	nextID   uint64
	draining bool

	announcer *announcer

	wg sync.WaitGroup
}

// New creates a daemon around an engine. The configuration must already
// be validated and normalized. A nil logger discards all output.
func New(cfg *config.Config, engine *icsp.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		conns:  make(map[io.Closer]struct{}),
		device: "unknown",
	}
}

// Run starts every configured listener and blocks until ctx is cancelled,
// then shuts down: listeners close, the in-flight command (if any) runs to
// completion, the target is powered off, and remaining sessions are torn
// down.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("tcp listen: %w", err)
	}
	s.setTCPAddr(ln.Addr())
	s.logger.Printf("listening (tcp=%s)", ln.Addr())

	var wsSrv *http.Server
	if s.cfg.Server.WSListen != "" {
		wsln, err := net.Listen("tcp", s.cfg.Server.WSListen)
		if err != nil {
			ln.Close()
			return fmt.Errorf("websocket listen: %w", err)
		}
		s.setWSAddr(wsln.Addr())
		wsSrv = s.newWSServer()
		s.logger.Printf("listening (ws=%s path=/sp)", wsln.Addr())
		go func() {
			if err := wsSrv.Serve(wsln); err != nil && err != http.ErrServerClosed {
				s.logger.Printf("websocket server failed: %v", err)
			}
		}()
	}

	if s.cfg.MDNS.On() {
		ann, err := announce(s.cfg.MDNS.Instance, ln.Addr(), s.device)
		if err != nil {
			// The daemon is still reachable by address; keep running.
			s.logger.Printf("mdns announce failed: %v", err)
		} else {
			s.announcer = ann
			s.logger.Printf("announced (instance=%s service=%s)", s.cfg.MDNS.Instance, mdnsService)
		}
	}

	if s.cfg.Server.SerialPort != "" {
		if err := s.startSerial(); err != nil {
			s.logger.Printf("serial session failed (port=%s): %v", s.cfg.Server.SerialPort, err)
		}
	}

	go s.acceptLoop(ln)

	<-ctx.Done()
	s.logger.Printf("shutting down")

	// Stop accepting new sessions and new commands first.
	s.setDraining()
	ln.Close()
	if wsSrv != nil {
		wsSrv.Close()
	}
	if s.announcer != nil {
		s.announcer.shutdown()
	}

	// Wait for the in-flight command, then leave the bench unpowered.
	// Commands never observe cancellation below this boundary.
	s.hw.Lock()
	s.engine.ExitProgramMode()
	s.hw.Unlock()

	s.closeConns()
	s.wg.Wait()
	s.logger.Printf("shutdown complete")
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed during shutdown, or fatal accept error.
			return
		}
		s.startSession(conn, fmt.Sprintf("tcp %s", conn.RemoteAddr()))
	}
}

// startSession registers a transport and serves SP on it in a new
// goroutine. Used by all three transports.
func (s *Server) startSession(conn io.ReadWriteCloser, name string) {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.nextID++
	id := s.nextID
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	sess := newSession(id, name, conn)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.dropConn(conn)
		s.serveSession(sess)
	}()
}

func (s *Server) dropConn(conn io.Closer) {
	conn.Close()
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) setDraining() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
}

func (s *Server) drainingNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// setDevice records the most recently identified part and refreshes the
// mDNS TXT record to match.
func (s *Server) setDevice(name string) {
	s.mu.Lock()
	changed := s.device != name
	s.device = name
	ann := s.announcer
	s.mu.Unlock()

	if changed && ann != nil {
		ann.setDevice(name)
	}
}

func (s *Server) setTCPAddr(addr net.Addr) {
	s.mu.Lock()
	s.tcpAddr = addr
	s.mu.Unlock()
}

func (s *Server) setWSAddr(addr net.Addr) {
	s.mu.Lock()
	s.wsAddr = addr
	s.mu.Unlock()
}

// Addr returns the bound TCP listener address, or nil before Run.
// Useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tcpAddr
}

// WSAddr returns the bound WebSocket listener address, or nil before Run
// or when the WebSocket listener is disabled.
func (s *Server) WSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wsAddr
}
