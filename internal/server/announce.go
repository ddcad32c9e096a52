// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package server

import (
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"

	"github.com/varlow/wpps/pkg/sp"
)

// Service naming matches what bench clients resolve: the stock
// installation is WPP._WPPS._tcp.local.
const (
	mdnsService = "_WPPS._tcp"
	mdnsDomain  = "local."
)

// announcer wraps the mDNS registration for the TCP listener.
type announcer struct {
	srv *zeroconf.Server
}

// announce registers the daemon on the local network. devName seeds the
// TXT device record; it is refreshed whenever detection identifies a
// part.
func announce(instance string, addr net.Addr, devName string) (*announcer, error) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("mdns: %v is not a tcp address", addr)
	}

	srv, err := zeroconf.Register(instance, mdnsService, mdnsDomain, tcp.Port, txtRecords(devName), nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	return &announcer{srv: srv}, nil
}

func txtRecords(devName string) []string {
	return []string{
		"version=" + sp.Version,
		"device=" + devName,
	}
}

func (a *announcer) setDevice(name string) {
	a.srv.SetText(txtRecords(name))
}

func (a *announcer) shutdown() {
	a.srv.Shutdown()
}
