// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"github.com/spf13/cobra"
)

// Version is reported by --version and logged at daemon startup.
const Version = "1.2.0"

var (
	// TCP connection flags
	tcpAddr string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "wpps",
	Short: "WPPS PIC programmer client and daemon",
	Long: `wpps - Client tools and daemon for the WPPS network PIC programmer.

The daemon ("wpps serve") drives a PIC16 target over ICSP from GPIO pins
and speaks the SP protocol to clients. The remaining commands are the
client side: detect the inserted part, stream its memory out, ping the
daemon, and find programmers on the local network.

Connection modes:
  TCP:       --addr host:8245 (default localhost:8245)
  WebSocket: --url ws://host:8246/sp [--username user]
  Serial:    --port /dev/ttyUSB0 [--baud 115200]

For WebSocket authentication, the password is read from the WPPS_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: Version,
}

func init() {
	// TCP connection flags
	rootCmd.PersistentFlags().StringVarP(&tcpAddr, "addr", "a", "localhost:8245", "Daemon TCP address (host:port)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
