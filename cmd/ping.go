// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/varlow/wpps/pkg/sp"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the connection with ECHO round trips",
	Long: `Send ECHO commands to the daemon and measure round-trip time.

Each ping carries a timestamped payload; the daemon must return it
verbatim with an OK status. A response with a different body counts as a
failure.

This is useful for verifying:
  - The daemon is reachable and processing commands
  - HTTP Basic authentication works (WebSocket mode)
  - Round-trip latency of the chosen transport

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("WPPS - Echo Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	decoder := sp.NewDecoder()
	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		payload := []byte(fmt.Sprintf("wpps-ping %d %d", i, time.Now().UnixNano()))
		wireBytes := sp.MustEncodePacket(sp.NewEchoCommand(payload))

		startTime := time.Now()
		if _, err := conn.Write(wireBytes); err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		// Wait for the echo
		responseChan := make(chan *sp.Packet, 1)
		errChan := make(chan error, 1)

		go func() {
			buf := make([]byte, 4096)
			for {
				n, err := conn.Read(buf)
				if err != nil {
					errChan <- err
					return
				}
				packets, decodeErr := decoder.Decode(buf[:n])
				if len(packets) > 0 {
					responseChan <- packets[0]
					return
				}
				if decodeErr != nil {
					errChan <- decodeErr
					return
				}
			}
		}()

		select {
		case packet := <-responseChan:
			rtt := time.Since(startTime)
			if packet.Command() != sp.StatusOK {
				fmt.Printf("BAD STATUS: %s (0x%02X)\n", sp.FormatStatus(packet.Command()), packet.Command())
				failCount++
			} else if !bytes.Equal(packet.Body(), payload) {
				fmt.Printf("BODY MISMATCH (%d bytes back, %d sent)\n", len(packet.Body()), len(payload))
				failCount++
			} else {
				fmt.Printf("OK, %d bytes, rtt=%v\n", len(packet.Body()), rtt.Round(time.Microsecond))
				successCount++
			}

		case err := <-errChan:
			fmt.Printf("READ FAILED: %v\n", err)
			failCount++

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
