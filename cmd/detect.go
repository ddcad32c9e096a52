// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/varlow/wpps/pkg/icsp"
	"github.com/varlow/wpps/pkg/sp"
)

var (
	detectTimeout int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Identify the PIC device in the programmer socket",
	Long: `Send DETECT_DEVICE and report what the programmer finds.

The daemon powers the target up, reads its configuration memory and
matches the device ID against the built-in table. A part without a
readable ID (empty socket, missing VPP, code protection, or pre-ID
silicon) is reported as not detected.

Exit codes:
  0 - Device identified
  1 - No device detected
  2 - Connection error`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().IntVar(&detectTimeout, "timeout", 10, "Timeout in seconds for the response")
}

func runDetect(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("WPPS - Device Detection\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	wireBytes := sp.MustEncodePacket(sp.NewDetectDeviceCommand())
	if _, err := conn.Write(wireBytes); err != nil {
		fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
		os.Exit(2)
	}

	// Wait for the status response
	responseChan := make(chan *sp.Packet, 1)
	errChan := make(chan error, 1)

	go func() {
		decoder := sp.NewDecoder()
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
		switch packet.Command() {
		case sp.StatusOK:
			fmt.Printf("Detected device: %s\n", packet.Body())
			return nil
		case sp.StatusErrNotDetected:
			fmt.Printf("%v\n", icsp.ErrNotDetected)
			os.Exit(1)
		default:
			fmt.Fprintf(os.Stderr, "Unexpected response: %s (0x%02X)\n",
				sp.FormatStatus(packet.Command()), packet.Command())
			os.Exit(2)
		}

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(detectTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No response in %ds\n", detectTimeout)
		os.Exit(2)
	}

	return nil
}
