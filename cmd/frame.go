// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varlow/wpps/pkg/sp"
)

var (
	frameBody   string
	frameStart  string
	frameEnd    string
	frameDecode string
)

var frameCmd = &cobra.Command{
	Use:   "frame [echo|detect|read]",
	Short: "Encode or decode SP frames offline",
	Long: `Build SP command frames and print their wire bytes, or decode a hex
dump back into frames. Runs entirely offline; nothing is sent.

Useful when implementing the daemon side of the protocol on new firmware,
or for checking what a client put on the wire.

Examples:
  # Wire bytes for a detect command
  wpps frame detect

  # Read request for the first 1K words
  wpps frame read --start 0 --end 0x3FF

  # Echo with a payload
  wpps frame echo --body hello

  # Decode captured bytes (spaces optional)
  wpps frame --decode "01 00 00 00 05 68 65 6c 6c 6f"

Exit codes:
  0 - Frame encoded or decoded
  1 - Bad arguments or undecodable input`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	frameCmd.Flags().StringVar(&frameBody, "body", "", "Echo payload")
	frameCmd.Flags().StringVar(&frameStart, "start", "0", "Read start address (decimal or 0x hex)")
	frameCmd.Flags().StringVar(&frameEnd, "end", "0", "Read end address, inclusive (decimal or 0x hex)")
	frameCmd.Flags().StringVar(&frameDecode, "decode", "", "Hex string to decode instead of encoding")
}

func runFrame(cmd *cobra.Command, args []string) error {
	if frameDecode != "" {
		return decodeFrames(frameDecode)
	}

	if len(args) == 0 {
		return fmt.Errorf("name a command to encode (echo, detect, read) or pass --decode")
	}

	var packet *sp.Packet
	switch args[0] {
	case "echo":
		packet = sp.NewEchoCommand([]byte(frameBody))
	case "detect":
		packet = sp.NewDetectDeviceCommand()
	case "read":
		start, err := parseAddress(frameStart)
		if err != nil {
			return err
		}
		end, err := parseAddress(frameEnd)
		if err != nil {
			return err
		}
		packet = sp.NewReadMemoryCommand(start, end)
	default:
		return fmt.Errorf("unknown frame type %q (echo, detect, read)", args[0])
	}

	for _, finding := range sp.ValidateCommand(packet) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", finding.Message)
	}

	wireBytes := sp.MustEncodePacket(packet)
	fmt.Printf("%s (0x%02X) len=%d\n", sp.FormatCommand(packet.Command()), packet.Command(), packet.BodyLength())
	fmt.Print(sp.FormatBody(packet.Command(), packet.Body()))
	fmt.Printf("Wire bytes (%d):\n%s", len(wireBytes), hexDump(wireBytes))
	return nil
}

func decodeFrames(input string) error {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', ',':
			return -1
		}
		return r
	}, input)
	cleaned = strings.ReplaceAll(cleaned, "0x", "")

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return fmt.Errorf("input is not valid hex: %v", err)
	}

	decoder := sp.NewDecoder()
	packets, decodeErr := decoder.Decode(data)

	for _, packet := range packets {
		fmt.Print(sp.FormatPacket(packet))

		// Commands and statuses share the code space, so only frames in
		// the command range get checked as commands.
		switch packet.Command() {
		case sp.CmdEcho, sp.CmdDetectDevice, sp.CmdReadMemory:
			for _, finding := range sp.ValidateCommand(packet) {
				fmt.Printf("  Finding: %s\n", finding.Message)
			}
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("decode failed after %d frame(s): %v", len(packets), decodeErr)
	}
	if len(packets) == 0 {
		return fmt.Errorf("no complete frame in %d byte(s)", len(data))
	}
	return nil
}

// hexDump renders bytes in 16-per-row offset format.
func hexDump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		row := data[off:]
		if len(row) > 16 {
			row = row[:16]
		}
		fmt.Fprintf(&b, "  %04x ", off)
		for i, c := range row {
			if i == 8 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, " %02x", c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
