// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/marcinbor85/gohex"
	"github.com/spf13/cobra"

	"github.com/varlow/wpps/pkg/sp"
)

var (
	readStart   string
	readEnd     string
	readOutput  string
	readFormat  string
	readTimeout int
	readUseTUI  bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read target memory over the programmer",
	Long: `Stream a word range out of the target and write it to a file or stdout.

Addresses are flat programmer addresses (hex with 0x prefix, or decimal):
program memory from 0x0000, configuration memory at 0x2000-0x2007, data
memory at 0x2100 onward. Both ends of the range are inclusive. Run
"wpps detect" first so the daemon applies the right memory map.

Output formats:
  words - hex word dump with addresses (default)
  bin   - raw stream as received: one big-endian 32-bit word per address
  ihex  - Intel HEX with the usual PIC convention: each 14-bit word as
          two little-endian bytes at double the word address

Examples:
  # Dump the first 1K words of program memory
  wpps read --end 0x3FF

  # Save a 16F628A's data EEPROM as Intel HEX
  wpps read --start 0x2100 --end 0x217F --format ihex -o eeprom.hex

  # Full device read with a progress display
  wpps read --end 0x217F --format bin -o dump.bin --tui

Exit codes:
  0 - Read complete
  1 - Read failed or aborted mid-stream
  2 - Connection error`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVar(&readStart, "start", "0", "First address to read (hex or decimal)")
	readCmd.Flags().StringVar(&readEnd, "end", "", "Last address to read, inclusive (hex or decimal)")
	readCmd.Flags().StringVarP(&readOutput, "output", "o", "", "Output file (default stdout)")
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "words", "Output format: words, bin or ihex")
	readCmd.Flags().IntVar(&readTimeout, "timeout", 30, "Timeout in seconds per response frame")
	readCmd.Flags().BoolVar(&readUseTUI, "tui", false, "Show a progress display (requires --output)")
	readCmd.MarkFlagRequired("end")
}

// parseAddress accepts 0x-prefixed hex or plain decimal.
func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %v", s, err)
	}
	return uint32(v), nil
}

func runRead(cmd *cobra.Command, args []string) error {
	start, err := parseAddress(readStart)
	if err != nil {
		return err
	}
	end, err := parseAddress(readEnd)
	if err != nil {
		return err
	}

	switch readFormat {
	case "words", "bin", "ihex":
	default:
		return fmt.Errorf("unknown format %q (use words, bin or ihex)", readFormat)
	}
	if readUseTUI && readOutput == "" {
		return fmt.Errorf("--tui needs --output, the terminal is taken over by the progress display")
	}

	// Warn about anything the daemon will flag before sending.
	request := sp.NewReadMemoryCommand(start, end)
	for _, finding := range sp.ValidateCommand(request) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", finding.Message)
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	expected := uint64(0)
	if end >= start {
		expected = uint64(end) - uint64(start) + 1
	}

	var words []uint16
	if readUseTUI {
		words, err = runReadTUI(conn, connInfo, request, expected)
	} else {
		fmt.Fprintf(os.Stderr, "WPPS - Memory Read\n")
		fmt.Fprintf(os.Stderr, "Connection: %s\n", connInfo)
		fmt.Fprintf(os.Stderr, "Range: 0x%04X-0x%04X (%d words)\n\n", start, end, expected)
		words, err = streamRead(conn, request, nil)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read failed: %v\n", err)
		os.Exit(1)
	}

	if uint64(len(words)) != expected {
		fmt.Fprintf(os.Stderr, "warning: daemon returned %d words, expected %d\n", len(words), expected)
	}

	if err := writeOutput(words, start, readFormat, readOutput); err != nil {
		return err
	}
	if readOutput != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d words to %s (%s)\n", len(words), readOutput, readFormat)
	}
	return nil
}

// streamRead sends the request and collects READ_MORE chunks until the
// terminal READ_DONE. onChunk, when non-nil, is called with each chunk's
// word count.
func streamRead(conn Connection, request *sp.Packet, onChunk func(words int)) ([]uint16, error) {
	if _, err := conn.Write(sp.MustEncodePacket(request)); err != nil {
		return nil, fmt.Errorf("send failed: %v", err)
	}

	packetChan := make(chan *sp.Packet, 16)
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
			for _, p := range packets {
				packetChan <- p
			}
			if decodeErr != nil {
				errChan <- decodeErr
				return
			}
		}
	}()

	var words []uint16
	for {
		select {
		case packet := <-packetChan:
			switch packet.Command() {
			case sp.StatusReadMore:
				words = appendChunk(words, packet.Body())
				if onChunk != nil {
					onChunk(sp.ChunkWordCount(packet.Body()))
				}
			case sp.StatusReadDone:
				return words, nil
			default:
				return nil, fmt.Errorf("unexpected response: %s (0x%02X)",
					sp.FormatStatus(packet.Command()), packet.Command())
			}

		case err := <-errChan:
			return nil, fmt.Errorf("read failed after %d words: %v", len(words), err)

		case <-time.After(time.Duration(readTimeout) * time.Second):
			return nil, fmt.Errorf("timeout after %d words (no frame in %ds)", len(words), readTimeout)
		}
	}
}

func appendChunk(words []uint16, body []byte) []uint16 {
	for i := 0; i < sp.ChunkWordCount(body); i++ {
		words = append(words, uint16(sp.ChunkWord(body, i)))
	}
	return words
}

func writeOutput(words []uint16, start uint32, format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "bin":
		return writeRawWords(w, words)
	case "ihex":
		return writeIntelHex(w, words, start)
	default:
		return writeWordDump(w, words, start)
	}
}

func writeRawWords(w io.Writer, words []uint16) error {
	buf := make([]byte, 4)
	for _, word := range words {
		binary.BigEndian.PutUint32(buf, uint32(word))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// writeIntelHex stores each word as two little-endian bytes at double the
// word address, the layout PIC tools exchange.
func writeIntelHex(w io.Writer, words []uint16, start uint32) error {
	data := make([]byte, len(words)*2)
	for i, word := range words {
		data[i*2] = byte(word)
		data[i*2+1] = byte(word >> 8)
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(start*2, data); err != nil {
		return fmt.Errorf("ihex layout: %v", err)
	}
	return mem.DumpIntelHex(w, 16)
}

func writeWordDump(w io.Writer, words []uint16, start uint32) error {
	for i := 0; i < len(words); i += 8 {
		line := fmt.Sprintf("0x%04X:", start+uint32(i))
		for j := i; j < i+8 && j < len(words); j++ {
			line += fmt.Sprintf(" %04X", words[j])
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
