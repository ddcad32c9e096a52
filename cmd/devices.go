// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varlow/wpps/pkg/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the PIC devices the programmer can identify",
	Long: `Print the built-in device table.

Detection masks the die-revision bits (low 5) out of the device ID
before matching, so each entry covers a window of raw IDs. Parts listed
with ID "-" predate ID registers entirely; they can be programmed but
never auto-detected.

This command is offline: it does not contact a daemon.`,
	Run: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	// Raw IDs from the base value up to base|revision all match one entry.
	const revisionBits = 0xFFFF &^ device.IDMask

	fmt.Printf("%-12s %-8s %-14s %8s %7s %6s %7s %7s\n",
		"NAME", "ID", "ID WINDOW", "PROGRAM", "CONFIG", "DATA", "PFLASH", "DFLASH")

	for _, d := range device.Builtin {
		id := "-"
		window := "-"
		if d.DeviceID != device.NoDeviceID {
			id = fmt.Sprintf("0x%04X", d.DeviceID)
			window = fmt.Sprintf("0x%04X-0x%04X", d.DeviceID, uint32(d.DeviceID)|revisionBits)
		}

		fmt.Printf("%-12s %-8s %-14s %8d %7d %6d %7s %7s\n",
			d.Name, id, window,
			d.ProgramSize, d.ConfigSize, d.DataSize,
			d.ProgramFlash, d.DataFlash)
	}
}
