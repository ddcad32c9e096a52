// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project
//
// WPPS - Wireless PIC Programming System
//
// Daemon and client tools for programming PIC16 microcontrollers over
// the network from a Raspberry Pi's GPIO header.

package main

import (
	"os"

	"github.com/varlow/wpps/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
