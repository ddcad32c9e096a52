// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/spf13/cobra"
)

var (
	discoverTimeout  int
	discoverAll      bool
	discoverInstance string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find WPPS programmers on the local network",
	Long: `Resolve the daemon's mDNS announcement.

By default this resolves the stock instance name WPP (the service
WPP._WPPS._tcp.local.) and prints where it lives. With --all it browses
for every _WPPS._tcp announcement instead, which is what you want when
several programmers share the network.

The TXT record carries the daemon's protocol version and the most
recently identified device.

Examples:
  # Find the bench programmer
  wpps discover

  # List every programmer on the network
  wpps discover --all --timeout 10

Exit codes:
  0 - At least one programmer found
  1 - None found before the timeout
  2 - Resolver error`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 5, "Timeout in seconds for discovery")
	discoverCmd.Flags().BoolVar(&discoverAll, "all", false, "Browse every instance instead of resolving one")
	discoverCmd.Flags().StringVar(&discoverInstance, "instance", "WPP", "Instance name to resolve")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	mode := fmt.Sprintf("resolve %s", discoverInstance)
	if discoverAll {
		mode = "browse all"
	}

	fmt.Printf("WPPS - Programmer Discovery\n")
	fmt.Printf("Service: _WPPS._tcp local.\n")
	fmt.Printf("Mode: %s\n", mode)
	fmt.Printf("Timeout: %d seconds\n", discoverTimeout)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolver error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(discoverTimeout)*time.Second)
	defer cancel()

	// The resolver closes the channel when the context expires.
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan int, 1)
	go func() {
		count := 0
		for entry := range entries {
			count++
			printProgrammer(entry)
		}
		done <- count
	}()

	if discoverAll {
		err = resolver.Browse(ctx, "_WPPS._tcp", "local.", entries)
	} else {
		err = resolver.Lookup(ctx, discoverInstance, "_WPPS._tcp", "local.", entries)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		os.Exit(2)
	}

	<-ctx.Done()
	found := <-done

	// Summary
	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Programmers found: %d\n", found)

	if found == 0 {
		fmt.Printf("No programmers discovered. Check the daemon is running and mDNS is not filtered.\n")
		os.Exit(1)
	}
	return nil
}

func printProgrammer(e *zeroconf.ServiceEntry) {
	fmt.Printf("\nProgrammer found:\n")
	fmt.Printf("  Instance: %s\n", e.Instance)
	fmt.Printf("  Host: %s\n", e.HostName)
	for _, ip := range e.AddrIPv4 {
		fmt.Printf("  Address: %s:%d\n", ip, e.Port)
	}
	for _, ip := range e.AddrIPv6 {
		fmt.Printf("  Address: [%s]:%d\n", ip, e.Port)
	}
	if len(e.Text) > 0 {
		fmt.Printf("  TXT: %s\n", strings.Join(e.Text, " "))
	}
}
