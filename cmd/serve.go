// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Rene Varlow, WPPS Project

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/varlow/wpps/internal/config"
	"github.com/varlow/wpps/internal/server"
	"github.com/varlow/wpps/pkg/hal"
	"github.com/varlow/wpps/pkg/icsp"
)

var (
	serveConfig  string
	serveDriver  string
	serveVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the programmer daemon",
	Long: `Run the WPPS daemon: open the GPIO lines, listen for SP clients on
TCP and WebSocket, and announce the programmer over mDNS.

Without --config the built-in defaults are used (TCP :8245, WebSocket
:8246, rpio driver, standard pin assignment). A YAML config file can
change any of these; --driver overrides the configured GPIO backend,
which is how you run against the simulated target:

  wpps serve --driver sim

Recognized drivers:
  rpio   - Raspberry Pi memory-mapped GPIO (requires /dev/gpiomem)
  periph - portable periph.io GPIO drivers
  sim    - in-memory PIC target, no hardware needed

The daemon serves one client command at a time; concurrent sessions
interleave between commands. SIGINT or SIGTERM powers the target down
and exits.

Exit codes:
  0 - Clean shutdown on signal
  1 - Configuration or startup error`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to YAML config file")
	serveCmd.Flags().StringVar(&serveDriver, "driver", "", "GPIO driver override (rpio, periph, sim)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Log every protocol-engine step")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg := config.Default()
	if serveConfig != "" {
		loaded, err := config.Load(serveConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config load failed: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if serveDriver != "" {
		cfg.GPIO.Driver = serveDriver
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	hw, err := hal.Open(cfg.GPIO.Driver, cfg.GPIO.Pins)
	if err != nil {
		fmt.Fprintf(os.Stderr, "GPIO open failed (driver=%s): %v\n", cfg.GPIO.Driver, err)
		os.Exit(1)
	}
	defer hw.Close()

	engine := icsp.New(hw,
		icsp.WithTimings(cfg.Timings.Apply(icsp.DefaultTimings())),
		icsp.WithLogger(engineLog{l: logger, verbose: serveVerbose}),
	)

	srv := server.New(cfg, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("wpps %s starting (driver=%s)", Version, cfg.GPIO.Driver)
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("shutdown complete")

	return nil
}

// engineLog feeds protocol-engine messages into the daemon's logger.
// Debug output is gated on --verbose; every bit-level step of a read
// would otherwise drown the session log.
type engineLog struct {
	l       *log.Logger
	verbose bool
}

func (e engineLog) Debug(msg string, keysAndValues ...interface{}) {
	if !e.verbose {
		return
	}
	e.l.Printf("icsp: %s%s", msg, formatKV(keysAndValues))
}

func (e engineLog) Info(msg string, keysAndValues ...interface{}) {
	e.l.Printf("icsp: %s%s", msg, formatKV(keysAndValues))
}

func formatKV(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
