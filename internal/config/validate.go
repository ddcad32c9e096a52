// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package config

import (
	"fmt"
	"net"

	"github.com/varlow/wpps/pkg/hal"
)

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate the configuration: an unset field
// that Normalize would fill is accepted as-is.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// LISTEN ADDRESSES
	// ------------------------------------------------------------

	for _, l := range []struct {
		name string
		addr string
	}{
		{"server.listen", cfg.Server.Listen},
		{"server.ws_listen", cfg.Server.WSListen},
	} {
		if l.addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(l.addr); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}

	// ------------------------------------------------------------
	// WEBSOCKET AUTH (both halves or neither)
	// ------------------------------------------------------------

	if (cfg.Server.WSUsername == "") != (cfg.Server.WSPassword == "") {
		return fmt.Errorf("server.ws_username and server.ws_password must be set together")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	if cfg.Server.SerialBaud < 0 {
		return fmt.Errorf("server.serial_baud must not be negative, got %d", cfg.Server.SerialBaud)
	}

	// ------------------------------------------------------------
	// MDNS INSTANCE NAME (ASCII, one DNS label)
	// ------------------------------------------------------------

	if inst := cfg.MDNS.Instance; inst != "" {
		if len(inst) > 63 {
			return fmt.Errorf("mdns.instance longer than 63 bytes")
		}
		for i := 0; i < len(inst); i++ {
			if inst[i] <= 0x20 || inst[i] > 0x7E || inst[i] == '.' {
				return fmt.Errorf("mdns.instance must be printable ASCII without dots")
			}
		}
	}

	// ------------------------------------------------------------
	// GPIO DRIVER AND PINS
	// ------------------------------------------------------------

	switch cfg.GPIO.Driver {
	case "", "rpio", "periph", "sim":
	default:
		return fmt.Errorf("gpio.driver must be rpio, periph, or sim, got %q", cfg.GPIO.Driver)
	}

	if cfg.GPIO.Pins != (hal.Pins{}) {
		pins := []struct {
			line string
			n    int
		}{
			{"mclr", cfg.GPIO.Pins.MCLR},
			{"vdd", cfg.GPIO.Pins.VDD},
			{"data", cfg.GPIO.Pins.Data},
			{"clock", cfg.GPIO.Pins.Clock},
			{"activity", cfg.GPIO.Pins.Activity},
		}
		seen := make(map[int]string, len(pins))
		for _, p := range pins {
			if p.n < 0 {
				return fmt.Errorf("gpio.pins.%s must not be negative, got %d", p.line, p.n)
			}
			if prev, dup := seen[p.n]; dup {
				return fmt.Errorf("gpio.pins: %s and %s both assigned to GPIO%d", prev, p.line, p.n)
			}
			seen[p.n] = p.line
		}
	}

	// ------------------------------------------------------------
	// TIMING OVERRIDES
	// ------------------------------------------------------------

	for _, o := range []struct {
		name string
		val  *int
	}{
		{"settle_us", cfg.Timings.Settle},
		{"vpp_rise_us", cfg.Timings.VppRise},
		{"power_settle_us", cfg.Timings.PowerSettle},
		{"bit_set_us", cfg.Timings.BitSet},
		{"bit_hold_us", cfg.Timings.BitHold},
		{"command_us", cfg.Timings.Command},
		{"read_setup_us", cfg.Timings.ReadSetup},
		{"program_us", cfg.Timings.Program},
		{"data_program_us", cfg.Timings.DataProgram},
		{"erase_us", cfg.Timings.Erase},
		{"program5_us", cfg.Timings.Program5},
		{"full_erase_us", cfg.Timings.FullErase},
		{"full_erase84_us", cfg.Timings.FullErase84},
	} {
		if o.val != nil && *o.val < 0 {
			return fmt.Errorf("timings.%s must not be negative, got %d", o.name, *o.val)
		}
	}

	return nil
}
