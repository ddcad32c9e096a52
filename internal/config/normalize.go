// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package config

import "github.com/varlow/wpps/pkg/hal"

// Normalize applies post-validation defaults. It is allowed to mutate the
// configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.WSListen == "" {
		cfg.Server.WSListen = DefaultWSListen
	}
	if cfg.Server.SerialPort != "" && cfg.Server.SerialBaud == 0 {
		cfg.Server.SerialBaud = DefaultSerialBaud
	}

	if cfg.MDNS.Instance == "" {
		cfg.MDNS.Instance = DefaultInstance
	}

	if cfg.GPIO.Driver == "" {
		cfg.GPIO.Driver = DefaultDriver
	}
	// An untouched pin block means the stock wiring, not five GPIO0s.
	if cfg.GPIO.Pins == (hal.Pins{}) {
		cfg.GPIO.Pins = DefaultPins
	}
}
