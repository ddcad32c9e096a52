// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

// Package config loads and checks the daemon configuration. The contract
// is Load, then Validate, then Normalize: validation never mutates, and
// normalization fills defaults only into a configuration that already
// validated.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/varlow/wpps/pkg/hal"
	"github.com/varlow/wpps/pkg/icsp"
)

// Defaults applied by Normalize.
const (
	DefaultListen     = ":8245"
	DefaultWSListen   = ":8246"
	DefaultDriver     = "rpio"
	DefaultInstance   = "WPP"
	DefaultSerialBaud = 115200
)

// DefaultPins is the stock programmer wiring, in BCM numbering.
var DefaultPins = hal.Pins{
	MCLR:     4,
	VDD:      17,
	Data:     27,
	Clock:    22,
	Activity: 18,
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MDNS    MDNSConfig    `yaml:"mdns"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Timings TimingsConfig `yaml:"timings"`
}

// ---- SERVER ----

type ServerConfig struct {
	// Listen is the plain TCP listen address.
	Listen string `yaml:"listen"`

	// WSListen is the WebSocket listen address. Normalize fills the
	// stock default when unset.
	WSListen string `yaml:"ws_listen"`

	// WSUsername/WSPassword enable basic auth on the WebSocket endpoint
	// when both are set.
	WSUsername string `yaml:"ws_username"`
	WSPassword string `yaml:"ws_password"`

	// SerialPort names a device to serve the protocol on (optional).
	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`
}

// ---- MDNS ----

type MDNSConfig struct {
	// Enabled is opt-out; nil means on.
	Enabled *bool `yaml:"enabled"`

	// Instance is the announced service instance name.
	Instance string `yaml:"instance"`
}

// On reports the post-normalization announcement switch.
func (m MDNSConfig) On() bool {
	return m.Enabled == nil || *m.Enabled
}

// ---- GPIO ----

type GPIOConfig struct {
	// Driver selects the hal backend: rpio, periph, or sim.
	Driver string `yaml:"driver"`

	Pins hal.Pins `yaml:"pins"`
}

// ---- TIMINGS ----

// TimingsConfig overrides individual protocol delays, in microseconds.
// Unset fields keep the stock value.
type TimingsConfig struct {
	Settle      *int `yaml:"settle_us"`
	VppRise     *int `yaml:"vpp_rise_us"`
	PowerSettle *int `yaml:"power_settle_us"`
	BitSet      *int `yaml:"bit_set_us"`
	BitHold     *int `yaml:"bit_hold_us"`
	Command     *int `yaml:"command_us"`
	ReadSetup   *int `yaml:"read_setup_us"`
	Program     *int `yaml:"program_us"`
	DataProgram *int `yaml:"data_program_us"`
	Erase       *int `yaml:"erase_us"`
	Program5    *int `yaml:"program5_us"`
	FullErase   *int `yaml:"full_erase_us"`
	FullErase84 *int `yaml:"full_erase84_us"`
}

// Apply copies the set overrides onto base.
func (t TimingsConfig) Apply(base icsp.Timings) icsp.Timings {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&base.Settle, t.Settle)
	set(&base.VppRise, t.VppRise)
	set(&base.PowerSettle, t.PowerSettle)
	set(&base.BitSet, t.BitSet)
	set(&base.BitHold, t.BitHold)
	set(&base.Command, t.Command)
	set(&base.ReadSetup, t.ReadSetup)
	set(&base.Program, t.Program)
	set(&base.DataProgram, t.DataProgram)
	set(&base.Erase, t.Erase)
	set(&base.Program5, t.Program5)
	set(&base.FullErase, t.FullErase)
	set(&base.FullErase84, t.FullErase84)
	return base
}

// ---- LOADING ----

// Load reads and parses a configuration file. The result has not been
// validated or normalized.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given:
// everything at its normalized default.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}
