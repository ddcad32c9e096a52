// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package hal

import (
	"time"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOBackend drives the programmer lines through the Raspberry Pi's
// memory-mapped GPIO block. It is the default backend on the Pi: register
// pokes are fast enough that the protocol's microsecond setup times are
// dominated by the delay calls, not the pin writes.
type RPIOBackend struct {
	pins map[Line]rpio.Pin
}

// OpenRPIO maps /dev/gpiomem and claims the configured pins. All lines
// start in the powered-off posture: control lines driven low, data and
// clock floating.
func OpenRPIO(p Pins) (*RPIOBackend, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "opening /dev/gpiomem")
	}

	b := &RPIOBackend{
		pins: map[Line]rpio.Pin{
			LineMCLR:     rpio.Pin(p.MCLR),
			LineVDD:      rpio.Pin(p.VDD),
			LineData:     rpio.Pin(p.Data),
			LineClock:    rpio.Pin(p.Clock),
			LineActivity: rpio.Pin(p.Activity),
		},
	}

	for _, line := range []Line{LineMCLR, LineVDD, LineActivity} {
		pin := b.pins[line]
		pin.Output()
		pin.Write(rpio.Low)
	}
	for _, line := range []Line{LineData, LineClock} {
		pin := b.pins[line]
		pin.Input()
		pin.PullUp()
	}
	return b, nil
}

// SetLevel implements Interface. VPP on MCLR keys the external
// high-voltage switch, so it is driven as a plain high.
func (b *RPIOBackend) SetLevel(line Line, level Level) {
	if level == Low {
		b.pins[line].Write(rpio.Low)
		return
	}
	b.pins[line].Write(rpio.High)
}

// SetDirection implements Interface.
func (b *RPIOBackend) SetDirection(line Line, dir Direction) {
	if dir == Output {
		b.pins[line].Output()
		return
	}
	b.pins[line].Input()
}

// ReadLevel implements Interface.
func (b *RPIOBackend) ReadLevel(line Line) Level {
	if b.pins[line].Read() == rpio.High {
		return High
	}
	return Low
}

// DelayMicroseconds implements Interface. time.Sleep overshoots short
// sleeps on a stock kernel; the protocol only specifies minimums, so
// overshoot is harmless.
func (b *RPIOBackend) DelayMicroseconds(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// Close floats every line and unmaps the GPIO block.
func (b *RPIOBackend) Close() error {
	for _, pin := range b.pins {
		pin.Input()
		pin.PullOff()
	}
	rpio.Close()
	return nil
}
