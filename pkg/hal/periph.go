// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package hal

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphBackend drives the programmer lines through periph.io. It is
// slower than the rpio backend (sysfs fallback on some hosts) but works on
// any board periph has a driver for.
type PeriphBackend struct {
	pins  map[Line]gpio.PinIO
	level map[Line]gpio.Level
}

// OpenPeriph initializes the periph host drivers and resolves the
// configured pins by their BCM names. Lines start in the powered-off
// posture, matching OpenRPIO.
func OpenPeriph(p Pins) (*PeriphBackend, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}

	numbers := map[Line]int{
		LineMCLR:     p.MCLR,
		LineVDD:      p.VDD,
		LineData:     p.Data,
		LineClock:    p.Clock,
		LineActivity: p.Activity,
	}
	b := &PeriphBackend{
		pins:  make(map[Line]gpio.PinIO, len(numbers)),
		level: make(map[Line]gpio.Level, len(numbers)),
	}
	for line, n := range numbers {
		name := fmt.Sprintf("GPIO%d", n)
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, errors.Errorf("no such pin %s for line %s", name, line)
		}
		b.pins[line] = pin
		b.level[line] = gpio.Low
	}

	for _, line := range []Line{LineMCLR, LineVDD, LineActivity} {
		if err := b.pins[line].Out(gpio.Low); err != nil {
			return nil, errors.Wrapf(err, "driving %s low", line)
		}
	}
	for _, line := range []Line{LineData, LineClock} {
		if err := b.pins[line].In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, errors.Wrapf(err, "floating %s", line)
		}
	}
	return b, nil
}

// SetLevel implements Interface.
func (b *PeriphBackend) SetLevel(line Line, level Level) {
	l := gpio.Low
	if level != Low {
		l = gpio.High
	}
	b.level[line] = l
	// Out on an already-output pin is a plain register write in the
	// Pi driver.
	_ = b.pins[line].Out(l)
}

// SetDirection implements Interface. Switching to output re-drives the
// last level set on the line.
func (b *PeriphBackend) SetDirection(line Line, dir Direction) {
	if dir == Output {
		_ = b.pins[line].Out(b.level[line])
		return
	}
	_ = b.pins[line].In(gpio.PullUp, gpio.NoEdge)
}

// ReadLevel implements Interface.
func (b *PeriphBackend) ReadLevel(line Line) Level {
	if b.pins[line].Read() == gpio.High {
		return High
	}
	return Low
}

// DelayMicroseconds implements Interface.
func (b *PeriphBackend) DelayMicroseconds(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// Close floats every line.
func (b *PeriphBackend) Close() error {
	var firstErr error
	for line, pin := range b.pins {
		if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "releasing %s", line)
		}
	}
	return firstErr
}
