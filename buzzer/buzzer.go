// go-tagreport
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tagreport.
//
// go-tagreport is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tagreport is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tagreport; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package buzzer drives an active buzzer on a GPIO pin.
package buzzer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// StartupPulse is the length of each beep of the readiness signal.
	StartupPulse = 100 * time.Millisecond
	startupGap   = 100 * time.Millisecond
)

// Pin is the part of gpio.PinOut the buzzer uses.
type Pin interface {
	Out(l gpio.Level) error
}

// Option configures a Buzzer.
type Option func(*Buzzer)

// WithLogger sets the buzzer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Buzzer) {
		if l != nil {
			b.log = l
		}
	}
}

// WithSleep replaces time.Sleep; tests use it to avoid real delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *Buzzer) {
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

// Buzzer implements tagreport.Feedback. Pulses are serialized.
type Buzzer struct {
	pin   Pin
	log   *slog.Logger
	sleep func(time.Duration)
	mu    sync.Mutex
}

var _ tagreport.Feedback = (*Buzzer)(nil)

// Open claims the named pin (e.g. "GPIO25") and drives it low.
func Open(name string, opts ...Option) (*Buzzer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: buzzer pin %q not found", tagreport.ErrInvalidConfig, name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to set buzzer pin %s low: %w", name, err)
	}
	return New(pin, opts...), nil
}

// New creates a Buzzer on an already configured pin.
func New(pin Pin, opts ...Option) *Buzzer {
	b := &Buzzer{
		pin:   pin,
		sleep: time.Sleep,
		log:   slog.Default().With("component", "buzzer"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Pulse drives the pin high for d, blocking for the duration.
func (b *Buzzer) Pulse(d time.Duration) {
	if d <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.pin.Out(gpio.High); err != nil {
		b.log.Warn("buzzer on", "error", err)
		return
	}
	b.sleep(d)
	if err := b.pin.Out(gpio.Low); err != nil {
		b.log.Warn("buzzer off", "error", err)
	}
}

// Startup beeps twice to signal the reader is ready.
func (b *Buzzer) Startup() {
	b.Pulse(StartupPulse)
	b.sleep(startupGap)
	b.Pulse(StartupPulse)
}

// Close leaves the pin low.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("failed to set buzzer pin low: %w", err)
	}
	return nil
}
