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

package polling

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tagreport"
)

// Config holds the loop's timing.
type Config struct {
	// SendDelay is the debounce window for repeated scans of one tag.
	SendDelay time.Duration
	// PollInterval is the time between loop iterations.
	PollInterval time.Duration
	// PulseDuration is the buzzer pulse on an accepted scan. Zero disables it.
	PulseDuration time.Duration
}

// DefaultConfig returns the default loop configuration
func DefaultConfig() *Config {
	return &Config{
		SendDelay:     DefaultSendDelay,
		PollInterval:  50 * time.Millisecond,
		PulseDuration: 300 * time.Millisecond,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SendDelay <= 0 {
		return fmt.Errorf("%w: send delay must be positive, got %s", tagreport.ErrInvalidConfig, c.SendDelay)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", tagreport.ErrInvalidConfig, c.PollInterval)
	}
	if c.PulseDuration < 0 {
		return fmt.Errorf("%w: pulse duration cannot be negative", tagreport.ErrInvalidConfig)
	}
	return nil
}
