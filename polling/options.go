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
	"log/slog"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/internal/metrics"
)

// Option configures a Loop.
type Option func(*Loop) error

// WithConfig replaces the loop configuration.
func WithConfig(config *Config) Option {
	return func(l *Loop) error {
		if config == nil {
			return fmt.Errorf("%w: nil loop config", tagreport.ErrInvalidConfig)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		l.config = config
		return nil
	}
}

// WithLogger sets the loop's logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) error {
		if log != nil {
			l.log = log
		}
		return nil
	}
}

// WithClock sets the time source used for debounce and reconnect decisions.
func WithClock(clock tagreport.Clock) Option {
	return func(l *Loop) error {
		if clock != nil {
			l.clock = clock
		}
		return nil
	}
}

// WithFeedback sets the audible feedback for accepted scans.
func WithFeedback(feedback tagreport.Feedback) Option {
	return func(l *Loop) error {
		if feedback != nil {
			l.feedback = feedback
		}
		return nil
	}
}

// WithMetrics records loop activity into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loop) error {
		l.metrics = m
		return nil
	}
}

// WithIDGenerator replaces the scan correlation id source.
func WithIDGenerator(next func() string) Option {
	return func(l *Loop) error {
		if next != nil {
			l.newID = next
		}
		return nil
	}
}
