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

package tagreport

import (
	"context"
	"time"
)

// DefaultPollTimeout bounds a single reader poll.
const DefaultPollTimeout = 100 * time.Millisecond

// TagReader abstracts the tag sensing hardware.
//
// Poll returns the raw UID of a presented tag, or an error when nothing was
// read. ErrNoTag and driver failures are both "no event" to the caller.
// Poll must return within roughly DefaultPollTimeout.
//
// After a successful Poll the caller must call Release before the next Poll,
// whatever it decides to do with the UID.
type TagReader interface {
	Poll(ctx context.Context) ([]byte, error)
	Release(ctx context.Context) error
}

// Feedback signals an accepted scan to the person at the reader.
type Feedback interface {
	Pulse(d time.Duration)
}

// NopFeedback discards every pulse.
type NopFeedback struct{}

// Pulse does nothing.
func (NopFeedback) Pulse(time.Duration) {}

// Clock supplies the current time. Production code uses SystemClock; tests
// drive time explicitly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, including its monotonic component.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
