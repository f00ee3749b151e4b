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

import "time"

// DefaultSendDelay is the window in which a repeated scan of the same tag is
// suppressed.
const DefaultSendDelay = 1000 * time.Millisecond

// DebounceState remembers the most recently reported scan. The zero value
// means nothing has been reported yet.
type DebounceState struct {
	LastSentAt     time.Time
	LastIdentifier string
	seen           bool
}

// Empty reports whether no scan has been reported yet.
func (s DebounceState) Empty() bool {
	return !s.seen
}

// Debouncer suppresses identical consecutive scans within a delay. It keys
// only on the identifier: a different tag is always reported.
type Debouncer struct {
	state DebounceState
	delay time.Duration
}

// NewDebouncer returns a Debouncer. A non-positive delay selects
// DefaultSendDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSendDelay
	}
	return &Debouncer{delay: delay}
}

// ShouldReport reports whether candidate observed at now is a new event.
// It does not change state; call Record once the scan is reported.
func (d *Debouncer) ShouldReport(candidate string, now time.Time) bool {
	if !d.state.seen {
		return true
	}
	return candidate != d.state.LastIdentifier || now.Sub(d.state.LastSentAt) >= d.delay
}

// Record marks candidate as reported at now.
func (d *Debouncer) Record(candidate string, now time.Time) {
	d.state = DebounceState{
		LastIdentifier: candidate,
		LastSentAt:     now,
		seen:           true,
	}
}

// State returns a copy of the current state.
func (d *Debouncer) State() DebounceState {
	return d.state
}

// Delay returns the suppression window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}
