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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int64) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestDebouncer_FirstEventAlwaysReports(t *testing.T) {
	t.Parallel()
	tests := []struct {
		now       time.Time
		name      string
		candidate string
	}{
		{name: "zero time", candidate: "04:A1:B2:C3", now: time.Time{}},
		{name: "epoch", candidate: "04:A1:B2:C3", now: t0},
		{name: "empty identifier", candidate: "", now: t0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDebouncer(DefaultSendDelay)
			assert.True(t, d.State().Empty())
			assert.True(t, d.ShouldReport(tt.candidate, tt.now))
		})
	}
}

func TestDebouncer_SameIdentifierWindow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		later int64
		want  bool
	}{
		{name: "same instant", later: 0, want: false},
		{name: "inside window", later: 500, want: false},
		{name: "just before window end", later: 999, want: false},
		{name: "at window end", later: 1000, want: true},
		{name: "after window", later: 1200, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewDebouncer(DefaultSendDelay)
			d.Record("04:A1:B2:C3", at(0))

			assert.Equal(t, tt.want, d.ShouldReport("04:A1:B2:C3", at(tt.later)))
		})
	}
}

func TestDebouncer_DifferentIdentifierAlwaysReports(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(DefaultSendDelay)
	d.Record("04:A1:B2:C3", at(0))

	assert.True(t, d.ShouldReport("12:34:56:78", at(0)))
}

func TestDebouncer_ShouldReportDoesNotMutate(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(DefaultSendDelay)
	d.Record("04:A1:B2:C3", at(0))

	_ = d.ShouldReport("12:34:56:78", at(10))

	state := d.State()
	assert.Equal(t, "04:A1:B2:C3", state.LastIdentifier)
	assert.Equal(t, at(0), state.LastSentAt)
}

func TestDebouncer_WindowRestartsOnRecord(t *testing.T) {
	t.Parallel()
	d := NewDebouncer(DefaultSendDelay)

	d.Record("04:A1:B2:C3", at(0))
	assert.False(t, d.ShouldReport("04:A1:B2:C3", at(500)))

	// suppressed scans never move the window
	assert.True(t, d.ShouldReport("04:A1:B2:C3", at(1200)))
	d.Record("04:A1:B2:C3", at(1200))
	assert.False(t, d.ShouldReport("04:A1:B2:C3", at(2100)))
	assert.True(t, d.ShouldReport("04:A1:B2:C3", at(2200)))
}

func TestNewDebouncer_DefaultDelay(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultSendDelay, NewDebouncer(0).Delay())
	assert.Equal(t, DefaultSendDelay, NewDebouncer(-time.Second).Delay())
	assert.Equal(t, 2*time.Second, NewDebouncer(2*time.Second).Delay())
}
