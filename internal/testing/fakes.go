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

// Package testing provides fakes shared by the package tests.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
)

// Epoch is the fixed start time used by FakeClock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually driven tagreport.Clock.
type FakeClock struct {
	now time.Time
	mu  sync.Mutex
}

// NewFakeClock returns a clock stopped at Epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to Epoch plus ms milliseconds.
func (c *FakeClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch.Add(time.Duration(ms) * time.Millisecond)
}

// PollResult is one scripted answer of FakeReader.Poll.
type PollResult struct {
	Err error
	UID []byte
}

// FakeReader is a scripted tagreport.TagReader. Once the script is
// exhausted every poll returns tagreport.ErrNoTag.
type FakeReader struct {
	ReleaseErr error
	script     []PollResult
	polls      int
	releases   int
	mu         sync.Mutex
}

// NewFakeReader returns a reader that answers polls in order.
func NewFakeReader(results ...PollResult) *FakeReader {
	return &FakeReader{script: results}
}

// Present queues a successful read of uid.
func (r *FakeReader) Present(uid []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, PollResult{UID: uid})
}

// Fail queues a failed read.
func (r *FakeReader) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, PollResult{Err: err})
}

// Poll implements tagreport.TagReader.
func (r *FakeReader) Poll(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.script) == 0 {
		return nil, tagreport.ErrNoTag
	}

	next := r.script[0]
	r.script = r.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return append([]byte(nil), next.UID...), nil
}

// Release implements tagreport.TagReader.
func (r *FakeReader) Release(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	return r.ReleaseErr
}

// Polls returns the number of Poll calls.
func (r *FakeReader) Polls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polls
}

// Releases returns the number of Release calls.
func (r *FakeReader) Releases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases
}

// FakeAssociator is a tagreport.Associator with a settable link state.
type FakeAssociator struct {
	ReassociateErr error
	// ConnectOnReassociate makes a reassociation succeed immediately.
	ConnectOnReassociate bool
	connected            bool
	attempts             int
	mu                   sync.Mutex
}

// NewFakeAssociator returns an associator in the given state.
func NewFakeAssociator(connected bool) *FakeAssociator {
	return &FakeAssociator{connected: connected}
}

// Connected implements tagreport.Associator.
func (a *FakeAssociator) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// SetConnected changes the reported link state.
func (a *FakeAssociator) SetConnected(connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = connected
}

// Reassociate implements tagreport.Associator.
func (a *FakeAssociator) Reassociate(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts++
	if a.ConnectOnReassociate && a.ReassociateErr == nil {
		a.connected = true
	}
	return a.ReassociateErr
}

// Attempts returns the number of Reassociate calls.
func (a *FakeAssociator) Attempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts
}

// RecordingFeedback records every pulse.
type RecordingFeedback struct {
	pulses []time.Duration
	mu     sync.Mutex
}

// Pulse implements tagreport.Feedback.
func (f *RecordingFeedback) Pulse(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, d)
}

// Pulses returns a copy of the recorded pulses.
func (f *RecordingFeedback) Pulses() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.pulses...)
}

var (
	_ tagreport.Clock      = (*FakeClock)(nil)
	_ tagreport.TagReader  = (*FakeReader)(nil)
	_ tagreport.Associator = (*FakeAssociator)(nil)
	_ tagreport.Feedback   = (*RecordingFeedback)(nil)
)
