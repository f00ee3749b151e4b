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
	"log/slog"
	"time"
)

// DefaultReconnectInterval is the fixed cadence of reassociation attempts.
const DefaultReconnectInterval = 5 * time.Second

// Associator reports and re-establishes the host's network association.
//
// Reassociate starts a disconnect-then-associate sequence. It should return
// promptly; success is observed on a later call to Connected.
type Associator interface {
	Connected() bool
	Reassociate(ctx context.Context) error
}

var (
	_ Associator   = AlwaysConnected{}
	_ Connectivity = AlwaysConnected{}
	_ Connectivity = (*Link)(nil)
)

// AlwaysConnected is an Associator for hosts whose networking is managed
// elsewhere (wired, or a supervisor outside this process).
type AlwaysConnected struct{}

// Connected always returns true.
func (AlwaysConnected) Connected() bool { return true }

// IsConnected always returns true.
func (AlwaysConnected) IsConnected() bool { return true }

// Reassociate is never needed.
func (AlwaysConnected) Reassociate(context.Context) error { return nil }

// Link maintains the network association with fixed-interval, unbounded
// retries. It is not safe for concurrent use.
type Link struct {
	assoc       Associator
	log         *slog.Logger
	lastAttempt time.Time
	interval    time.Duration
}

// LinkOption configures a Link.
type LinkOption func(*Link)

// WithLinkLogger sets the logger used for reconnect attempts.
func WithLinkLogger(l *slog.Logger) LinkOption {
	return func(link *Link) {
		link.log = l
	}
}

// WithLinkStart sets the reference time of the first reconnect window.
// By default it is the time NewLink is called.
func WithLinkStart(t time.Time) LinkOption {
	return func(link *Link) {
		link.lastAttempt = t
	}
}

// NewLink creates a Link. A non-positive interval selects
// DefaultReconnectInterval.
func NewLink(assoc Associator, interval time.Duration, opts ...LinkOption) *Link {
	if assoc == nil {
		assoc = AlwaysConnected{}
	}
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}

	link := &Link{
		assoc:       assoc,
		interval:    interval,
		lastAttempt: time.Now(),
		log:         slog.Default().With("component", "link"),
	}
	for _, opt := range opts {
		opt(link)
	}
	return link
}

// IsConnected reports whether the host is currently associated.
func (l *Link) IsConnected() bool {
	return l.assoc.Connected()
}

// LastAttempt returns the time of the most recent reconnect attempt, or the
// link's start time if none has been made.
func (l *Link) LastAttempt() time.Time {
	return l.lastAttempt
}

// Maintain attempts a reassociation when the link is down and at least one
// interval has passed since the previous attempt. The attempt time is
// recorded whatever the outcome. It reports whether an attempt was made.
func (l *Link) Maintain(ctx context.Context, now time.Time) bool {
	if l.assoc.Connected() {
		return false
	}
	if now.Sub(l.lastAttempt) < l.interval {
		return false
	}

	l.attempt(ctx, now)
	return true
}

func (l *Link) attempt(ctx context.Context, now time.Time) {
	l.lastAttempt = now
	if err := l.assoc.Reassociate(ctx); err != nil {
		l.log.Debug("reassociate failed", "error", err)
	} else {
		l.log.Debug("reassociate started")
	}
}

// WaitConnected blocks until the link is associated or ctx is done,
// checking every poll interval. A link that is down gets an immediate
// reassociation and then one per reconnect interval while it waits.
func (l *Link) WaitConnected(ctx context.Context, every time.Duration) error {
	if l.assoc.Connected() {
		return nil
	}
	if every <= 0 {
		every = 500 * time.Millisecond
	}

	l.attempt(ctx, time.Now())

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for !l.assoc.Connected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Maintain(ctx, now)
		}
	}
	return nil
}
