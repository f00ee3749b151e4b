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
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/internal/metrics"
	"github.com/google/uuid"
)

// LinkMaintainer keeps the network association alive. *tagreport.Link
// implements it.
type LinkMaintainer interface {
	Maintain(ctx context.Context, now time.Time) bool
}

// Sender delivers one identifier. *tagreport.Reporter implements it.
type Sender interface {
	Send(ctx context.Context, identifier string) tagreport.Result
}

// TickResult describes one loop iteration.
type TickResult struct {
	Event   TagEvent
	Report  tagreport.Result
	Outcome Outcome
}

// Loop is the scan control loop. It runs on a single goroutine: one poll,
// at most one report in flight, reports in acceptance order.
type Loop struct {
	reader   tagreport.TagReader
	link     LinkMaintainer
	sender   Sender
	feedback tagreport.Feedback
	clock    tagreport.Clock
	log      *slog.Logger
	metrics  *metrics.Metrics
	config   *Config
	debounce *Debouncer
	newID    func() string
	state    State
}

// NewLoop creates a loop over reader, link and sender. link may be nil when
// the network is not managed by this process.
func NewLoop(reader tagreport.TagReader, link LinkMaintainer, sender Sender, opts ...Option) (*Loop, error) {
	if reader == nil {
		return nil, errors.New("reader cannot be nil")
	}
	if sender == nil {
		return nil, errors.New("sender cannot be nil")
	}

	l := &Loop{
		reader:   reader,
		link:     link,
		sender:   sender,
		feedback: tagreport.NopFeedback{},
		clock:    tagreport.SystemClock{},
		log:      slog.Default().With("component", "loop"),
		config:   DefaultConfig(),
		newID:    uuid.NewString,
		state:    StateIdle,
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	l.debounce = NewDebouncer(l.config.SendDelay)
	return l, nil
}

// State returns the loop's current state.
func (l *Loop) State() State {
	return l.state
}

// Debounce returns the most recently reported scan.
func (l *Loop) Debounce() DebounceState {
	return l.debounce.State()
}

// Run ticks until ctx is cancelled, then returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	l.log.Info("running", "poll_interval", l.config.PollInterval, "send_delay", l.config.SendDelay)

	for {
		l.Tick(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one iteration: maintain the link, poll, format, debounce, give
// feedback, report, release. The reader is released on every path after a
// successful poll.
func (l *Loop) Tick(ctx context.Context) TickResult {
	if l.link != nil && l.link.Maintain(ctx, l.clock.Now()) {
		l.metrics.ReconnectAttempted()
	}

	uid, err := l.reader.Poll(ctx)
	if err != nil {
		if !tagreport.IsNoTag(err) && ctx.Err() == nil {
			l.metrics.PollFailed()
			l.log.Debug("poll failed", "error", err)
		}
		return TickResult{Outcome: OutcomeNoTag}
	}

	l.state = StateReporting
	defer func() { l.state = StateIdle }()
	defer l.release(ctx)

	event := TagEvent{
		ID:         l.newID(),
		Identifier: tagreport.FormatUID(uid),
		ObservedAt: l.clock.Now(),
	}

	if !l.debounce.ShouldReport(event.Identifier, event.ObservedAt) {
		l.metrics.ScanSuppressed()
		l.log.Debug("scan suppressed", "rfid", event.Identifier, "scan_id", event.ID)
		return TickResult{Outcome: OutcomeSuppressed, Event: event}
	}
	l.debounce.Record(event.Identifier, event.ObservedAt)
	l.metrics.ScanAccepted()

	l.log.Info("RFID: "+event.Identifier, "scan_id", event.ID)
	if l.config.PulseDuration > 0 {
		l.feedback.Pulse(l.config.PulseDuration)
	}

	res := l.sender.Send(ctx, event.Identifier)
	l.metrics.ObserveReport(res.Status.String(), res.Duration, res.Status != tagreport.ReportSkipped)
	l.logReport(event, res)

	return TickResult{Outcome: OutcomeReported, Event: event, Report: res}
}

func (l *Loop) release(ctx context.Context) {
	if err := l.reader.Release(context.WithoutCancel(ctx)); err != nil {
		l.log.Debug("release failed", "error", err)
	}
}

func (l *Loop) logReport(event TagEvent, res tagreport.Result) {
	switch res.Status {
	case tagreport.ReportSkipped:
		l.log.Warn("report skipped, network down", "rfid", event.Identifier, "scan_id", event.ID)
	case tagreport.ReportFailed:
		l.log.Warn("report dropped", "rfid", event.Identifier, "scan_id", event.ID, "error", res.Err)
	default:
		l.log.Debug("report sent", "scan_id", event.ID, "status", res.StatusCode, "duration", res.Duration)
	}
}
