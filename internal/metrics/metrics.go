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

// Package metrics exposes Prometheus instruments for the scan loop.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tagreport"

// Metrics holds the loop's instruments. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	ScansAccepted     prometheus.Counter
	ScansSuppressed   prometheus.Counter
	PollErrors        prometheus.Counter
	ReconnectAttempts prometheus.Counter
	Reports           *prometheus.CounterVec
	ReportDuration    prometheus.Histogram
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ScansAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_accepted_total",
			Help:      "Total number of scans accepted by the debounce filter",
		}),
		ScansSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_suppressed_total",
			Help:      "Total number of repeated scans suppressed by the debounce filter",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total number of reader polls that failed for a reason other than no tag",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts_total",
			Help:      "Total number of network reassociation attempts",
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Total number of reports by outcome",
		}, []string{"outcome"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of report sends that reached the network",
			Buckets:   []float64{.01, .025, .05, .1, .2, .5, 1, 2.5},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.ScansAccepted,
		m.ScansSuppressed,
		m.PollErrors,
		m.ReconnectAttempts,
		m.Reports,
		m.ReportDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// ScanAccepted counts an accepted scan.
func (m *Metrics) ScanAccepted() {
	if m == nil {
		return
	}
	m.ScansAccepted.Inc()
}

// ScanSuppressed counts a debounced scan.
func (m *Metrics) ScanSuppressed() {
	if m == nil {
		return
	}
	m.ScansSuppressed.Inc()
}

// PollFailed counts a failed reader poll.
func (m *Metrics) PollFailed() {
	if m == nil {
		return
	}
	m.PollErrors.Inc()
}

// ReconnectAttempted counts a reassociation attempt.
func (m *Metrics) ReconnectAttempted() {
	if m == nil {
		return
	}
	m.ReconnectAttempts.Inc()
}

// ObserveReport counts a report by outcome. Skipped reports never reached
// the network and are not timed.
func (m *Metrics) ObserveReport(outcome string, d time.Duration, reachedNetwork bool) {
	if m == nil {
		return
	}
	m.Reports.WithLabelValues(outcome).Inc()
	if reachedNetwork {
		m.ReportDuration.Observe(d.Seconds())
	}
}
