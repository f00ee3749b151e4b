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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = New(reg)
	require.Error(t, err, "registering twice must fail")
}

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ScanAccepted()
	m.ScanAccepted()
	m.ScanSuppressed()
	m.PollFailed()
	m.ReconnectAttempted()
	m.ObserveReport("sent", 20*time.Millisecond, true)
	m.ObserveReport("skipped", 0, false)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ScansAccepted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScansSuppressed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollErrors), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReconnectAttempts), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reports.WithLabelValues("sent")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reports.WithLabelValues("skipped")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReportDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ScanAccepted()
		m.ScanSuppressed()
		m.PollFailed()
		m.ReconnectAttempted()
		m.ObserveReport("failed", time.Second, true)
	})
}
