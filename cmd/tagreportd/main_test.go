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

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file replace dialTransport and must not run in parallel.

func withTransport(t *testing.T, mock *pn532.MockTransport) *[]string {
	t.Helper()
	var dialed []string
	orig := dialTransport
	dialTransport = func(kind, path string) (pn532.Transport, error) {
		dialed = append(dialed, kind+" "+path)
		return mock, nil
	}
	t.Cleanup(func() { dialTransport = orig })
	return &dialed
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, args ...string) *config {
	t.Helper()
	cfg, err := loadConfig(args, &bytes.Buffer{})
	require.NoError(t, err)
	return cfg
}

//nolint:paralleltest // replaces package state
func TestOpenReaderInitializesPN532(t *testing.T) {
	mock := pn532.NewInitializedMockTransport()
	dialed := withTransport(t, mock)

	reader, closer, err := openReader(context.Background(), testConfig(t, "-strict"), quietLogger())
	require.NoError(t, err)
	require.NotNil(t, reader)

	assert.Equal(t, []string{"i2c /dev/i2c-1"}, *dialed)
	assert.Equal(t, 1, mock.CallCount(0x02), "GetFirmwareVersion")
	assert.Equal(t, 1, mock.CallCount(0x14), "SAMConfiguration")
	assert.Equal(t, 1, mock.CallCount(0x32), "RFConfiguration")
	assert.Equal(t, tagreport.DefaultPollTimeout, mock.Timeout())

	require.NoError(t, closer.Close())
	assert.False(t, mock.IsConnected())
}

//nolint:paralleltest // replaces package state
func TestOpenReaderStrictFailure(t *testing.T) {
	// an empty script times out every command, like a missing chip
	mock := pn532.NewMockTransport()
	withTransport(t, mock)

	_, _, err := openReader(context.Background(), testConfig(t, "-strict"), quietLogger())
	require.Error(t, err)
	require.ErrorIs(t, err, pn532.ErrTransportTimeout)
	assert.Contains(t, err.Error(), "reader did not answer")
	assert.False(t, mock.IsConnected(), "transport closed on failure")
}

//nolint:paralleltest // replaces package state
func TestOpenReaderLenientFailure(t *testing.T) {
	mock := pn532.NewMockTransport()
	withTransport(t, mock)

	reader, closer, err := openReader(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	require.NotNil(t, reader)
	assert.True(t, mock.IsConnected())
	require.NoError(t, closer.Close())
}

//nolint:paralleltest // replaces package state
func TestRunExitsNonZeroWhenStrictReaderFails(t *testing.T) {
	mock := pn532.NewMockTransport()
	withTransport(t, mock)

	assert.Equal(t, 1, run([]string{"-strict", "-log-level", "error", "-device", "/dev/i2c-3"}))
	assert.False(t, mock.IsConnected())
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, run([]string{"-reader", "nfc9000"}))
	assert.Equal(t, 0, run([]string{"-h"}))
}
