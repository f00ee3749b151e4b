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

package uart

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	testutil "github.com/ZaparooProject/go-tagreport/internal/testing"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is a serial line to a simulated PN532. It hands out at most
// chunk bytes per read so frames arrive in pieces.
type fakePort struct {
	sim         *testutil.PN532Sim
	written     [][]byte
	readTimeout time.Duration
	chunk       int
	mu          sync.Mutex
	closed      bool
}

func newFakePort() *fakePort {
	return &fakePort{sim: testutil.NewPN532Sim(), chunk: 5}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errors.New("port closed")
	}
	p.written = append(p.written, append([]byte(nil), b...))
	p.mu.Unlock()

	p.sim.Write(b)
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	timeout := p.readTimeout
	if len(b) > p.chunk {
		b = b[:p.chunk]
	}
	p.mu.Unlock()

	if n := p.sim.ReadStream(b); n > 0 {
		return n, nil
	}
	time.Sleep(timeout)
	return 0, nil
}

func (p *fakePort) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readTimeout = d
	return nil
}

func (*fakePort) ResetInputBuffer() error { return nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// TestTransportCreation verifies basic transport creation and properties
func TestTransportCreation(t *testing.T) {
	t.Parallel()

	transport := NewWithPort(newFakePort(), "/dev/ttyUSB0")

	assert.Equal(t, "/dev/ttyUSB0", transport.portName)
	assert.Equal(t, pn532.TransportUART, transport.Type())
	assert.True(t, transport.IsConnected())

	require.NoError(t, transport.Close())
	assert.False(t, transport.IsConnected())
	require.NoError(t, transport.Close(), "second close is a no-op")
}

func TestSendCommandWakesChipOnce(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	transport := NewWithPort(port, "fake")

	resp, err := transport.SendCommand(testutil.CmdGetFirmwareVersion, nil)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildFirmwareVersionResponse(), resp)

	_, err = transport.SendCommand(testutil.CmdSAMConfiguration, []byte{0x01, 0x14, 0x01})
	require.NoError(t, err)

	writes := port.writes()
	require.Len(t, writes, 2)
	assert.True(t, bytes.HasPrefix(writes[0], wakeUp))
	assert.False(t, bytes.HasPrefix(writes[1], []byte{0x55}))
}

func TestSendCommandNacksCorruptFrame(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.sim.CorruptResponses(1)
	transport := NewWithPort(port, "fake")

	resp, err := transport.SendCommand(testutil.CmdInRelease, []byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildReleaseResponse(0x00), resp)
	assert.Equal(t, 1, port.sim.Nacks())
}

func TestSendCommandNoAckRewakes(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.sim.SetSilent(true)
	transport := NewWithPort(port, "fake")
	require.NoError(t, transport.SetTimeout(30*time.Millisecond))

	_, err := transport.SendCommand(testutil.CmdGetFirmwareVersion, nil)
	require.ErrorIs(t, err, pn532.ErrNoACK)

	port.sim.SetSilent(false)
	_, err = transport.SendCommand(testutil.CmdGetFirmwareVersion, nil)
	require.NoError(t, err)

	writes := port.writes()
	require.Len(t, writes, 2)
	assert.True(t, bytes.HasPrefix(writes[1], wakeUp), "failed command should force a new wake-up")
}

func TestSetTimeoutValidation(t *testing.T) {
	t.Parallel()

	transport := NewWithPort(newFakePort(), "fake")
	require.ErrorIs(t, transport.SetTimeout(0), tagreport.ErrInvalidConfig)
}

func TestReaderOverUART(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.sim.SetResponse(testutil.CmdInListPassiveTarget, testutil.BuildTagDetectionResponse(testutil.TestBadgeUID))

	reader, err := pn532.New(NewWithPort(port, "fake"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, reader.Init(ctx))

	uid, err := reader.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestBadgeUID, uid)
	require.NoError(t, reader.Release(ctx))
	require.NoError(t, reader.Close())
}
