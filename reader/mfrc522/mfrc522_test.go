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

package mfrc522

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	testutil "github.com/ZaparooProject/go-tagreport/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/mfrc522/commands"
)

type fakeDevice struct {
	err      error
	haltErr  error
	haltAErr error
	uid      []byte
	timeouts []time.Duration
	haltAs   int
	halted   bool
}

func (d *fakeDevice) ReadUID(timeout time.Duration) ([]byte, error) {
	d.timeouts = append(d.timeouts, timeout)
	return d.uid, d.err
}

func (d *fakeDevice) HaltA() error {
	d.haltAs++
	return d.haltAErr
}

func (d *fakeDevice) Halt() error {
	d.halted = true
	return d.haltErr
}

func TestPoll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dev       *fakeDevice
		name      string
		wantUID   []byte
		wantNoTag bool
	}{
		{
			name:    "card present",
			dev:     &fakeDevice{uid: testutil.TestBadgeUID},
			wantUID: testutil.TestBadgeUID,
		},
		{
			name:      "driver timeout",
			dev:       &fakeDevice{err: errors.New("timeout waiting for IRQ edge")},
			wantNoTag: true,
		},
		{
			name:      "empty uid",
			dev:       &fakeDevice{},
			wantNoTag: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New(tt.dev, "fake")
			uid, err := r.Poll(context.Background())
			if tt.wantNoTag {
				require.Error(t, err)
				assert.True(t, tagreport.IsNoTag(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, uid)
		})
	}
}

func TestPollUsesTimeout(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{uid: testutil.TestBadgeUID}

	_, err := New(dev, "fake").Poll(context.Background())
	require.NoError(t, err)
	_, err = New(dev, "fake", WithTimeout(250*time.Millisecond)).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{tagreport.DefaultPollTimeout, 250 * time.Millisecond}, dev.timeouts)
}

func TestPollCancelled(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{uid: testutil.TestBadgeUID}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dev, "fake").Poll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dev.timeouts)
}

func TestReleaseHaltsCard(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{uid: testutil.TestBadgeUID}
	r := New(dev, "fake")

	_, err := r.Poll(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Release(context.Background()))
	assert.Equal(t, 1, dev.haltAs)
	assert.False(t, dev.halted, "release must not stop the chip")

	dev.haltAErr = errors.New("spi write failed")
	err = r.Release(context.Background())
	var re *tagreport.ReaderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "HaltA", re.Op)
}

type fakeTransceiver struct {
	writeErr  error
	cardErr   error
	registers map[int]byte
	crcIn     []byte
	sent      []byte
	backBits  int
	command   byte
}

func (f *fakeTransceiver) DevWrite(address int, data byte) error {
	if f.registers == nil {
		f.registers = make(map[int]byte)
	}
	f.registers[address] = data
	return f.writeErr
}

func (f *fakeTransceiver) CRC(data []byte) ([]byte, error) {
	f.crcIn = append([]byte(nil), data...)
	// CRC_A of 50 00
	return []byte{0x57, 0xCD}, nil
}

func (f *fakeTransceiver) CardWrite(command byte, data []byte) ([]byte, int, error) {
	f.command = command
	f.sent = append([]byte(nil), data...)
	return nil, f.backBits, f.cardErr
}

func TestHaltA(t *testing.T) {
	t.Parallel()

	t.Run("sends HLTA with CRC", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransceiver{cardErr: errors.New("mfrc522 lowlevel: IRQ error")}
		require.NoError(t, haltA(tr), "a silent card is the expected answer")

		assert.Equal(t, byte(0x00), tr.registers[commands.BitFramingReg])
		assert.Equal(t, []byte{0x50, 0x00}, tr.crcIn)
		assert.Equal(t, byte(commands.PCD_TRANSCEIVE), tr.command)
		assert.Equal(t, []byte{0x50, 0x00, 0x57, 0xCD}, tr.sent)
	})

	t.Run("card answered", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransceiver{backBits: 4}
		require.Error(t, haltA(tr))
	})

	t.Run("register write fails", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransceiver{writeErr: errors.New("spi gone")}
		require.Error(t, haltA(tr))
		assert.Nil(t, tr.sent)
	})
}

func TestClose(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{}
	r := New(dev, "fake")

	require.NoError(t, r.Close())
	assert.True(t, dev.halted)

	dev = &fakeDevice{haltErr: errors.New("spi gone")}
	err := New(dev, "fake").Close()
	var re *tagreport.ReaderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Halt", re.Op)
}
