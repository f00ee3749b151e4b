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

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response wraps payload (response code first) in a PN532-to-host frame
func response(payload ...byte) []byte {
	body := append([]byte{Pn532ToHost}, payload...)
	frm := []byte{Preamble, StartCode1, StartCode2, byte(len(body)), CalculateLengthChecksum(byte(len(body)))}
	frm = append(frm, body...)
	return append(frm, ^CalculateChecksum(body)+1, Postamble)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("GetFirmwareVersion", func(t *testing.T) {
		t.Parallel()
		frm, err := Build(0x02, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}, frm)
	})

	t.Run("InListPassiveTarget", func(t *testing.T) {
		t.Parallel()
		frm, err := Build(0x4A, []byte{0x01, 0x00})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x04, 0xFC, 0xD4, 0x4A, 0x01, 0x00, 0xE1, 0x00}, frm)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		_, err := Build(0x40, make([]byte, 254))
		require.ErrorIs(t, err, ErrDataTooLarge)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("firmware version", func(t *testing.T) {
		t.Parallel()
		buf := []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00}
		data, n, err := Parse(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x03, 0x32, 0x01, 0x06, 0x07}, data)
		assert.Equal(t, len(buf), n)
	})

	t.Run("skips ack and padding", func(t *testing.T) {
		t.Parallel()
		buf := append([]byte{0x01}, AckFrame...)
		buf = append(buf, response(0x4B, 0x00)...)
		data, _, err := Parse(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x4B, 0x00}, data)
	})

	t.Run("incomplete", func(t *testing.T) {
		t.Parallel()
		full := response(0x4B, 0x00)
		for i := 0; i < len(full)-1; i++ {
			_, _, err := Parse(full[:i])
			require.ErrorIs(t, err, ErrIncomplete, "prefix of %d bytes", i)
		}
	})

	t.Run("bad data checksum", func(t *testing.T) {
		t.Parallel()
		buf := response(0x4B, 0x00)
		buf[len(buf)-2]++
		_, _, err := Parse(buf)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("bad length checksum", func(t *testing.T) {
		t.Parallel()
		buf := response(0x4B, 0x00)
		buf[4]++
		_, _, err := Parse(buf)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("host direction rejected", func(t *testing.T) {
		t.Parallel()
		frm, err := Build(0x02, nil)
		require.NoError(t, err)
		_, _, err = Parse(frm)
		require.ErrorIs(t, err, ErrUnexpectedTFI)
	})

	t.Run("application error", func(t *testing.T) {
		t.Parallel()
		buf := []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00}
		_, _, err := Parse(buf)
		require.ErrorIs(t, err, ErrApplication)
	})
}

func TestAckNack(t *testing.T) {
	t.Parallel()
	assert.True(t, IsAck(AckFrame))
	assert.False(t, IsNack(AckFrame))
	assert.True(t, IsNack(NackFrame))
	assert.False(t, IsAck(NackFrame))
	assert.False(t, IsAck(response(0x4B, 0x00)))
}

func TestBuildResponseMatchesWire(t *testing.T) {
	t.Parallel()

	got, err := BuildResponse([]byte{0x4B, 0x00})
	require.NoError(t, err)
	assert.Equal(t, response(0x4B, 0x00), got)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	frm, err := Build(0x4A, []byte{0x01, 0x00})
	require.NoError(t, err)

	payload, consumed, err := ParseCommand(frm)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x4A, 0x01, 0x00}, payload)
	assert.Equal(t, len(frm), consumed)

	_, _, err = Parse(frm)
	require.ErrorIs(t, err, ErrUnexpectedTFI)
}
