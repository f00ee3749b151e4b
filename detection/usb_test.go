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

package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVIDPID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vid  string
		pid  string
		want string
	}{
		{name: "lower case", vid: "1a86", pid: "7523", want: "1A86:7523"},
		{name: "short ids are padded", vid: "403", pid: "6001", want: "0403:6001"},
		{name: "hex prefix", vid: "0x10c4", pid: "0xea60", want: "10C4:EA60"},
		{name: "missing pid", vid: "1a86", want: ""},
		{name: "not hex", vid: "zz", pid: "yy", want: ""},
		{name: "too long", vid: "12345", pid: "6789", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseVIDPID(tt.vid, tt.pid))
		})
	}
}

func TestIsBlocked(t *testing.T) {
	t.Parallel()

	blocklist := []string{" 1234:5678 ", "abcd:ef01"}
	assert.True(t, IsBlocked("1234:5678", blocklist))
	assert.True(t, IsBlocked("ABCD:EF01", blocklist))
	assert.False(t, IsBlocked("1A86:7523", blocklist))
	assert.False(t, IsBlocked("", []string{""}))

	assert.True(t, IsBlocked("2341:0043", DefaultBlocklist()))
	assert.False(t, IsBlocked("1A86:7523", DefaultBlocklist()))
}

func TestBridgeName(t *testing.T) {
	t.Parallel()

	name, ok := BridgeName("1a86:7523")
	assert.True(t, ok)
	assert.Equal(t, "CH340", name)

	_, ok = BridgeName("2341:0043")
	assert.False(t, ok)
}

func TestSerialRank(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, serialRank(Candidate{VIDPID: "0403:6001"}))
	assert.Equal(t, 1, serialRank(Candidate{VIDPID: "0483:5740"}))
	assert.Equal(t, 2, serialRank(Candidate{Path: "/dev/ttyAMA0"}))
}

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		device  string
		ignore  []string
		ignored bool
	}{
		{name: "no ignore list", device: "/dev/ttyUSB0"},
		{name: "empty device", device: "", ignore: []string{""}},
		{name: "exact", device: "/dev/ttyUSB0", ignore: []string{"/dev/ttyUSB0"}, ignored: true},
		{name: "case differs", device: "com3", ignore: []string{"COM3"}, ignored: true},
		{name: "uncleaned device", device: "/dev/../dev/ttyUSB0", ignore: []string{"/dev/ttyUSB0"}, ignored: true},
		{name: "uncleaned entry", device: "/dev/i2c-1", ignore: []string{"/dev//i2c-1/"}, ignored: true},
		{name: "other device", device: "/dev/ttyUSB1", ignore: []string{"", "/dev/ttyUSB0"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ignored, IsPathIgnored(tt.device, tt.ignore))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.Nil(t, opts.IgnorePaths)
	assert.Equal(t, DefaultBlocklist(), opts.Blocklist)
}
