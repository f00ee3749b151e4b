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

package tagreport_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/stretchr/testify/assert"
)

func TestFormatUID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
		uid  []byte
	}{
		{name: "nil", uid: nil, want: ""},
		{name: "empty", uid: []byte{}, want: ""},
		{name: "single byte", uid: []byte{0xAB}, want: "AB"},
		{name: "zero padded", uid: []byte{0x00, 0x01, 0x0F}, want: "00:01:0F"},
		{name: "four byte badge", uid: []byte{0x04, 0xA1, 0xB2, 0xC3}, want: "04:A1:B2:C3"},
		{name: "seven byte ntag", uid: []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}, want: "04:AB:CD:EF:12:34:56"},
		{name: "all ones", uid: []byte{0xFF, 0xFF}, want: "FF:FF"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tagreport.FormatUID(tt.uid))
		})
	}
}

func TestFormatUID_AllLengths(t *testing.T) {
	t.Parallel()
	canonical := regexp.MustCompile(`^[0-9A-F]{2}(:[0-9A-F]{2})*$`)

	for n := 1; n <= 10; n++ {
		uid := make([]byte, n)
		for i := range uid {
			uid[i] = byte(i*37 + n)
		}

		got := tagreport.FormatUID(uid)
		assert.Len(t, got, 3*n-1)
		assert.Regexp(t, canonical, got)
		assert.Equal(t, strings.ToUpper(got), got)
		assert.Len(t, strings.Split(got, ":"), n)
	}
}

func TestFormatUID_EveryByte(t *testing.T) {
	t.Parallel()
	const digits = "0123456789ABCDEF"

	for b := 0; b < 256; b++ {
		want := string([]byte{digits[b>>4], digits[b&0x0F]})
		assert.Equal(t, want, tagreport.FormatUID([]byte{byte(b)}))
	}
}
