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
	"bytes"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrDataTooLarge     = errors.New("data too large for normal frame")
	ErrUnexpectedTFI    = errors.New("unexpected frame identifier")
	ErrApplication      = errors.New("pn532 application error frame")
	ErrIncomplete       = errors.New("incomplete frame")
)

// CalculateChecksum returns the 8-bit sum of data
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// CalculateLengthChecksum returns LCS such that length+LCS == 0 (mod 256)
func CalculateLengthChecksum(length byte) byte {
	return ^length + 1
}

// CalculateDataChecksum returns DCS such that tfi+data+DCS == 0 (mod 256)
func CalculateDataChecksum(tfi byte, data []byte) byte {
	return ^(tfi + CalculateChecksum(data)) + 1
}

// Build returns a host-to-PN532 normal frame carrying cmd and args
func Build(cmd byte, args []byte) ([]byte, error) {
	return build(HostToPn532, append([]byte{cmd}, args...))
}

// BuildResponse returns a PN532-to-host normal frame carrying payload,
// response code first. Device simulators use it.
func BuildResponse(payload []byte) ([]byte, error) {
	return build(Pn532ToHost, payload)
}

func build(tfi byte, payload []byte) ([]byte, error) {
	dataLen := 1 + len(payload)
	if dataLen > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, dataLen)
	}

	frm := make([]byte, 0, Overhead+dataLen)
	frm = append(frm, Preamble, StartCode1, StartCode2,
		byte(dataLen), CalculateLengthChecksum(byte(dataLen)), tfi)
	frm = append(frm, payload...)
	frm = append(frm, CalculateDataChecksum(tfi, payload), Postamble)

	return frm, nil
}

// IsAck reports whether buf starts with an ACK frame, ignoring leading
// padding bytes
func IsAck(buf []byte) bool {
	return bytes.Contains(buf, AckFrame[1:5]) && !IsNack(buf)
}

// IsNack reports whether buf contains a NACK frame
func IsNack(buf []byte) bool {
	return bytes.Contains(buf, NackFrame[1:5])
}

// Parse locates a PN532-to-host frame in buf and returns its payload after
// the TFI byte (response code first). Leading garbage is skipped. The second
// return value is the number of bytes of buf consumed.
func Parse(buf []byte) ([]byte, int, error) {
	return parse(buf, Pn532ToHost)
}

// ParseCommand is Parse for host-to-PN532 frames. The payload starts with
// the command code.
func ParseCommand(buf []byte) ([]byte, int, error) {
	return parse(buf, HostToPn532)
}

func parse(buf []byte, tfi byte) ([]byte, int, error) {
	off := findStart(buf)
	if off < 0 {
		return nil, 0, ErrIncomplete
	}

	// off points at LEN
	if off+2 > len(buf) {
		return nil, 0, ErrIncomplete
	}
	length := buf[off]
	lcs := buf[off+1]
	if length+lcs != 0 {
		return nil, off + 2, fmt.Errorf("%w: bad length checksum", ErrChecksumMismatch)
	}
	if length == 0 {
		return nil, off + 2, fmt.Errorf("%w: zero length", ErrFrameCorrupted)
	}

	bodyStart := off + 2
	bodyEnd := bodyStart + int(length)
	if bodyEnd+1 > len(buf) {
		return nil, 0, ErrIncomplete
	}

	body := buf[bodyStart:bodyEnd]
	dcs := buf[bodyEnd]
	consumed := bodyEnd + 1
	if consumed < len(buf) && buf[consumed] == Postamble {
		consumed++
	}

	if CalculateChecksum(body)+dcs != 0 {
		return nil, consumed, fmt.Errorf("%w: bad data checksum", ErrChecksumMismatch)
	}
	if length == 1 && body[0] == errorFrameCode {
		return nil, consumed, ErrApplication
	}
	if body[0] != tfi {
		return nil, consumed, fmt.Errorf("%w: 0x%02X", ErrUnexpectedTFI, body[0])
	}

	data := make([]byte, len(body)-1)
	copy(data, body[1:])
	return data, consumed, nil
}

// findStart returns the index just past the 0x00 0xFF start code that is
// not an ACK/NACK, or -1
func findStart(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] != StartCode1 || buf[i+1] != StartCode2 {
			continue
		}
		if i+3 < len(buf) && isFlowControl(buf[i+2], buf[i+3]) {
			i += 3
			continue
		}
		return i + 2
	}
	return -1
}

func isFlowControl(length, lcs byte) bool {
	return (length == 0x00 && lcs == 0xFF) || (length == 0xFF && lcs == 0x00)
}
