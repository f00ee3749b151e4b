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

package testing

// Responses below are what a PN532 transport hands back from SendCommand:
// the frame body after the TFI byte, starting with the response code.

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response
func BuildFirmwareVersionResponse() []byte {
	// IC 0x32, version 1.6, support ISO14443A/B + ISO18092
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{0x15}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{0x33}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response for one
// ISO14443A target carrying uid
func BuildTagDetectionResponse(uid []byte) []byte {
	// Tg, ATQA, SAK, NFCIDLength, NFCID
	response := []byte{0x4B, 0x01, 0x01, 0x00, 0x04, 0x08, byte(len(uid))}
	return append(response, uid...)
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{0x4B, 0x00}
}

// BuildReleaseResponse creates an InRelease response with the given status
func BuildReleaseResponse(status byte) []byte {
	return []byte{0x53, status}
}

// Common UIDs for testing
var (
	// TestBadgeUID is the 4-byte MIFARE Classic UID used in scan scenarios
	TestBadgeUID = []byte{0x04, 0xA1, 0xB2, 0xC3}

	// TestNTAG213UID is a sample 7-byte NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
)

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInListPassiveTarget = 0x4A
	CmdInRelease           = 0x52
)
