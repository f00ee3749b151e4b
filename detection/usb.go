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
	"path/filepath"
	"slices"
	"strings"
)

// knownBridges are USB-serial chips found on PN532 breakout boards.
var knownBridges = map[string]string{
	"1A86:7523": "CH340",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"067B:2303": "PL2303",
}

// DefaultBlocklist returns the USB VID:PID pairs skipped during detection:
// boards that reset when their port is opened.
func DefaultBlocklist() []string {
	return []string{
		"2341:0042", // Arduino Mega 2560
		"2341:0043", // Arduino Uno
		"2341:8036", // Arduino Leonardo
	}
}

// ParseVIDPID joins the vendor and product ids reported by the serial
// enumerator into the upper case "VVVV:PPPP" form used by blocklists.
// Ids that are not 1 to 4 hex digits give "".
func ParseVIDPID(vid, pid string) string {
	v, ok := normalizeID(vid)
	if !ok {
		return ""
	}
	p, ok := normalizeID(pid)
	if !ok {
		return ""
	}
	return v + ":" + p
}

func normalizeID(id string) (string, bool) {
	id = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(id), "0x"))
	if id == "" || len(id) > 4 {
		return "", false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return "", false
		}
	}
	return strings.Repeat("0", 4-len(id)) + id, true
}

// IsBlocked reports whether vidpid appears in blocklist, ignoring case and
// surrounding space.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.TrimSpace(vidpid)
	if vidpid == "" {
		return false
	}
	return slices.ContainsFunc(blocklist, func(blocked string) bool {
		return strings.EqualFold(strings.TrimSpace(blocked), vidpid)
	})
}

// BridgeName returns the chip name of a known USB-serial bridge.
func BridgeName(vidpid string) (string, bool) {
	name, ok := knownBridges[strings.ToUpper(vidpid)]
	return name, ok
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths after
// cleaning both. The comparison ignores case so "COM3" matches "com3".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := filepath.Clean(devicePath)
	return slices.ContainsFunc(ignorePaths, func(p string) bool {
		return p != "" && strings.EqualFold(filepath.Clean(p), device)
	})
}

// serialRank orders known bridges, then other USB ports, then the rest.
func serialRank(c Candidate) int {
	if _, ok := BridgeName(c.VIDPID); ok {
		return 0
	}
	if c.VIDPID != "" {
		return 1
	}
	return 2
}
