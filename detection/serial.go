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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// listPorts is replaced in tests
var listPorts = enumerator.GetDetailedPortsList

func detectSerial(opts *Options) ([]Candidate, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var found []Candidate
	for _, p := range ports {
		if p == nil || !includePort(p.Name, ports) {
			continue
		}
		if IsPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}

		c := Candidate{Transport: TransportUART, Path: p.Name, Name: filepath.Base(p.Name)}
		if p.IsUSB {
			c.VIDPID = ParseVIDPID(p.VID, p.PID)
			if IsBlocked(c.VIDPID, opts.Blocklist) {
				continue
			}
			if chip, ok := BridgeName(c.VIDPID); ok {
				c.Name = chip + " " + c.Name
			} else if p.Product != "" {
				c.Name = p.Product + " " + c.Name
			}
		}
		found = append(found, c)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return serialRank(found[i]) < serialRank(found[j])
	})
	return found, nil
}

// includePort drops Bluetooth ports and, on macOS, tty.* devices that
// have a cu.* twin
func includePort(path string, ports []*enumerator.PortDetails) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.Contains(name, "bluetooth") {
		return false
	}
	if strings.HasPrefix(path, "/dev/tty.") {
		cu := strings.Replace(path, "/dev/tty.", "/dev/cu.", 1)
		for _, p := range ports {
			if p != nil && p.Name == cu {
				return false
			}
		}
	}
	return true
}
