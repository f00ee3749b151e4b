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

//go:build linux

package detection

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	// I2CSlave is the ioctl command to set the slave address
	I2CSlave = 0x0703

	// I2CFuncs is the ioctl command to get adapter functionality
	I2CFuncs = 0x0705

	// I2CFuncI2C indicates plain I2C support
	I2CFuncI2C = 0x00000001

	// PN532Address is the standard 7-bit I2C address of the PN532
	PN532Address = 0x24
)

// busGlob is replaced in tests
var busGlob = "/dev/i2c-*"

func detectI2C(ctx context.Context, opts *Options) ([]Candidate, error) {
	matches, err := filepath.Glob(busGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C devices: %w", err)
	}

	var found []Candidate
	for _, path := range matches {
		if ctx.Err() != nil {
			return found, ctx.Err()
		}
		if IsPathIgnored(path, opts.IgnorePaths) {
			continue
		}
		if !probeBus(path) {
			continue
		}
		found = append(found, Candidate{
			Transport: TransportI2C,
			Path:      path,
			Name:      fmt.Sprintf("PN532 at %s address 0x%02X", filepath.Base(path), PN532Address),
		})
	}
	return found, nil
}

// probeBus reports whether the bus supports plain I2C and something
// acknowledges a one byte read at PN532Address
func probeBus(path string) bool {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Close(fd) }()

	// I2C_FUNCS writes an unsigned long, the size of int on Linux targets
	funcs, err := unix.IoctlGetInt(fd, I2CFuncs)
	if err != nil || funcs&I2CFuncI2C == 0 {
		return false
	}

	if err := unix.IoctlSetInt(fd, I2CSlave, PN532Address); err != nil {
		return false
	}

	buf := make([]byte, 1)
	n, err := unix.Read(fd, buf)
	return err == nil && n == 1
}
