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

// Package detection finds PN532 readers attached over USB-serial or I2C so
// the daemon can run with reader.device set to "auto".
package detection

import (
	"context"
	"errors"
	"fmt"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no devices found")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// Transport names match pn532.TransportType values.
const (
	TransportUART = "uart"
	TransportI2C  = "i2c"
)

// Candidate is a device path a reader might be attached to.
type Candidate struct {
	Transport string
	Path      string
	Name      string
	VIDPID    string
}

func (c Candidate) String() string {
	if c.VIDPID != "" {
		return fmt.Sprintf("%s %s (%s)", c.Transport, c.Path, c.VIDPID)
	}
	return fmt.Sprintf("%s %s", c.Transport, c.Path)
}

// Options controls detection.
type Options struct {
	// IgnorePaths are device paths never returned.
	IgnorePaths []string
	// Blocklist holds USB VID:PID pairs never probed.
	Blocklist []string
}

// DefaultOptions returns default detection options
func DefaultOptions() *Options {
	return &Options{
		Blocklist: DefaultBlocklist(),
	}
}

// Detect lists candidates for transport, best first.
func Detect(ctx context.Context, transport string, opts *Options) ([]Candidate, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		found []Candidate
		err   error
	)
	switch transport {
	case TransportUART:
		found, err = detectSerial(opts)
	case TransportI2C:
		found, err = detectI2C(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, transport)
	}
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNoDevicesFound
	}
	return found, nil
}

// First returns the best candidate for transport.
func First(ctx context.Context, transport string, opts *Options) (Candidate, error) {
	found, err := Detect(ctx, transport, opts)
	if err != nil {
		return Candidate{}, err
	}
	return found[0], nil
}
