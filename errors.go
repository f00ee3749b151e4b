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

package tagreport

import (
	"errors"
	"fmt"
)

// Reader and configuration errors
var (
	ErrNoTag          = errors.New("no tag present")
	ErrReaderNotReady = errors.New("reader not ready")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrNotSupported   = errors.New("not supported on this platform")
)

// ReaderError describes a failure reported by a tag reader driver.
type ReaderError struct {
	Err    error
	Op     string
	Device string
}

// NewReaderError wraps err with the failing operation and device name.
func NewReaderError(op, device string, err error) *ReaderError {
	return &ReaderError{Op: op, Device: device, Err: err}
}

func (e *ReaderError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// IsNoTag reports whether err means no tag was presented during a poll.
func IsNoTag(err error) bool {
	return errors.Is(err, ErrNoTag)
}
