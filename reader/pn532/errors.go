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

package pn532

import (
	"errors"
	"fmt"
)

// Transport errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrNoACK               = errors.New("no ACK received")
	ErrTransportClosed     = errors.New("transport closed")
	ErrCommunicationFailed = errors.New("communication failed")
)

// TransportError describes a failure on a specific port.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Retryable bool
}

// NewTransportError wraps err. Timeouts, missing ACKs and exhausted frame
// retries are marked retryable.
func NewTransportError(op, port string, err error) *TransportError {
	return &TransportError{
		Op:   op,
		Port: port,
		Err:  err,
		Retryable: errors.Is(err, ErrTransportTimeout) ||
			errors.Is(err, ErrNoACK) ||
			errors.Is(err, ErrCommunicationFailed),
	}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient transport failure.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}
