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

// Package pn532 reads tag UIDs from an NXP PN532 controller over any of its
// host interfaces (I2C, SPI, HSU/UART).
package pn532

import (
	"context"
	"time"
)

// Transport moves command frames to and from the PN532.
type Transport interface {
	// SendCommand sends a command and returns the response payload,
	// response code first (cmd+1).
	SendCommand(cmd byte, args []byte) ([]byte, error)

	// Close closes the transport connection
	Close() error

	// SetTimeout bounds the wait for ACK and response
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// ContextTransport is implemented by transports that can abandon a command
// when ctx is done.
type ContextTransport interface {
	Transport
	SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error)
}

// TransportType names a PN532 host interface.
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// sendContext issues cmd, honouring ctx where the transport supports it.
// Other transports are bounded by their own timeout.
func sendContext(ctx context.Context, t Transport, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ct, ok := t.(ContextTransport); ok {
		return ct.SendCommandContext(ctx, cmd, args)
	}
	return t.SendCommand(cmd, args)
}
