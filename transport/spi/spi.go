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

// Package spi provides SPI transport implementation for PN532
package spi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/internal/frame"
	"github.com/ZaparooProject/go-tagreport/internal/transport"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPI operation bytes, sent first in every transfer
const (
	opDataWrite  = 0x01
	opStatusRead = 0x02
	opDataRead   = 0x03

	statusReady = 0x01

	// DefaultFrequency is well under the PN532's 5 MHz limit.
	DefaultFrequency = physic.MegaHertz

	readyPollDelay  = time.Millisecond
	maxFrameRetries = 3
)

// Transport implements the pn532.Transport interface for SPI. The PN532
// shifts LSB first; bytes are bit-reversed here so that any SPI driver works.
type Transport struct {
	conn     spi.Conn
	closer   io.Closer
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// New opens portName (e.g. "/dev/spidev0.0" or "SPI0.0") through periph in
// mode 0.
func New(portName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(DefaultFrequency, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI port %s: %w", portName, err)
	}

	t := NewWithConn(conn, portName)
	t.closer = port
	return t, nil
}

// NewWithConn creates a transport on an already configured connection.
func NewWithConn(conn spi.Conn, portName string) *Transport {
	return &Transport{
		conn:     conn,
		portName: portName,
		timeout:  tagreport.DefaultPollTimeout,
	}
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	return t.SendCommandContext(context.Background(), cmd, args)
}

// SendCommandContext sends a command, giving up when ctx is done or the
// transport timeout passes.
func (t *Transport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, pn532.ErrTransportClosed)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, pn532.NewTransportError("sendFrame", t.portName, err)
	}
	if _, err := t.transfer("sendFrame", append([]byte{opDataWrite}, frm...), 0); err != nil {
		return nil, err
	}

	if err := t.waitAck(ctx); err != nil {
		return nil, err
	}
	return t.receiveFrame(ctx)
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", tagreport.ErrInvalidConfig)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conn = nil
	if t.closer == nil {
		return nil
	}
	closer := t.closer
	t.closer = nil
	if err := closer.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportSPI
}

// transfer clocks out w followed by readLen dummy bytes and returns what
// arrived during the dummy bytes
func (t *Transport) transfer(op string, w []byte, readLen int) ([]byte, error) {
	out := make([]byte, len(w)+readLen)
	for i, b := range w {
		out[i] = bits.Reverse8(b)
	}
	in := make([]byte, len(out))

	if err := t.conn.Tx(out, in); err != nil {
		return nil, pn532.NewTransportError(op, t.portName, err)
	}

	r := in[len(w):]
	for i, b := range r {
		r[i] = bits.Reverse8(b)
	}
	return r, nil
}

func (t *Transport) waitReady(ctx context.Context, op string) error {
	_, err := transport.TimeoutRetry(ctx, t.timeout, readyPollDelay, op, t.portName,
		func() (struct{}, bool, error) {
			status, err := t.transfer(op, []byte{opStatusRead}, 1)
			if err != nil {
				return struct{}{}, false, err
			}
			return struct{}{}, status[0]&statusReady == 0, nil
		})
	return err
}

func (t *Transport) waitAck(ctx context.Context) error {
	if err := t.waitReady(ctx, "waitAck"); err != nil {
		if errors.Is(err, pn532.ErrTransportTimeout) {
			return pn532.NewTransportError("waitAck", t.portName, pn532.ErrNoACK)
		}
		return err
	}

	buf, err := t.transfer("waitAck", []byte{opDataRead}, len(frame.AckFrame))
	if err != nil {
		return err
	}
	if !frame.IsAck(buf) {
		return pn532.NewTransportError("waitAck", t.portName, pn532.ErrNoACK)
	}
	return nil
}

func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	return transport.WithRetry(ctx, transport.RetryConfig{
		Description: "receiveFrame",
		Port:        t.portName,
		MaxRetries:  maxFrameRetries,
		OnRetry:     t.sendNack,
	}, func() ([]byte, bool, error) {
		if err := t.waitReady(ctx, "receiveFrame"); err != nil {
			return nil, false, err
		}

		buf, err := t.transfer("receiveFrame", []byte{opDataRead}, frame.MaxDataLength+frame.Overhead)
		if err != nil {
			return nil, false, err
		}

		data, _, err := frame.Parse(buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrApplication):
			return nil, false, pn532.NewTransportError("receiveFrame", t.portName, err)
		default:
			return nil, true, nil
		}
	})
}

func (t *Transport) sendNack() error {
	_, err := t.transfer("sendNack", append([]byte{opDataWrite}, frame.NackFrame...), 0)
	return err
}

// Ensure Transport implements pn532.ContextTransport
var _ pn532.ContextTransport = (*Transport)(nil)
