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

// Package uart provides HSU (UART) transport implementation for PN532
package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/internal/frame"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the PN532 HSU default.
	DefaultBaudRate = 115200

	// readSlice bounds each blocking read so ctx is checked regularly.
	readSlice = 10 * time.Millisecond

	maxFrameRetries = 3
)

// wakeUp brings the chip out of power down: a long 0x55 run, then idle
var wakeUp = []byte{0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// Port is the part of serial.Port the transport uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements the pn532.Transport interface for UART communication
type Transport struct {
	port     Port
	portName string
	rx       []byte
	timeout  time.Duration
	mu       sync.Mutex
	awake    bool
}

// New opens portName at DefaultBaudRate, 8N1.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}
	return NewWithPort(port, portName), nil
}

// NewWithPort creates a transport on an already open port.
func NewWithPort(port Port, portName string) *Transport {
	return &Transport{
		port:     port,
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

	if t.port == nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, pn532.ErrTransportClosed)
	}

	resp, err := t.exchange(ctx, cmd, args)
	if err != nil {
		// the chip may have dropped back to power down
		t.awake = false
	}
	return resp, err
}

func (t *Transport) exchange(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, pn532.NewTransportError("sendFrame", t.portName, err)
	}

	// stale bytes from an abandoned command would be parsed as our answer
	t.rx = t.rx[:0]
	_ = t.port.ResetInputBuffer()

	out := frm
	if !t.awake {
		out = append(append([]byte(nil), wakeUp...), frm...)
	}
	if _, err := t.port.Write(out); err != nil {
		return nil, pn532.NewTransportError("sendFrame", t.portName, err)
	}
	t.awake = true

	deadline := time.Now().Add(t.timeout)
	if err := t.waitAck(ctx, deadline); err != nil {
		return nil, err
	}
	return t.receiveFrame(ctx, deadline)
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

	if t.port == nil {
		return nil
	}
	port := t.port
	t.port = nil
	if err := port.Close(); err != nil {
		return fmt.Errorf("failed to close UART port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// fill reads whatever arrives within one read slice
func (t *Transport) fill(ctx context.Context, op string, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return pn532.NewTransportError(op, t.portName, pn532.ErrTransportTimeout)
	}

	if err := t.port.SetReadTimeout(min(remaining, readSlice)); err != nil {
		return pn532.NewTransportError(op, t.portName, err)
	}

	var chunk [64]byte
	n, err := t.port.Read(chunk[:])
	if err != nil {
		return pn532.NewTransportError(op, t.portName, err)
	}
	t.rx = append(t.rx, chunk[:n]...)
	return nil
}

// waitAck consumes bytes up to and including the ACK frame
func (t *Transport) waitAck(ctx context.Context, deadline time.Time) error {
	ack := frame.AckFrame[1:5]
	for {
		if i := bytes.Index(t.rx, ack); i >= 0 {
			t.rx = t.rx[i+len(ack):]
			return nil
		}
		if frame.IsNack(t.rx) {
			return pn532.NewTransportError("waitAck", t.portName, pn532.ErrNoACK)
		}

		if err := t.fill(ctx, "waitAck", deadline); err != nil {
			if errors.Is(err, pn532.ErrTransportTimeout) {
				return pn532.NewTransportError("waitAck", t.portName, pn532.ErrNoACK)
			}
			return err
		}
	}
}

// receiveFrame assembles the response frame, NACKing corrupted ones
func (t *Transport) receiveFrame(ctx context.Context, deadline time.Time) ([]byte, error) {
	retries := 0
	for {
		data, consumed, err := frame.Parse(t.rx)
		switch {
		case err == nil:
			t.rx = t.rx[consumed:]
			return data, nil
		case errors.Is(err, frame.ErrIncomplete):
			if err := t.fill(ctx, "receiveFrame", deadline); err != nil {
				return nil, err
			}
		case errors.Is(err, frame.ErrApplication):
			return nil, pn532.NewTransportError("receiveFrame", t.portName, err)
		default:
			t.rx = t.rx[:0]
			if retries >= maxFrameRetries {
				return nil, pn532.NewTransportError("receiveFrame", t.portName, pn532.ErrCommunicationFailed)
			}
			retries++
			if _, err := t.port.Write(frame.NackFrame); err != nil {
				return nil, pn532.NewTransportError("sendNack", t.portName, err)
			}
		}
	}
}

// Ensure Transport implements pn532.ContextTransport
var _ pn532.ContextTransport = (*Transport)(nil)
