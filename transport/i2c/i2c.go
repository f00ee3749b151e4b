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

// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/internal/frame"
	"github.com/ZaparooProject/go-tagreport/internal/transport"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the PN532's 7-bit I2C address.
	DefaultAddress = 0x24

	// Every read starts with a status byte; bit 0 set means ready.
	statusReady = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	readyPollDelay  = time.Millisecond
	maxFrameRetries = 3
)

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     *i2c.Dev
	closer  io.Closer
	busName string
	timeout time.Duration
	mu      sync.Mutex
}

// New opens busName (e.g. "/dev/i2c-1" or "1") through periph.
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	t := NewWithBus(bus, busName)
	t.closer = bus
	return t, nil
}

// NewWithBus creates a transport on an already open bus.
func NewWithBus(bus i2c.Bus, busName string) *Transport {
	return &Transport{
		dev:     &i2c.Dev{Bus: bus, Addr: DefaultAddress},
		busName: busName,
		timeout: tagreport.DefaultPollTimeout,
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

	if t.dev == nil {
		return nil, pn532.NewTransportError("SendCommand", t.busName, pn532.ErrTransportClosed)
	}

	if err := t.sendFrame(cmd, args); err != nil {
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

	t.dev = nil
	if t.closer == nil {
		return nil
	}
	closer := t.closer
	t.closer = nil
	if err := closer.Close(); err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

func (t *Transport) sendFrame(cmd byte, args []byte) error {
	frm, err := frame.Build(cmd, args)
	if err != nil {
		return pn532.NewTransportError("sendFrame", t.busName, err)
	}
	if err := t.dev.Tx(frm, nil); err != nil {
		return pn532.NewTransportError("sendFrame", t.busName, err)
	}
	return nil
}

// isReady reads the status byte
func (t *Transport) isReady() (bool, error) {
	var status [1]byte
	if err := t.dev.Tx(nil, status[:]); err != nil {
		return false, pn532.NewTransportError("checkReady", t.busName, err)
	}
	return status[0]&statusReady != 0, nil
}

func (t *Transport) waitReady(ctx context.Context, op string) error {
	_, err := transport.TimeoutRetry(ctx, t.timeout, readyPollDelay, op, t.busName,
		func() (struct{}, bool, error) {
			ready, err := t.isReady()
			return struct{}{}, !ready, err
		})
	return err
}

// read performs one read transaction and strips the status byte
func (t *Transport) read(op string, n int) ([]byte, error) {
	buf := make([]byte, 1+n)
	if err := t.dev.Tx(nil, buf); err != nil {
		return nil, pn532.NewTransportError(op, t.busName, err)
	}
	return buf[1:], nil
}

// waitAck waits for an ACK frame from the PN532
func (t *Transport) waitAck(ctx context.Context) error {
	if err := t.waitReady(ctx, "waitAck"); err != nil {
		if errors.Is(err, pn532.ErrTransportTimeout) {
			return pn532.NewTransportError("waitAck", t.busName, pn532.ErrNoACK)
		}
		return err
	}

	buf, err := t.read("waitAck", len(frame.AckFrame))
	if err != nil {
		return err
	}
	if !frame.IsAck(buf) {
		return pn532.NewTransportError("waitAck", t.busName, pn532.ErrNoACK)
	}
	return nil
}

// receiveFrame reads a response frame, NACKing corrupted ones
func (t *Transport) receiveFrame(ctx context.Context) ([]byte, error) {
	return transport.WithRetry(ctx, transport.RetryConfig{
		Description: "receiveFrame",
		Port:        t.busName,
		MaxRetries:  maxFrameRetries,
		OnRetry:     t.sendNack,
	}, func() ([]byte, bool, error) {
		if err := t.waitReady(ctx, "receiveFrame"); err != nil {
			return nil, false, err
		}

		buf, err := t.read("receiveFrame", frame.MaxDataLength+frame.Overhead)
		if err != nil {
			return nil, false, err
		}

		data, _, err := frame.Parse(buf)
		switch {
		case err == nil:
			return data, false, nil
		case errors.Is(err, frame.ErrApplication):
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName, err)
		default:
			return nil, true, nil
		}
	})
}

func (t *Transport) sendNack() error {
	if err := t.dev.Tx(frame.NackFrame, nil); err != nil {
		return pn532.NewTransportError("sendNack", t.busName, err)
	}
	return nil
}

// Ensure Transport implements pn532.ContextTransport
var _ pn532.ContextTransport = (*Transport)(nil)
