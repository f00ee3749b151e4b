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

// Package mfrc522 adapts the periph MFRC522 driver to tagreport.TagReader.
package mfrc522

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/devices/v3/mfrc522/commands"
	"periph.io/x/host/v3"
)

// Device is the part of the chip the reader uses. HaltA sends the ISO14443A
// HLTA command to the selected card; Halt stops the chip itself.
type Device interface {
	ReadUID(timeout time.Duration) ([]byte, error)
	HaltA() error
	Halt() error
}

// transceiver is the raw access to the card that *commands.LowLevel gives.
type transceiver interface {
	DevWrite(address int, data byte) error
	CRC(data []byte) ([]byte, error)
	CardWrite(command byte, data []byte) ([]byte, int, error)
}

// chip adds HaltA to the periph driver.
type chip struct {
	*mfrc522.Dev
}

func (c chip) HaltA() error {
	return haltA(c.LowLevel)
}

// haltA puts the selected card in the HALT state, where it ignores REQA
// until it leaves the field. A halted card does not answer, so the
// transceive timing out is the expected outcome.
func haltA(t transceiver) error {
	if err := t.DevWrite(commands.BitFramingReg, 0x00); err != nil {
		return err
	}
	cmd := []byte{commands.PICC_HALT, 0x00}
	crc, err := t.CRC(cmd)
	if err != nil {
		return fmt.Errorf("HLTA crc: %w", err)
	}
	if len(crc) < 2 {
		return fmt.Errorf("HLTA crc: %d bytes", len(crc))
	}
	_, bits, err := t.CardWrite(commands.PCD_TRANSCEIVE, append(cmd, crc[:2]...))
	if err == nil && bits > 0 {
		return fmt.Errorf("card answered HLTA with %d bits", bits)
	}
	return nil
}

// Option configures a Reader.
type Option func(*Reader)

// WithTimeout bounds each ReadUID call.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the reader's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// Reader polls an MFRC522. It is not safe for concurrent use.
type Reader struct {
	dev     Device
	port    io.Closer
	log     *slog.Logger
	name    string
	timeout time.Duration
}

var _ tagreport.TagReader = (*Reader)(nil)

// Open initializes the chip on spiPort with the named reset and IRQ pins
// (e.g. "SPI0.0", "GPIO25", "GPIO24").
func Open(spiPort, resetPin, irqPin string, opts ...Option) (*Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	reset := gpioreg.ByName(resetPin)
	if reset == nil {
		return nil, fmt.Errorf("%w: reset pin %q not found", tagreport.ErrInvalidConfig, resetPin)
	}
	irq := gpioreg.ByName(irqPin)
	if irq == nil {
		return nil, fmt.Errorf("%w: irq pin %q not found", tagreport.ErrInvalidConfig, irqPin)
	}

	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", spiPort, err)
	}

	dev, err := mfrc522.NewSPI(port, reset, irq)
	if err != nil {
		_ = port.Close()
		return nil, tagreport.NewReaderError("init", spiPort, err)
	}

	r := New(chip{dev}, spiPort, opts...)
	r.port = port
	return r, nil
}

// New wraps an initialized device.
func New(dev Device, name string, opts ...Option) *Reader {
	r := &Reader{
		dev:     dev,
		name:    name,
		timeout: tagreport.DefaultPollTimeout,
		log:     slog.Default().With("component", "mfrc522"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Poll waits up to the configured timeout for a card and returns its UID.
//
// The driver reports an empty field as a timeout and does not tell it apart
// from other failures, so every read error wraps tagreport.ErrNoTag.
func (r *Reader) Poll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uid, err := r.dev.ReadUID(r.timeout)
	if err != nil {
		return nil, tagreport.NewReaderError("ReadUID", r.name, fmt.Errorf("%w: %w", tagreport.ErrNoTag, err))
	}
	if len(uid) == 0 {
		return nil, tagreport.ErrNoTag
	}
	return uid, nil
}

// Release halts the card just read so that it is not selected again while
// it stays on the reader.
func (r *Reader) Release(context.Context) error {
	if err := r.dev.HaltA(); err != nil {
		return tagreport.NewReaderError("HaltA", r.name, err)
	}
	return nil
}

// Close halts the chip and closes the SPI port.
func (r *Reader) Close() error {
	err := r.dev.Halt()
	if err != nil {
		err = tagreport.NewReaderError("Halt", r.name, err)
	}
	if r.port != nil {
		err = errors.Join(err, r.port.Close())
	}
	return err
}
