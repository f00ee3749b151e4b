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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZaparooProject/go-tagreport"
)

const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52

	// SAM normal mode, 50ms*20 virtual card timeout, use IRQ
	samModeNormal = 0x01
	samTimeout    = 0x14
	samUseIRQ     = 0x01

	// RFConfiguration item 5: MxRtyATR, MxRtyPSL, MxRtyPassiveActivation
	rfItemMaxRetries = 0x05

	// InListPassiveTarget: one target, 106 kbps type A
	brTyISO14443A = 0x00
	maxTargets    = 0x01

	// InRelease target 0 releases every target
	releaseAll = 0x00

	// a PN532 that has just powered up can miss its first frame
	firmwareAttempts = 3
)

// ErrUnexpectedResponse indicates a response code or length the reader
// could not interpret.
var ErrUnexpectedResponse = errors.New("unexpected response")

// FirmwareVersion is the answer to GetFirmwareVersion.
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", f.IC, f.Version, f.Revision)
}

// Config holds reader options.
type Config struct {
	// PassiveRetries is MxRtyPassiveActivation: how many times the chip
	// retries activation before InListPassiveTarget returns empty. 0xFF
	// means forever and would make Poll block until a tag arrives.
	PassiveRetries byte
	// Timeout bounds each command on the transport.
	Timeout time.Duration
}

// DefaultConfig returns default reader configuration
func DefaultConfig() *Config {
	return &Config{
		PassiveRetries: 0x02,
		Timeout:        tagreport.DefaultPollTimeout,
	}
}

// Option configures a Reader.
type Option func(*Reader) error

// WithConfig replaces the reader configuration.
func WithConfig(config *Config) Option {
	return func(r *Reader) error {
		if config == nil {
			return fmt.Errorf("%w: nil reader config", tagreport.ErrInvalidConfig)
		}
		if config.PassiveRetries == 0xFF {
			return fmt.Errorf("%w: unbounded passive retries would block polling", tagreport.ErrInvalidConfig)
		}
		r.config = config
		return nil
	}
}

// WithLogger sets the reader's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) error {
		if l != nil {
			r.log = l
		}
		return nil
	}
}

// Reader polls a PN532 for ISO14443A tags. It implements
// tagreport.TagReader and is not safe for concurrent use.
type Reader struct {
	transport Transport
	config    *Config
	firmware  *FirmwareVersion
	log       *slog.Logger
	name      string
}

var _ tagreport.TagReader = (*Reader)(nil)

// New creates a Reader over transport. Call Init before polling.
func New(transport Transport, opts ...Option) (*Reader, error) {
	if transport == nil {
		return nil, errors.New("transport cannot be nil")
	}

	r := &Reader{
		transport: transport,
		config:    DefaultConfig(),
		log:       slog.Default().With("component", "pn532"),
		name:      string(transport.Type()),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if err := transport.SetTimeout(r.config.Timeout); err != nil {
		return nil, fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return r, nil
}

// Init verifies the chip answers, puts the SAM in normal mode and bounds
// passive activation retries so that Poll returns promptly.
func (r *Reader) Init(ctx context.Context) error {
	var fw *FirmwareVersion
	var err error
	for attempt := 1; attempt <= firmwareAttempts; attempt++ {
		fw, err = r.GetFirmwareVersion(ctx)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			break
		}
		r.log.Debug("firmware request failed", "attempt", attempt, "error", err)
	}
	if err != nil {
		return err
	}
	r.firmware = fw
	r.log.Debug("firmware", "version", fw.String(), "support", fmt.Sprintf("0x%02X", fw.Support))

	if _, err := r.command(ctx, "SAMConfiguration", cmdSAMConfiguration,
		[]byte{samModeNormal, samTimeout, samUseIRQ}, 1); err != nil {
		return err
	}

	if _, err := r.command(ctx, "RFConfiguration", cmdRFConfiguration,
		[]byte{rfItemMaxRetries, 0xFF, 0x01, r.config.PassiveRetries}, 1); err != nil {
		return err
	}

	return nil
}

// GetFirmwareVersion asks the chip for its IC and firmware revision.
func (r *Reader) GetFirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	resp, err := r.command(ctx, "GetFirmwareVersion", cmdGetFirmwareVersion, nil, 5)
	if err != nil {
		return nil, err
	}
	return &FirmwareVersion{IC: resp[1], Version: resp[2], Revision: resp[3], Support: resp[4]}, nil
}

// Firmware returns the version read by Init, or nil.
func (r *Reader) Firmware() *FirmwareVersion {
	return r.firmware
}

// Poll lists at most one passive ISO14443A target and returns its UID.
// It returns an error wrapping tagreport.ErrNoTag when the field is empty.
func (r *Reader) Poll(ctx context.Context) ([]byte, error) {
	resp, err := r.command(ctx, "InListPassiveTarget", cmdInListPassiveTarget,
		[]byte{maxTargets, brTyISO14443A}, 2)
	if err != nil {
		return nil, err
	}

	if resp[1] == 0 {
		return nil, tagreport.ErrNoTag
	}

	// Tg, SENS_RES(2), SEL_RES, NFCIDLength, NFCID...
	const uidLenOffset = 6
	if len(resp) <= uidLenOffset {
		return nil, r.fail("InListPassiveTarget", fmt.Errorf("%w: %d byte target data", ErrUnexpectedResponse, len(resp)))
	}
	uidLen := int(resp[uidLenOffset])
	if uidLen == 0 || len(resp) < uidLenOffset+1+uidLen {
		return nil, r.fail("InListPassiveTarget", fmt.Errorf("%w: uid length %d", ErrUnexpectedResponse, uidLen))
	}

	uid := make([]byte, uidLen)
	copy(uid, resp[uidLenOffset+1:])
	return uid, nil
}

// Release deselects every listed target so the next poll starts clean.
func (r *Reader) Release(ctx context.Context) error {
	resp, err := r.command(ctx, "InRelease", cmdInRelease, []byte{releaseAll}, 2)
	if err != nil {
		return err
	}
	if status := resp[1] & 0x3F; status != 0 {
		return r.fail("InRelease", fmt.Errorf("status 0x%02X", status))
	}
	return nil
}

// Close closes the transport.
func (r *Reader) Close() error {
	if err := r.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// command sends cmd and checks the response code and minimum length.
func (r *Reader) command(ctx context.Context, op string, cmd byte, args []byte, minLen int) ([]byte, error) {
	resp, err := sendContext(ctx, r.transport, cmd, args)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if len(resp) < minLen || resp[0] != cmd+1 {
		return nil, r.fail(op, fmt.Errorf("%w: % X", ErrUnexpectedResponse, resp))
	}
	return resp, nil
}

func (r *Reader) fail(op string, err error) error {
	return tagreport.NewReaderError(op, r.name, err)
}
