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

// Command readtag waits for one tag and prints its identifier. It is meant
// for checking reader wiring before running tagreportd.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-tagreport"
	"github.com/ZaparooProject/go-tagreport/detection"
	"github.com/ZaparooProject/go-tagreport/reader/pn532"
	"github.com/ZaparooProject/go-tagreport/transport/i2c"
	"github.com/ZaparooProject/go-tagreport/transport/spi"
	"github.com/ZaparooProject/go-tagreport/transport/uart"
)

type config struct {
	transport    *string
	devicePath   *string
	timeout      *time.Duration
	pollInterval *time.Duration
}

func parseFlags() *config {
	cfg := &config{
		transport: flag.String("transport", "uart", "PN532 transport: i2c, spi or uart"),
		devicePath: flag.String("device", "",
			"Bus, port or serial device path (e.g. /dev/i2c-1, SPI0.0, /dev/ttyUSB0). Leave empty for auto-detection."),
		timeout: flag.Duration("timeout", 30*time.Second, "Timeout for tag detection"),
		pollInterval: flag.Duration("poll-interval", 100*time.Millisecond,
			"Polling interval for tag detection"),
	}
	flag.Parse()
	return cfg
}

// newTransport creates a new transport from a device path.
func newTransport(kind, path string) (pn532.Transport, error) {
	switch kind {
	case "i2c":
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	case "spi":
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	case "uart":
		transport, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", kind)
	}
}

func resolvePath(ctx context.Context, cfg *config) (string, error) {
	if *cfg.devicePath != "" {
		_, _ = fmt.Printf("Opening device: %s\n", *cfg.devicePath)
		return *cfg.devicePath, nil
	}

	_, _ = fmt.Println("Auto-detecting PN532 devices...")
	c, err := detection.First(ctx, *cfg.transport, detection.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("auto-detection failed: %w", err)
	}
	_, _ = fmt.Printf("Found %s\n", c)
	return c.Path, nil
}

func connectToDevice(ctx context.Context, cfg *config) (*pn532.Reader, error) {
	path, err := resolvePath(ctx, cfg)
	if err != nil {
		return nil, err
	}

	transport, err := newTransport(*cfg.transport, path)
	if err != nil {
		return nil, err
	}

	reader, err := pn532.New(transport)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}

	if err := reader.Init(ctx); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to initialize PN532: %w", err)
	}

	// Show firmware version
	if fw := reader.Firmware(); fw != nil {
		_, _ = fmt.Printf("PN532 Firmware: %s\n", fw)
	}
	return reader, nil
}

func waitForTag(ctx context.Context, reader *pn532.Reader, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		uid, err := reader.Poll(ctx)
		if err == nil {
			_ = reader.Release(context.WithoutCancel(ctx))
			return tagreport.FormatUID(uid), nil
		}
		if !tagreport.IsNoTag(err) && ctx.Err() == nil {
			_, _ = fmt.Fprintf(os.Stderr, "poll: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), *cfg.timeout)
	defer cancel()

	reader, err := connectToDevice(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to connect to device: %v\n", err)
		return
	}
	defer func() { _ = reader.Close() }()

	_, _ = fmt.Printf("Waiting for tag (timeout: %s, poll interval: %s)...\n", *cfg.timeout, *cfg.pollInterval)

	id, err := waitForTag(ctx, reader, *cfg.pollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_, _ = fmt.Printf("timeout: no tag detected within %s\n", *cfg.timeout)
			return
		}
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return
	}
	_, _ = fmt.Printf("RFID: %s\n", id)
}
