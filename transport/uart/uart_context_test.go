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

package uart

import (
	"context"
	"errors"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-tagreport/internal/testing"
)

// TestUARTContextCancellation tests that UART transport
// returns immediately for an already cancelled context
func TestUARTContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	port := newFakePort()
	transport := NewWithPort(port, "fake")

	start := time.Now()
	_, err := transport.SendCommandContext(ctx, testutil.CmdGetFirmwareVersion, nil)
	elapsed := time.Since(start)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got: %v", err)
	}
	if elapsed > 10*time.Millisecond {
		t.Errorf("Operation took too long: %v, expected < 10ms for immediate cancellation", elapsed)
	}
	if len(port.writes()) != 0 {
		t.Error("Expected nothing written for a cancelled context")
	}
}

// TestUARTContextTimeoutDuringOperation tests that context timeout
// interrupts a wait that the transport timeout would let run longer
func TestUARTContextTimeoutDuringOperation(t *testing.T) {
	t.Parallel()

	port := newFakePort()
	port.sim.SetSilent(true)
	transport := NewWithPort(port, "fake")
	if err := transport.SetTimeout(5 * time.Second); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := transport.SendCommandContext(ctx, testutil.CmdGetFirmwareVersion, nil)
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded error, got: %v", err)
	}
	if elapsed < 40*time.Millisecond || elapsed > 250*time.Millisecond {
		t.Errorf("Operation timing unexpected: %v, expected ~50ms for context timeout", elapsed)
	}
}
