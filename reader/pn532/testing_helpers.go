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
	"sync"
	"time"
)

// MockTransport answers commands from per-command scripts. Responses are
// consumed in order; the last one for a command is repeated.
type MockTransport struct {
	responses map[byte][][]byte
	errors    map[byte]error
	transient map[byte]transientError
	calls     map[byte]int
	sent      [][]byte
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
	block     bool
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][][]byte),
		errors:    make(map[byte]error),
		transient: make(map[byte]transientError),
		calls:     make(map[byte]int),
	}
}

// NewInitializedMockTransport answers the commands Init sends.
func NewInitializedMockTransport() *MockTransport {
	m := NewMockTransport()
	m.SetResponse(cmdGetFirmwareVersion, []byte{0x03, 0x32, 0x01, 0x06, 0x07})
	m.SetResponse(cmdSAMConfiguration, []byte{0x15})
	m.SetResponse(cmdRFConfiguration, []byte{0x33})
	m.SetResponse(cmdInRelease, []byte{0x53, 0x00})
	m.SetResponse(cmdInListPassiveTarget, []byte{0x4B, 0x00})
	return m
}

// SetResponse replaces the script for cmd with responses.
func (m *MockTransport) SetResponse(cmd byte, responses ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = responses
	delete(m.errors, cmd)
}

// SetError makes every cmd fail with err.
func (m *MockTransport) SetError(cmd byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[cmd] = err
}

type transientError struct {
	err   error
	count int
}

// FailTimes makes the next n sends of cmd fail with err before the script
// for cmd applies again.
func (m *MockTransport) FailTimes(cmd byte, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transient[cmd] = transientError{err: err, count: n}
}

// BlockUntilCancel makes SendCommandContext wait for ctx.
func (m *MockTransport) BlockUntilCancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = true
}

// CallCount returns how many times cmd was sent.
func (m *MockTransport) CallCount(cmd byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[cmd]
}

// Sent returns every command sent, command code first.
func (m *MockTransport) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// Timeout returns the last timeout set.
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// SendCommand returns the next scripted response for cmd.
func (m *MockTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrTransportClosed
	}

	m.calls[cmd]++
	m.sent = append(m.sent, append([]byte{cmd}, args...))

	if te, ok := m.transient[cmd]; ok && te.count > 0 {
		te.count--
		m.transient[cmd] = te
		return nil, te.err
	}
	if err, ok := m.errors[cmd]; ok {
		return nil, err
	}

	script := m.responses[cmd]
	if len(script) == 0 {
		return nil, NewTransportError("SendCommand", "mock", ErrTransportTimeout)
	}
	resp := script[0]
	if len(script) > 1 {
		m.responses[cmd] = script[1:]
	}
	return append([]byte(nil), resp...), nil
}

// SendCommandContext is SendCommand, or waits for ctx when blocking.
func (m *MockTransport) SendCommandContext(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	block := m.block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.SendCommand(cmd, args)
}

// SetTimeout records timeout.
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected reports whether Close has not been called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ ContextTransport = (*MockTransport)(nil)
